package lease

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jun/cloudbridge/internal/model"
)

// DynamoAPI is the subset of *dynamodb.Client methods used by Manager.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// Manager implements Locker with DynamoDB conditional writes, so leases hold
// across processes. Expired items are reaped by the table's TTL.
type Manager struct {
	client      DynamoAPI
	tableName   string
	ttlDuration time.Duration
	now         func() time.Time
}

// NewManager creates a new Manager.
func NewManager(client DynamoAPI, tableName string) *Manager {
	return &Manager{
		client:      client,
		tableName:   tableName,
		ttlDuration: DefaultTTL,
		now:         time.Now,
	}
}

// Acquire writes the lease unless another owner holds an unexpired one.
func (m *Manager) Acquire(ctx context.Context, key, owner string) (*model.Lease, error) {
	now := m.now().Unix()

	l := model.Lease{
		Key:       key,
		Owner:     owner,
		ExpiresAt: now + int64(m.ttlDuration.Seconds()),
	}

	item, err := attributevalue.MarshalMap(l)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal lease: %w", err)
	}

	_, err = m.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(m.tableName),
		Item:      item,
		ConditionExpression: aws.String(
			"attribute_not_exists(lease_key) OR expires_at < :now OR #owner = :owner",
		),
		ExpressionAttributeNames: map[string]string{"#owner": "owner"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now":   &types.AttributeValueMemberN{Value: strconv.FormatInt(now, 10)},
			":owner": &types.AttributeValueMemberS{Value: owner},
		},
	})
	if err != nil {
		var condFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condFailed) {
			return nil, fmt.Errorf("%w: %s", ErrHeld, key)
		}
		return nil, fmt.Errorf("failed to acquire lease: %w", err)
	}

	return &l, nil
}

// Release deletes the lease if owner holds it. Releasing a lease that was
// already taken over after expiry is not an error.
func (m *Manager) Release(ctx context.Context, key, owner string) error {
	_, err := m.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(m.tableName),
		Key: map[string]types.AttributeValue{
			"lease_key": &types.AttributeValueMemberS{Value: key},
		},
		ConditionExpression:      aws.String("#owner = :owner"),
		ExpressionAttributeNames: map[string]string{"#owner": "owner"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":owner": &types.AttributeValueMemberS{Value: owner},
		},
	})
	if err != nil {
		var condFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condFailed) {
			return nil
		}
		return fmt.Errorf("failed to release lease: %w", err)
	}
	return nil
}
