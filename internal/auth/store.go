package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jun/cloudbridge/internal/adapter"
	"github.com/jun/cloudbridge/internal/crypto"
	"github.com/jun/cloudbridge/internal/model"
)

// DynamoAPI is the subset of *dynamodb.Client methods used by CredentialStore.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// CredentialStore is the caller-owned home of the authoritative
// CredentialBundle for each user. Adapters never write here; callers save
// the adapter's UpdatedCredentials after each operation.
type CredentialStore struct {
	client    DynamoAPI
	tableName string
	encryptor crypto.Encryptor

	// In-memory fallback
	records map[string]model.StoredCredentials
	mu      sync.RWMutex
}

// NewCredentialStore creates a new CredentialStore.
// A nil client keeps records in memory.
func NewCredentialStore(client DynamoAPI, tableName string, encryptor crypto.Encryptor) *CredentialStore {
	return &CredentialStore{
		client:    client,
		tableName: tableName,
		encryptor: encryptor,
		records:   make(map[string]model.StoredCredentials),
	}
}

// Save seals the bundle's secrets and stores it for userID.
// A bundle without a refresh token keeps the one already stored, since
// token responses after the first consent usually omit it.
func (s *CredentialStore) Save(ctx context.Context, userID string, bundle model.CredentialBundle) error {
	var sealedRefresh string
	if bundle.RefreshToken != "" {
		enc, err := s.encryptor.Encrypt(ctx, bundle.RefreshToken, userID)
		if err != nil {
			return fmt.Errorf("failed to seal refresh token: %w", err)
		}
		sealedRefresh = enc
	} else if existing, err := s.get(ctx, userID); err == nil {
		sealedRefresh = existing.EncryptedRefreshToken
	}

	sealedSecret, err := s.encryptor.Encrypt(ctx, bundle.ClientSecret, userID)
	if err != nil {
		return fmt.Errorf("failed to seal client secret: %w", err)
	}

	record := model.StoredCredentials{
		UserID:                userID,
		AccessToken:           bundle.Token,
		EncryptedRefreshToken: sealedRefresh,
		EncryptedClientSecret: sealedSecret,
		TokenURI:              bundle.TokenURI,
		ClientID:              bundle.ClientID,
		Scopes:                append([]string(nil), bundle.Scopes...),
		Expiry:                bundle.Expiry,
		UpdatedAt:             time.Now(),
	}

	// In-memory fallback
	if s.client == nil {
		s.mu.Lock()
		s.records[userID] = record
		s.mu.Unlock()
		return nil
	}

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to save credentials to DynamoDB: %w", err)
	}

	return nil
}

// Load returns the stored bundle for userID with its secrets opened.
func (s *CredentialStore) Load(ctx context.Context, userID string) (*model.CredentialBundle, error) {
	record, err := s.get(ctx, userID)
	if err != nil {
		return nil, err
	}

	refresh, err := s.encryptor.Decrypt(ctx, record.EncryptedRefreshToken, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to open refresh token: %w", err)
	}
	secret, err := s.encryptor.Decrypt(ctx, record.EncryptedClientSecret, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to open client secret: %w", err)
	}

	return &model.CredentialBundle{
		Token:        record.AccessToken,
		RefreshToken: refresh,
		TokenURI:     record.TokenURI,
		ClientID:     record.ClientID,
		ClientSecret: secret,
		Scopes:       record.Scopes,
		Expiry:       record.Expiry,
	}, nil
}

// Delete removes the stored bundle for userID. Deleting a missing user is not an error.
func (s *CredentialStore) Delete(ctx context.Context, userID string) error {
	if s.client == nil {
		s.mu.Lock()
		delete(s.records, userID)
		s.mu.Unlock()
		return nil
	}

	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"user_id": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete credentials from DynamoDB: %w", err)
	}
	return nil
}

func (s *CredentialStore) get(ctx context.Context, userID string) (*model.StoredCredentials, error) {
	if s.client == nil {
		s.mu.RLock()
		r, ok := s.records[userID]
		s.mu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("%w: no credentials for user %q", adapter.ErrNotFound, userID)
		}
		return &r, nil
	}

	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"user_id": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get item from DynamoDB: %w", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("%w: no credentials for user %q", adapter.ErrNotFound, userID)
	}

	var record model.StoredCredentials
	if err := attributevalue.UnmarshalMap(out.Item, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credentials: %w", err)
	}
	return &record, nil
}
