package crypto

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
)

// contextKey names the KMS encryption-context entry that binds a ciphertext
// to the user whose credential it protects.
const contextKey = "user_id"

// Encryptor seals credential secrets before they are persisted.
// subject is bound to the ciphertext; decrypting with a different subject fails.
type Encryptor interface {
	Encrypt(ctx context.Context, plaintext, subject string) (string, error)
	Decrypt(ctx context.Context, ciphertext, subject string) (string, error)
}

// KMSClient is the subset of *kms.Client methods used by KMSService.
type KMSClient interface {
	Encrypt(ctx context.Context, params *kms.EncryptInput, optFns ...func(*kms.Options)) (*kms.EncryptOutput, error)
	Decrypt(ctx context.Context, params *kms.DecryptInput, optFns ...func(*kms.Options)) (*kms.DecryptOutput, error)
}

// KMSService implements Encryptor using AWS KMS.
type KMSService struct {
	client KMSClient
	keyID  string
}

// NewKMSService creates a new KMSService.
// keyID can be a key ID, key ARN, or alias name (e.g., "alias/cloudbridge-credentials").
func NewKMSService(client KMSClient, keyID string) *KMSService {
	return &KMSService{
		client: client,
		keyID:  keyID,
	}
}

// Encrypt seals plaintext under the configured key and returns base64 ciphertext.
// Empty plaintext is passed through so optional secrets stay empty.
func (s *KMSService) Encrypt(ctx context.Context, plaintext, subject string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	result, err := s.client.Encrypt(ctx, &kms.EncryptInput{
		KeyId:             aws.String(s.keyID),
		Plaintext:         []byte(plaintext),
		EncryptionContext: map[string]string{contextKey: subject},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encrypt secret: %w", err)
	}

	return base64.StdEncoding.EncodeToString(result.CiphertextBlob), nil
}

// Decrypt opens a ciphertext produced by Encrypt for the same subject.
func (s *KMSService) Decrypt(ctx context.Context, ciphertext, subject string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}

	decoded, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	result, err := s.client.Decrypt(ctx, &kms.DecryptInput{
		CiphertextBlob:    decoded,
		KeyId:             aws.String(s.keyID),
		EncryptionContext: map[string]string{contextKey: subject},
	})
	if err != nil {
		return "", fmt.Errorf("failed to decrypt secret: %w", err)
	}

	return string(result.Plaintext), nil
}
