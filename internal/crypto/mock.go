package crypto

import (
	"context"
	"fmt"
	"strings"
)

// MockEncryptor implements Encryptor for local development (no KMS required).
// Ciphertexts are readable: "mock:<subject>:<plaintext>".
type MockEncryptor struct{}

func NewMockEncryptor() *MockEncryptor {
	return &MockEncryptor{}
}

func (m *MockEncryptor) Encrypt(ctx context.Context, plaintext, subject string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	return "mock:" + subject + ":" + plaintext, nil
}

func (m *MockEncryptor) Decrypt(ctx context.Context, ciphertext, subject string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}
	prefix := "mock:" + subject + ":"
	if !strings.HasPrefix(ciphertext, prefix) {
		return "", fmt.Errorf("ciphertext not sealed for subject %q", subject)
	}
	return strings.TrimPrefix(ciphertext, prefix), nil
}
