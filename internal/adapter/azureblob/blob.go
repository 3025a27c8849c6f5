// Package azureblob is the key-based blob storage adapter. It holds no
// authentication state and answers deterministically; it is the reference
// implementation of adapter.Provider for blob-style backends.
package azureblob

import (
	"context"
	"log/slog"

	"github.com/jun/cloudbridge/internal/adapter"
)

// Name is the registry key of this provider.
const Name = "AZURE"

const (
	providerName = "azure_blob"

	// locatorPrefix is prepended to the upload path to form a locator.
	locatorPrefix = "azure_blob_"

	// placeholderContent is returned for every read, whatever the locator.
	placeholderContent = "Mock content from Azure Blob Storage"
)

// BlobAdapter implements adapter.Provider for Azure Blob Storage.
type BlobAdapter struct {
	logger *slog.Logger
}

var _ adapter.Provider = (*BlobAdapter)(nil)

// NewBlobAdapter creates a new BlobAdapter.
func NewBlobAdapter(logger *slog.Logger) *BlobAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &BlobAdapter{logger: logger.With(slog.String("provider", providerName))}
}

// ReadFile returns the placeholder payload. The locator is not consulted.
func (b *BlobAdapter) ReadFile(ctx context.Context, locator string) ([]byte, error) {
	b.logger.Info("reading blob", slog.String("locator", locator))
	return []byte(placeholderContent), nil
}

// UploadFile returns "azure_blob_" + path.
func (b *BlobAdapter) UploadFile(ctx context.Context, content []byte, path string, mimeType string) (string, error) {
	b.logger.Info("uploading blob",
		slog.String("path", path),
		slog.Int("bytes", len(content)),
		slog.String("mime_type", adapter.ResolveMIMEType(mimeType)),
	)
	return Locator(path), nil
}

// DeleteFile always succeeds.
func (b *BlobAdapter) DeleteFile(ctx context.Context, locator string) bool {
	b.logger.Info("deleting blob", slog.String("locator", locator))
	return true
}

// Locator synthesizes the locator for path.
func Locator(path string) string {
	return locatorPrefix + path
}
