// Package sharepoint is the enterprise document-library adapter. Like the
// blob adapter it is stateless and deterministic.
package sharepoint

import (
	"context"
	"log/slog"
	"strings"

	"github.com/jun/cloudbridge/internal/adapter"
)

// Name is the registry key of this provider.
const Name = "SHAREPOINT"

const (
	providerName       = "sharepoint"
	locatorPrefix      = "sharepoint_item_"
	placeholderContent = "Mock content from SharePoint"
)

// DocLibraryAdapter implements adapter.Provider for SharePoint document libraries.
type DocLibraryAdapter struct {
	logger *slog.Logger
}

var _ adapter.Provider = (*DocLibraryAdapter)(nil)

// NewDocLibraryAdapter creates a new DocLibraryAdapter.
func NewDocLibraryAdapter(logger *slog.Logger) *DocLibraryAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocLibraryAdapter{logger: logger.With(slog.String("provider", providerName))}
}

// ReadFile returns the placeholder payload regardless of locator.
func (d *DocLibraryAdapter) ReadFile(ctx context.Context, locator string) ([]byte, error) {
	d.logger.Info("reading item", slog.String("locator", locator))
	return []byte(placeholderContent), nil
}

// UploadFile returns an item locator derived from path.
func (d *DocLibraryAdapter) UploadFile(ctx context.Context, content []byte, path string, mimeType string) (string, error) {
	d.logger.Info("uploading item",
		slog.String("path", path),
		slog.Int("bytes", len(content)),
		slog.String("mime_type", adapter.ResolveMIMEType(mimeType)),
	)
	return Locator(path), nil
}

// DeleteFile always succeeds.
func (d *DocLibraryAdapter) DeleteFile(ctx context.Context, locator string) bool {
	d.logger.Info("deleting item", slog.String("locator", locator))
	return true
}

// Locator prefixes path with "sharepoint_item_" and replaces every "/" with "_".
func Locator(path string) string {
	return locatorPrefix + strings.ReplaceAll(path, "/", "_")
}
