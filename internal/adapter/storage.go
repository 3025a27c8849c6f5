package adapter

import "context"

// DefaultMIMEType is used when an upload does not declare a content type.
const DefaultMIMEType = "application/octet-stream"

// ProgressFunc observes the fraction of a transfer completed so far.
// Values are in [0, 1], never decrease within one transfer, and 1.0 is
// reported exactly once, when the transfer completes.
type ProgressFunc func(progress float64)

// Provider is the contract every storage backend adapter satisfies.
// Calling code depends only on this interface, never on a vendor SDK.
type Provider interface {
	// ReadFile returns the exact content addressed by locator.
	// Failures are reported as ErrTransfer (or ErrAuthentication when the
	// adapter's credentials can no longer be used).
	ReadFile(ctx context.Context, locator string) ([]byte, error)

	// UploadFile stores content under path and returns a locator usable by
	// ReadFile and DeleteFile. An empty mimeType means DefaultMIMEType.
	// No locator is returned unless the backend accepted the content.
	UploadFile(ctx context.Context, content []byte, path string, mimeType string) (string, error)

	// DeleteFile removes the object. Unlike the other operations it does not
	// return an error: not-found, permission and transport failures all
	// yield false.
	DeleteFile(ctx context.Context, locator string) bool
}

// ResolveMIMEType returns mimeType, or DefaultMIMEType when it is empty.
func ResolveMIMEType(mimeType string) string {
	if mimeType == "" {
		return DefaultMIMEType
	}
	return mimeType
}
