package googledrive

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/jun/cloudbridge/internal/adapter"
	"github.com/jun/cloudbridge/internal/model"
)

// DefaultChunkSize is the download range and upload chunk size.
const DefaultChunkSize int64 = 100 << 20

type options struct {
	httpClient *http.Client
	endpoint   string
	logger     *slog.Logger
	chunkSize  int64
	progress   adapter.ProgressFunc
	now        func() time.Time
	onRefresh  func(model.CredentialBundle)
}

// Option configures a DriveAdapter.
type Option func(*options)

// WithHTTPClient sets the client used for Drive and token endpoint calls.
// Authorization headers are added on top of its transport.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithEndpoint overrides the Drive API base URL, e.g. "http://127.0.0.1:8080/drive/v3/".
func WithEndpoint(endpoint string) Option {
	return func(o *options) { o.endpoint = endpoint }
}

// WithLogger sets the logger. A nil logger means slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithChunkSize sets the download range size and the upload chunk size.
// Non-positive values are ignored.
func WithChunkSize(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.chunkSize = n
		}
	}
}

// WithProgress registers an observer for transfer progress.
func WithProgress(fn adapter.ProgressFunc) Option {
	return func(o *options) { o.progress = fn }
}

// WithClock replaces time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithCredentialsObserver is called with the new bundle after every
// successful token refresh.
func WithCredentialsObserver(fn func(model.CredentialBundle)) Option {
	return func(o *options) { o.onRefresh = fn }
}

func buildOptions(opts []Option) options {
	o := options{
		httpClient: http.DefaultClient,
		logger:     slog.Default(),
		chunkSize:  DefaultChunkSize,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.httpClient == nil {
		o.httpClient = http.DefaultClient
	}
	return o
}
