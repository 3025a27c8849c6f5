// Package googledrive implements adapter.Provider on the Google Drive v3 API
// with per-user OAuth credentials.
package googledrive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/jun/cloudbridge/internal/adapter"
	"github.com/jun/cloudbridge/internal/auth"
	"github.com/jun/cloudbridge/internal/model"
)

// Name is the registry key of this provider.
const Name = "GDRIVE"

// expiryDelta treats a token as expired slightly early.
const expiryDelta = 10 * time.Second

// State is the adapter's authentication state.
type State int

const (
	// StateUnauthenticated is the state before the first token check.
	StateUnauthenticated State = iota
	// StateAuthenticated means the access token is usable.
	StateAuthenticated
	// StateRefreshing means a refresh round trip is in flight.
	StateRefreshing
	// StateFailed is terminal; every operation returns the stored error.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	case StateRefreshing:
		return "refreshing"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// DriveAdapter implements adapter.Provider for Google Drive.
// It is not safe for concurrent use; see lease.Hold.
type DriveAdapter struct {
	service *drive.Service
	oauth   *oauth2.Config
	bundle  model.CredentialBundle
	state   State
	failure error

	base      *http.Client
	logger    *slog.Logger
	chunkSize int64
	progress  adapter.ProgressFunc
	now       func() time.Time
	onRefresh func(model.CredentialBundle)
}

// NewDriveAdapter authenticates with creds and returns a ready adapter.
// An expired bundle is refreshed here; if that is impossible or fails the
// error is an ErrAuthentication and no adapter is returned.
func NewDriveAdapter(ctx context.Context, creds model.CredentialBundle, cfg model.ClientConfig, opts ...Option) (*DriveAdapter, error) {
	o := buildOptions(opts)

	d := &DriveAdapter{
		oauth:     auth.OAuthConfig(refreshConfig(creds, cfg), ""),
		bundle:    creds.Clone(),
		state:     StateUnauthenticated,
		base:      o.httpClient,
		logger:    o.logger.With("provider", Name),
		chunkSize: o.chunkSize,
		progress:  o.progress,
		now:       o.now,
		onRefresh: o.onRefresh,
	}

	if err := d.ensureAuthenticated(ctx); err != nil {
		return nil, err
	}

	client := &http.Client{
		Transport: &oauth2.Transport{
			Source: bundleSource{d},
			Base:   o.httpClient.Transport,
		},
		Timeout: o.httpClient.Timeout,
	}

	clientOpts := []option.ClientOption{option.WithHTTPClient(client)}
	if o.endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(o.endpoint))
	}
	srv, err := drive.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to retrieve Drive client: %v", adapter.ErrConfiguration, err)
	}
	d.service = srv

	return d, nil
}

// refreshConfig merges the client registration with the bundle's own
// token endpoint and client credentials; cfg wins where it is set.
func refreshConfig(creds model.CredentialBundle, cfg model.ClientConfig) model.ClientConfig {
	if cfg.TokenURI == "" {
		cfg.TokenURI = creds.TokenURI
	}
	if cfg.ClientID == "" {
		cfg.ClientID = creds.ClientID
	}
	if cfg.ClientSecret == "" {
		cfg.ClientSecret = creds.ClientSecret
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = creds.Scopes
	}
	return cfg
}

// bundleSource hands the current access token to oauth2.Transport.
type bundleSource struct {
	d *DriveAdapter
}

func (s bundleSource) Token() (*oauth2.Token, error) {
	if s.d.state == StateFailed {
		return nil, s.d.failure
	}
	return &oauth2.Token{AccessToken: s.d.bundle.Token, TokenType: "Bearer"}, nil
}

// State reports the current authentication state.
func (d *DriveAdapter) State() State {
	return d.state
}

// UpdatedCredentials returns a snapshot of the current, possibly refreshed, bundle.
func (d *DriveAdapter) UpdatedCredentials() model.CredentialBundle {
	return d.bundle.Clone()
}

func (d *DriveAdapter) expired() bool {
	if d.bundle.Token == "" {
		return true
	}
	if d.bundle.Expiry.IsZero() {
		return false
	}
	return !d.now().Before(d.bundle.Expiry.Add(-expiryDelta))
}

// ensureAuthenticated refreshes an expired bundle. A failed refresh is
// terminal: every later call returns the same error without a network call.
func (d *DriveAdapter) ensureAuthenticated(ctx context.Context) error {
	if d.state == StateFailed {
		return d.failure
	}
	if !d.expired() {
		d.state = StateAuthenticated
		return nil
	}
	if d.bundle.RefreshToken == "" {
		return d.fail(errors.New("access token expired and no refresh token is available"))
	}

	d.state = StateRefreshing
	d.logger.Info("refreshing access token")

	refreshCtx := context.WithValue(ctx, oauth2.HTTPClient, d.base)
	tok, err := d.oauth.TokenSource(refreshCtx, &oauth2.Token{RefreshToken: d.bundle.RefreshToken}).Token()
	if err != nil {
		return d.fail(err)
	}

	d.bundle.Token = tok.AccessToken
	d.bundle.Expiry = tok.Expiry
	if tok.RefreshToken != "" {
		d.bundle.RefreshToken = tok.RefreshToken
	}
	d.bundle.Scopes = auth.GrantedScopes(tok, d.bundle.Scopes)
	d.bundle.TokenURI = d.oauth.Endpoint.TokenURL
	d.bundle.ClientID = d.oauth.ClientID
	d.bundle.ClientSecret = d.oauth.ClientSecret
	d.state = StateAuthenticated

	if d.onRefresh != nil {
		d.onRefresh(d.bundle.Clone())
	}
	return nil
}

func (d *DriveAdapter) fail(cause error) error {
	d.state = StateFailed
	d.failure = fmt.Errorf("%w: %v", adapter.ErrAuthentication, cause)
	d.logger.Error("authentication failed", "error", cause)
	return d.failure
}

// ReadFile downloads the file with the given ID in ranged chunks.
func (d *DriveAdapter) ReadFile(ctx context.Context, fileID string) ([]byte, error) {
	if err := d.ensureAuthenticated(ctx); err != nil {
		return nil, err
	}

	src := &rangeDownloader{
		files:     d.service.Files,
		fileID:    fileID,
		chunkSize: d.chunkSize,
	}
	data, err := drainChunks(ctx, src, d.progress)
	if err != nil {
		d.logger.Error("download failed", "file_id", fileID, "error", err)
		return nil, fmt.Errorf("%w: unable to download file %s: %v", adapter.ErrTransfer, fileID, err)
	}

	d.logger.Info("downloaded file", "file_id", fileID, "bytes", len(data))
	return data, nil
}

// UploadFile creates a new file named path and returns its ID.
// The content always goes out in one resumable upload session.
func (d *DriveAdapter) UploadFile(ctx context.Context, content []byte, path string, mimeType string) (string, error) {
	if err := d.ensureAuthenticated(ctx); err != nil {
		return "", err
	}

	mimeType = adapter.ResolveMIMEType(mimeType)
	total := int64(len(content))
	tracker := &progressTracker{fn: d.progress}

	f := &drive.File{
		Name:     path,
		MimeType: mimeType,
	}

	res, err := d.resumableCreate(ctx, f, content, mimeType).
		ProgressUpdater(func(current, _ int64) {
			if total > 0 {
				tracker.update(float64(current) / float64(total))
			}
		}).
		SupportsAllDrives(true).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		d.logger.Error("upload failed", "path", path, "error", err)
		return "", fmt.Errorf("%w: unable to upload %s: %v", adapter.ErrTransfer, path, err)
	}
	if res.Id == "" {
		return "", fmt.Errorf("%w: upload of %s returned no file id", adapter.ErrTransfer, path)
	}

	tracker.finish()
	d.logger.Info("uploaded file", "path", path, "file_id", res.Id, "bytes", total)
	return res.Id, nil
}

// resumableCreate attaches content to a files.create call so that it is sent
// through a resumable session. Media sends content that fits in one chunk as
// a single multipart request, so such content goes through ResumableMedia.
func (d *DriveAdapter) resumableCreate(ctx context.Context, f *drive.File, content []byte, mimeType string) *drive.FilesCreateCall {
	call := d.service.Files.Create(f)
	if int64(len(content)) > uploadChunkSize(d.chunkSize) {
		return call.Media(bytes.NewReader(content),
			googleapi.ContentType(mimeType),
			googleapi.ChunkSize(int(d.chunkSize)),
		)
	}
	return call.ResumableMedia(ctx, bytes.NewReader(content), int64(len(content)), mimeType)
}

// uploadChunkSize is n rounded up to a multiple of googleapi.MinUploadChunkSize,
// the size googleapi.ChunkSize actually uses.
func uploadChunkSize(n int64) int64 {
	const step = googleapi.MinUploadChunkSize
	if rem := n % step; rem != 0 {
		n += step - rem
	}
	return n
}

// DeleteFile deletes a file by its ID. Any failure yields false.
func (d *DriveAdapter) DeleteFile(ctx context.Context, fileID string) bool {
	if err := d.ensureAuthenticated(ctx); err != nil {
		return false
	}

	if err := d.service.Files.Delete(fileID).SupportsAllDrives(true).Context(ctx).Do(); err != nil {
		if isNotFound(err) {
			d.logger.Warn("delete target not found", "file_id", fileID)
		} else {
			d.logger.Error("delete failed", "file_id", fileID, "error", err)
		}
		return false
	}

	d.logger.Info("deleted file", "file_id", fileID)
	return true
}

func isNotFound(err error) bool {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code == http.StatusNotFound
	}
	return false
}
