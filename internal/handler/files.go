package handler

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"slices"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jun/cloudbridge/internal/adapter"
	"github.com/jun/cloudbridge/internal/auth"
	"github.com/jun/cloudbridge/internal/lease"
	"github.com/jun/cloudbridge/internal/model"
	"github.com/jun/cloudbridge/internal/registry"
)

// FileHandler exposes the provider operations over HTTP.
type FileHandler struct {
	registry  *registry.Registry
	store     *auth.CredentialStore
	client    model.ClientConfig
	locker    lease.Locker
	jwtSecret string
	logger    *slog.Logger
}

// NewFileHandler creates a new FileHandler.
func NewFileHandler(reg *registry.Registry, store *auth.CredentialStore, client model.ClientConfig, locker lease.Locker, jwtSecret string, logger *slog.Logger) *FileHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileHandler{
		registry:  reg,
		store:     store,
		client:    client,
		locker:    locker,
		jwtSecret: jwtSecret,
		logger:    logger,
	}
}

// session is one provider bound to one user for one request.
type session struct {
	provider adapter.Provider
	userID   string
	initial  *model.CredentialBundle
	release  func()
}

// close releases the user's credential lease, if one is held.
func (s *session) close() {
	if s.release != nil {
		s.release()
	}
}

// open resolves the provider for the user. For OAuth-backed providers the
// user's credential lease is taken before the stored bundle is loaded and is
// held until close, so a refresh during construction or the operation is
// saved before another request for the same user loads the bundle.
func (h *FileHandler) open(ctx context.Context, userID, name string) (*session, error) {
	entry, ok := h.registry.Lookup(name)
	if !ok {
		// Let the registry produce the error listing the known names.
		_, err := h.registry.GetProvider(ctx, name, nil, nil)
		return nil, err
	}

	s := &session{userID: userID}
	if !entry.RequiresCredentials {
		p, err := h.registry.GetProvider(ctx, name, nil, nil)
		if err != nil {
			return nil, err
		}
		s.provider = p
		return s, nil
	}

	if h.locker != nil {
		release, err := lease.Hold(ctx, h.locker, userID)
		if err != nil {
			return nil, err
		}
		s.release = release
	}

	creds, err := h.store.Load(ctx, userID)
	if err != nil && !errors.Is(err, adapter.ErrNotFound) {
		s.close()
		return nil, err
	}

	p, err := h.registry.GetProvider(ctx, name, creds, &h.client)
	if err != nil {
		s.close()
		return nil, err
	}
	s.provider = p
	s.initial = creds

	// Construction may already have refreshed the token.
	h.persist(ctx, s)
	return s, nil
}

// persist saves the provider's credentials if they differ from what was loaded.
func (h *FileHandler) persist(ctx context.Context, s *session) {
	r, ok := s.provider.(adapter.CredentialReporter)
	if !ok || s.initial == nil {
		return
	}
	updated := r.UpdatedCredentials()
	if !credentialsChanged(*s.initial, updated) {
		return
	}
	if err := h.store.Save(ctx, s.userID, updated); err != nil {
		h.logger.Error("saving refreshed credentials failed", "user_id", s.userID, "error", err)
		return
	}
	s.initial = &updated
}

func credentialsChanged(a, b model.CredentialBundle) bool {
	return a.Token != b.Token ||
		a.RefreshToken != b.RefreshToken ||
		!a.Expiry.Equal(b.Expiry) ||
		!slices.Equal(a.Scopes, b.Scopes)
}

// ListProviders returns the registered provider names.
func (h *FileHandler) ListProviders(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return jsonResponse(http.StatusOK, map[string][]string{"providers": h.registry.Names()}), nil
}

// Upload stores the request body under ?path= and returns the locator.
func (h *FileHandler) Upload(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	userID, err := GetUserID(req, h.jwtSecret)
	if err != nil {
		return errorMessage(http.StatusUnauthorized, "Unauthorized"), nil
	}

	path := req.QueryStringParameters["path"]
	if path == "" {
		return errorMessage(http.StatusBadRequest, "Missing path"), nil
	}

	content := []byte(req.Body)
	if req.IsBase64Encoded {
		content, err = base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return errorMessage(http.StatusBadRequest, "Invalid base64 body"), nil
		}
	}

	s, err := h.open(ctx, userID, req.PathParameters["provider"])
	if err != nil {
		return errorResponse(err), nil
	}

	defer s.close()

	locator, err := s.provider.UploadFile(ctx, content, path, req.QueryStringParameters["mimeType"])
	h.persist(ctx, s)
	if err != nil {
		h.logger.Error("upload failed", "user_id", userID, "path", path, "error", err)
		return errorResponse(err), nil
	}

	return jsonResponse(http.StatusCreated, map[string]string{"locator": locator}), nil
}

// Read returns the content addressed by ?locator=, base64 encoded for API Gateway.
func (h *FileHandler) Read(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	userID, err := GetUserID(req, h.jwtSecret)
	if err != nil {
		return errorMessage(http.StatusUnauthorized, "Unauthorized"), nil
	}

	locator := req.QueryStringParameters["locator"]
	if locator == "" {
		return errorMessage(http.StatusBadRequest, "Missing locator"), nil
	}

	s, err := h.open(ctx, userID, req.PathParameters["provider"])
	if err != nil {
		return errorResponse(err), nil
	}

	defer s.close()

	data, err := s.provider.ReadFile(ctx, locator)
	h.persist(ctx, s)
	if err != nil {
		h.logger.Error("read failed", "user_id", userID, "locator", locator, "error", err)
		return errorResponse(err), nil
	}

	return events.APIGatewayProxyResponse{
		StatusCode:      http.StatusOK,
		Body:            base64.StdEncoding.EncodeToString(data),
		IsBase64Encoded: true,
		Headers: map[string]string{
			"Content-Type": adapter.DefaultMIMEType,
		},
	}, nil
}

// Delete removes the object addressed by ?locator=. A failed delete is
// reported in the body, not as an error status.
func (h *FileHandler) Delete(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	userID, err := GetUserID(req, h.jwtSecret)
	if err != nil {
		return errorMessage(http.StatusUnauthorized, "Unauthorized"), nil
	}

	locator := req.QueryStringParameters["locator"]
	if locator == "" {
		return errorMessage(http.StatusBadRequest, "Missing locator"), nil
	}

	s, err := h.open(ctx, userID, req.PathParameters["provider"])
	if err != nil {
		return errorResponse(err), nil
	}

	defer s.close()

	deleted := s.provider.DeleteFile(ctx, locator)
	h.persist(ctx, s)

	return jsonResponse(http.StatusOK, map[string]bool{"deleted": deleted}), nil
}
