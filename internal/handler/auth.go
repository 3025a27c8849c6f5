package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"golang.org/x/oauth2"
	googleoauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/jun/cloudbridge/internal/auth"
	"github.com/jun/cloudbridge/internal/model"
)

const stateTTL = 10 * time.Minute

// UserInfo identifies the Google account behind an access token.
type UserInfo struct {
	ID    string
	Email string
}

// UserLookup resolves the account that granted accessToken.
type UserLookup func(ctx context.Context, accessToken string) (*UserInfo, error)

// GoogleUserLookup queries the Google userinfo endpoint. opts are appended
// after the token source, so tests can point it elsewhere.
func GoogleUserLookup(opts ...option.ClientOption) UserLookup {
	return func(ctx context.Context, accessToken string) (*UserInfo, error) {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
		svc, err := googleoauth2.NewService(ctx, append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)...)
		if err != nil {
			return nil, fmt.Errorf("failed to create oauth2 service: %w", err)
		}
		info, err := svc.Userinfo.Get().Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("failed to get user info: %w", err)
		}
		return &UserInfo{ID: info.Id, Email: info.Email}, nil
	}
}

// AuthHandler handles the OAuth consent flow and session cookies.
type AuthHandler struct {
	client      model.ClientConfig
	redirectURL string
	store       *auth.CredentialStore
	lookupUser  UserLookup
	jwtSecret   string
	frontendURL string
	devMode     bool
	logger      *slog.Logger
}

// AuthHandlerConfig holds the settings for NewAuthHandler.
type AuthHandlerConfig struct {
	Client      model.ClientConfig
	RedirectURL string
	JWTSecret   string
	FrontendURL string
	DevMode     bool
}

// NewAuthHandler creates a new AuthHandler. A nil lookup uses GoogleUserLookup.
func NewAuthHandler(cfg AuthHandlerConfig, store *auth.CredentialStore, lookup UserLookup, logger *slog.Logger) *AuthHandler {
	if lookup == nil {
		lookup = GoogleUserLookup()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		client:      cfg.Client,
		redirectURL: cfg.RedirectURL,
		store:       store,
		lookupUser:  lookup,
		jwtSecret:   cfg.JWTSecret,
		frontendURL: cfg.FrontendURL,
		devMode:     cfg.DevMode,
		logger:      logger,
	}
}

// Login redirects to the consent page with a fresh anti-CSRF state.
func (h *AuthHandler) Login(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	state := auth.NewState()
	url := auth.BuildAuthorizationURL(h.client, h.redirectURL, state)

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusFound,
		Headers: map[string]string{
			"Location": url,
		},
		MultiValueHeaders: map[string][]string{
			"Set-Cookie": {cookie(stateCookie, state, stateTTL, h.devMode)},
		},
	}, nil
}

// Callback exchanges the authorization code, stores the resulting bundle and
// starts a session.
func (h *AuthHandler) Callback(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	code := req.QueryStringParameters["code"]
	if code == "" {
		return errorMessage(http.StatusBadRequest, "Missing code"), nil
	}

	state := req.QueryStringParameters["state"]
	if state == "" || state != getCookie(req, stateCookie) {
		return errorMessage(http.StatusBadRequest, "Invalid state"), nil
	}

	bundle, err := auth.ExchangeCodeForBundle(ctx, h.client, h.redirectURL, code)
	if err != nil {
		h.logger.Error("code exchange failed", "error", err)
		return errorResponse(err), nil
	}

	user, err := h.lookupUser(ctx, bundle.Token)
	if err != nil {
		h.logger.Error("user lookup failed", "error", err)
		return errorMessage(http.StatusBadGateway, "Failed to get user info"), nil
	}

	if err := h.store.Save(ctx, user.ID, *bundle); err != nil {
		h.logger.Error("saving credentials failed", "user_id", user.ID, "error", err)
		return errorMessage(http.StatusInternalServerError, "Failed to save credentials"), nil
	}

	signed, err := IssueSessionToken(user.ID, user.Email, h.jwtSecret, time.Now())
	if err != nil {
		return errorMessage(http.StatusInternalServerError, "Failed to sign token"), nil
	}

	h.logger.Info("user authorized", "user_id", user.ID)
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusFound,
		Headers: map[string]string{
			"Location": fmt.Sprintf("%s/?success=true", h.frontendURL),
		},
		MultiValueHeaders: map[string][]string{
			"Set-Cookie": {
				cookie(sessionCookie, signed, sessionTTL, h.devMode),
				cookie(stateCookie, "", 0, h.devMode),
			},
		},
	}, nil
}

// Logout clears the session cookie. Stored credentials are kept so the next
// login does not need a new consent.
func (h *AuthHandler) Logout(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	resp := jsonResponse(http.StatusOK, map[string]bool{"success": true})
	resp.MultiValueHeaders = map[string][]string{
		"Set-Cookie": {cookie(sessionCookie, "", 0, h.devMode)},
	}
	return resp, nil
}

// Disconnect deletes the user's stored credentials and ends the session.
func (h *AuthHandler) Disconnect(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	userID, err := GetUserID(req, h.jwtSecret)
	if err != nil {
		return errorMessage(http.StatusUnauthorized, "Unauthorized"), nil
	}
	if err := h.store.Delete(ctx, userID); err != nil {
		h.logger.Error("deleting credentials failed", "user_id", userID, "error", err)
		return errorMessage(http.StatusInternalServerError, "Failed to delete credentials"), nil
	}
	return h.Logout(ctx, req)
}
