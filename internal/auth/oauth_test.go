package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jun/cloudbridge/internal/adapter"
	"github.com/jun/cloudbridge/internal/model"
)

func testClientConfig(tokenURI string) model.ClientConfig {
	return model.ClientConfig{
		ClientID:     "test-client-id",
		ClientSecret: "test-client-secret",
		AuthURI:      "https://accounts.example.com/o/oauth2/auth",
		TokenURI:     tokenURI,
	}
}

func TestBuildAuthorizationURL(t *testing.T) {
	cfg := testClientConfig("https://oauth2.example.com/token")

	raw := BuildAuthorizationURL(cfg, "http://localhost:8080/auth/callback", "test-state")

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "accounts.example.com", u.Host)

	q := u.Query()
	assert.Equal(t, "test-client-id", q.Get("client_id"))
	assert.Equal(t, "http://localhost:8080/auth/callback", q.Get("redirect_uri"))
	assert.Equal(t, "test-state", q.Get("state"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Equal(t, "true", q.Get("include_granted_scopes"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, DriveFileScope, q.Get("scope"))
}

func TestBuildAuthorizationURL_Deterministic(t *testing.T) {
	cfg := testClientConfig("https://oauth2.example.com/token")

	a := BuildAuthorizationURL(cfg, "http://localhost/cb", "s1")
	b := BuildAuthorizationURL(cfg, "http://localhost/cb", "s1")
	assert.Equal(t, a, b)
}

func TestBuildAuthorizationURL_NoState(t *testing.T) {
	cfg := testClientConfig("https://oauth2.example.com/token")

	u, err := url.Parse(BuildAuthorizationURL(cfg, "http://localhost/cb", ""))
	require.NoError(t, err)
	assert.False(t, u.Query().Has("state"))
}

func TestBuildAuthorizationURL_CustomScopes(t *testing.T) {
	cfg := testClientConfig("https://oauth2.example.com/token")
	cfg.Scopes = []string{DriveFileScope, "https://www.googleapis.com/auth/userinfo.email"}

	u, err := url.Parse(BuildAuthorizationURL(cfg, "http://localhost/cb", "s"))
	require.NoError(t, err)
	assert.Equal(t, DriveFileScope+" https://www.googleapis.com/auth/userinfo.email", u.Query().Get("scope"))
}

func TestOAuthConfig_DefaultsToGoogleEndpoints(t *testing.T) {
	c := OAuthConfig(model.ClientConfig{ClientID: "id"}, "")
	assert.Contains(t, c.Endpoint.AuthURL, "accounts.google.com")
	assert.Contains(t, c.Endpoint.TokenURL, "oauth2.googleapis.com")
	assert.Equal(t, DefaultScopes, c.Scopes)
}

func TestExchangeCodeForBundle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		assert.Equal(t, "test-client-id", r.PostForm.Get("client_id"))
		assert.Equal(t, "test-client-secret", r.PostForm.Get("client_secret"))
		assert.Equal(t, "http://localhost/cb", r.PostForm.Get("redirect_uri"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "access-123",
			"refresh_token": "refresh-456",
			"token_type":    "Bearer",
			"expires_in":    3600,
			"scope":         DriveFileScope,
		})
	}))
	defer srv.Close()

	before := time.Now()
	bundle, err := ExchangeCodeForBundle(context.Background(), testClientConfig(srv.URL), "http://localhost/cb", "the-code")
	require.NoError(t, err)

	assert.Equal(t, "access-123", bundle.Token)
	assert.Equal(t, "refresh-456", bundle.RefreshToken)
	assert.Equal(t, srv.URL, bundle.TokenURI)
	assert.Equal(t, "test-client-id", bundle.ClientID)
	assert.Equal(t, "test-client-secret", bundle.ClientSecret)
	assert.Equal(t, []string{DriveFileScope}, bundle.Scopes)
	assert.True(t, bundle.Expiry.After(before.Add(59*time.Minute)))
}

func TestExchangeCodeForBundle_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer srv.Close()

	bundle, err := ExchangeCodeForBundle(context.Background(), testClientConfig(srv.URL), "http://localhost/cb", "stale-code")
	require.Error(t, err)
	assert.Nil(t, bundle)
	assert.ErrorIs(t, err, adapter.ErrAuthentication)
}

func TestParseClientSecrets(t *testing.T) {
	data := []byte(`{"web":{
		"client_id":"cid.apps.googleusercontent.com",
		"client_secret":"csecret",
		"auth_uri":"https://accounts.google.com/o/oauth2/auth",
		"token_uri":"https://oauth2.googleapis.com/token",
		"redirect_uris":["http://localhost:8080/auth/callback"]
	}}`)

	cfg, err := ParseClientSecrets(data, DriveFileScope)
	require.NoError(t, err)
	assert.Equal(t, "cid.apps.googleusercontent.com", cfg.ClientID)
	assert.Equal(t, "csecret", cfg.ClientSecret)
	assert.Equal(t, "https://oauth2.googleapis.com/token", cfg.TokenURI)
	assert.Equal(t, []string{"http://localhost:8080/auth/callback"}, cfg.RedirectURIs)
	assert.Equal(t, []string{DriveFileScope}, cfg.Scopes)
}

func TestParseClientSecrets_Invalid(t *testing.T) {
	_, err := ParseClientSecrets([]byte(`{"unknown":{}}`))
	assert.ErrorIs(t, err, adapter.ErrConfiguration)
}

func TestNewState_Unique(t *testing.T) {
	assert.NotEqual(t, NewState(), NewState())
	assert.NotEmpty(t, NewState())
}
