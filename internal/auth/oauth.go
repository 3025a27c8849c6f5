// Package auth holds the OAuth consent bootstrap (authorization URL and code
// exchange) and the caller-side credential store. Neither is part of an
// adapter's runtime lifecycle.
package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/jun/cloudbridge/internal/adapter"
	"github.com/jun/cloudbridge/internal/model"
)

// DriveFileScope grants access only to files created or opened by the app.
const DriveFileScope = "https://www.googleapis.com/auth/drive.file"

// DefaultScopes are requested when a ClientConfig names none.
var DefaultScopes = []string{DriveFileScope}

// OAuthConfig builds an oauth2.Config from a client registration.
// Empty endpoints fall back to Google's. Client credentials are sent in the
// token request body, which is what Google's token endpoint expects.
func OAuthConfig(cfg model.ClientConfig, redirectURI string) *oauth2.Config {
	endpoint := google.Endpoint
	if cfg.AuthURI != "" {
		endpoint.AuthURL = cfg.AuthURI
	}
	if cfg.TokenURI != "" {
		endpoint.TokenURL = cfg.TokenURI
	}
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes:       append([]string(nil), scopes...),
		Endpoint:     endpoint,
	}
}

// BuildAuthorizationURL returns the consent URL the user is sent to.
// It asks for offline access so a refresh token is issued, and forces the
// consent prompt so one is issued again on repeat authorizations. state is
// echoed back by the authorization server; an empty state is omitted.
func BuildAuthorizationURL(cfg model.ClientConfig, redirectURI, state string) string {
	return OAuthConfig(cfg, redirectURI).AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	)
}

// ExchangeCodeForBundle trades a one-time authorization code for the initial
// CredentialBundle. There is no retry; any failure is an ErrAuthentication.
func ExchangeCodeForBundle(ctx context.Context, cfg model.ClientConfig, redirectURI, code string) (*model.CredentialBundle, error) {
	oauthCfg := OAuthConfig(cfg, redirectURI)

	tok, err := oauthCfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to exchange authorization code: %v", adapter.ErrAuthentication, err)
	}

	bundle := BundleFromToken(tok, oauthCfg)
	return &bundle, nil
}

// BundleFromToken converts an oauth2 token into a CredentialBundle carrying
// the client registration needed to refresh it later.
func BundleFromToken(tok *oauth2.Token, cfg *oauth2.Config) model.CredentialBundle {
	return model.CredentialBundle{
		Token:        tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenURI:     cfg.Endpoint.TokenURL,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       GrantedScopes(tok, cfg.Scopes),
		Expiry:       tok.Expiry,
	}
}

// GrantedScopes returns the scopes reported in the token response, or
// fallback when the server did not report any.
func GrantedScopes(tok *oauth2.Token, fallback []string) []string {
	if s, ok := tok.Extra("scope").(string); ok && s != "" {
		return strings.Fields(s)
	}
	return append([]string(nil), fallback...)
}

// ParseClientSecrets reads a client registration from a Google Cloud Console
// client-secrets JSON file ("web" or "installed" layout).
func ParseClientSecrets(data []byte, scopes ...string) (*model.ClientConfig, error) {
	c, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid client secrets: %v", adapter.ErrConfiguration, err)
	}

	cfg := &model.ClientConfig{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		AuthURI:      c.Endpoint.AuthURL,
		TokenURI:     c.Endpoint.TokenURL,
		Scopes:       c.Scopes,
	}
	if c.RedirectURL != "" {
		cfg.RedirectURIs = []string{c.RedirectURL}
	}
	return cfg, nil
}

// NewState returns a random anti-CSRF state token.
func NewState() string {
	return uuid.NewString()
}
