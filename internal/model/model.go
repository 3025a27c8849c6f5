package model

import "time"

// CredentialBundle is the OAuth token material for one user.
// JSON keys follow Google's authorized-user file format so bundles written by
// other Google tooling can be loaded unchanged.
type CredentialBundle struct {
	Token        string    `json:"token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenURI     string    `json:"token_uri"`
	ClientID     string    `json:"client_id"`
	ClientSecret string    `json:"client_secret"`
	Scopes       []string  `json:"scopes"`
	Expiry       time.Time `json:"expiry,omitzero"`
}

// Clone returns a deep copy so callers never share the Scopes backing array.
func (b CredentialBundle) Clone() CredentialBundle {
	if b.Scopes != nil {
		b.Scopes = append([]string(nil), b.Scopes...)
	}
	return b
}

// ClientConfig is the OAuth client registration used to build consent URLs and
// to exchange or refresh tokens.
type ClientConfig struct {
	ClientID     string   `json:"client_id" yaml:"client_id"`
	ClientSecret string   `json:"client_secret" yaml:"client_secret"`
	AuthURI      string   `json:"auth_uri" yaml:"auth_uri"`
	TokenURI     string   `json:"token_uri" yaml:"token_uri"`
	RedirectURIs []string `json:"redirect_uris,omitempty" yaml:"redirect_uris,omitempty"`
	Scopes       []string `json:"scopes,omitempty" yaml:"scopes,omitempty"`
}

// StoredCredentials is the persisted form of a CredentialBundle in DynamoDB.
// Secret fields are sealed before they reach this struct.
type StoredCredentials struct {
	UserID                string    `json:"user_id" dynamodbav:"user_id"`
	AccessToken           string    `json:"access_token" dynamodbav:"access_token"`
	EncryptedRefreshToken string    `json:"encrypted_refresh_token" dynamodbav:"encrypted_refresh_token"`
	EncryptedClientSecret string    `json:"encrypted_client_secret" dynamodbav:"encrypted_client_secret"`
	TokenURI              string    `json:"token_uri" dynamodbav:"token_uri"`
	ClientID              string    `json:"client_id" dynamodbav:"client_id"`
	Scopes                []string  `json:"scopes" dynamodbav:"scopes"`
	Expiry                time.Time `json:"expiry" dynamodbav:"expiry"`
	UpdatedAt             time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

// Lease is an exclusive hold on one credential set.
type Lease struct {
	Key       string `json:"lease_key" dynamodbav:"lease_key"`
	Owner     string `json:"owner" dynamodbav:"owner"`
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix timestamp)
}
