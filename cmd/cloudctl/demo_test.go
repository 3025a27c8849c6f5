package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jun/cloudbridge/internal/model"
	"github.com/jun/cloudbridge/internal/registry"
)

func TestRunDemo_WithoutCredentials(t *testing.T) {
	var out bytes.Buffer
	saved := false

	err := runDemo(context.Background(), &out, registry.Default(nil), nil, nil, func(model.CredentialBundle) error {
		saved = true
		return nil
	})
	require.NoError(t, err)

	s := out.String()
	assert.Contains(t, s, "Testing Provider: GDRIVE")
	assert.Contains(t, s, "missing credentials")
	assert.Contains(t, s, "File uploaded with ID: azure_blob_documents/test_file.txt")
	assert.Contains(t, s, "File content: Mock content from Azure Blob Storage")
	assert.Contains(t, s, "File uploaded with ID: sharepoint_item_documents_test_file.txt")
	assert.Contains(t, s, "File content: Mock content from SharePoint")
	assert.Contains(t, s, "File deleted: true")
	assert.Contains(t, s, "Correctly raised error: configuration error: Unknown provider: DROPBOX. Available providers: GDRIVE, AZURE, SHAREPOINT")
	assert.Contains(t, s, "Demo Complete!")
	assert.False(t, saved)
}

func TestRunDemo_AuthenticationFailureIsReported(t *testing.T) {
	var out bytes.Buffer
	creds := &model.CredentialBundle{Token: "t", Expiry: time.Now().Add(-time.Hour)}
	cfg := &model.ClientConfig{ClientID: "id", ClientSecret: "secret"}

	err := runDemo(context.Background(), &out, registry.Default(nil), creds, cfg, func(model.CredentialBundle) error {
		t.Fatal("nothing to save after a failed authentication")
		return nil
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "authentication failed")
}

func TestBundleFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")

	b, err := readBundle(path)
	require.NoError(t, err)
	assert.Nil(t, b)

	in := model.CredentialBundle{
		Token:        "at",
		RefreshToken: "rt",
		TokenURI:     "https://oauth2.googleapis.com/token",
		ClientID:     "id",
		ClientSecret: "secret",
		Scopes:       []string{"https://www.googleapis.com/auth/drive.file"},
		Expiry:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, writeBundle(path, in))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	out, err := readBundle(path)
	require.NoError(t, err)
	assert.Equal(t, in, *out)
}

func TestLoadClientConfig_Missing(t *testing.T) {
	cfg, err := loadClientConfig(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestAuthURLCmd(t *testing.T) {
	dir := t.TempDir()
	secrets := filepath.Join(dir, "client_secret.json")
	require.NoError(t, os.WriteFile(secrets, []byte(`{"installed":{
		"client_id":"cid","client_secret":"cs",
		"auth_uri":"https://accounts.google.com/o/oauth2/auth",
		"token_uri":"https://oauth2.googleapis.com/token",
		"redirect_uris":["http://localhost:8085"]}}`), 0o600))

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"auth-url", "--client-secrets", secrets, "--state", "xyz"})
	require.NoError(t, cmd.Execute())

	s := out.String()
	assert.Contains(t, s, "client_id=cid")
	assert.Contains(t, s, "state=xyz")
	assert.Contains(t, s, "access_type=offline")
	assert.Contains(t, s, "redirect_uri=http%3A%2F%2Flocalhost%3A8085")
}
