package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jun/cloudbridge/internal/adapter"
	"github.com/jun/cloudbridge/internal/adapter/azureblob"
	"github.com/jun/cloudbridge/internal/adapter/googledrive"
	"github.com/jun/cloudbridge/internal/adapter/sharepoint"
	"github.com/jun/cloudbridge/internal/model"
)

func TestDefault_Names(t *testing.T) {
	r := Default(nil)
	assert.Equal(t, []string{"GDRIVE", "AZURE", "SHAREPOINT"}, r.Names())
}

func TestGetProvider_CaseInsensitive(t *testing.T) {
	r := Default(nil)
	ctx := context.Background()

	for _, name := range []string{"azure", "Azure", "AZURE"} {
		p, err := r.GetProvider(ctx, name, nil, nil)
		require.NoError(t, err, name)
		assert.IsType(t, &azureblob.BlobAdapter{}, p)
	}

	p, err := r.GetProvider(ctx, "sharepoint", nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &sharepoint.DocLibraryAdapter{}, p)
}

func TestGetProvider_UnknownListsRegisteredNames(t *testing.T) {
	r := Default(nil)

	p, err := r.GetProvider(context.Background(), "dropbox", nil, nil)
	assert.Nil(t, p)
	require.ErrorIs(t, err, adapter.ErrConfiguration)
	assert.Contains(t, err.Error(), "Unknown provider: DROPBOX. Available providers: GDRIVE, AZURE, SHAREPOINT")
}

func TestGetProvider_DriveRequiresCredentialsAndConfig(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := Default(nil, googledrive.WithHTTPClient(srv.Client()), googledrive.WithEndpoint(srv.URL+"/drive/v3/"))
	ctx := context.Background()
	creds := &model.CredentialBundle{Token: "t", TokenURI: srv.URL + "/token"}
	cfg := &model.ClientConfig{ClientID: "id", ClientSecret: "secret", TokenURI: srv.URL + "/token"}

	tests := []struct {
		name  string
		creds *model.CredentialBundle
		cfg   *model.ClientConfig
	}{
		{"both absent", nil, nil},
		{"config absent", creds, nil},
		{"credentials absent", nil, cfg},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := r.GetProvider(ctx, "gdrive", tt.creds, tt.cfg)
			assert.Nil(t, p)
			assert.ErrorIs(t, err, adapter.ErrMissingCredentials)
		})
	}
	assert.Equal(t, int32(0), hits.Load())
}

func TestGetProvider_DriveBuildsAuthenticatedAdapter(t *testing.T) {
	r := Default(nil)
	creds := &model.CredentialBundle{Token: "t", Expiry: time.Now().Add(time.Hour)}
	cfg := &model.ClientConfig{ClientID: "id", ClientSecret: "secret"}

	p, err := r.GetProvider(context.Background(), "GDRIVE", creds, cfg)
	require.NoError(t, err)

	d, ok := p.(*googledrive.DriveAdapter)
	require.True(t, ok)
	assert.Equal(t, googledrive.StateAuthenticated, d.State())

	_, ok = p.(adapter.CredentialReporter)
	assert.True(t, ok)
}

func TestGetProvider_DriveAuthenticationFailurePropagates(t *testing.T) {
	r := Default(nil)
	creds := &model.CredentialBundle{Token: "t", Expiry: time.Now().Add(-time.Hour)}
	cfg := &model.ClientConfig{ClientID: "id", ClientSecret: "secret"}

	p, err := r.GetProvider(context.Background(), "GDRIVE", creds, cfg)
	assert.Nil(t, p)
	assert.ErrorIs(t, err, adapter.ErrAuthentication)
}

func TestGetProvider_FreshInstances(t *testing.T) {
	r := Default(nil)
	ctx := context.Background()

	a, err := r.GetProvider(ctx, "AZURE", nil, nil)
	require.NoError(t, err)
	b, err := r.GetProvider(ctx, "AZURE", nil, nil)
	require.NoError(t, err)

	assert.NotSame(t, a, b)
}

func TestNewRegistry_ReplacesDuplicateInPlace(t *testing.T) {
	stub := func(context.Context, *model.CredentialBundle, *model.ClientConfig) (adapter.Provider, error) {
		return azureblob.NewBlobAdapter(nil), nil
	}
	r := NewRegistry(
		Entry{Name: "one", New: stub},
		Entry{Name: "two", New: stub},
		Entry{Name: "ONE", RequiresCredentials: true, New: stub},
	)

	assert.Equal(t, []string{"ONE", "TWO"}, r.Names())
	_, err := r.GetProvider(context.Background(), "one", nil, nil)
	assert.ErrorIs(t, err, adapter.ErrMissingCredentials)
}

func TestLookup(t *testing.T) {
	r := Default(nil)

	e, ok := r.Lookup("gdrive")
	require.True(t, ok)
	assert.Equal(t, "GDRIVE", e.Name)
	assert.True(t, e.RequiresCredentials)

	e, ok = r.Lookup("sharepoint")
	require.True(t, ok)
	assert.False(t, e.RequiresCredentials)

	_, ok = r.Lookup("dropbox")
	assert.False(t, ok)
}
