// Package registry resolves provider names to adapter constructors.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jun/cloudbridge/internal/adapter"
	"github.com/jun/cloudbridge/internal/adapter/azureblob"
	"github.com/jun/cloudbridge/internal/adapter/googledrive"
	"github.com/jun/cloudbridge/internal/adapter/sharepoint"
	"github.com/jun/cloudbridge/internal/model"
)

// Constructor builds a fresh adapter. creds and cfg may be nil.
type Constructor func(ctx context.Context, creds *model.CredentialBundle, cfg *model.ClientConfig) (adapter.Provider, error)

// Entry binds a provider name to its constructor.
type Entry struct {
	Name string
	// RequiresCredentials marks OAuth-backed providers that cannot be
	// built without both a CredentialBundle and a ClientConfig.
	RequiresCredentials bool
	New                 Constructor
}

// Registry maps provider names to constructors in a fixed order.
// It holds no adapter instances.
type Registry struct {
	entries []Entry
	index   map[string]int
}

// NewRegistry creates a Registry. Names are matched case-insensitively;
// a later entry with the same name replaces an earlier one in place.
func NewRegistry(entries ...Entry) *Registry {
	r := &Registry{index: make(map[string]int)}
	for _, e := range entries {
		e.Name = strings.ToUpper(e.Name)
		if i, ok := r.index[e.Name]; ok {
			r.entries[i] = e
			continue
		}
		r.index[e.Name] = len(r.entries)
		r.entries = append(r.entries, e)
	}
	return r
}

// Default returns the registry of built-in providers: GDRIVE, AZURE, SHAREPOINT.
func Default(logger *slog.Logger, driveOpts ...googledrive.Option) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	driveOpts = append([]googledrive.Option{googledrive.WithLogger(logger)}, driveOpts...)

	return NewRegistry(
		Entry{
			Name:                googledrive.Name,
			RequiresCredentials: true,
			New: func(ctx context.Context, creds *model.CredentialBundle, cfg *model.ClientConfig) (adapter.Provider, error) {
				return googledrive.NewDriveAdapter(ctx, *creds, *cfg, driveOpts...)
			},
		},
		Entry{
			Name: azureblob.Name,
			New: func(context.Context, *model.CredentialBundle, *model.ClientConfig) (adapter.Provider, error) {
				return azureblob.NewBlobAdapter(logger), nil
			},
		},
		Entry{
			Name: sharepoint.Name,
			New: func(context.Context, *model.CredentialBundle, *model.ClientConfig) (adapter.Provider, error) {
				return sharepoint.NewDocLibraryAdapter(logger), nil
			},
		},
	)
}

// Names returns the registered provider names in declaration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.Name
	}
	return names
}

// Lookup returns the entry registered under name, matched case-insensitively.
func (r *Registry) Lookup(name string) (Entry, bool) {
	i, ok := r.index[strings.ToUpper(name)]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}

// GetProvider builds a new adapter for name.
// Unknown names yield ErrConfiguration; an OAuth-backed provider requested
// without creds or cfg yields ErrMissingCredentials before any network call.
func (r *Registry) GetProvider(ctx context.Context, name string, creds *model.CredentialBundle, cfg *model.ClientConfig) (adapter.Provider, error) {
	key := strings.ToUpper(name)
	i, ok := r.index[key]
	if !ok {
		return nil, fmt.Errorf("%w: Unknown provider: %s. Available providers: %s",
			adapter.ErrConfiguration, key, strings.Join(r.Names(), ", "))
	}

	e := r.entries[i]
	if e.RequiresCredentials && (creds == nil || cfg == nil) {
		return nil, fmt.Errorf("%w: provider %s requires credentials and client configuration",
			adapter.ErrMissingCredentials, key)
	}

	p, err := e.New(ctx, creds, cfg)
	if err != nil {
		return nil, err
	}
	return p, nil
}
