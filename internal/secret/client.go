package secret

import (
	"context"
	"fmt"

	"github.com/jun/cloudbridge/internal/adapter"
	"github.com/jun/cloudbridge/internal/model"
)

// ServiceSecrets are the secrets the HTTP service needs at startup.
type ServiceSecrets struct {
	JWTSecret string
	Client    model.ClientConfig
}

// ResolveServiceSecrets fills the OAuth client registration and the JWT
// signing key. Fields already set in base are kept; the client ID is only
// looked up when base has none.
func ResolveServiceSecrets(ctx context.Context, r Resolver, base model.ClientConfig) (*ServiceSecrets, error) {
	names := []string{ParamJWTSecret}
	if base.ClientSecret == "" {
		names = append(names, ParamGoogleClientSecret)
	}
	if base.ClientID == "" {
		names = append(names, ParamGoogleClientID)
	}

	values, err := r.GetSecrets(ctx, names...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", adapter.ErrConfiguration, err)
	}

	cfg := base
	if cfg.ClientSecret == "" {
		cfg.ClientSecret = values[ParamGoogleClientSecret]
	}
	if cfg.ClientID == "" {
		cfg.ClientID = values[ParamGoogleClientID]
	}

	return &ServiceSecrets{
		JWTSecret: values[ParamJWTSecret],
		Client:    cfg,
	}, nil
}
