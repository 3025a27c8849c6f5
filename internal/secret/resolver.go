// Package secret provides an abstraction for retrieving secrets from
// different backends (SSM Parameter Store, environment variables).
package secret

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// Parameter names under the service's SSM path.
const (
	ParamJWTSecret          = "/cloudbridge/jwt-secret"
	ParamGoogleClientSecret = "/cloudbridge/google-client-secret"
	ParamGoogleClientID     = "/cloudbridge/google-client-id"
)

// maxBatch is the GetParameters limit per request.
const maxBatch = 10

// SSMClient is the subset of *ssm.Client methods used by SSMResolver.
type SSMClient interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
	GetParameters(ctx context.Context, params *ssm.GetParametersInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersOutput, error)
}

// Resolver retrieves secret values by name.
type Resolver interface {
	GetSecret(ctx context.Context, name string) (string, error)

	// GetSecrets resolves every name or fails naming the missing ones.
	GetSecrets(ctx context.Context, names ...string) (map[string]string, error)
}

// SSMResolver fetches secrets from AWS Systems Manager Parameter Store.
type SSMResolver struct {
	client SSMClient
}

// NewSSMResolver returns a Resolver backed by SSM Parameter Store.
func NewSSMResolver(client SSMClient) Resolver {
	return &SSMResolver{client: client}
}

// GetSecret retrieves a SecureString parameter from SSM with decryption.
func (r *SSMResolver) GetSecret(ctx context.Context, name string) (string, error) {
	out, err := r.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("ssm get parameter %q: %w", name, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("ssm parameter %q has no value", name)
	}
	return *out.Parameter.Value, nil
}

// GetSecrets fetches names in batches of ten.
func (r *SSMResolver) GetSecrets(ctx context.Context, names ...string) (map[string]string, error) {
	values := make(map[string]string, len(names))
	var missing []string

	for start := 0; start < len(names); start += maxBatch {
		batch := names[start:min(start+maxBatch, len(names))]
		out, err := r.client.GetParameters(ctx, &ssm.GetParametersInput{
			Names:          batch,
			WithDecryption: aws.Bool(true),
		})
		if err != nil {
			return nil, fmt.Errorf("ssm get parameters: %w", err)
		}
		for _, p := range out.Parameters {
			if p.Name != nil && p.Value != nil {
				values[*p.Name] = *p.Value
			}
		}
		missing = append(missing, out.InvalidParameters...)
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("ssm parameters not found: %s", strings.Join(missing, ", "))
	}
	return values, nil
}

// EnvResolver fetches secrets from environment variables.
// The parameter name is converted from SSM path format (e.g. "/cloudbridge/jwt-secret")
// to the corresponding environment variable name (e.g. "JWT_SECRET") by taking the
// last segment, uppercasing, and replacing hyphens with underscores.
type EnvResolver struct {
	lookup func(string) (string, bool)
}

// NewEnvResolver returns a Resolver that reads from environment variables.
func NewEnvResolver() Resolver {
	return &EnvResolver{lookup: os.LookupEnv}
}

// GetSecret reads from the environment variable derived from the parameter name.
func (r *EnvResolver) GetSecret(_ context.Context, name string) (string, error) {
	envName := paramNameToEnvVar(name)
	val, _ := r.lookup(envName)
	if val == "" {
		return "", fmt.Errorf("environment variable %q (from param %q) is not set", envName, name)
	}
	return val, nil
}

func (r *EnvResolver) GetSecrets(ctx context.Context, names ...string) (map[string]string, error) {
	values := make(map[string]string, len(names))
	var missing []string
	for _, name := range names {
		val, err := r.GetSecret(ctx, name)
		if err != nil {
			missing = append(missing, paramNameToEnvVar(name))
			continue
		}
		values[name] = val
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("environment variables not set: %s", strings.Join(missing, ", "))
	}
	return values, nil
}

// paramNameToEnvVar converts an SSM parameter name to an environment variable name.
// "/cloudbridge/jwt-secret" -> "JWT_SECRET"
// "/cloudbridge/google-client-secret" -> "GOOGLE_CLIENT_SECRET"
func paramNameToEnvVar(name string) string {
	parts := strings.Split(name, "/")
	last := parts[len(parts)-1]
	return strings.ToUpper(strings.ReplaceAll(last, "-", "_"))
}
