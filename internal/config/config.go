// Package config loads service settings from an optional YAML file and the
// environment. Environment variables win over the file.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/jun/cloudbridge/internal/adapter"
	"github.com/jun/cloudbridge/internal/auth"
	"github.com/jun/cloudbridge/internal/model"
)

// PathEnv names the environment variable holding the YAML config path.
const PathEnv = "CLOUDBRIDGE_CONFIG"

// UserinfoEmailScope lets the callback identify the user after consent.
const UserinfoEmailScope = "https://www.googleapis.com/auth/userinfo.email"

type Config struct {
	DevMode           bool               `yaml:"dev_mode"`
	ListenAddr        string             `yaml:"listen_addr"`
	FrontendURL       string             `yaml:"frontend_url"`
	RedirectURL       string             `yaml:"redirect_url"`
	CredentialsTable  string             `yaml:"credentials_table"`
	LeasesTable       string             `yaml:"leases_table"`
	KMSKeyID          string             `yaml:"kms_key_id"`
	ChunkSize         int64              `yaml:"chunk_size,omitempty"`
	ClientSecretsFile string             `yaml:"client_secrets_file,omitempty"`
	Google            model.ClientConfig `yaml:"google"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		ListenAddr:       ":8080",
		FrontendURL:      "http://localhost:3000",
		CredentialsTable: "Credentials",
		LeasesTable:      "CredentialLeases",
		KMSKeyID:         "alias/cloudbridge-token-key",
	}
}

// Load builds the config from defaults, the YAML file named by
// CLOUDBRIDGE_CONFIG (if any), and the environment, in that order.
func Load() (*Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (*Config, error) {
	cfg := Default()

	if path := getenv(PathEnv); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: read config %s: %v", adapter.ErrConfiguration, path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: parse config %s: %v", adapter.ErrConfiguration, path, err)
		}
	}

	if err := applyEnv(cfg, getenv); err != nil {
		return nil, err
	}

	if cfg.ClientSecretsFile != "" {
		if err := cfg.mergeClientSecrets(); err != nil {
			return nil, err
		}
	}

	if len(cfg.Google.Scopes) == 0 {
		cfg.Google.Scopes = []string{auth.DriveFileScope, UserinfoEmailScope}
	}
	if cfg.RedirectURL == "" {
		cfg.RedirectURL = cfg.defaultRedirectURL()
	}

	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	setString := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	if v := getenv("DEV_MODE"); v != "" {
		cfg.DevMode = v == "true"
	}
	setString(&cfg.ListenAddr, "LISTEN_ADDR")
	setString(&cfg.FrontendURL, "FRONTEND_URL")
	setString(&cfg.RedirectURL, "GOOGLE_REDIRECT_URL")
	setString(&cfg.CredentialsTable, "CREDENTIALS_TABLE")
	setString(&cfg.LeasesTable, "LEASES_TABLE")
	setString(&cfg.KMSKeyID, "KMS_KEY_ID")
	setString(&cfg.ClientSecretsFile, "GOOGLE_CLIENT_SECRETS_FILE")
	setString(&cfg.Google.ClientID, "GOOGLE_CLIENT_ID")
	setString(&cfg.Google.AuthURI, "GOOGLE_AUTH_URI")
	setString(&cfg.Google.TokenURI, "GOOGLE_TOKEN_URI")

	if v := getenv("CHUNK_SIZE"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: CHUNK_SIZE must be a positive integer, got %q", adapter.ErrConfiguration, v)
		}
		cfg.ChunkSize = n
	}
	return nil
}

// mergeClientSecrets fills unset Google fields from a client-secrets JSON file.
func (c *Config) mergeClientSecrets() error {
	data, err := os.ReadFile(c.ClientSecretsFile)
	if err != nil {
		return fmt.Errorf("%w: read client secrets %s: %v", adapter.ErrConfiguration, c.ClientSecretsFile, err)
	}
	parsed, err := auth.ParseClientSecrets(data)
	if err != nil {
		return err
	}

	g := &c.Google
	if g.ClientID == "" {
		g.ClientID = parsed.ClientID
	}
	if g.ClientSecret == "" {
		g.ClientSecret = parsed.ClientSecret
	}
	if g.AuthURI == "" {
		g.AuthURI = parsed.AuthURI
	}
	if g.TokenURI == "" {
		g.TokenURI = parsed.TokenURI
	}
	if len(g.RedirectURIs) == 0 {
		g.RedirectURIs = parsed.RedirectURIs
	}
	return nil
}

func (c *Config) defaultRedirectURL() string {
	if len(c.Google.RedirectURIs) > 0 {
		return c.Google.RedirectURIs[0]
	}
	if c.DevMode {
		return "http://localhost:8080/auth/callback"
	}
	return c.FrontendURL + "/api/auth/callback"
}
