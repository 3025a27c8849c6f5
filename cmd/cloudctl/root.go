package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jun/cloudbridge/internal/auth"
	"github.com/jun/cloudbridge/internal/model"
)

// Global persistent flags, bound in newRootCmd().
var (
	flagCredentials   string
	flagClientSecrets string
	flagVerbose       bool
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "cloudctl",
		Short:         "Cloud storage provider toolkit",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().StringVar(&flagCredentials, "credentials", "credentials.json", "credential bundle file")
	cmd.PersistentFlags().StringVar(&flagClientSecrets, "client-secrets", "client_secret.json", "OAuth client secrets file")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newDemoCmd())
	cmd.AddCommand(newAuthURLCmd())
	cmd.AddCommand(newExchangeCmd())

	return cmd
}

func buildLogger() *slog.Logger {
	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadClientConfig reads the client secrets file. A missing file yields nil.
func loadClientConfig(path string) (*model.ClientConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading client secrets: %w", err)
	}
	return auth.ParseClientSecrets(data, auth.DefaultScopes...)
}

// readBundle reads a credential bundle file. A missing file yields nil.
func readBundle(path string) (*model.CredentialBundle, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading credentials: %w", err)
	}
	var b model.CredentialBundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parsing credentials %s: %w", path, err)
	}
	return &b, nil
}

func writeBundle(path string, b model.CredentialBundle) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}
