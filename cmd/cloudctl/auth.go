package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jun/cloudbridge/internal/auth"
)

func newAuthURLCmd() *cobra.Command {
	var redirectURI, state string

	cmd := &cobra.Command{
		Use:   "auth-url",
		Short: "Print the consent URL for the OAuth client",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadClientConfig(flagClientSecrets)
			if err != nil {
				return err
			}
			if cfg == nil {
				return fmt.Errorf("client secrets file %s not found", flagClientSecrets)
			}
			if redirectURI == "" && len(cfg.RedirectURIs) > 0 {
				redirectURI = cfg.RedirectURIs[0]
			}

			fmt.Fprintln(cmd.OutOrStdout(), auth.BuildAuthorizationURL(*cfg, redirectURI, state))
			return nil
		},
	}

	cmd.Flags().StringVar(&redirectURI, "redirect-uri", "", "redirect URI (default: first in client secrets)")
	cmd.Flags().StringVar(&state, "state", "", "opaque anti-CSRF state")
	return cmd
}

func newExchangeCmd() *cobra.Command {
	var redirectURI, code string

	cmd := &cobra.Command{
		Use:   "exchange",
		Short: "Exchange an authorization code and save the credential bundle",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if code == "" {
				return errors.New("--code is required")
			}
			cfg, err := loadClientConfig(flagClientSecrets)
			if err != nil {
				return err
			}
			if cfg == nil {
				return fmt.Errorf("client secrets file %s not found", flagClientSecrets)
			}
			if redirectURI == "" && len(cfg.RedirectURIs) > 0 {
				redirectURI = cfg.RedirectURIs[0]
			}

			bundle, err := auth.ExchangeCodeForBundle(cmd.Context(), *cfg, redirectURI, code)
			if err != nil {
				return err
			}
			if err := writeBundle(flagCredentials, *bundle); err != nil {
				return fmt.Errorf("saving credentials: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Credentials saved to %s\n", flagCredentials)
			return nil
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "authorization code from the consent redirect")
	cmd.Flags().StringVar(&redirectURI, "redirect-uri", "", "redirect URI used for the consent (default: first in client secrets)")
	return cmd
}
