package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rifs/rifs-api/internal/config"
	"github.com/rifs/rifs-api/internal/pkg/jwt"
	"github.com/rifs/rifs-api/internal/pkg/password"
)

var errAdminDisabled = errors.New("ADMIN_JWT_SECRET is not set, admin endpoints are open")

func newRootCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "admin-token",
		Short:         "Operator helpers for the admin API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		newHashCmd(),
		newTokenCmd(cfg),
	)
	return cmd
}

func newHashCmd() *cobra.Command {
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "hash",
		Short: "Print a bcrypt hash for ADMIN_PASSWORD_HASH",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !passwordStdin {
				return fmt.Errorf("--password-stdin is required")
			}

			raw, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
			plain := strings.TrimSpace(string(raw))
			if plain == "" {
				return fmt.Errorf("empty password")
			}

			hash, err := password.Hash(plain)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "ADMIN_PASSWORD_HASH=%s\n", hash)
			return err
		},
	}

	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read password from stdin")
	return cmd
}

func newTokenCmd(cfg *config.Config) *cobra.Command {
	var (
		subject string
		quiet   bool
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign an admin token with ADMIN_JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cfg.AdminEnabled() {
				return errAdminDisabled
			}

			token, expiresAt, err := jwt.NewService(cfg.AdminJWTSecret, cfg.AdminTokenTTL).GenerateAdminToken(subject)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}

			out := cmd.OutOrStdout()
			if quiet {
				_, err = fmt.Fprintln(out, token)
				return err
			}
			_, err = fmt.Fprintf(out, "Subject:    %s\nExpires at: %s\nToken:      %s\n",
				subject, expiresAt.Format("2006-01-02 15:04:05 MST"), token)
			return err
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "admin", "token subject")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print only the token")
	return cmd
}
