package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mentormuni-server/middleware"
)

func newTokenCmd(opts *rootOptions) *cobra.Command {
	var (
		email string
		roles []string
		ttl   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the /admin routes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			if !cfg.AdminEnabled() {
				return errors.New("ADMIN.JWT_SIGNING_KEY is not set")
			}
			token, err := middleware.IssueToken(cfg.Admin.JWTSigningKey, cfg.Admin.Issuer, email, roles, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "operator email placed in the sub claim (required)")
	cmd.Flags().StringSliceVar(&roles, "roles", []string{"admin"}, "roles granted by the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	if err := cmd.MarkFlagRequired("email"); err != nil {
		panic(fmt.Sprintf("failed to mark email flag as required: %v", err))
	}
	return cmd
}
