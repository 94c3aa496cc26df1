package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/benvon/rewrite/internal/config"
	"github.com/benvon/rewrite/internal/services/session"
)

// NewSessionCmd creates the session command, which issues a token signed with
// SESSION_SECRET and checks that it verifies
func NewSessionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Issue a session token for manual API calls",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.SessionSecret == "" {
				return fmt.Errorf("SESSION_SECRET is required; the server's random fallback secret cannot be shared")
			}
			issuer, err := session.NewIssuer(cfg.SessionSecret, cfg.BaseURL, cfg.SessionTTL)
			if err != nil {
				return err
			}

			s, err := issuer.Issue()
			if err != nil {
				return fmt.Errorf("issue session: %w", err)
			}
			if _, err := issuer.Verify(s.Token); err != nil {
				return fmt.Errorf("issued token does not verify: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Session: %s\n", s.ID)
			fmt.Fprintf(out, "Expires: %s\n", s.ExpiresAt)
			fmt.Fprintf(out, "Authorization: Bearer %s\n", s.Token)
			return nil
		},
	}
}
