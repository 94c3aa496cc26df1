package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/benvon/rewrite/internal/database"
	"github.com/benvon/rewrite/internal/models"
	"github.com/benvon/rewrite/internal/validation"
)

// NewRatelimitCmd creates the ratelimit command with list, set, and clear subcommands.
func NewRatelimitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratelimit",
		Short: "Manage the per-client rate limit",
		Long:  "List, update, or clear the rate limit applied to API routes (e.g. 5-S, 100-M).",
	}
	cmd.AddCommand(newRatelimitListCmd(), newRatelimitSetCmd(), newRatelimitClearCmd())
	return cmd
}

func newRatelimitListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the stored rate limit",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			c, err := database.NewRatelimitConfigRepository(db).Get(cmd.Context())
			if err != nil {
				return fmt.Errorf("get ratelimit config: %w", err)
			}
			printRatelimit(cmd, c)
			return nil
		},
	}
}

func printRatelimit(cmd *cobra.Command, c *models.RatelimitConfig) {
	if c == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "No rate limit stored; the server uses 5-S.")
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Rate limit: %s\n", c.Rate)
}

func newRatelimitSetCmd() *cobra.Command {
	var rate string
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Replace the rate limit",
		RunE: func(cmd *cobra.Command, args []string) error {
			rate = strings.TrimSpace(rate)
			if rate == "" {
				return fmt.Errorf("--rate is required (e.g. 5-S, 100-M)")
			}
			if err := validation.ValidateRate(rate); err != nil {
				return err
			}

			db, err := openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			if err := database.NewRatelimitConfigRepository(db).Set(cmd.Context(), &models.RatelimitConfig{Rate: rate}); err != nil {
				return fmt.Errorf("set ratelimit config: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Rate limit updated.")
			return nil
		},
	}
	cmd.Flags().StringVar(&rate, "rate", "", "Rate (e.g. 5-S, 100-M, 1000-H) (required)")
	return cmd
}

func newRatelimitClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored rate limit",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			if err := database.NewRatelimitConfigRepository(db).Delete(cmd.Context()); err != nil {
				return fmt.Errorf("clear ratelimit config: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Rate limit cleared.")
			return nil
		},
	}
}
