package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/benvon/rewrite/internal/database"
)

// NewListCmd creates the list command, which prints every stored runtime setting
func NewListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored runtime settings",
		Long:  "Print the CORS and rate limit settings the server reloads from the database.",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			cors, err := database.NewCorsConfigRepository(db).Get(cmd.Context())
			if err != nil {
				return fmt.Errorf("get cors config: %w", err)
			}
			rl, err := database.NewRatelimitConfigRepository(db).Get(cmd.Context())
			if err != nil {
				return fmt.Errorf("get ratelimit config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Database: %s\n", db.Dialect())
			printCors(cmd, cors)
			printRatelimit(cmd, rl)
			return nil
		},
	}
}
