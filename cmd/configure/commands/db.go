package commands

import (
	"context"
	"fmt"

	"github.com/benvon/rewrite/internal/config"
	"github.com/benvon/rewrite/internal/database"
	"github.com/spf13/cobra"
)

// openDB connects to the configured database and brings its schema up to date
func openDB(ctx context.Context) (*database.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

// NewMigrateCmd creates the migrate command
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()
			fmt.Fprintf(cmd.OutOrStdout(), "Schema is up to date (%s).\n", db.Dialect())
			return nil
		},
	}
}
