package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/benvon/rewrite/internal/database"
	"github.com/benvon/rewrite/internal/models"
)

// NewCorsCmd creates the cors command with list, set, and clear subcommands.
// The server reloads CORS settings from the database every minute.
func NewCorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cors",
		Short: "Manage CORS configuration",
		Long:  "List, update, or clear the allowed origins the API answers CORS requests for.",
	}
	cmd.AddCommand(newCorsListCmd(), newCorsSetCmd(), newCorsClearCmd())
	return cmd
}

func newCorsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the stored CORS configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			c, err := database.NewCorsConfigRepository(db).Get(cmd.Context())
			if err != nil {
				return fmt.Errorf("get cors config: %w", err)
			}
			printCors(cmd, c)
			return nil
		},
	}
}

func printCors(cmd *cobra.Command, c *models.CorsConfig) {
	out := cmd.OutOrStdout()
	if c == nil {
		fmt.Fprintln(out, "No CORS configuration stored; the server falls back to FRONTEND_URL.")
		return
	}
	fmt.Fprintln(out, "CORS configuration:")
	for _, origin := range database.AllowedOriginsSlice(c.AllowedOrigins) {
		fmt.Fprintf(out, "  Origin: %s\n", origin)
	}
	fmt.Fprintf(out, "  Allow credentials: %v\n", c.AllowCredentials)
	fmt.Fprintf(out, "  Max-Age: %d\n", c.MaxAge)
}

func newCorsSetCmd() *cobra.Command {
	var origins string
	var allowCreds bool
	var maxAge int
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Replace the CORS configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			list := database.AllowedOriginsSlice(origins)
			if len(list) == 0 {
				return fmt.Errorf("--origins is required (comma-separated list)")
			}
			if maxAge < 0 {
				return fmt.Errorf("--max-age must not be negative")
			}

			db, err := openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			c := &models.CorsConfig{
				AllowedOrigins:   strings.Join(list, ","),
				AllowCredentials: allowCreds,
				MaxAge:           maxAge,
			}
			if err := database.NewCorsConfigRepository(db).Set(cmd.Context(), c); err != nil {
				return fmt.Errorf("set cors config: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "CORS configuration updated.")
			return nil
		},
	}
	cmd.Flags().StringVar(&origins, "origins", "", "Comma-separated allowed origins (required)")
	cmd.Flags().BoolVar(&allowCreds, "allow-credentials", true, "Allow credentials")
	cmd.Flags().IntVar(&maxAge, "max-age", 86400, "Access-Control-Max-Age (seconds)")
	return cmd
}

func newCorsClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored CORS configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			if err := database.NewCorsConfigRepository(db).Delete(cmd.Context()); err != nil {
				return fmt.Errorf("clear cors config: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "CORS configuration cleared.")
			return nil
		},
	}
}
