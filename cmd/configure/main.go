package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/benvon/rewrite/cmd/configure/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "rewrite-configure",
		Short:        "Configuration tool for the ReWrite API",
		Long:         "CLI tool for runtime settings, schema migration, and session maintenance",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		commands.NewListCmd(),
		commands.NewCorsCmd(),
		commands.NewRatelimitCmd(),
		commands.NewEditsCmd(),
		commands.NewMigrateCmd(),
		commands.NewSessionCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
