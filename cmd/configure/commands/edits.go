package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/benvon/rewrite/internal/database"
	"github.com/benvon/rewrite/internal/logger"
)

// NewEditsCmd creates the edits command for inspecting and clearing a session's review
func NewEditsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edits",
		Short: "Inspect or clear the edits stored for a session",
	}
	cmd.AddCommand(newEditsListCmd(), newEditsClearCmd())
	return cmd
}

func sessionArg(args []string) (uuid.UUID, error) {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid session id %q: %w", args[0], err)
	}
	return id, nil
}

func newEditsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <session-id>",
		Short: "List a session's edits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, err := sessionArg(args)
			if err != nil {
				return err
			}
			db, err := openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			edits, err := database.NewEditRepository(db).List(cmd.Context(), sessionID)
			if err != nil {
				return fmt.Errorf("list edits: %w", err)
			}
			if len(edits) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No edits stored for this session.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTYPE\tRANGE\tDONE\tPHRASE")
			for _, e := range edits {
				fmt.Fprintf(tw, "%d\t%s\t%d-%d\t%v\t%s\n",
					e.ID, e.Type, e.StartIndex, e.EndIndex, e.Completed, logger.SanitizePhrase(e.Phrase))
			}
			return tw.Flush()
		},
	}
}

func newEditsClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear <session-id>",
		Short: "Delete a session's edits and tracked changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, err := sessionArg(args)
			if err != nil {
				return err
			}
			db, err := openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			edits, err := database.NewEditRepository(db).Clear(cmd.Context(), sessionID)
			if err != nil {
				return fmt.Errorf("clear edits: %w", err)
			}
			userEdits, err := database.NewUserEditRepository(db).Clear(cmd.Context(), sessionID)
			if err != nil {
				return fmt.Errorf("clear user edits: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d edits and %d tracked changes.\n", edits, userEdits)
			return nil
		},
	}
}
