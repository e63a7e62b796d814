package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/evcraddock/comment-utils/internal/comment"
	"github.com/evcraddock/comment-utils/internal/spam"
)

func newDeleteSpamCmd() *cobra.Command {
	var opts spam.Options

	cmd := &cobra.Command{
		Use:   "delete-spam",
		Short: "Remove old non-public comments",
		Long: `Delete comments that are still not public after a number of days.

Comments held for moderation and never approved are treated as spam once
they are older than --age days. Use --dry-run to count them without
deleting anything.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.Validate(); err != nil {
				return err
			}
			return runDeleteSpam(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Age, "age", "a", spam.DefaultAge,
		"age threshold in days past which a non-public comment is considered spam")
	cmd.Flags().BoolVarP(&opts.DryRun, "dry-run", "d", false,
		"report how many comments would be deleted without deleting them")
	cmd.Flags().IntVarP(&opts.Verbosity, "verbosity", "v", 1,
		"verbosity level: 0=minimal, 1=normal, 2=list every deleted comment")

	return cmd
}

func runDeleteSpam(cmd *cobra.Command, opts spam.Options) error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(database)

	w := out(cmd)
	if isJSON() {
		w = io.Discard
	}

	n, err := spam.DeleteSpam(comment.NewRepository(database), nil, opts, w)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(out(cmd), map[string]any{
			"deleted": n,
			"dry_run": opts.DryRun,
			"age":     opts.Age,
		})
	}
	return nil
}
