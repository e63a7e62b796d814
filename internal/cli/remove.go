package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/evcraddock/comment-utils/internal/comment"
)

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>...",
		Short: "Remove comments",
		Long:  "Remove one or more comments by ID. IDs are parsed before anything is deleted, and deletion stops at the first comment that cannot be removed.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runRemove,
	}
}

func runRemove(cmd *cobra.Command, args []string) error {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid comment ID: %s", arg)
		}
		ids = append(ids, id)
	}

	database, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(database)

	repo := comment.NewRepository(database)
	removed := make([]int64, 0, len(ids))
	for _, id := range ids {
		if err := repo.Delete(id); err != nil {
			return err
		}
		removed = append(removed, id)
		if !isJSON() {
			if _, err := fmt.Fprintf(out(cmd), "Comment #%d removed.\n", id); err != nil {
				return err
			}
		}
	}

	if isJSON() {
		return printJSON(out(cmd), map[string]any{"removed": removed})
	}
	return nil
}
