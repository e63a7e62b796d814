package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/evcraddock/comment-utils/internal/comment"
)

func newApproveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve <id>",
		Short: "Make a held comment public",
		Args:  cobra.ExactArgs(1),
		RunE:  runApprove,
	}
}

func runApprove(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid comment ID: %s", args[0])
	}

	database, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(database)

	repo := comment.NewRepository(database)
	c, err := repo.Get(id)
	if err != nil {
		return err
	}

	if !c.IsPublic {
		c.IsPublic = true
		if err := repo.Save(c); err != nil {
			return err
		}
	}

	if isJSON() {
		return printJSON(out(cmd), c)
	}

	_, err = fmt.Fprintf(out(cmd), "Comment #%d approved.\n", id)
	return err
}
