package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/comment-utils/internal/comment"
	"github.com/evcraddock/comment-utils/internal/contenttype"
)

func newMostCommentedCmd() *cobra.Command {
	var (
		m          comment.Model
		num        int
		registered bool
	)

	cmd := &cobra.Command{
		Use:   "most-commented <app.model>",
		Short: "Rank objects by public comment count",
		Long: `List the objects of one content type with the most public comments.

The objects live in a table of the host application; name it with --table
and its primary key column with --pk. Anonymous comments are counted
unless --registered is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, model, err := contenttype.ParseLabel(args[0])
			if err != nil {
				return err
			}
			m.ContentType = app + "." + model
			if m.Table == "" {
				return fmt.Errorf("--table is required")
			}
			return runMostCommented(cmd, m, num, !registered)
		},
	}

	cmd.Flags().StringVar(&m.Table, "table", "", "table holding the objects")
	cmd.Flags().StringVar(&m.PK, "pk", "id", "primary key column of the table")
	cmd.Flags().IntVarP(&num, "num", "n", comment.DefaultMostCommented, "number of objects to list")
	cmd.Flags().BoolVar(&registered, "registered", false, "count registered-user comments instead of anonymous ones")

	return cmd
}

func runMostCommented(cmd *cobra.Command, m comment.Model, num int, free bool) error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(database)

	ranked, err := comment.NewRepository(database).MostCommented(m, num, free)
	if err != nil {
		return err
	}

	if isJSON() {
		if ranked == nil {
			ranked = make([]comment.Ranked, 0)
		}
		return printJSON(out(cmd), ranked)
	}
	return printRankedTable(out(cmd), m.ContentType, ranked)
}
