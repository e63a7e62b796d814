package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/comment-utils/internal/comment"
	"github.com/evcraddock/comment-utils/internal/contenttype"
)

func newCommentsCmd() *cobra.Command {
	var (
		pending bool
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "comments [app.model] [object-id]",
		Short: "List comments",
		Long: `List comments, newest first.

With a content type, only comments on that model are listed; with an object
ID as well, only comments on that object. Use --pending to review comments
waiting for moderation.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := comment.Filter{Reverse: true, Limit: limit}
			if len(args) > 0 {
				app, model, err := contenttype.ParseLabel(args[0])
				if err != nil {
					return err
				}
				f.ContentType = app + "." + model
			}
			if len(args) > 1 {
				f.ObjectID = args[1]
			}
			if pending {
				public := false
				f.Public = &public
			}
			return runComments(cmd, f)
		},
	}

	cmd.Flags().BoolVar(&pending, "pending", false, "only list comments awaiting moderation")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "maximum number of comments to list (0 for all)")

	return cmd
}

func runComments(cmd *cobra.Command, f comment.Filter) error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(database)

	comments, err := comment.NewRepository(database).List(f)
	if err != nil {
		return err
	}

	if isJSON() {
		if comments == nil {
			comments = make([]*comment.Comment, 0)
		}
		return printJSON(out(cmd), comments)
	}

	if f.ContentType != "" {
		target := f.ContentType
		if f.ObjectID != "" {
			target += " " + f.ObjectID
		}
		if _, err := fmt.Fprintf(out(cmd), "Comments on %s:\n\n", target); err != nil {
			return err
		}
	}
	return printCommentList(out(cmd), comments)
}
