package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/evcraddock/comment-utils/internal/comment"
)

// printJSON marshals v as indented JSON and writes it to w.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printCommentList prints comments in text format.
func printCommentList(w io.Writer, comments []*comment.Comment) error {
	if len(comments) == 0 {
		_, err := fmt.Fprintln(w, "No comments.")
		return err
	}

	for _, c := range comments {
		author := c.PersonName
		if author == "" {
			author = "anonymous"
		}
		status := "public"
		if !c.IsPublic {
			status = "pending"
		}
		if _, err := fmt.Fprintf(w, "[%s] #%d %s %s (%s, %s)\n  %s\n\n",
			c.SubmitDate.Format("2006-01-02 15:04"), c.ID,
			c.ContentType, c.ObjectID, author, status,
			truncate(c.Text, 200)); err != nil {
			return err
		}
	}
	return nil
}

// printRankedTable prints most-commented objects as a formatted table.
func printRankedTable(w io.Writer, label string, ranked []comment.Ranked) error {
	if len(ranked) == 0 {
		_, err := fmt.Fprintf(w, "No commented %s objects.\n", label)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "RANK\tOBJECT\tCOMMENTS"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(tw, "----\t------\t--------"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for i, r := range ranked {
		if _, err := fmt.Fprintf(tw, "%d\t%s\t%d\n", i+1, truncate(r.ObjectID, 40), r.Count); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	return tw.Flush()
}

// truncate shortens a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
