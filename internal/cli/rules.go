package cli

import (
	"fmt"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/evcraddock/comment-utils/internal/comment"
	"github.com/evcraddock/comment-utils/internal/contenttype"
	"github.com/evcraddock/comment-utils/internal/moderation"
)

// ruleView is the JSON form of one configured moderation rule.
type ruleView struct {
	Label  string `json:"content_type"`
	Policy string `json:"policy"`
	moderation.Options
}

func newRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Check and show the configured moderation rules",
		Long: `Read the moderation section of the config file, check every rule,
and print one line per content type.

An unknown policy or a malformed content type label is reported as an
error.`,
		Args: cobra.NoArgs,
		RunE: runRules,
	}
}

func runRules(cmd *cobra.Command, args []string) error {
	path, file, err := loadConfig()
	if err != nil {
		return err
	}

	database, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(database)

	env := &moderation.Env{Comments: comment.NewRepository(database)}

	labels := make([]string, 0, len(file.Moderation))
	for label := range file.Moderation {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	views := make([]ruleView, 0, len(labels))
	for _, label := range labels {
		if _, _, err := contenttype.ParseLabel(label); err != nil {
			return fmt.Errorf("moderation rule %s: %w", label, err)
		}
		rule := file.Moderation[label]
		p, err := moderation.NewPolicy(rule.Policy, rule.Options, env)
		if err != nil {
			return fmt.Errorf("moderation rule %s: %w", label, err)
		}
		opts := rule.Options
		if s, ok := p.(interface{ Settings() moderation.Options }); ok {
			opts = s.Settings()
		}
		policy := rule.Policy
		if policy == moderation.KindDefault {
			policy = "default"
		}
		views = append(views, ruleView{Label: label, Policy: policy, Options: opts})
	}

	if isJSON() {
		return printJSON(out(cmd), views)
	}

	if len(views) == 0 {
		_, err := fmt.Fprintf(out(cmd), "No moderation rules in %s.\n", path)
		return err
	}

	w := tabwriter.NewWriter(out(cmd), 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "CONTENT TYPE\tPOLICY\tENABLE\tCLOSE\tMODERATE\tAKISMET\tEMAIL"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, v := range views {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			v.Label, v.Policy,
			orDash(v.EnableField),
			ageRule(v.AutoCloseField, v.CloseAfter),
			ageRule(v.AutoModerateField, v.ModerateAfter),
			yesNo(v.Akismet),
			yesNo(v.EmailNotification)); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}
	return nil
}

// ageRule formats a field/days pair such as "pub_date+30d".
func ageRule(field string, days int) string {
	if field == "" {
		return "-"
	}
	return field + "+" + strconv.Itoa(days) + "d"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
