// Package cli defines the cobra command tree for comment-utils.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/evcraddock/comment-utils/internal/app"
	"github.com/evcraddock/comment-utils/internal/config"
	"github.com/evcraddock/comment-utils/internal/db"
	"github.com/evcraddock/comment-utils/internal/logging"
)

var (
	flagFormat string
	flagDB     string
	flagDriver string
	flagConfig string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cu",
		Short:         "Administer moderated comments",
		Long:          "Tools for a moderated comment store: remove old spam, rank objects by comment count, review and approve comments, and check moderation rules.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.FromEnv()
			if err != nil {
				return err
			}
			logging.Setup(cmd.ErrOrStderr(), settings.DevMode)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "database path or DSN (default: $CU_DB or ~/.config/cu/comments.db)")
	root.PersistentFlags().StringVar(&flagDriver, "driver", "", "database driver: sqlite or postgres (default: $CU_DB_DRIVER or sqlite)")
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "moderation config file (default: $CU_CONFIG or ~/.config/cu/config.yaml)")

	root.AddCommand(
		newDeleteSpamCmd(),
		newMostCommentedCmd(),
		newCommentsCmd(),
		newApproveCmd(),
		newRemoveCmd(),
		newRulesCmd(),
		newVersionCmd(),
	)

	return root
}

// openDB opens the database named by --db/--driver, falling back to the
// CU_DB and CU_DB_DRIVER environment variables.
func openDB() (*db.DB, error) {
	settings, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	if flagDriver != "" {
		settings.DBDriver = flagDriver
	}
	if flagDB != "" {
		settings.DB = flagDB
	}
	return app.OpenDB(settings)
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// closeDB closes the database, logging any error to stderr.
func closeDB(database *db.DB) {
	if err := database.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing database: %v\n", err)
	}
}

// out returns the command's output writer.
func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
