// Command migrate previews and imports weekly reporting workbooks from the
// command line, either against the database directly or through a running
// migration server.
package main

import (
	"os"

	_ "github.com/JonMunkholm/workbook-migrate/internal/core/tables" // Register all tables
	"github.com/JonMunkholm/workbook-migrate/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	logLevel  string
	logFormat string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate weekly reporting workbooks into the reporting database",
		Long: `migrate reads a weekly reporting workbook (.xlsx), shows what would be
imported, and upserts the records into the reporting tables.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// .env is optional; the environment may already be configured.
			_ = godotenv.Load()
			logging.SetupStderr(logLevel, logFormat)
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")

	root.AddCommand(newDryRunCmd())
	root.AddCommand(newImportCmd())
	root.AddCommand(newPushCmd())
	root.AddCommand(newTemplateCmd())
	root.AddCommand(newTUICmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
