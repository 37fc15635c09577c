package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/JonMunkholm/workbook-migrate/internal/client"
	"github.com/JonMunkholm/workbook-migrate/internal/tui"
	"github.com/spf13/cobra"
)

func newTUICmd() *cobra.Command {
	var (
		serverURL    string
		apiKey       string
		ensureSchema bool
	)

	cmd := &cobra.Command{
		Use:   "tui [workbook.xlsx]",
		Short: "Preview and import a workbook in an interactive terminal UI",
		Long: `tui shows the dry run, imports on request and follows progress sheet by
sheet. With --server it goes through a migration server; otherwise it
connects to DATABASE_URL directly.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readWorkbook(args[0])
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var backend client.Backend
			if serverURL != "" {
				var opts []client.HTTPOption
				if apiKey != "" {
					opts = append(opts, client.WithAPIKey(apiKey))
				}
				backend = client.NewHTTPBackend(serverURL, opts...)
			} else {
				local, closeDB, err := openLocalBackend(ctx, ensureSchema)
				if err != nil {
					return err
				}
				defer closeDB()
				backend = local
			}

			return tui.Run(ctx, backend, filepath.Base(args[0]), data)
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", os.Getenv("MIGRATE_SERVER"), "Migration server base URL (default: direct database)")
	cmd.Flags().StringVar(&apiKey, "api-key", os.Getenv("MIGRATE_API_KEY"), "API key sent as X-API-Key")
	cmd.Flags().BoolVar(&ensureSchema, "ensure-schema", false, "Create missing tables before importing")
	return cmd
}
