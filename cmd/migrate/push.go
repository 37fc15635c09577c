package main

import (
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/JonMunkholm/workbook-migrate/internal/client"
	"github.com/spf13/cobra"
)

func newPushCmd() *cobra.Command {
	var (
		serverURL string
		apiKey    string
		yes       bool
	)

	cmd := &cobra.Command{
		Use:   "push [workbook.xlsx]",
		Short: "Import a workbook through a running migration server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if serverURL == "" {
				return errors.New("--server or MIGRATE_SERVER is required")
			}
			data, err := readWorkbook(args[0])
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var opts []client.HTTPOption
			if apiKey != "" {
				opts = append(opts, client.WithAPIKey(apiKey))
			}
			backend := client.NewHTTPBackend(serverURL, opts...)
			return runMigration(ctx, cmd, backend, filepath.Base(args[0]), data, yes)
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", os.Getenv("MIGRATE_SERVER"), "Migration server base URL")
	cmd.Flags().StringVar(&apiKey, "api-key", os.Getenv("MIGRATE_API_KEY"), "API key sent as X-API-Key")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Import without asking for confirmation")
	return cmd
}
