package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/JonMunkholm/workbook-migrate/internal/client"
	"github.com/JonMunkholm/workbook-migrate/internal/config"
	"github.com/JonMunkholm/workbook-migrate/internal/core"
	"github.com/JonMunkholm/workbook-migrate/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

func newImportCmd() *cobra.Command {
	var (
		ensureSchema bool
		yes          bool
	)

	cmd := &cobra.Command{
		Use:   "import [workbook.xlsx]",
		Short: "Import a workbook directly into the database",
		Long: `import connects to DATABASE_URL, previews the workbook and upserts every
record group. Re-importing the same workbook updates rows in place.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readWorkbook(args[0])
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			backend, closeDB, err := openLocalBackend(ctx, ensureSchema)
			if err != nil {
				return err
			}
			defer closeDB()

			return runMigration(ctx, cmd, backend, filepath.Base(args[0]), data, yes)
		},
	}

	cmd.Flags().BoolVar(&ensureSchema, "ensure-schema", false, "Create missing tables before importing")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Import without asking for confirmation")
	return cmd
}

// openLocalBackend connects to DATABASE_URL and returns a backend that runs
// the engine in this process.
func openLocalBackend(ctx context.Context, ensureSchema bool) (client.Backend, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("connect: %w", err)
	}

	pg := store.NewPostgres(pool)
	if ensureSchema || cfg.Database.EnsureSchema {
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
	}

	svc, err := core.NewService(pg, pg, core.Options{
		MaxConcurrent: 1,
		ImportTimeout: cfg.Migration.ImportTimeout,
		SampleSize:    cfg.Migration.SampleSize,
	})
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	closeDB := func() {
		// Let a running import finish recording its run before the pool goes.
		waitCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		_ = svc.WaitForImports(waitCtx)
		pool.Close()
	}
	return client.NewLocalBackend(svc), closeDB, nil
}

// runMigration drives one workbook through preview and import, printing the
// preview, progress lines and the final report.
func runMigration(ctx context.Context, cmd *cobra.Command, backend client.Backend, fileName string, data []byte, yes bool) error {
	out := cmd.OutOrStdout()
	progress := &progressPrinter{w: cmd.ErrOrStderr()}
	c := client.NewController(backend, client.WithOnChange(progress.onChange))

	if err := c.Preview(ctx, fileName, data); err != nil {
		return fmt.Errorf("dry run: %s", core.FormatUserError(err))
	}
	printPreview(out, fileName, c.Snapshot().Preview)

	if !yes && !confirm(cmd, "\nImport these records?") {
		fmt.Fprintln(out, "Import cancelled.")
		return nil
	}
	fmt.Fprintln(out)

	result, err := c.Import(ctx)
	var importErr *client.ImportError
	switch {
	case errors.As(err, &importErr):
		if importErr.Result != nil {
			printResult(out, importErr.Result)
		}
		return err
	case err != nil:
		return fmt.Errorf("import: %s", core.FormatUserError(err))
	}

	printResult(out, result)
	if !result.Success {
		return fmt.Errorf("import finished with failed tables: %v", result.FailedTables)
	}
	return nil
}

// confirm asks a yes/no question on the command's input.
func confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", question)
	var answer string
	if _, err := fmt.Fscanln(cmd.InOrStdin(), &answer); err != nil {
		return false
	}
	return answer == "y" || answer == "Y" || answer == "yes"
}
