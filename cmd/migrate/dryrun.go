package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/workbook-migrate/internal/core"
	"github.com/JonMunkholm/workbook-migrate/internal/store"
	"github.com/spf13/cobra"
)

func newDryRunCmd() *cobra.Command {
	var (
		asJSON      bool
		warningsCSV string
		sampleSize  int
	)

	cmd := &cobra.Command{
		Use:   "dry-run [workbook.xlsx]",
		Short: "Show what a workbook would import without touching the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readWorkbook(args[0])
			if err != nil {
				return err
			}

			// Parsing never reaches the store; memory keeps the service valid.
			svc, err := core.NewService(store.NewMemory(), nil, core.Options{SampleSize: sampleSize})
			if err != nil {
				return err
			}
			preview, err := svc.ParseWorkbook(data)
			if err != nil {
				return fmt.Errorf("dry run %s: %s", filepath.Base(args[0]), core.FormatUserError(err))
			}

			if warningsCSV != "" {
				if err := writeWarningsCSV(warningsCSV, preview); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(preview)
			}
			printPreview(out, filepath.Base(args[0]), preview)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the preview as JSON")
	cmd.Flags().StringVar(&warningsCSV, "warnings-csv", "", "Write every warning to this CSV file")
	cmd.Flags().IntVar(&sampleSize, "sample", core.DefaultSampleSize, "Sample records per table in JSON output")
	return cmd
}

// readWorkbook reads path, rejecting directories and empty files early.
func readWorkbook(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("workbook: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("workbook: %s is a directory", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("workbook: %w", err)
	}
	return data, nil
}
