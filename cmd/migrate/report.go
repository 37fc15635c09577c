package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/JonMunkholm/workbook-migrate/internal/client"
	"github.com/JonMunkholm/workbook-migrate/internal/core"
	"github.com/jszwec/csvutil"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// warningRow is one line of the --warnings-csv export.
type warningRow struct {
	Source  string `csv:"source"`
	Table   string `csv:"table,omitempty"`
	Message string `csv:"message"`
}

func warningRows(preview *core.DryRunResult) []warningRow {
	rows := make([]warningRow, 0, preview.TotalWarnings)
	for _, msg := range preview.WorkbookWarnings {
		rows = append(rows, warningRow{Source: "workbook", Message: msg})
	}
	for _, t := range preview.Tables {
		for _, msg := range t.Warnings {
			rows = append(rows, warningRow{Source: "record", Table: string(t.Table), Message: msg})
		}
	}
	return rows
}

func writeWarningsCSV(path string, preview *core.DryRunResult) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write warnings: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("write warnings: %w", cerr)
		}
	}()

	w := csv.NewWriter(f)
	enc := csvutil.NewEncoder(w)
	if err := enc.EncodeHeader(warningRow{}); err != nil {
		return fmt.Errorf("encode warnings: %w", err)
	}
	for _, row := range warningRows(preview) {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("encode warnings: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write warnings: %w", err)
	}
	return nil
}

func printPreview(w io.Writer, fileName string, preview *core.DryRunResult) {
	printer.Fprintf(w, "%s: %d records, %d warnings\n\n", fileName, preview.TotalRecords, preview.TotalWarnings)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tRECORDS\tWARNINGS")
	for _, t := range preview.Tables {
		printer.Fprintf(tw, "%s\t%d\t%d\n", t.Label, t.RecordCount, len(t.Warnings))
	}
	tw.Flush()

	if len(preview.SkippedSheets) > 0 {
		fmt.Fprintf(w, "\nSheets not found: %s\n", strings.Join(preview.SkippedSheets, ", "))
	}
	printWarnings(w, preview.AllWarnings)
}

func printResult(w io.Writer, result *core.MigrationResult) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tRECORDS\tINSERTED\tUPDATED\tSTATUS")
	for _, t := range result.Tables {
		status := "ok"
		if t.Error != "" {
			status = "failed"
		}
		printer.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\n", t.Label, t.Records, t.Inserted, t.Updated, status)
	}
	tw.Flush()

	printer.Fprintf(w, "\n%d inserted, %d updated, %d warnings in %d ms\n",
		result.TotalInserted, result.TotalUpdated, result.TotalWarnings, result.DurationMS)
	printWarnings(w, result.AllWarnings)
}

func printWarnings(w io.Writer, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintln(w, "\nWarnings:")
	for _, msg := range warnings {
		fmt.Fprintf(w, "  - %s\n", msg)
	}
}

// progressPrinter writes one line per new progress message.
type progressPrinter struct {
	w    io.Writer
	last string
}

func (p *progressPrinter) onChange(s client.Snapshot) {
	if s.State != client.StateImporting || s.Last.Message == "" || s.Last.Message == p.last {
		return
	}
	p.last = s.Last.Message
	if s.Last.Phase == core.PhaseImporting {
		fmt.Fprintf(p.w, "[%3d%%] %s\n", s.Last.Percent(), s.Last.Message)
		return
	}
	fmt.Fprintf(p.w, "       %s\n", s.Last.Message)
}
