package core

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/workbook-migrate/internal/logging"
	"github.com/JonMunkholm/workbook-migrate/internal/parser"
	"github.com/JonMunkholm/workbook-migrate/internal/record"
	"github.com/JonMunkholm/workbook-migrate/internal/workbook"
	"github.com/google/uuid"
)

// ParseWorkbook parses data and reports what an import would write.
// It never touches the store and may be called any number of times.
func (s *Service) ParseWorkbook(data []byte) (*DryRunResult, error) {
	if len(data) == 0 {
		return nil, ErrNoFile
	}

	wb, err := workbook.Open(data)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	return buildPreview(parser.ParseAll(wb, nil), s.opts.SampleSize), nil
}

// DryRun parses data, creates a migration job holding the workbook and opens
// the job's progress topic. The returned job id is what StartImport takes.
func (s *Service) DryRun(ctx context.Context, fileName string, data []byte) (*DryRunResponse, error) {
	preview, err := s.ParseWorkbook(data)
	if err != nil {
		return nil, fmt.Errorf("dry run %s: %w", fileName, err)
	}

	now := s.now()
	who := requesterFrom(ctx)
	j := &job{
		id:        uuid.New().String(),
		fileName:  fileName,
		data:      data,
		clientIP:  who.IP,
		userAgent: who.UserAgent,
		state:     JobPreviewed,
		createdAt: now,
		updatedAt: now,
		preview:   preview,
	}

	s.mu.Lock()
	s.jobs[j.id] = j
	s.mu.Unlock()
	s.progress.Open(j.id)

	logging.ForJob(ctx, j.id).Info("dry run complete",
		"file", fileName,
		"records", preview.TotalRecords,
		"warnings", preview.TotalWarnings,
		"skipped_sheets", len(preview.SkippedSheets),
	)

	return &DryRunResponse{JobID: j.id, Preview: preview}, nil
}

// buildPreview flattens parsed groups into per-table summaries in import order.
func buildPreview(res *parser.Result, sampleSize int) *DryRunResult {
	out := &DryRunResult{
		Tables:           make([]TablePreview, 0, len(record.ImportOrder)),
		AllWarnings:      []string{},
		WorkbookWarnings: append([]string{}, res.Warnings...),
		SkippedSheets:    append([]string{}, res.SkippedSheets...),
	}
	out.AllWarnings = append(out.AllWarnings, out.WorkbookWarnings...)

	for _, def := range All() {
		recs := res.Groups[def.Info.Key]
		tp := TablePreview{
			Table:       def.Info.Key,
			Label:       def.Info.Label,
			RecordCount: len(recs),
			Sample:      make([]map[string]any, 0, min(sampleSize, len(recs))),
			Warnings:    recordWarnings(recs),
		}
		for _, rec := range recs[:min(sampleSize, len(recs))] {
			tp.Sample = append(tp.Sample, record.Flatten(rec))
		}

		out.Tables = append(out.Tables, tp)
		out.TotalRecords += tp.RecordCount
		out.AllWarnings = append(out.AllWarnings, tp.Warnings...)
	}

	out.TotalWarnings = len(out.AllWarnings)
	return out
}

func recordWarnings(recs []record.Record) []string {
	out := []string{}
	for _, rec := range recs {
		out = append(out, rec.Warnings()...)
	}
	return out
}
