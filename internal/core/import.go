package core

// import.go runs imports: it re-parses the workbook, upserts every record
// group in record.ImportOrder and publishes progress as it goes.
//
// Failures are contained at three levels. A parser failure becomes a
// workbook warning (see parser.ParseAll). A table failure becomes one
// warning on that table and the remaining tables still run. Only a workbook
// that cannot be loaded ends the import early, with an error event.

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/workbook-migrate/internal/logging"
	"github.com/JonMunkholm/workbook-migrate/internal/parser"
	"github.com/JonMunkholm/workbook-migrate/internal/record"
	"github.com/JonMunkholm/workbook-migrate/internal/store"
	"github.com/JonMunkholm/workbook-migrate/internal/workbook"
)

// StartImport begins the import of a dry-run job in the background and
// returns as soon as it has an import slot. Follow the import with
// SubscribeProgress; the terminal event carries the MigrationResult.
func (s *Service) StartImport(ctx context.Context, jobID string) (*ImportAck, error) {
	j, err := s.claim(jobID)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		s.unclaim(j)
		return nil, err
	}

	if who := requesterFrom(ctx); who != (Requester{}) {
		j.clientIP, j.userAgent = who.IP, who.UserAgent
	}
	data := j.data
	s.progress.Open(jobID)

	importCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ImportTimeout)
	s.running.Add(1)
	go func() {
		defer s.running.Done()
		defer s.limiter.Release()
		defer cancel()

		started := s.now()
		result := s.runImport(importCtx, data, jobID, func(terminal ProgressEvent) {
			s.finish(j, terminal)
		})
		s.recordRun(importCtx, j, result, started)
	}()

	return &ImportAck{JobID: jobID, State: JobImporting, Tables: TableCount()}, nil
}

// ImportData parses data and upserts every record group, publishing progress
// on jobID when a topic for it is open. It never panics and never returns
// nil; failures are reported through the result.
func (s *Service) ImportData(ctx context.Context, data []byte, jobID string) *MigrationResult {
	return s.runImport(ctx, data, jobID, nil)
}

// runImport does the work of ImportData. finish, when non-nil, sees the
// terminal event before it is published.
func (s *Service) runImport(ctx context.Context, data []byte, jobID string, finish func(ProgressEvent)) (result *MigrationResult) {
	start := time.Now()
	log := logging.ForJob(ctx, jobID)

	result = &MigrationResult{
		JobID:            jobID,
		Tables:           []TableResult{},
		AllWarnings:      []string{},
		WorkbookWarnings: []string{},
		FailedTables:     []record.Table{},
	}
	var terminal ProgressEvent

	defer func() {
		if r := recover(); r != nil {
			log.Error("import panicked", "panic", r)
			terminal = s.abort(result, fmt.Errorf("import aborted: %v", r))
		}
		result.DurationMS = time.Since(start).Milliseconds()
		terminal.Result = result
		if finish != nil {
			finish(terminal)
		}
		s.publish(jobID, terminal)
	}()

	s.publish(jobID, ProgressEvent{Phase: PhaseParsing, Message: "Reading workbook"})

	if len(data) == 0 {
		log.Error("import failed", "error", ErrNoFile)
		terminal = s.abort(result, ErrNoFile)
		return result
	}
	wb, err := workbook.Open(data)
	if err != nil {
		log.Error("import failed", "error", err)
		terminal = s.abort(result, err)
		return result
	}
	defer wb.Close()

	parsed := parser.ParseAll(wb, func(sheet string) {
		s.publish(jobID, ProgressEvent{Phase: PhaseParsing, Sheet: sheet, Message: "Parsing " + sheet})
	})
	for _, o := range parsed.Failed() {
		log.Warn("parser failed", "parser", o.Parser, "error", o.Err)
	}

	result.TotalRecords = parsed.Groups.Total()
	result.WorkbookWarnings = append(result.WorkbookWarnings, parsed.Warnings...)
	result.AllWarnings = append(result.AllWarnings, parsed.Warnings...)
	s.publish(jobID, ProgressEvent{
		Phase:    PhaseParsing,
		Total:    result.TotalRecords,
		Warnings: len(result.AllWarnings),
		Message:  fmt.Sprintf("Parsed %d records", result.TotalRecords),
	})

	defs := All()
	for i, def := range defs {
		s.publish(jobID, ProgressEvent{
			Phase:    PhaseImporting,
			Sheet:    def.Info.Group,
			Table:    def.Info.Key,
			Current:  i,
			Total:    len(defs),
			Warnings: len(result.AllWarnings),
			Message:  "Importing " + def.Info.Label,
		})

		tr := s.importTable(ctx, def, parsed.Groups[def.Info.Key], log)
		result.Tables = append(result.Tables, tr)
		result.TotalInserted += tr.Inserted
		result.TotalUpdated += tr.Updated
		result.AllWarnings = append(result.AllWarnings, tr.Warnings...)
		if tr.Error != "" {
			result.FailedTables = append(result.FailedTables, def.Info.Key)
		}
	}

	result.TotalWarnings = len(result.AllWarnings)
	result.Success = len(result.FailedTables) == 0

	log.Info("import complete",
		"records", result.TotalRecords,
		"inserted", result.TotalInserted,
		"updated", result.TotalUpdated,
		"warnings", result.TotalWarnings,
		"failed_tables", len(result.FailedTables),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	terminal = ProgressEvent{
		Phase:    PhaseComplete,
		Current:  len(defs),
		Total:    len(defs),
		Warnings: result.TotalWarnings,
		Message:  completeMessage(result),
	}
	return result
}

// abort marks result as failed with one workbook warning and returns the
// error event to publish.
func (s *Service) abort(result *MigrationResult, err error) ProgressEvent {
	msg := err.Error()
	result.Success = false
	result.WorkbookWarnings = append(result.WorkbookWarnings, msg)
	result.AllWarnings = append(result.AllWarnings, msg)
	result.TotalWarnings = len(result.AllWarnings)

	return ProgressEvent{
		Phase:    PhaseError,
		Warnings: result.TotalWarnings,
		Message:  MapError(err).Message,
	}
}

// importTable upserts one record group. A failure stops the group, keeps the
// counts reached so far and adds one warning for the table.
func (s *Service) importTable(ctx context.Context, def TableDefinition, recs []record.Record, log *slog.Logger) TableResult {
	tr := TableResult{
		Table:    def.Info.Key,
		Label:    def.Info.Label,
		Records:  len(recs),
		Warnings: recordWarnings(recs),
	}

	if err := s.upsertAll(ctx, def, recs, &tr); err != nil {
		log.Error("table import failed",
			"table", def.Info.Key,
			"inserted", tr.Inserted,
			"updated", tr.Updated,
			"error", err,
		)
		tr.Error = err.Error()
		tr.Warnings = append(tr.Warnings, fmt.Sprintf("%s: import failed: %v", def.Info.Label, err))
	}
	return tr
}

func (s *Service) upsertAll(ctx context.Context, def TableDefinition, recs []record.Record, tr *TableResult) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("import %s panicked: %v", def.Info.Key, r)
		}
	}()

	for i, rec := range recs {
		key := rec.Key()
		if err := ctx.Err(); err != nil {
			return &TableImportError{Table: def.Info.Key, Index: i, Key: key, Err: err}
		}

		existing, err := s.store.FindByNaturalKey(ctx, def.Schema, key)
		if err != nil {
			return &TableImportError{Table: def.Info.Key, Index: i, Key: key, Err: err}
		}
		if err := s.store.Upsert(ctx, def.Schema, key, rec.Values()); err != nil {
			return &TableImportError{Table: def.Info.Key, Index: i, Key: key, Err: err}
		}

		if existing != nil {
			tr.Updated++
		} else {
			tr.Inserted++
		}
	}
	return nil
}

func completeMessage(r *MigrationResult) string {
	msg := fmt.Sprintf("Imported %d records (%d new, %d updated)", r.TotalRecords, r.TotalInserted, r.TotalUpdated)
	if n := len(r.FailedTables); n > 0 {
		msg += fmt.Sprintf("; %d tables failed", n)
	}
	return msg
}

// recordRun writes a finished import to the run log.
func (s *Service) recordRun(ctx context.Context, j *job, result *MigrationResult, started time.Time) {
	if s.runs == nil {
		return
	}

	run := store.Run{
		JobID:         j.id,
		FileName:      j.fileName,
		Success:       result.Success,
		TotalRecords:  result.TotalRecords,
		TotalInserted: result.TotalInserted,
		TotalUpdated:  result.TotalUpdated,
		TotalWarnings: result.TotalWarnings,
		FailedTables:  tableNames(result.FailedTables),
		ClientIP:      j.clientIP,
		UserAgent:     j.userAgent,
		StartedAt:     started,
		FinishedAt:    s.now(),
	}

	// The import may have used up its deadline; the log entry should still land.
	logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := s.runs.RecordRun(logCtx, run); err != nil {
		logging.ForJob(ctx, j.id).Warn("failed to record migration run", "error", err)
	}
}
