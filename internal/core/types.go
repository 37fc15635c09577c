package core

import (
	"time"

	"github.com/JonMunkholm/workbook-migrate/internal/record"
	"github.com/JonMunkholm/workbook-migrate/internal/store"
)

// TableInfo contains display information about a target table.
type TableInfo struct {
	Key      record.Table `json:"key"`      // "financial", "google-reviews", ...
	Group    string       `json:"group"`    // source sheet: "Financial", "KPIs", ...
	Label    string       `json:"label"`    // display name: "Google Reviews"
	Position int          `json:"position"` // 1-based import position, set by Register
}

// TableDefinition contains everything needed to import a record group.
type TableDefinition struct {
	Info   TableInfo
	Schema store.Schema
}

// Phase is the stage a migration has reached.
type Phase string

const (
	PhaseParsing   Phase = "parsing"
	PhaseImporting Phase = "importing"
	PhaseComplete  Phase = "complete"
	PhaseError     Phase = "error"
)

// ProgressEvent is published as an import advances.
type ProgressEvent struct {
	Phase    Phase            `json:"phase"`
	Sheet    string           `json:"sheet,omitempty"`
	Table    record.Table     `json:"table,omitempty"`
	Current  int              `json:"current"`
	Total    int              `json:"total"`
	Warnings int              `json:"warnings"`
	Message  string           `json:"message"`
	Result   *MigrationResult `json:"result,omitempty"` // only on PhaseComplete and PhaseError
}

// Terminal reports whether e ends its job's event stream.
func (e ProgressEvent) Terminal() bool {
	return e.Phase == PhaseComplete || e.Phase == PhaseError
}

// Percent returns the import progress as a percentage (0-100).
func (e ProgressEvent) Percent() int {
	switch {
	case e.Phase == PhaseComplete:
		return 100
	case e.Phase == PhaseImporting && e.Total > 0:
		return (e.Current * 100) / e.Total
	default:
		return 0
	}
}

// TablePreview summarizes one record group in a dry run.
type TablePreview struct {
	Table       record.Table     `json:"table"`
	Label       string           `json:"label"`
	RecordCount int              `json:"recordCount"`
	Sample      []map[string]any `json:"sample"`
	Warnings    []string         `json:"warnings"`
}

// DryRunResult is what an import would do, computed without writing.
type DryRunResult struct {
	Tables           []TablePreview `json:"tables"`
	TotalRecords     int            `json:"totalRecords"`
	TotalWarnings    int            `json:"totalWarnings"`
	AllWarnings      []string       `json:"allWarnings"`
	WorkbookWarnings []string       `json:"workbookWarnings"`
	SkippedSheets    []string       `json:"skippedSheets"`
}

// TableResult is the outcome of importing one record group.
type TableResult struct {
	Table    record.Table `json:"table"`
	Label    string       `json:"label"`
	Records  int          `json:"records"`
	Inserted int          `json:"inserted"`
	Updated  int          `json:"updated"`
	Warnings []string     `json:"warnings"`
	Error    string       `json:"error,omitempty"`
}

// MigrationResult is the outcome of an import.
// Success is false when the workbook could not be loaded or any table failed.
type MigrationResult struct {
	JobID            string         `json:"jobId"`
	Success          bool           `json:"success"`
	Tables           []TableResult  `json:"tables"`
	TotalRecords     int            `json:"totalRecords"`
	TotalInserted    int            `json:"totalInserted"`
	TotalUpdated     int            `json:"totalUpdated"`
	TotalWarnings    int            `json:"totalWarnings"`
	AllWarnings      []string       `json:"allWarnings"`
	WorkbookWarnings []string       `json:"workbookWarnings"`
	FailedTables     []record.Table `json:"failedTables"`
	DurationMS       int64          `json:"durationMs"`
}

// JobState is where a migration job is in its lifecycle.
type JobState string

const (
	JobPreviewed JobState = "previewed"
	JobImporting JobState = "importing"
	JobComplete  JobState = "complete"
	JobFailed    JobState = "failed"
)

// JobInfo is a snapshot of a migration job.
type JobInfo struct {
	ID        string           `json:"jobId"`
	FileName  string           `json:"fileName"`
	State     JobState         `json:"state"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
	Preview   *DryRunResult    `json:"preview,omitempty"`
	Result    *MigrationResult `json:"result,omitempty"`
}

// DryRunResponse pairs a dry run with the job that can import it.
type DryRunResponse struct {
	JobID   string        `json:"jobId"`
	Preview *DryRunResult `json:"preview"`
}

// ImportAck acknowledges that an import has started.
type ImportAck struct {
	JobID  string   `json:"jobId"`
	State  JobState `json:"state"`
	Tables int      `json:"tables"`
}
