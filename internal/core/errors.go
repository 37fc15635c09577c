package core

import (
	"errors"
	"fmt"

	"github.com/JonMunkholm/workbook-migrate/internal/record"
	"github.com/JonMunkholm/workbook-migrate/internal/workbook"
)

var (
	// ErrJobNotFound is returned for an unknown job id.
	ErrJobNotFound = errors.New("migration job not found")
	// ErrJobExpired is returned for a job past its time-to-live.
	ErrJobExpired = errors.New("migration job expired")
	// ErrImportRunning is returned when the job's import has already started.
	ErrImportRunning = errors.New("import already running")
	// ErrJobConsumed is returned when the job's import has already finished.
	ErrJobConsumed = errors.New("migration job already imported")
	// ErrWorkbookLoad is returned when the workbook bytes cannot be opened.
	ErrWorkbookLoad = workbook.ErrLoad
	// ErrNoFile is returned when a dry run receives no workbook bytes.
	ErrNoFile = errors.New("no file provided")
)

// TableImportError reports the record at which a table's import stopped.
type TableImportError struct {
	Table record.Table
	Index int // zero-based index of the failing record
	Key   record.NaturalKey
	Err   error
}

func (e *TableImportError) Error() string {
	return fmt.Sprintf("import %s record %d (%s): %v", e.Table, e.Index+1, e.Key, e.Err)
}

func (e *TableImportError) Unwrap() error {
	return e.Err
}
