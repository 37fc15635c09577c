//go:generate mockgen -source=store.go -destination=mocks/store.go -package=mocks

// Package store persists parsed weekly records by natural key.
//
// The weekly tables are owned and migrated outside this service; the engine
// only needs to look rows up by natural key and create-or-update them.
package store

import (
	"context"
	"time"

	"github.com/JonMunkholm/workbook-migrate/internal/record"
)

// DataSourceWorkbook marks rows written by the workbook migration.
const DataSourceWorkbook = "workbook_migration"

// Schema describes how a record group maps onto its SQL table.
type Schema struct {
	Table         record.Table
	Name          string   // SQL table name
	Discriminator string   // natural-key column beside week_date, "" if none
	Columns       []string // value columns
}

// KeyColumns returns the natural-key columns in constraint order.
func (s Schema) KeyColumns() []string {
	if s.Discriminator == "" {
		return []string{"week_date"}
	}
	return []string{"week_date", s.Discriminator}
}

// Row is a persisted record.
type Row struct {
	Key        record.NaturalKey
	Values     record.Values
	DataSource string
	UpdatedAt  time.Time
}

// Store is the persistence contract consumed by the importer.
type Store interface {
	// FindByNaturalKey returns the row for key, or nil if none exists.
	FindByNaturalKey(ctx context.Context, s Schema, key record.NaturalKey) (*Row, error)

	// Upsert creates or overwrites the row for key. Columns of s missing
	// from values are written as NULL.
	Upsert(ctx context.Context, s Schema, key record.NaturalKey, values record.Values) error
}

// Run is one finished import, as written to the run log.
type Run struct {
	JobID         string
	FileName      string
	Success       bool
	TotalRecords  int
	TotalInserted int
	TotalUpdated  int
	TotalWarnings int
	FailedTables  []string
	ClientIP      string
	UserAgent     string
	StartedAt     time.Time
	FinishedAt    time.Time
}

// RunLog records finished imports.
type RunLog interface {
	RecordRun(ctx context.Context, run Run) error
	RecentRuns(ctx context.Context, limit int) ([]Run, error)
}
