package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/workbook-migrate/internal/record"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Postgres implements Store and RunLog on PostgreSQL.
type Postgres struct {
	db DBTX
}

// NewPostgres creates a Postgres store.
func NewPostgres(db DBTX) *Postgres {
	return &Postgres{db: db}
}

func keyWhere(s Schema, key record.NaturalKey) squirrel.Eq {
	where := squirrel.Eq{"week_date": pgtype.Date{Time: key.WeekDate, Valid: true}}
	if s.Discriminator != "" {
		where[s.Discriminator] = key.Discriminator
	}
	return where
}

// FindByNaturalKey implements Store.
func (p *Postgres) FindByNaturalKey(ctx context.Context, s Schema, key record.NaturalKey) (*Row, error) {
	cols := append(append([]string{}, s.Columns...), "data_source", "updated_at")

	query, args, err := psql.
		Select(cols...).
		From(s.Name).
		Where(keyWhere(s, key)).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select for %s: %w", s.Name, err)
	}

	values := make([]*float64, len(s.Columns))
	var dataSource pgtype.Text
	var updatedAt time.Time

	dest := make([]any, 0, len(cols))
	for i := range values {
		dest = append(dest, &values[i])
	}
	dest = append(dest, &dataSource, &updatedAt)

	if err := p.db.QueryRow(ctx, query, args...).Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find %s %s: %w", s.Name, key, err)
	}

	row := &Row{
		Key:        key,
		Values:     make(record.Values, len(s.Columns)),
		DataSource: dataSource.String,
		UpdatedAt:  updatedAt,
	}
	for i, c := range s.Columns {
		row.Values[c] = values[i]
	}
	return row, nil
}

// Upsert implements Store.
func (p *Postgres) Upsert(ctx context.Context, s Schema, key record.NaturalKey, values record.Values) error {
	keyCols := s.KeyColumns()

	cols := append(append([]string{}, keyCols...), s.Columns...)
	cols = append(cols, "data_source")

	args := []any{pgtype.Date{Time: key.WeekDate, Valid: true}}
	if s.Discriminator != "" {
		args = append(args, key.Discriminator)
	}
	for _, c := range s.Columns {
		args = append(args, values[c])
	}
	args = append(args, DataSourceWorkbook)

	set := make([]string, 0, len(s.Columns)+2)
	for _, c := range s.Columns {
		set = append(set, fmt.Sprintf("%s = EXCLUDED.%s", c, c))
	}
	set = append(set, "data_source = EXCLUDED.data_source", "updated_at = NOW()")

	query, qargs, err := psql.
		Insert(s.Name).
		Columns(cols...).
		Values(args...).
		Suffix(fmt.Sprintf("ON CONFLICT (%s) DO UPDATE SET %s",
			strings.Join(keyCols, ", "), strings.Join(set, ", "))).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert for %s: %w", s.Name, err)
	}

	if _, err := p.db.Exec(ctx, query, qargs...); err != nil {
		return fmt.Errorf("upsert %s %s: %w", s.Name, key, err)
	}
	return nil
}

const runsTable = "migration_runs"

// RecordRun implements RunLog.
func (p *Postgres) RecordRun(ctx context.Context, run Run) error {
	if run.FailedTables == nil {
		run.FailedTables = []string{}
	}

	query, args, err := psql.
		Insert(runsTable).
		Columns(
			"job_id", "file_name", "success",
			"total_records", "total_inserted", "total_updated", "total_warnings",
			"failed_tables", "client_ip", "user_agent",
			"started_at", "finished_at",
		).
		Values(
			run.JobID, run.FileName, run.Success,
			run.TotalRecords, run.TotalInserted, run.TotalUpdated, run.TotalWarnings,
			run.FailedTables, nullText(run.ClientIP), nullText(run.UserAgent),
			run.StartedAt, run.FinishedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build run insert: %w", err)
	}

	if _, err := p.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("record run %s: %w", run.JobID, err)
	}
	return nil
}

// RecentRuns implements RunLog. Newest runs come first.
func (p *Postgres) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	query, args, err := psql.
		Select(
			"job_id", "file_name", "success",
			"total_records", "total_inserted", "total_updated", "total_warnings",
			"failed_tables", "client_ip", "user_agent",
			"started_at", "finished_at",
		).
		From(runsTable).
		OrderBy("finished_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build run select: %w", err)
	}

	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var ip, ua pgtype.Text
		if err := rows.Scan(
			&r.JobID, &r.FileName, &r.Success,
			&r.TotalRecords, &r.TotalInserted, &r.TotalUpdated, &r.TotalWarnings,
			&r.FailedTables, &ip, &ua,
			&r.StartedAt, &r.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.ClientIP = ip.String
		r.UserAgent = ua.String
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func nullText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	return pgtype.Text{String: s, Valid: s != ""}
}
