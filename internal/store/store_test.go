package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/workbook-migrate/internal/record"
)

var (
	week = time.Date(2025, 1, 25, 0, 0, 0, 0, time.UTC)

	revenueSchema = Schema{
		Table:         record.Revenue,
		Name:          "weekly_revenue",
		Discriminator: "category",
		Columns:       []string{"amount"},
	}
	reviewSchema = Schema{
		Table:   record.GoogleReviews,
		Name:    "weekly_google_reviews",
		Columns: []string{"average_rating", "total_reviews", "new_reviews"},
	}
)

// ----------------------------------------------------------------------------
// Memory
// ----------------------------------------------------------------------------

func TestMemory_UpsertAndFind(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	key := record.NaturalKey{WeekDate: week, Discriminator: "class_1a"}

	row, err := m.FindByNaturalKey(ctx, revenueSchema, key)
	require.NoError(t, err)
	assert.Nil(t, row)

	require.NoError(t, m.Upsert(ctx, revenueSchema, key, record.Values{"amount": record.Float(95420)}))

	row, err = m.FindByNaturalKey(ctx, revenueSchema, key)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, 95420.0, *row.Values["amount"])
	assert.Equal(t, DataSourceWorkbook, row.DataSource)

	// Overwrite, not merge.
	require.NoError(t, m.Upsert(ctx, revenueSchema, key, record.Values{}))
	row, err = m.FindByNaturalKey(ctx, revenueSchema, key)
	require.NoError(t, err)
	assert.Nil(t, row.Values["amount"])
	assert.Equal(t, 1, m.Count(revenueSchema))

	other := record.NaturalKey{WeekDate: week, Discriminator: "residential"}
	row, err = m.FindByNaturalKey(ctx, revenueSchema, other)
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	key := record.NaturalKey{WeekDate: week}

	v := record.Float(4.5)
	require.NoError(t, m.Upsert(ctx, reviewSchema, key, record.Values{"average_rating": v}))
	*v = 1

	row, err := m.FindByNaturalKey(ctx, reviewSchema, key)
	require.NoError(t, err)
	assert.Equal(t, 4.5, *row.Values["average_rating"])

	*row.Values["average_rating"] = 2
	again, _ := m.FindByNaturalKey(ctx, reviewSchema, key)
	assert.Equal(t, 4.5, *again.Values["average_rating"])
}

func TestMemory_Runs(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, m.RecordRun(ctx, Run{JobID: id, FinishedAt: week.Add(time.Duration(i) * time.Minute)}))
	}

	runs, err := m.RecentRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].JobID)
	assert.Equal(t, "b", runs[1].JobID)
}

// ----------------------------------------------------------------------------
// Postgres (SQL shape against a recording DBTX)
// ----------------------------------------------------------------------------

type recordingDB struct {
	sql  []string
	args [][]any
	row  pgx.Row
	err  error
}

func (d *recordingDB) Exec(_ context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	d.sql = append(d.sql, sql)
	d.args = append(d.args, args)
	return pgconn.CommandTag{}, d.err
}

func (d *recordingDB) Query(_ context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	d.sql = append(d.sql, sql)
	d.args = append(d.args, args)
	return nil, errors.New("not implemented")
}

func (d *recordingDB) QueryRow(_ context.Context, sql string, args ...interface{}) pgx.Row {
	d.sql = append(d.sql, sql)
	d.args = append(d.args, args)
	return d.row
}

type rowFunc func(dest ...any) error

func (f rowFunc) Scan(dest ...any) error { return f(dest...) }

func TestPostgres_UpsertSQL(t *testing.T) {
	db := &recordingDB{}
	p := NewPostgres(db)
	key := record.NaturalKey{WeekDate: week, Discriminator: "class_1a"}

	err := p.Upsert(context.Background(), revenueSchema, key, record.Values{"amount": record.Float(95420)})
	require.NoError(t, err)
	require.Len(t, db.sql, 1)

	sql := db.sql[0]
	assert.True(t, strings.HasPrefix(sql, "INSERT INTO weekly_revenue (week_date,category,amount,data_source) VALUES ($1,$2,$3,$4)"), sql)
	assert.Contains(t, sql, "ON CONFLICT (week_date, category) DO UPDATE SET amount = EXCLUDED.amount, data_source = EXCLUDED.data_source, updated_at = NOW()")

	args := db.args[0]
	require.Len(t, args, 4)
	assert.Equal(t, pgtype.Date{Time: week, Valid: true}, args[0])
	assert.Equal(t, "class_1a", args[1])
	assert.Equal(t, 95420.0, *(args[2].(*float64)))
	assert.Equal(t, DataSourceWorkbook, args[3])
}

func TestPostgres_UpsertWeekOnlyKey(t *testing.T) {
	db := &recordingDB{}
	p := NewPostgres(db)

	err := p.Upsert(context.Background(), reviewSchema, record.NaturalKey{WeekDate: week}, record.Values{})
	require.NoError(t, err)

	assert.Contains(t, db.sql[0], "ON CONFLICT (week_date) DO UPDATE")
	args := db.args[0]
	require.Len(t, args, 5)
	assert.Nil(t, args[1], "missing values are written as NULL")
}

func TestPostgres_UpsertError(t *testing.T) {
	db := &recordingDB{err: errors.New("violates check constraint")}
	p := NewPostgres(db)

	err := p.Upsert(context.Background(), reviewSchema, record.NaturalKey{WeekDate: week}, record.Values{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weekly_google_reviews 2025-01-25")
	assert.Contains(t, err.Error(), "violates check constraint")
}

func TestPostgres_FindNotFound(t *testing.T) {
	db := &recordingDB{row: rowFunc(func(...any) error { return pgx.ErrNoRows })}
	p := NewPostgres(db)

	row, err := p.FindByNaturalKey(context.Background(), revenueSchema, record.NaturalKey{WeekDate: week, Discriminator: "x"})
	require.NoError(t, err)
	assert.Nil(t, row)

	sql := db.sql[0]
	assert.Equal(t, "SELECT amount, data_source, updated_at FROM weekly_revenue WHERE category = $1 AND week_date = $2 LIMIT 1", sql)
}

func TestPostgres_FindScansValues(t *testing.T) {
	updated := week.Add(time.Hour)
	db := &recordingDB{row: rowFunc(func(dest ...any) error {
		require.Len(t, dest, 5)
		*dest[0].(**float64) = record.Float(4.8)
		*dest[1].(**float64) = nil
		*dest[2].(**float64) = record.Float(6)
		*dest[3].(*pgtype.Text) = pgtype.Text{String: DataSourceWorkbook, Valid: true}
		*dest[4].(*time.Time) = updated
		return nil
	})}
	p := NewPostgres(db)

	row, err := p.FindByNaturalKey(context.Background(), reviewSchema, record.NaturalKey{WeekDate: week})
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, 4.8, *row.Values["average_rating"])
	assert.Nil(t, row.Values["total_reviews"])
	assert.Equal(t, 6.0, *row.Values["new_reviews"])
	assert.Equal(t, DataSourceWorkbook, row.DataSource)
	assert.Equal(t, updated, row.UpdatedAt)
}

func TestPostgres_RecordRun(t *testing.T) {
	db := &recordingDB{}
	p := NewPostgres(db)

	err := p.RecordRun(context.Background(), Run{JobID: "job-1", FileName: "weekly.xlsx"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(db.sql[0], "INSERT INTO migration_runs"))
	assert.Equal(t, []string{}, db.args[0][7], "failed tables default to an empty array")
}

func TestSchemaSQL_CoversKeys(t *testing.T) {
	for _, name := range []string{
		"weekly_financials", "weekly_projects", "weekly_sales", "weekly_leads",
		"weekly_google_reviews", "weekly_team_performance", "weekly_revenue",
		"cash_position", "weekly_staff_productivity", "weekly_phone",
		"weekly_marketing", "migration_runs",
	} {
		assert.Contains(t, SchemaSQL, "CREATE TABLE IF NOT EXISTS "+name+" ")
	}
}
