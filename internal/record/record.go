// Package record defines the eleven weekly record groups produced by the
// workbook parsers and consumed by the importer.
//
// Every record type is a concrete struct. The importer only sees the Record
// interface; Values is derived from the struct fields so a table can never be
// written with a column it does not declare.
package record

import (
	"fmt"
	"time"
)

// Table identifies a record group and its target table.
type Table string

const (
	Financial         Table = "financial"
	Projects          Table = "projects"
	Sales             Table = "sales"
	Leads             Table = "leads"
	GoogleReviews     Table = "google-reviews"
	TeamPerformance   Table = "team-performance"
	Revenue           Table = "revenue"
	CashPosition      Table = "cash-position"
	StaffProductivity Table = "staff-productivity"
	Phone             Table = "phone"
	Marketing         Table = "marketing"
)

// ImportOrder is the fixed sequence in which groups are imported.
var ImportOrder = [...]Table{
	Financial,
	Projects,
	Sales,
	Leads,
	GoogleReviews,
	TeamPerformance,
	Revenue,
	CashPosition,
	StaffProductivity,
	Phone,
	Marketing,
}

// Position returns the 1-based import position of t, or 0 if t is unknown.
func (t Table) Position() int {
	for i, o := range ImportOrder {
		if o == t {
			return i + 1
		}
	}
	return 0
}

// Valid reports whether t is one of the known tables.
func (t Table) Valid() bool {
	return t.Position() > 0
}

// NaturalKey uniquely identifies a record within its table.
// Discriminator is empty for tables keyed by week alone.
type NaturalKey struct {
	WeekDate      time.Time
	Discriminator string
}

// String renders the key as "2025-01-25" or "2025-01-25/class_1a".
func (k NaturalKey) String() string {
	d := k.WeekDate.Format(time.DateOnly)
	if k.Discriminator == "" {
		return d
	}
	return d + "/" + k.Discriminator
}

// Values maps column names to nullable numbers.
type Values map[string]*float64

// Record is one parsed row bound for a table.
type Record interface {
	Table() Table
	Key() NaturalKey
	Values() Values
	Warnings() []string
	Source() Source
}

// Source locates the sheet row a record came from.
type Source struct {
	Sheet string
	Row   int
}

func (s Source) String() string {
	if s.Row <= 0 {
		return s.Sheet
	}
	return fmt.Sprintf("%s row %d", s.Sheet, s.Row)
}

// Base carries the fields shared by every record type.
type Base struct {
	WeekDate time.Time
	From     Source
	Warns    []string
}

// Source returns where the record was read from.
func (b *Base) Source() Source { return b.From }

// Warnings returns the warnings attached while parsing.
func (b *Base) Warnings() []string { return b.Warns }

// Warn attaches a warning, prefixed with the record's sheet location.
func (b *Base) Warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if b.From.Sheet != "" {
		msg = b.From.String() + ": " + msg
	}
	b.Warns = append(b.Warns, msg)
}

func (b *Base) key(discriminator string) NaturalKey {
	return NaturalKey{WeekDate: b.WeekDate, Discriminator: discriminator}
}

// Groups holds parsed records keyed by table.
type Groups map[Table][]Record

// Add appends records to their tables.
func (g Groups) Add(recs ...Record) {
	for _, r := range recs {
		g[r.Table()] = append(g[r.Table()], r)
	}
}

// Merge appends every group of other into g.
func (g Groups) Merge(other Groups) {
	for t, recs := range other {
		g[t] = append(g[t], recs...)
	}
}

// Total returns the number of records across all tables.
func (g Groups) Total() int {
	n := 0
	for _, recs := range g {
		n += len(recs)
	}
	return n
}

// Warnings returns the number of record warnings across all tables.
func (g Groups) Warnings() int {
	n := 0
	for _, recs := range g {
		for _, r := range recs {
			n += len(r.Warnings())
		}
	}
	return n
}

// LatestWeek returns the most recent week date in table t.
func (g Groups) LatestWeek(t Table) (time.Time, bool) {
	var latest time.Time
	for _, r := range g[t] {
		if w := r.Key().WeekDate; w.After(latest) {
			latest = w
		}
	}
	return latest, !latest.IsZero()
}

// Flatten renders a record as a flat column → value row for previews.
// Nil values are kept as nil.
func Flatten(r Record) map[string]any {
	k := r.Key()
	row := map[string]any{"week_date": k.WeekDate.Format(time.DateOnly)}
	if col := DiscriminatorColumn(r.Table()); col != "" {
		row[col] = k.Discriminator
	}
	for name, v := range r.Values() {
		if v == nil {
			row[name] = nil
			continue
		}
		row[name] = *v
	}
	return row
}
