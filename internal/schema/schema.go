// Package schema describes the expected layout of each workbook sheet: the
// titled blocks it contains and the columns each block must or may carry.
package schema

import "github.com/JonMunkholm/workbook-migrate/internal/record"

// FieldType represents how a column's cells are read.
type FieldType int

const (
	FieldNumeric FieldType = iota
	FieldWeek              // week-ending date, normalized to Saturday
	FieldKey               // text discriminator, part of the natural key
)

// Range bounds a numeric field. Values outside it are kept with a warning.
type Range struct {
	Min float64
	Max float64 // 0 means unbounded above
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v float64) bool {
	if v < r.Min {
		return false
	}
	return r.Max == 0 || v <= r.Max
}

var (
	NonNegative = &Range{Min: 0}
	Rating      = &Range{Min: 0, Max: 5}
	Percent     = &Range{Min: 0, Max: 100}
)

// FieldSpec defines how a single sheet column is read.
type FieldSpec struct {
	Name     string    // header label as it appears in the sheet
	Aliases  []string  // alternative header labels
	DBColumn string    // target column; empty for week and key fields
	Type     FieldType // how cells are read
	Required bool      // header must exist for the block to be read
	Range    *Range    // optional bounds for numeric fields
}

// Labels returns the name followed by its aliases.
func (f FieldSpec) Labels() []string {
	return append([]string{f.Name}, f.Aliases...)
}

// BlockSpec is one table of rows within a sheet. Title is empty for sheets
// holding a single table anchored on its week column.
type BlockSpec struct {
	Title  string
	Table  record.Table
	Fields []FieldSpec
}

// Week returns the block's week field.
func (b BlockSpec) Week() FieldSpec {
	for _, f := range b.Fields {
		if f.Type == FieldWeek {
			return f
		}
	}
	return FieldSpec{}
}

// Key returns the block's discriminator field, if any.
func (b BlockSpec) Key() (FieldSpec, bool) {
	for _, f := range b.Fields {
		if f.Type == FieldKey {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Numeric returns the block's numeric fields in sheet order.
func (b BlockSpec) Numeric() []FieldSpec {
	var out []FieldSpec
	for _, f := range b.Fields {
		if f.Type == FieldNumeric {
			out = append(out, f)
		}
	}
	return out
}

// SheetSpec is the layout of a physical sheet.
type SheetSpec struct {
	Name    string
	Aliases []string
	Blocks  []BlockSpec
}
