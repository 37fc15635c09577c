// Package workbooktest builds in-memory xlsx workbooks for tests.
package workbooktest

import (
	"testing"

	"github.com/xuri/excelize/v2"
)

// Sheet is a named sheet and its rows, starting at A1.
// A nil row leaves a blank line.
type Sheet struct {
	Name string
	Rows [][]any
}

// Builder accumulates sheets in order.
type Builder struct {
	sheets []Sheet
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{}
}

// Sheet appends a sheet.
func (b *Builder) Sheet(name string, rows ...[]any) *Builder {
	b.sheets = append(b.sheets, Sheet{Name: name, Rows: rows})
	return b
}

// Without returns a copy of the builder minus the named sheet.
func (b *Builder) Without(name string) *Builder {
	out := &Builder{}
	for _, s := range b.sheets {
		if s.Name != name {
			out.sheets = append(out.sheets, s)
		}
	}
	return out
}

// Bytes renders the workbook as xlsx bytes.
func (b *Builder) Bytes(t testing.TB) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, s := range b.sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.Name); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			t.Fatalf("new sheet %q: %v", s.Name, err)
		}

		for r, row := range s.Rows {
			if row == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			values := row
			if err := f.SetSheetRow(s.Name, cell, &values); err != nil {
				t.Fatalf("write row %d of %q: %v", r+1, s.Name, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}
