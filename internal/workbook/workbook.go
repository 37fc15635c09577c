// Package workbook loads spreadsheet workbooks and exposes their sheets as
// plain rows of text cells.
//
// The package is a thin layer over excelize. Cell values are read raw (no
// number formatting applied), so dates come back as Excel serial numbers and
// amounts without currency formatting; see ParseDate and ParseNumber.
package workbook

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrLoad is returned when the workbook bytes cannot be opened.
var ErrLoad = errors.New("workbook cannot be opened")

// ErrSheetNotFound is returned when a sheet is absent from the workbook.
var ErrSheetNotFound = errors.New("sheet not found")

// MaxHeaderSearchRows is the maximum number of rows scanned for a header row.
var MaxHeaderSearchRows = 20

// Workbook is a loaded, read-only workbook.
// Sheets are read lazily and cached; a Workbook is not safe for concurrent use.
type Workbook struct {
	file   *excelize.File
	sheets map[string]*Sheet
}

// Open loads a workbook from its raw xlsx bytes.
func Open(data []byte) (*Workbook, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrLoad)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}

	return &Workbook{
		file:   f,
		sheets: make(map[string]*Sheet),
	}, nil
}

// Close releases the underlying file resources.
func (w *Workbook) Close() error {
	return w.file.Close()
}

// SheetNames returns the sheet names in workbook order.
func (w *Workbook) SheetNames() []string {
	return w.file.GetSheetList()
}

// Sheet returns the sheet whose normalized name matches name.
// Matching ignores case, width and surrounding whitespace, so "cash  position"
// finds "Cash Position". Returns ErrSheetNotFound if no sheet matches.
func (w *Workbook) Sheet(name string) (*Sheet, error) {
	want := NormalizeLabel(name)
	for _, actual := range w.file.GetSheetList() {
		if NormalizeLabel(actual) != want {
			continue
		}
		if s, ok := w.sheets[actual]; ok {
			return s, nil
		}

		raw, err := w.file.GetRows(actual, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", actual, err)
		}

		s := newSheet(actual, raw)
		w.sheets[actual] = s
		return s, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, name)
}

// Row is a single sheet row. Number is the 1-based sheet row number.
type Row struct {
	Number int
	Cells  []string
}

// Cell returns the cleaned value of the cell at col, or "" when out of range.
func (r Row) Cell(col int) string {
	if col < 0 || col >= len(r.Cells) {
		return ""
	}
	return CleanCell(r.Cells[col])
}

// IsEmpty reports whether every cell in the row is blank.
func (r Row) IsEmpty() bool {
	for _, c := range r.Cells {
		if CleanCell(c) != "" {
			return false
		}
	}
	return true
}

// firstValue returns the first non-blank cell value.
func (r Row) firstValue() string {
	for _, c := range r.Cells {
		if v := CleanCell(c); v != "" {
			return v
		}
	}
	return ""
}

// nonEmptyCount returns the number of non-blank cells.
func (r Row) nonEmptyCount() int {
	n := 0
	for _, c := range r.Cells {
		if CleanCell(c) != "" {
			n++
		}
	}
	return n
}

// Sheet is a materialized sheet.
type Sheet struct {
	Name string
	Rows []Row
}

func newSheet(name string, raw [][]string) *Sheet {
	rows := make([]Row, len(raw))
	for i, cells := range raw {
		rows[i] = Row{Number: i + 1, Cells: cells}
	}
	return &Sheet{Name: name, Rows: rows}
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// surrounding whitespace, the ="..." text-formula wrapper and stray quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	}

	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}
