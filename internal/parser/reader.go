package parser

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/workbook-migrate/internal/record"
	"github.com/JonMunkholm/workbook-migrate/internal/schema"
	"github.com/JonMunkholm/workbook-migrate/internal/workbook"
)

// entry is one data row read against a block spec.
type entry struct {
	record.Base
	Key  string
	Nums map[string]*float64 // by DB column
	Row  workbook.Row
}

// parsed is a record that accepts warnings after construction.
type parsed interface {
	record.Record
	Warn(format string, args ...any)
}

type resolvedField struct {
	spec schema.FieldSpec
	col  int
}

// readBlock reads every data row of blk according to spec. Rows without a
// usable week or key are skipped with a workbook-level warning; cell-level
// problems become warnings on the entry.
func readBlock(pc *Context, sheet string, blk *workbook.Block, spec schema.BlockSpec) ([]*entry, error) {
	where := sheet
	if spec.Title != "" {
		where = fmt.Sprintf("%s %s", sheet, spec.Title)
	}

	var fields []resolvedField
	weekCol, keyCol := -1, -1
	for _, f := range spec.Fields {
		col, ok := blk.Header.Col(f.Labels()...)
		if !ok {
			if f.Required {
				return nil, fmt.Errorf("%s: %w (missing column %q)", where, workbook.ErrHeaderNotFound, f.Name)
			}
			pc.Warn("%s: column %q not found; values left empty", where, f.Name)
			col = -1
		}
		switch f.Type {
		case schema.FieldWeek:
			weekCol = col
		case schema.FieldKey:
			keyCol = col
		default:
			fields = append(fields, resolvedField{spec: f, col: col})
		}
	}

	var out []*entry
	for _, row := range blk.Rows {
		rawWeek := row.Cell(weekCol)
		week, err := workbook.ParseWeek(rawWeek)
		if err != nil {
			pc.Warn("%s row %d: skipped, invalid week ending %q", sheet, row.Number, rawWeek)
			continue
		}

		e := &entry{
			Base: record.Base{
				WeekDate: week,
				From:     record.Source{Sheet: sheet, Row: row.Number},
			},
			Nums: make(map[string]*float64, len(fields)),
			Row:  row,
		}

		if keyCol >= 0 {
			raw := row.Cell(keyCol)
			e.Key = normalizeKey(spec.Table, raw)
			if e.Key == "" {
				pc.Warn("%s row %d: skipped, missing %s", sheet, row.Number, keyName(spec))
				continue
			}
		}

		for _, f := range fields {
			e.Nums[f.spec.DBColumn] = readNumber(&e.Base, row, f)
		}
		out = append(out, e)
	}
	return out, nil
}

// readNumber reads one numeric cell. Blank and non-numeric cells yield nil
// with a warning; out-of-range values are kept with a warning.
func readNumber(b *record.Base, row workbook.Row, f resolvedField) *float64 {
	if f.col < 0 {
		return nil
	}

	v, ok, err := workbook.ParseNumber(row.Cell(f.col))
	if err != nil {
		b.Warn("%s: %v; left empty", f.spec.Name, err)
		return nil
	}
	if !ok {
		b.Warn("missing %s", f.spec.Name)
		return nil
	}
	if f.spec.Range != nil && !f.spec.Range.Contains(v) {
		b.Warn("%s %v is outside the expected range", f.spec.Name, v)
	}
	return &v
}

// normalizeKey canonicalizes a discriminator. Staff names keep their case;
// categorical keys become slugs so "Google Ads" and "google ads" collide.
func normalizeKey(t record.Table, raw string) string {
	switch t {
	case record.StaffProductivity, record.Phone:
		return strings.Join(strings.Fields(raw), " ")
	default:
		return workbook.Slug(raw)
	}
}

func keyName(spec schema.BlockSpec) string {
	if f, ok := spec.Key(); ok {
		return strings.ToLower(f.Name)
	}
	return "key"
}

// dedupe enforces one record per natural key. The later row wins; the kept
// record is warned about the row it replaced.
func dedupe(recs []parsed) []record.Record {
	out := make([]record.Record, 0, len(recs))
	index := make(map[string]int, len(recs))

	for _, r := range recs {
		k := r.Key().String()
		i, seen := index[k]
		if !seen {
			index[k] = len(out)
			out = append(out, r)
			continue
		}
		r.Warn("duplicate of %s for %s; later row kept", out[i].Source(), k)
		out[i] = r
	}
	return out
}
