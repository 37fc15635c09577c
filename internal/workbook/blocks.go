package workbook

import (
	"errors"
	"fmt"
	"strings"
)

// ErrHeaderNotFound is returned when a sheet or block has no recognizable header row.
var ErrHeaderNotFound = errors.New("header not found")

// HeaderIndex maps normalized header labels to their column position.
type HeaderIndex struct {
	cols   map[string]int
	labels []string
}

// MakeHeaderIndex creates a HeaderIndex from a header row.
// Later duplicate labels do not override earlier ones.
func MakeHeaderIndex(header Row) HeaderIndex {
	idx := HeaderIndex{
		cols:   make(map[string]int, len(header.Cells)),
		labels: make([]string, len(header.Cells)),
	}
	for i := range header.Cells {
		label := header.Cell(i)
		idx.labels[i] = label
		key := NormalizeLabel(label)
		if key == "" {
			continue
		}
		if _, exists := idx.cols[key]; !exists {
			idx.cols[key] = i
		}
	}
	return idx
}

// Col returns the column of the first matching label.
// Labels are compared after normalization.
func (h HeaderIndex) Col(labels ...string) (int, bool) {
	for _, l := range labels {
		if c, ok := h.cols[NormalizeLabel(l)]; ok {
			return c, true
		}
	}
	return -1, false
}

// PrefixedColumn is a header column whose label starts with a known prefix.
type PrefixedColumn struct {
	Col    int
	Suffix string // label text after the prefix, as written in the sheet
}

// WithPrefix returns all columns whose normalized label starts with prefix,
// in column order. The prefix is matched after normalization and a separating
// ':' or '-' is stripped from the suffix.
func (h HeaderIndex) WithPrefix(prefix string) []PrefixedColumn {
	p := NormalizeLabel(prefix)
	var out []PrefixedColumn
	for i, label := range h.labels {
		norm := NormalizeLabel(label)
		if len(norm) <= len(p) || norm[:len(p)] != p {
			continue
		}
		if next := norm[len(p)]; next != ':' && next != ' ' && next != '-' {
			continue
		}
		suffix := trimSeparator(label, len([]rune(prefix)))
		if suffix == "" {
			continue
		}
		out = append(out, PrefixedColumn{Col: i, Suffix: suffix})
	}
	return out
}

// Block is a titled region of a sheet: a title row, a header row and the data
// rows beneath it, ending at the first blank row or the next title.
type Block struct {
	Title     string
	HeaderRow int // sheet row number of the header
	Header    HeaderIndex
	Rows      []Row
}

// Table locates the first row within MaxHeaderSearchRows that contains one of
// the anchor labels and returns everything below it as data rows. Blank rows
// are skipped rather than ending the table.
func (s *Sheet) Table(anchors ...string) (*Block, error) {
	limit := len(s.Rows)
	if limit > MaxHeaderSearchRows {
		limit = MaxHeaderSearchRows
	}

	for i := 0; i < limit; i++ {
		idx := MakeHeaderIndex(s.Rows[i])
		if _, ok := idx.Col(anchors...); !ok {
			continue
		}

		var data []Row
		for _, r := range s.Rows[i+1:] {
			if r.IsEmpty() {
				continue
			}
			data = append(data, r)
		}
		return &Block{Title: s.Name, HeaderRow: s.Rows[i].Number, Header: idx, Rows: data}, nil
	}

	return nil, fmt.Errorf("%w in sheet %q (expected column %q)", ErrHeaderNotFound, s.Name, strings.Join(anchors, " / "))
}

// Blocks finds the titled blocks named in titles. A title row is a row whose
// only non-blank cell matches one of the titles. Titles that do not appear are
// absent from the returned map.
func (s *Sheet) Blocks(titles ...string) map[string]*Block {
	wanted := make(map[string]string, len(titles))
	for _, t := range titles {
		wanted[NormalizeLabel(t)] = t
	}

	titleOf := func(r Row) (string, bool) {
		if r.nonEmptyCount() != 1 {
			return "", false
		}
		t, ok := wanted[NormalizeLabel(r.firstValue())]
		return t, ok
	}

	out := make(map[string]*Block)
	for i := 0; i < len(s.Rows); i++ {
		title, ok := titleOf(s.Rows[i])
		if !ok {
			continue
		}

		// Header is the next non-blank row.
		j := i + 1
		for j < len(s.Rows) && s.Rows[j].IsEmpty() {
			j++
		}
		if j >= len(s.Rows) {
			break
		}
		if _, isTitle := titleOf(s.Rows[j]); isTitle {
			continue
		}

		block := &Block{Title: title, HeaderRow: s.Rows[j].Number, Header: MakeHeaderIndex(s.Rows[j])}
		k := j + 1
		for ; k < len(s.Rows); k++ {
			r := s.Rows[k]
			if r.IsEmpty() {
				break
			}
			if _, isTitle := titleOf(r); isTitle {
				break
			}
			block.Rows = append(block.Rows, r)
		}

		if _, dup := out[title]; !dup {
			out[title] = block
		}
		i = k - 1
	}
	return out
}
