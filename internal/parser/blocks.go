package parser

import (
	"fmt"

	"github.com/JonMunkholm/workbook-migrate/internal/record"
	"github.com/JonMunkholm/workbook-migrate/internal/schema"
	"github.com/JonMunkholm/workbook-migrate/internal/workbook"
)

// buildFunc converts a read entry into the typed record for table t.
type buildFunc func(t record.Table, e *entry) parsed

// parseBlocks reads a sheet made of titled blocks. Missing or unreadable
// blocks become workbook-level warnings; a sheet with none of its blocks is
// an error.
func parseBlocks(wb *workbook.Workbook, pc *Context, spec schema.SheetSpec, build buildFunc) (record.Groups, error) {
	sheet, err := openSheet(wb, spec)
	if err != nil {
		return nil, err
	}

	titles := make([]string, len(spec.Blocks))
	for i, b := range spec.Blocks {
		titles[i] = b.Title
	}

	found := sheet.Blocks(titles...)
	if len(found) == 0 {
		return nil, fmt.Errorf("%w (expected %v)", ErrNoBlocks, titles)
	}

	groups := record.Groups{}
	for _, bs := range spec.Blocks {
		blk, ok := found[bs.Title]
		if !ok {
			pc.Warn("%s: block %q not found", sheet.Name, bs.Title)
			continue
		}

		entries, err := readBlock(pc, sheet.Name, blk, bs)
		if err != nil {
			pc.Warn("%v; block skipped", err)
			continue
		}

		recs := make([]parsed, 0, len(entries))
		for _, e := range entries {
			recs = append(recs, build(bs.Table, e))
		}
		groups[bs.Table] = dedupe(recs)
	}
	return groups, nil
}
