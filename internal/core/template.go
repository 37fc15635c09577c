package core

import (
	"fmt"

	"github.com/JonMunkholm/workbook-migrate/internal/schema"
	"github.com/xuri/excelize/v2"
)

// WorkbookTemplate returns an empty .xlsx workbook laid out the way the
// sheet parsers expect: every sheet, block title and header, without data.
func WorkbookTemplate() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range schema.Sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet.Name); err != nil {
				return nil, fmt.Errorf("template sheet %s: %w", sheet.Name, err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return nil, fmt.Errorf("template sheet %s: %w", sheet.Name, err)
		}

		if err := writeTemplateSheet(f, sheet); err != nil {
			return nil, fmt.Errorf("template sheet %s: %w", sheet.Name, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write template: %w", err)
	}
	return buf.Bytes(), nil
}

func writeTemplateSheet(f *excelize.File, sheet schema.SheetSpec) error {
	var rows [][]any

	if len(sheet.Blocks) == 0 {
		// Snapshot layout: an As At row, then the account list.
		rows = [][]any{
			{schema.CashAsAtLabel, ""},
			nil,
			{schema.CashAccountHeader, schema.CashBalanceHeader},
			{schema.CashReceivables[0], ""},
			{schema.CashPayables[0], ""},
		}
	}

	for i, b := range sheet.Blocks {
		if i > 0 {
			rows = append(rows, nil)
		}
		if b.Title != "" {
			rows = append(rows, []any{b.Title})
		}
		header := make([]any, len(b.Fields))
		for j, field := range b.Fields {
			header[j] = field.Name
		}
		rows = append(rows, header)
	}

	for i, row := range rows {
		if row == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet.Name, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
