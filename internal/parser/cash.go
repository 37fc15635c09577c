package parser

import (
	"fmt"
	"math"
	"time"

	"github.com/JonMunkholm/workbook-migrate/internal/record"
	"github.com/JonMunkholm/workbook-migrate/internal/schema"
	"github.com/JonMunkholm/workbook-migrate/internal/workbook"
)

// CashPosition reads the cash snapshot sheet. The sheet has no week column;
// the snapshot is dated with the context's reference week, falling back to
// an "As At" cell on the sheet.
type CashPosition struct{}

func (CashPosition) Name() string            { return "cash-position" }
func (CashPosition) Sheet() schema.SheetSpec { return schema.CashPosition }

func (CashPosition) Parse(wb *workbook.Workbook, pc *Context) (record.Groups, error) {
	sheet, err := openSheet(wb, schema.CashPosition)
	if err != nil {
		return nil, err
	}

	week := pc.ReferenceWeek
	if week.IsZero() {
		week, err = asAtWeek(sheet)
		if err != nil {
			return nil, err
		}
	}

	tbl, err := sheet.Table(schema.CashAccountHeader)
	if err != nil {
		return nil, err
	}
	accountCol, _ := tbl.Header.Col(schema.CashAccountHeader)
	balanceCol, ok := tbl.Header.Col(schema.CashBalanceHeader)
	if !ok {
		return nil, fmt.Errorf("%w (missing column %q)", workbook.ErrHeaderNotFound, schema.CashBalanceHeader)
	}

	snap := &record.CashSnapshot{
		Base: record.Base{
			WeekDate: workbook.WeekEnding(week),
			From:     record.Source{Sheet: sheet.Name},
		},
	}

	var bank float64
	accounts := 0
	for _, row := range tbl.Rows {
		label := row.Cell(accountCol)
		if label == "" || matches(label, schema.CashIgnored) || matches(label, []string{schema.CashAsAtLabel}) {
			continue
		}

		v, ok, err := workbook.ParseNumber(row.Cell(balanceCol))
		if err != nil {
			snap.Warn("row %d %s: %v; ignored", row.Number, label, err)
			continue
		}
		if !ok {
			snap.Warn("row %d %s: missing balance", row.Number, label)
			continue
		}

		switch {
		case matches(label, schema.CashReceivables):
			snap.Receivables = &v
		case matches(label, schema.CashPayables):
			p := math.Abs(v)
			snap.Payables = &p
		default:
			bank += v
			accounts++
		}
	}

	if accounts > 0 {
		snap.BankBalance = &bank
	} else {
		snap.Warn("no bank accounts listed; bank balance left empty")
	}
	if snap.Receivables == nil {
		snap.Warn("missing Receivables")
	}
	if snap.Payables == nil {
		snap.Warn("missing Payables")
	}

	if snap.BankBalance != nil {
		net := *snap.BankBalance
		if snap.Receivables != nil {
			net += *snap.Receivables
		}
		if snap.Payables != nil {
			net -= *snap.Payables
		}
		snap.NetPosition = &net
	}

	return record.Groups{record.CashPosition: {snap}}, nil
}

// asAtWeek finds an "As At <date>" row anywhere on the sheet.
func asAtWeek(sheet *workbook.Sheet) (time.Time, error) {
	for _, row := range sheet.Rows {
		for i := range row.Cells {
			if !matches(row.Cell(i), []string{schema.CashAsAtLabel}) {
				continue
			}
			for j := i + 1; j < len(row.Cells); j++ {
				if v := row.Cell(j); v != "" {
					return workbook.ParseWeek(v)
				}
			}
		}
	}
	return time.Time{}, ErrNoReferenceWeek
}

func matches(label string, candidates []string) bool {
	norm := workbook.NormalizeLabel(label)
	for _, c := range candidates {
		if norm == workbook.NormalizeLabel(c) {
			return true
		}
	}
	return false
}
