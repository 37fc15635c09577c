package parser

import (
	"github.com/JonMunkholm/workbook-migrate/internal/record"
	"github.com/JonMunkholm/workbook-migrate/internal/schema"
	"github.com/JonMunkholm/workbook-migrate/internal/workbook"
)

// Financial reads the weekly financial summary and its per-category revenue
// columns.
type Financial struct{}

func (Financial) Name() string            { return "financial" }
func (Financial) Sheet() schema.SheetSpec { return schema.Financial }

func (Financial) Parse(wb *workbook.Workbook, pc *Context) (record.Groups, error) {
	sheet, err := openSheet(wb, schema.Financial)
	if err != nil {
		return nil, err
	}

	spec := schema.Financial.Blocks[0]
	tbl, err := sheet.Table(spec.Week().Labels()...)
	if err != nil {
		return nil, err
	}

	entries, err := readBlock(pc, sheet.Name, tbl, spec)
	if err != nil {
		return nil, err
	}

	revenueCols := tbl.Header.WithPrefix(schema.RevenuePrefix)

	weeks := make([]parsed, 0, len(entries))
	var revenue []parsed
	for _, e := range entries {
		weeks = append(weeks, &record.FinancialWeek{
			Base:               e.Base,
			TotalTradingIncome: e.Nums["total_trading_income"],
			TotalCostOfSales:   e.Nums["total_cost_of_sales"],
			GrossProfit:        e.Nums["gross_profit"],
			OtherIncome:        e.Nums["other_income"],
			OperatingExpenses:  e.Nums["operating_expenses"],
			Wages:              e.Nums["wages"],
			NetProfit:          e.Nums["net_profit"],
		})

		for _, rc := range revenueCols {
			if r := revenueCell(pc, e, rc); r != nil {
				revenue = append(revenue, r)
			}
		}
	}

	groups := record.Groups{record.Financial: dedupe(weeks)}
	if len(revenue) > 0 {
		groups[record.Revenue] = dedupe(revenue)
	}
	return groups, nil
}

// revenueCell reads one "Revenue: <Category>" cell. Blank cells mean the
// category had no revenue that week and produce no record. A placeholder
// such as "-" keeps the record with an empty amount, as other numeric cells do.
func revenueCell(pc *Context, e *entry, rc workbook.PrefixedColumn) *record.RevenueWeek {
	cell := e.Row.Cell(rc.Col)
	if cell == "" {
		return nil
	}

	category := workbook.Slug(rc.Suffix)
	if category == "" {
		pc.Warn("%s: revenue column %q has no category", e.From, rc.Suffix)
		return nil
	}

	r := &record.RevenueWeek{
		Base:     record.Base{WeekDate: e.WeekDate, From: e.From},
		Category: category,
	}

	v, ok, err := workbook.ParseNumber(cell)
	if err != nil {
		r.Warn("Revenue %s: %v; left empty", rc.Suffix, err)
		return r
	}
	if !ok {
		r.Warn("missing Revenue %s", rc.Suffix)
		return r
	}
	r.Amount = &v
	return r
}
