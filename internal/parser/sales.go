package parser

import (
	"github.com/JonMunkholm/workbook-migrate/internal/record"
	"github.com/JonMunkholm/workbook-migrate/internal/schema"
	"github.com/JonMunkholm/workbook-migrate/internal/workbook"
)

// Sales reads project and sales counts.
type Sales struct{}

func (Sales) Name() string            { return "sales" }
func (Sales) Sheet() schema.SheetSpec { return schema.Sales }

func (Sales) Parse(wb *workbook.Workbook, pc *Context) (record.Groups, error) {
	return parseBlocks(wb, pc, schema.Sales, func(t record.Table, e *entry) parsed {
		if t == record.Projects {
			return &record.ProjectWeek{
				Base:        e.Base,
				ProjectType: e.Key,
				Count:       e.Nums["count"],
				Value:       e.Nums["value"],
			}
		}
		return &record.SalesWeek{
			Base:      e.Base,
			SalesType: e.Key,
			Count:     e.Nums["count"],
			Value:     e.Nums["value"],
		}
	})
}
