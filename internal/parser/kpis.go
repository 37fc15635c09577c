package parser

import (
	"github.com/JonMunkholm/workbook-migrate/internal/record"
	"github.com/JonMunkholm/workbook-migrate/internal/schema"
	"github.com/JonMunkholm/workbook-migrate/internal/workbook"
)

// KPIs reads the weekly review snapshot and regional team performance.
type KPIs struct{}

func (KPIs) Name() string            { return "kpis" }
func (KPIs) Sheet() schema.SheetSpec { return schema.KPIs }

func (KPIs) Parse(wb *workbook.Workbook, pc *Context) (record.Groups, error) {
	return parseBlocks(wb, pc, schema.KPIs, func(t record.Table, e *entry) parsed {
		if t == record.GoogleReviews {
			return &record.ReviewWeek{
				Base:          e.Base,
				AverageRating: e.Nums["average_rating"],
				TotalReviews:  e.Nums["total_reviews"],
				NewReviews:    e.Nums["new_reviews"],
			}
		}
		return &record.TeamWeek{
			Base:          e.Base,
			Region:        e.Key,
			JobsCompleted: e.Nums["jobs_completed"],
			Revenue:       e.Nums["revenue"],
			Utilisation:   e.Nums["utilisation"],
		}
	})
}
