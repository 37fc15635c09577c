package parser

import (
	"github.com/JonMunkholm/workbook-migrate/internal/record"
	"github.com/JonMunkholm/workbook-migrate/internal/schema"
	"github.com/JonMunkholm/workbook-migrate/internal/workbook"
)

// Marketing reads lead sources and campaign platforms.
type Marketing struct{}

func (Marketing) Name() string            { return "marketing" }
func (Marketing) Sheet() schema.SheetSpec { return schema.Marketing }

func (Marketing) Parse(wb *workbook.Workbook, pc *Context) (record.Groups, error) {
	return parseBlocks(wb, pc, schema.Marketing, func(t record.Table, e *entry) parsed {
		if t == record.Leads {
			r := &record.LeadWeek{
				Base:       e.Base,
				LeadSource: e.Key,
				Leads:      e.Nums["leads"],
				Qualified:  e.Nums["qualified"],
				Converted:  e.Nums["converted"],
			}
			if exceeds(r.Qualified, r.Leads) {
				r.Warn("qualified exceeds leads")
			}
			if exceeds(r.Converted, r.Leads) {
				r.Warn("converted exceeds leads")
			}
			return r
		}
		return &record.MarketingWeek{
			Base:        e.Base,
			Platform:    e.Key,
			Spend:       e.Nums["spend"],
			Impressions: e.Nums["impressions"],
			Clicks:      e.Nums["clicks"],
			Conversions: e.Nums["conversions"],
		}
	})
}

// exceeds reports whether both values are present and a > b.
func exceeds(a, b *float64) bool {
	return a != nil && b != nil && *a > *b
}
