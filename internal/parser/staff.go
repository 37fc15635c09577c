package parser

import (
	"math"

	"github.com/JonMunkholm/workbook-migrate/internal/record"
	"github.com/JonMunkholm/workbook-migrate/internal/schema"
	"github.com/JonMunkholm/workbook-migrate/internal/workbook"
)

// Staff reads per-person productivity and phone activity.
type Staff struct{}

func (Staff) Name() string            { return "staff" }
func (Staff) Sheet() schema.SheetSpec { return schema.Staff }

func (Staff) Parse(wb *workbook.Workbook, pc *Context) (record.Groups, error) {
	return parseBlocks(wb, pc, schema.Staff, func(t record.Table, e *entry) parsed {
		if t == record.StaffProductivity {
			r := &record.ProductivityWeek{
				Base:          e.Base,
				StaffName:     e.Key,
				HoursWorked:   e.Nums["hours_worked"],
				BillableHours: e.Nums["billable_hours"],
				JobsCompleted: e.Nums["jobs_completed"],
			}
			r.Utilisation = utilisation(r)
			return r
		}
		return &record.PhoneWeek{
			Base:             e.Base,
			StaffName:        e.Key,
			Inbound:          e.Nums["inbound"],
			Outbound:         e.Nums["outbound"],
			Missed:           e.Nums["missed"],
			AvgHandleSeconds: e.Nums["avg_handle_seconds"],
		}
	})
}

// utilisation is billable hours as a percentage of hours worked, rounded to
// two decimals. It is nil when either input is missing or no hours were worked.
func utilisation(r *record.ProductivityWeek) *float64 {
	if r.HoursWorked == nil || r.BillableHours == nil || *r.HoursWorked <= 0 {
		return nil
	}
	u := math.Round(*r.BillableHours / *r.HoursWorked * 10000) / 100
	if u > 100 {
		r.Warn("billable hours exceed hours worked")
	}
	return &u
}
