package tables

import (
	"github.com/JonMunkholm/workbook-migrate/internal/core"
	"github.com/JonMunkholm/workbook-migrate/internal/record"
	"github.com/JonMunkholm/workbook-migrate/internal/schema"
)

func init() {
	core.Register(define(record.StaffProductivity, schema.Staff.Name, "Staff Productivity", "weekly_staff_productivity"))
	core.Register(define(record.Phone, schema.Staff.Name, "Phone", "weekly_phone"))
}
