package tables

import (
	"github.com/JonMunkholm/workbook-migrate/internal/core"
	"github.com/JonMunkholm/workbook-migrate/internal/record"
	"github.com/JonMunkholm/workbook-migrate/internal/schema"
)

func init() {
	core.Register(define(record.Leads, schema.Marketing.Name, "Leads", "weekly_leads"))
	core.Register(define(record.Marketing, schema.Marketing.Name, "Marketing", "weekly_marketing"))
}
