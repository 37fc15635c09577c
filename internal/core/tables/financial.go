package tables

import (
	"github.com/JonMunkholm/workbook-migrate/internal/core"
	"github.com/JonMunkholm/workbook-migrate/internal/record"
	"github.com/JonMunkholm/workbook-migrate/internal/schema"
)

func init() {
	core.Register(define(record.Financial, schema.Financial.Name, "Financials", "weekly_financials"))
	core.Register(define(record.Revenue, schema.Financial.Name, "Revenue", "weekly_revenue"))
}
