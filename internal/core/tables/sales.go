package tables

import (
	"github.com/JonMunkholm/workbook-migrate/internal/core"
	"github.com/JonMunkholm/workbook-migrate/internal/record"
	"github.com/JonMunkholm/workbook-migrate/internal/schema"
)

func init() {
	core.Register(define(record.Projects, schema.Sales.Name, "Projects", "weekly_projects"))
	core.Register(define(record.Sales, schema.Sales.Name, "Sales", "weekly_sales"))
}
