package tables

import (
	"github.com/JonMunkholm/workbook-migrate/internal/core"
	"github.com/JonMunkholm/workbook-migrate/internal/record"
	"github.com/JonMunkholm/workbook-migrate/internal/schema"
)

func init() {
	core.Register(define(record.CashPosition, schema.CashPosition.Name, "Cash Position", "cash_position"))
}
