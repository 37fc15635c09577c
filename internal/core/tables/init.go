// Package tables registers all table definitions with the core registry.
// Import this package to ensure all tables are registered.
package tables

import (
	"github.com/JonMunkholm/workbook-migrate/internal/core"
	"github.com/JonMunkholm/workbook-migrate/internal/record"
	"github.com/JonMunkholm/workbook-migrate/internal/store"
)

// Each sheet file uses init() to register the tables it feeds.

// define builds a definition whose columns and discriminator come from the
// record package.
func define(key record.Table, sheet, label, sqlName string) core.TableDefinition {
	return core.TableDefinition{
		Info: core.TableInfo{
			Key:   key,
			Group: sheet,
			Label: label,
		},
		Schema: store.Schema{
			Table:         key,
			Name:          sqlName,
			Discriminator: record.DiscriminatorColumn(key),
			Columns:       record.Columns(key),
		},
	}
}
