package core

import (
	"fmt"
	"sort"
	"sync"

	"github.com/JonMunkholm/workbook-migrate/internal/record"
)

var (
	registry   = make(map[record.Table]TableDefinition)
	registryMu sync.RWMutex
)

// Register adds a table definition to the registry.
// Panics if the table is unknown or already registered.
func Register(def TableDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	pos := def.Info.Key.Position()
	if pos == 0 {
		panic(fmt.Sprintf("unknown table: %s", def.Info.Key))
	}
	if _, exists := registry[def.Info.Key]; exists {
		panic(fmt.Sprintf("table already registered: %s", def.Info.Key))
	}

	def.Info.Position = pos
	if def.Schema.Table == "" {
		def.Schema.Table = def.Info.Key
	}
	if len(def.Schema.Columns) == 0 {
		def.Schema.Columns = record.Columns(def.Info.Key)
	}
	if def.Schema.Discriminator == "" {
		def.Schema.Discriminator = record.DiscriminatorColumn(def.Info.Key)
	}

	registry[def.Info.Key] = def
}

// Get returns a table definition by key.
func Get(key record.Table) (TableDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// All returns all registered table definitions in import order.
func All() []TableDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]TableDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Info.Position < result[j].Info.Position
	})
	return result
}

// ByGroup returns the table definitions fed by one sheet, in import order.
func ByGroup(group string) []TableDefinition {
	var result []TableDefinition
	for _, def := range All() {
		if def.Info.Group == group {
			result = append(result, def)
		}
	}
	return result
}

// Groups returns the source sheet names in order of first import.
func Groups() []string {
	seen := make(map[string]bool)
	var groups []string
	for _, def := range All() {
		if !seen[def.Info.Group] {
			seen[def.Info.Group] = true
			groups = append(groups, def.Info.Group)
		}
	}
	return groups
}

// TableCount returns the number of registered tables.
func TableCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Missing returns the tables in import order that have no definition.
func Missing() []record.Table {
	registryMu.RLock()
	defer registryMu.RUnlock()

	var out []record.Table
	for _, t := range record.ImportOrder {
		if _, ok := registry[t]; !ok {
			out = append(out, t)
		}
	}
	return out
}

// Clear removes all registered tables.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[record.Table]TableDefinition)
}
