package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/JonMunkholm/workbook-migrate/internal/record"
)

// Memory is an in-process Store and RunLog.
// It backs dry-run tooling and tests.
type Memory struct {
	mu   sync.RWMutex
	rows map[string]map[string]Row // table name -> key -> row
	runs []Run
	now  func() time.Time
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		rows: make(map[string]map[string]Row),
		now:  time.Now,
	}
}

// FindByNaturalKey implements Store.
func (m *Memory) FindByNaturalKey(_ context.Context, s Schema, key record.NaturalKey) (*Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	row, ok := m.rows[s.Name][key.String()]
	if !ok {
		return nil, nil
	}
	row.Values = copyValues(row.Values)
	return &row, nil
}

// Upsert implements Store.
func (m *Memory) Upsert(_ context.Context, s Schema, key record.NaturalKey, values record.Values) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	table, ok := m.rows[s.Name]
	if !ok {
		table = make(map[string]Row)
		m.rows[s.Name] = table
	}

	stored := make(record.Values, len(s.Columns))
	for _, c := range s.Columns {
		if v := values[c]; v != nil {
			f := *v
			stored[c] = &f
		} else {
			stored[c] = nil
		}
	}

	table[key.String()] = Row{
		Key:        key,
		Values:     stored,
		DataSource: DataSourceWorkbook,
		UpdatedAt:  m.now(),
	}
	return nil
}

// Count returns the number of rows stored for a table.
func (m *Memory) Count(s Schema) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows[s.Name])
}

// RecordRun implements RunLog.
func (m *Memory) RecordRun(_ context.Context, run Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

// RecentRuns implements RunLog. Newest runs come first.
func (m *Memory) RecentRuns(_ context.Context, limit int) ([]Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	runs := append([]Run(nil), m.runs...)
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].FinishedAt.After(runs[j].FinishedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func copyValues(v record.Values) record.Values {
	out := make(record.Values, len(v))
	for k, p := range v {
		if p == nil {
			out[k] = nil
			continue
		}
		f := *p
		out[k] = &f
	}
	return out
}
