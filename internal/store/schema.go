package store

import (
	"context"
	_ "embed"
	"fmt"
)

// SchemaSQL creates the weekly tables and the run log when they are missing.
//
//go:embed schema.sql
var SchemaSQL string

// EnsureSchema applies SchemaSQL. It is safe to run repeatedly.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, SchemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
