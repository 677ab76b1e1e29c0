package db

import (
	"context"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	key           TEXT PRIMARY KEY,
	category      TEXT NOT NULL DEFAULT '',
	content       TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL DEFAULT 'pending',
	review_status TEXT NOT NULL DEFAULT 'pending',
	notes         TEXT,
	reviewed_at   INTEGER
);
CREATE INDEX IF NOT EXISTS idx_records_category ON records(category);
CREATE INDEX IF NOT EXISTS idx_records_status ON records(status);
CREATE INDEX IF NOT EXISTS idx_records_review_status ON records(review_status);
`

// Migrate creates the records table and its indexes if they are missing.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// filterable lists the columns that may appear in equality predicates.
// Column names are interpolated into SQL, so nothing else is accepted.
var filterable = map[string]bool{
	"key":           true,
	"category":      true,
	"status":        true,
	"review_status": true,
}

// IsStatusField reports whether field names a status column.
func IsStatusField(field string) bool {
	return field == "status" || field == "review_status"
}
