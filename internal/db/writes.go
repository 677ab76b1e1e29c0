package db

import (
	"context"
	"fmt"
	"strings"
)

// UpdateRecord applies patch to the record identified by key in a single
// statement, so either every listed column changes or none does.
func (d *DB) UpdateRecord(ctx context.Context, key string, patch Patch) error {
	var sets []string
	var args []any

	if patch.StatusField != "" {
		if !IsStatusField(patch.StatusField) {
			return fmt.Errorf("not a status column: %q", patch.StatusField)
		}
		sets = append(sets, patch.StatusField+" = ?")
		args = append(args, patch.Status)
	}
	switch {
	case patch.ClearReviewedAt:
		sets = append(sets, "reviewed_at = NULL")
	case patch.ReviewedAt != nil:
		sets = append(sets, "reviewed_at = ?")
		args = append(args, *patch.ReviewedAt)
	}
	switch {
	case patch.ClearNotes:
		sets = append(sets, "notes = NULL")
	case patch.Notes != nil:
		sets = append(sets, "notes = ?")
		args = append(args, *patch.Notes)
	}
	if len(sets) == 0 {
		return fmt.Errorf("updating %s: empty patch", key)
	}

	args = append(args, key)
	res, err := d.conn.ExecContext(ctx,
		`UPDATE records SET `+strings.Join(sets, ", ")+` WHERE key = ?`, args...)
	if err != nil {
		return fmt.Errorf("updating %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating %s: %w", key, err)
	}
	if n == 0 {
		return fmt.Errorf("updating %s: %w", key, ErrNotFound)
	}
	return nil
}

// InsertRecords writes records in one transaction and returns how many rows
// were added. Existing keys are skipped unless replace is set. Empty status
// columns are stored as pending.
func (d *DB) InsertRecords(ctx context.Context, records []Record, replace bool) (int, error) {
	verb := "INSERT OR IGNORE"
	if replace {
		verb = "INSERT OR REPLACE"
	}

	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning import: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, verb+` INTO records (`+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing import: %w", err)
	}
	defer stmt.Close()

	added := 0
	for _, r := range records {
		if r.Key == "" {
			return 0, fmt.Errorf("importing record with empty key (category %q)", r.Category)
		}
		status := r.StatusValue("status", "pending")
		reviewStatus := r.StatusValue("review_status", "pending")
		res, err := stmt.ExecContext(ctx, r.Key, r.Category, r.Content, status, reviewStatus, r.Notes, r.ReviewedAt)
		if err != nil {
			return 0, fmt.Errorf("importing %s: %w", r.Key, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			added += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing import: %w", err)
	}
	return added, nil
}
