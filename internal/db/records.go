package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
)

const recordColumns = `key, category, content, status, review_status, notes, reviewed_at`

// scanRecord scans a row into a Record. The row must have all 7 columns in standard order.
func scanRecord(scanner interface{ Scan(dest ...any) error }) (Record, error) {
	var r Record
	err := scanner.Scan(
		&r.Key, &r.Category, &r.Content, &r.Status, &r.ReviewStatus,
		&r.Notes, &r.ReviewedAt,
	)
	return r, err
}

// buildWhere renders predicates as "a = ? AND b = ?" with their arguments.
func buildWhere(preds []Predicate) ([]string, []any, error) {
	conds := make([]string, 0, len(preds))
	args := make([]any, 0, len(preds))
	for _, p := range preds {
		if !filterable[p.Field] {
			return nil, nil, fmt.Errorf("cannot filter on column %q", p.Field)
		}
		conds = append(conds, p.Field+" = ?")
		args = append(args, p.Value)
	}
	return conds, args, nil
}

func whereClause(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

// FetchRecords returns every record matching q, pending records first and
// each partition in key order. Rows are read in pages of PageSize using the
// key as a cursor, so a status change made by another reviewer mid-read can
// neither drop nor duplicate a row.
func (d *DB) FetchRecords(ctx context.Context, q Query) ([]Record, error) {
	conds, args, err := buildWhere(q.Where)
	if err != nil {
		return nil, err
	}
	limit := d.pageSize()

	var all []Record
	after := ""
	for page := 0; ; page++ {
		pageConds := append([]string{}, conds...)
		pageArgs := append([]any{}, args...)
		if page > 0 {
			pageConds = append(pageConds, "key > ?")
			pageArgs = append(pageArgs, after)
		}
		pageArgs = append(pageArgs, limit)
		query := `SELECT ` + recordColumns + ` FROM records` + whereClause(pageConds) +
			` ORDER BY key LIMIT ?`

		rows, err := d.conn.QueryContext(ctx, query, pageArgs...)
		if err != nil {
			return nil, fmt.Errorf("fetching page %d: %w", page, err)
		}
		n := 0
		for rows.Next() {
			r, err := scanRecord(rows)
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("scanning record: %w", err)
			}
			all = append(all, r)
			after = r.Key
			n++
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("fetching page %d: %w", page, err)
		}
		if n < limit {
			break
		}
	}

	pending := q.Pending
	if pending == "" {
		pending = "pending"
	}
	field := q.StatusField
	if field == "" {
		field = "status"
	}
	return PendingFirst(all, field, pending), nil
}

// PendingFirst orders records so every pending record precedes every
// reviewed one, each group ascending by key. The input slice is not modified.
func PendingFirst(records []Record, field, pending string) []Record {
	out := make([]Record, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		pi := out[i].StatusValue(field, pending) == pending
		pj := out[j].StatusValue(field, pending) == pending
		if pi != pj {
			return pi
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// GetRecord returns a single record by key, or ErrNotFound.
func (d *DB) GetRecord(ctx context.Context, key string) (*Record, error) {
	row := d.conn.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM records WHERE key = ?`, key)
	r, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

// SearchByKeyPrefix finds records whose key starts with the given prefix.
func (d *DB) SearchByKeyPrefix(ctx context.Context, prefix string, limit int) ([]Record, error) {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(prefix)
	rows, err := d.conn.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE key LIKE ? ESCAPE '\' ORDER BY key LIMIT ?`,
		escaped+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
