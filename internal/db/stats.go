package db

import (
	"context"
	"fmt"
)

// CountStatuses returns the total row count and per-status counts for rows
// matching where. Empty status values count as pending.
func (d *DB) CountStatuses(ctx context.Context, where []Predicate, field, pending string) (Stats, error) {
	if !IsStatusField(field) {
		return Stats{}, fmt.Errorf("not a status column: %q", field)
	}
	conds, args, err := buildWhere(where)
	if err != nil {
		return Stats{}, err
	}

	query := `SELECT COALESCE(NULLIF(` + field + `, ''), ?) AS s, COUNT(*) FROM records` +
		whereClause(conds) + ` GROUP BY s`
	rows, err := d.conn.QueryContext(ctx, query, append([]any{pending}, args...)...)
	if err != nil {
		return Stats{}, fmt.Errorf("counting statuses: %w", err)
	}
	defer rows.Close()

	stats := Stats{ByStatus: map[string]int{}}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return Stats{}, fmt.Errorf("counting statuses: %w", err)
		}
		stats.ByStatus[status] = n
		stats.Total += n
		if status != pending {
			stats.Reviewed += n
		}
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("counting statuses: %w", err)
	}
	return stats, nil
}

// Categories returns the distinct categories of rows matching where, sorted.
func (d *DB) Categories(ctx context.Context, where []Predicate) ([]string, error) {
	conds, args, err := buildWhere(where)
	if err != nil {
		return nil, err
	}
	rows, err := d.conn.QueryContext(ctx,
		`SELECT DISTINCT category FROM records`+whereClause(conds)+` ORDER BY category`, args...)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
