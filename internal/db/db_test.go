package db

import (
	"context"
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

// setupTestDB creates an in-memory SQLite database with the records schema.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	// Each pooled connection to :memory: is a separate database
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	d := &DB{conn: conn, Path: ":memory:", PageSize: DefaultPageSize}
	if err := d.Migrate(context.Background()); err != nil {
		t.Fatal(err)
	}
	return d
}

func insertRecord(t *testing.T, d *DB, key, category, status string) {
	t.Helper()
	_, err := d.conn.Exec(
		`INSERT INTO records (key, category, content, status) VALUES (?, ?, ?, ?)`,
		key, category, "content of "+key, status,
	)
	if err != nil {
		t.Fatal(err)
	}
}

func strPtr(s string) *string { return &s }
func i64Ptr(v int64) *int64   { return &v }

func TestMigrate_Idempotent(t *testing.T) {
	d := setupTestDB(t)
	if err := d.Migrate(context.Background()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestOpenDB_File(t *testing.T) {
	path := t.TempDir() + "/curate.db"
	d, err := OpenDB(path)
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	defer d.Close()

	if d.Path != path {
		t.Errorf("Path = %q, want %q", d.Path, path)
	}
	if d.PageSize != DefaultPageSize {
		t.Errorf("PageSize = %d, want %d", d.PageSize, DefaultPageSize)
	}
	var mode string
	if err := d.Conn().QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatal(err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
}
