package db

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCountStatuses(t *testing.T) {
	d := setupTestDB(t)
	insertRecord(t, d, "A", "loans", "pending")
	insertRecord(t, d, "B", "loans", "keep")
	insertRecord(t, d, "C", "loans", "keep")
	insertRecord(t, d, "D", "rates", "delete")
	insertRecord(t, d, "E", "rates", "")
	ctx := context.Background()

	got, err := d.CountStatuses(ctx, nil, "status", "pending")
	if err != nil {
		t.Fatal(err)
	}
	want := Stats{
		Total:    5,
		Reviewed: 3,
		ByStatus: map[string]int{"pending": 2, "keep": 2, "delete": 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
	if got.Pending() != 2 {
		t.Errorf("Pending() = %d, want 2", got.Pending())
	}

	got, err = d.CountStatuses(ctx, []Predicate{{"category", "rates"}}, "status", "pending")
	if err != nil {
		t.Fatal(err)
	}
	if got.Total != 2 || got.Reviewed != 1 {
		t.Errorf("filtered stats = %+v", got)
	}
}

func TestCountStatuses_Empty(t *testing.T) {
	d := setupTestDB(t)
	got, err := d.CountStatuses(context.Background(), nil, "status", "pending")
	if err != nil {
		t.Fatal(err)
	}
	if got.Total != 0 || got.Progress() != 0 {
		t.Errorf("empty stats = %+v", got)
	}
}

func TestCountStatuses_BadField(t *testing.T) {
	d := setupTestDB(t)
	if _, err := d.CountStatuses(context.Background(), nil, "content", "pending"); err == nil {
		t.Fatal("expected error for non-status field")
	}
}

func TestCategories(t *testing.T) {
	d := setupTestDB(t)
	insertRecord(t, d, "A", "rates", "pending")
	insertRecord(t, d, "B", "loans", "keep")
	insertRecord(t, d, "C", "loans", "pending")

	got, err := d.Categories(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"loans", "rates"}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	got, err = d.Categories(context.Background(), []Predicate{{"status", "keep"}})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"loans"}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}
