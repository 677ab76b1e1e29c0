package db

import "errors"

// ErrNotFound is returned when no row matches the requested key.
var ErrNotFound = errors.New("record not found")

// Record represents a row in the records table
type Record struct {
	Key          string  `json:"key"`
	Category     string  `json:"category"`
	Content      string  `json:"content"`
	Status       string  `json:"status"`
	ReviewStatus string  `json:"review_status"`
	Notes        *string `json:"notes"`
	ReviewedAt   *int64  `json:"reviewed_at"` // Unix millis
}

// StatusValue returns the value of the named status column. An empty value
// reads as pending.
func (r Record) StatusValue(field, pending string) string {
	v := r.Status
	if field == "review_status" {
		v = r.ReviewStatus
	}
	if v == "" {
		return pending
	}
	return v
}

// SetStatusValue writes the named status column.
func (r *Record) SetStatusValue(field, value string) {
	if field == "review_status" {
		r.ReviewStatus = value
		return
	}
	r.Status = value
}

// Predicate is an equality filter on one column.
type Predicate struct {
	Field string
	Value string
}

// Query selects records for a review view.
type Query struct {
	Where       []Predicate
	StatusField string // column used for pending-first ordering
	Pending     string // value of StatusField that sorts first
}

// Patch lists the columns an update touches. Nil pointers leave the column
// unchanged; the Clear flags set it to NULL.
type Patch struct {
	StatusField     string
	Status          string
	ReviewedAt      *int64
	ClearReviewedAt bool
	Notes           *string
	ClearNotes      bool
}

// Stats holds aggregate status counts.
type Stats struct {
	Total    int            `json:"total"`
	Reviewed int            `json:"reviewed"`
	ByStatus map[string]int `json:"by_status"`
}

// Pending returns the number of records not yet reviewed.
func (s Stats) Pending() int {
	return s.Total - s.Reviewed
}

// Progress returns the reviewed fraction in [0, 1].
func (s Stats) Progress() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Reviewed) / float64(s.Total)
}
