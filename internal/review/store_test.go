package review

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"datacurator/curate/internal/db"
	"datacurator/curate/internal/variant"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// memStore is an in-memory Store. Fetches return key order only, leaving
// the pending-first partition to the session.
type memStore struct {
	mu        sync.Mutex
	records   map[string]db.Record
	updates   []update
	fetches   []db.Query
	fetchErr  error
	updateErr error
	statsErr  error

	// gate, when set, blocks UpdateRecord until it is closed; entered
	// receives a value once the call is blocked.
	gate    chan struct{}
	entered chan struct{}
}

type update struct {
	Key   string
	Patch db.Patch
}

func newMemStore(records ...db.Record) *memStore {
	s := &memStore{records: map[string]db.Record{}}
	for _, r := range records {
		s.records[r.Key] = r
	}
	return s
}

func pendingRecords(keys ...string) []db.Record {
	out := make([]db.Record, len(keys))
	for i, k := range keys {
		out[i] = db.Record{Key: k, Category: "loans", Content: "content " + k, Status: "pending", ReviewStatus: "pending"}
	}
	return out
}

func matches(r db.Record, where []db.Predicate) bool {
	for _, p := range where {
		var v string
		switch p.Field {
		case "key":
			v = r.Key
		case "category":
			v = r.Category
		case "status":
			v = r.Status
		case "review_status":
			v = r.ReviewStatus
		}
		if v != p.Value {
			return false
		}
	}
	return true
}

func (s *memStore) FetchRecords(ctx context.Context, q db.Query) ([]db.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches = append(s.fetches, q)
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	var out []db.Record
	for _, r := range s.records {
		if matches(r, q.Where) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *memStore) UpdateRecord(ctx context.Context, key string, patch db.Patch) error {
	s.mu.Lock()
	gate, entered := s.gate, s.entered
	s.mu.Unlock()
	if gate != nil {
		entered <- struct{}{}
		<-gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, update{Key: key, Patch: patch})
	if s.updateErr != nil {
		return s.updateErr
	}
	r, ok := s.records[key]
	if !ok {
		return db.ErrNotFound
	}
	r.SetStatusValue(patch.StatusField, patch.Status)
	switch {
	case patch.ClearReviewedAt:
		r.ReviewedAt = nil
	case patch.ReviewedAt != nil:
		v := *patch.ReviewedAt
		r.ReviewedAt = &v
	}
	switch {
	case patch.ClearNotes:
		r.Notes = nil
	case patch.Notes != nil:
		v := *patch.Notes
		r.Notes = &v
	}
	s.records[key] = r
	return nil
}

func (s *memStore) CountStatuses(ctx context.Context, where []db.Predicate, field, pending string) (db.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.statsErr != nil {
		return db.Stats{}, s.statsErr
	}
	st := db.Stats{ByStatus: map[string]int{}}
	for _, r := range s.records {
		if !matches(r, where) {
			continue
		}
		v := r.StatusValue(field, pending)
		st.ByStatus[v]++
		st.Total++
		if v != pending {
			st.Reviewed++
		}
	}
	return st, nil
}

func (s *memStore) Categories(ctx context.Context, where []db.Predicate) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, r := range s.records {
		if matches(r, where) && !seen[r.Category] {
			seen[r.Category] = true
			out = append(out, r.Category)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *memStore) record(key string) db.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[key]
}

func (s *memStore) updateCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.updates)
}

func (s *memStore) setUpdateErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateErr = err
}

func (s *memStore) setFetchErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchErr = err
}

func (s *memStore) block() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gate = make(chan struct{})
	s.entered = make(chan struct{}, 1)
}

// clock is a settable time source.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func curateVariant(t *testing.T) *variant.Variant {
	t.Helper()
	r, err := variant.NewRegistry(nil)
	if err != nil {
		t.Fatal(err)
	}
	v, err := r.Get("curate")
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func newTestSession(t *testing.T, store Store, v *variant.Variant) (*Session, *clock) {
	t.Helper()
	c := newClock()
	s := New(store, v, Options{Now: c.Now})
	t.Cleanup(s.Close)
	return s, c
}

var errBackend = errors.New("backend unavailable")
