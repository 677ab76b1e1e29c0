// Package review implements the review session: a filtered, pending-first
// view of records with a cursor, confirm-first classification, and a short
// undo history.
package review

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"datacurator/curate/internal/db"
	"datacurator/curate/internal/variant"
)

// Store is the record source a session reads from and writes to.
type Store interface {
	FetchRecords(ctx context.Context, q db.Query) ([]db.Record, error)
	UpdateRecord(ctx context.Context, key string, patch db.Patch) error
	CountStatuses(ctx context.Context, where []db.Predicate, field, pending string) (db.Stats, error)
	Categories(ctx context.Context, where []db.Predicate) ([]string, error)
}

// Selection is the reviewer's active filter. Empty fields mean "all".
type Selection struct {
	Category  string
	Secondary string
}

// Options configures a Session. Zero values select defaults.
type Options struct {
	Logger         *zap.Logger
	Now            func() time.Time
	SuccessDelay   time.Duration
	ErrorDelay     time.Duration
	RefreshTimeout time.Duration
	UndoLimit      int
}

const (
	DefaultSuccessDelay   = 2 * time.Second
	DefaultErrorDelay     = 5 * time.Second
	DefaultRefreshTimeout = 30 * time.Second
)

// Session is safe for concurrent use. Its lock is never held across a store
// call; the saving flag keeps at most one write outstanding.
type Session struct {
	store   Store
	variant *variant.Variant
	log     *zap.Logger
	now     func() time.Time
	id      string

	successDelay   time.Duration
	errorDelay     time.Duration
	refreshTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	bg     sync.WaitGroup

	updates chan struct{}

	mu         sync.Mutex
	selection  Selection
	items      []db.Record
	cursor     int
	loaded     bool
	loading    bool
	loadGen    int
	saving     bool
	undo       *UndoLog
	stats      db.Stats
	categories []string
	banner     Banner
	closed     bool
}

// New returns a session over store using vocabulary v. Call Load to fill
// the view and Close to stop background reads.
func New(store Store, v *variant.Variant, opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SuccessDelay <= 0 {
		opts.SuccessDelay = DefaultSuccessDelay
	}
	if opts.ErrorDelay <= 0 {
		opts.ErrorDelay = DefaultErrorDelay
	}
	if opts.RefreshTimeout <= 0 {
		opts.RefreshTimeout = DefaultRefreshTimeout
	}

	id := uuid.New().String()
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		store:          store,
		variant:        v,
		log:            opts.Logger.With(zap.String("session", id), zap.String("variant", v.Name)),
		now:            opts.Now,
		id:             id,
		successDelay:   opts.SuccessDelay,
		errorDelay:     opts.ErrorDelay,
		refreshTimeout: opts.RefreshTimeout,
		ctx:            ctx,
		cancel:         cancel,
		updates:        make(chan struct{}, 1),
		undo:           NewUndoLog(opts.UndoLimit),
	}
}

// ID identifies the session in logs.
func (s *Session) ID() string { return s.id }

// Variant returns the session's vocabulary.
func (s *Session) Variant() *variant.Variant { return s.variant }

// Updates delivers a signal whenever session state changes, including from
// background refreshes. Signals coalesce. The channel is closed by Close.
func (s *Session) Updates() <-chan struct{} { return s.updates }

// Close stops background reads and waits for them to finish.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.bg.Wait()
	close(s.updates)
}

// View is a consistent snapshot of session state for rendering.
type View struct {
	Selection  Selection
	Current    *db.Record
	Cursor     int
	Len        int
	Loaded     bool
	Loading    bool
	Saving     bool
	UndoDepth  int
	Stats      db.Stats
	Categories []string
	Banner     Banner
}

// Exhausted reports whether the cursor has passed the last record.
func (v View) Exhausted() bool {
	return v.Loaded && v.Current == nil
}

// View returns the current state. Expired banners are omitted.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		Selection:  s.selection,
		Current:    s.currentLocked(),
		Cursor:     s.cursor,
		Len:        len(s.items),
		Loaded:     s.loaded,
		Loading:    s.loading,
		Saving:     s.saving,
		UndoDepth:  s.undo.Len(),
		Stats:      s.stats,
		Categories: append([]string(nil), s.categories...),
	}
	if s.banner.Visible(s.now()) {
		v.Banner = s.banner
	}
	return v
}

// Items returns a copy of the records in view order.
func (s *Session) Items() []db.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]db.Record(nil), s.items...)
}

// UndoEntries returns the undo history, oldest first.
func (s *Session) UndoEntries() []UndoEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.undo.Entries()
}

// Current returns the record under the cursor, or nil when exhausted.
func (s *Session) Current() *db.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked()
}

func (s *Session) currentLocked() *db.Record {
	if s.cursor < 0 || s.cursor >= len(s.items) {
		return nil
	}
	r := s.items[s.cursor]
	return &r
}

func (s *Session) notifyLocked() {
	if s.closed {
		return
	}
	select {
	case s.updates <- struct{}{}:
	default:
	}
}

func (s *Session) setBannerLocked(kind BannerKind, msg string) {
	b := Banner{Kind: kind, Message: msg}
	switch kind {
	case BannerSuccess:
		b.Expires = s.now().Add(s.successDelay)
	case BannerError:
		b.Expires = s.now().Add(s.errorDelay)
	}
	s.banner = b
}

// scopeLocked returns the predicates shared by the view, stats and
// category list: the variant scope plus the secondary filter.
func (s *Session) scopeLocked(sel Selection) []db.Predicate {
	preds := s.variant.ScopePredicates()
	if sel.Secondary != "" && s.variant.Secondary != nil {
		preds = append(preds, db.Predicate{Field: s.variant.Secondary.Field, Value: sel.Secondary})
	}
	return preds
}

func (s *Session) queryLocked(sel Selection) db.Query {
	where := s.scopeLocked(sel)
	if sel.Category != "" {
		where = append(where, db.Predicate{Field: "category", Value: sel.Category})
	}
	return db.Query{
		Where:       where,
		StatusField: s.variant.StatusField,
		Pending:     s.variant.Pending,
	}
}

// Load replaces the view with every record matching sel and resets the
// cursor. On failure the previous view is kept. A newer Load supersedes an
// older one still in flight.
func (s *Session) Load(ctx context.Context, sel Selection) error {
	s.mu.Lock()
	if s.saving {
		s.mu.Unlock()
		return ErrSaveInFlight
	}
	s.loadGen++
	gen := s.loadGen
	s.loading = true
	q := s.queryLocked(sel)
	s.notifyLocked()
	s.mu.Unlock()

	start := s.now()
	records, err := s.store.FetchRecords(ctx, q)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.loadGen {
		return nil
	}
	s.loading = false
	defer s.notifyLocked()

	if err != nil {
		s.log.Error("load failed", zap.String("category", sel.Category), zap.Error(err))
		s.setBannerLocked(BannerError, fmt.Sprintf("Failed to load records: %v", err))
		return &Failure{Kind: LoadFailure, Err: err}
	}

	s.items = db.PendingFirst(records, s.variant.StatusField, s.variant.Pending)
	s.cursor = 0
	s.selection = sel
	s.loaded = true

	pending := 0
	for _, r := range s.items {
		if r.StatusValue(s.variant.StatusField, s.variant.Pending) == s.variant.Pending {
			pending++
		}
	}
	s.log.Info("loaded records",
		zap.String("category", sel.Category),
		zap.String("secondary", sel.Secondary),
		zap.Int("records", len(s.items)),
		zap.Int("pending", pending),
		zap.Duration("elapsed", s.now().Sub(start)))

	s.refreshStatsLocked()
	s.refreshCategoriesLocked()
	return nil
}

// Advance moves to the next record, or into the exhausted state from the
// last one. It is a no-op while a save is in flight.
func (s *Session) Advance() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saving || s.cursor >= len(s.items) {
		return false
	}
	s.advanceLocked()
	s.notifyLocked()
	return true
}

func (s *Session) advanceLocked() {
	if s.cursor < len(s.items)-1 {
		s.cursor++
		return
	}
	s.cursor = len(s.items)
}

// Retreat moves to the previous record. It is a no-op at the first record,
// once exhausted, and while a save is in flight.
func (s *Session) Retreat() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saving || s.cursor == 0 || s.cursor >= len(s.items) {
		return false
	}
	s.cursor--
	s.notifyLocked()
	return true
}

// Classify writes status (and note, if non-empty) to the current record and
// advances. Local state changes only after the store confirms the write.
func (s *Session) Classify(ctx context.Context, status, note string) error {
	field := s.variant.StatusField

	s.mu.Lock()
	if s.saving {
		s.mu.Unlock()
		return ErrSaveInFlight
	}
	if s.loading {
		s.mu.Unlock()
		return ErrLoading
	}
	if !s.variant.IsStatus(status) {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}
	cur := s.currentLocked()
	if cur == nil {
		s.mu.Unlock()
		return ErrNoCurrent
	}
	entry := UndoEntry{
		Record:   *cur,
		Previous: cur.StatusValue(field, s.variant.Pending),
		Next:     status,
		Index:    s.cursor,
	}
	s.saving = true
	s.setBannerLocked(BannerSaving, "Saving...")
	s.notifyLocked()
	s.mu.Unlock()

	at := s.now().UnixMilli()
	patch := db.Patch{StatusField: field, Status: status, ReviewedAt: &at}
	if note != "" {
		patch.Notes = &note
	}
	err := s.store.UpdateRecord(ctx, cur.Key, patch)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.saving = false
	defer s.notifyLocked()

	if err != nil {
		s.log.Error("classify failed", zap.String("key", cur.Key), zap.String("status", status), zap.Error(err))
		s.setBannerLocked(BannerError, fmt.Sprintf("Failed to save: %v", err))
		return &Failure{Kind: WriteFailure, Key: cur.Key, Err: err}
	}

	// Loads are refused while saving, so entry.Index still names this record.
	item := &s.items[entry.Index]
	item.SetStatusValue(field, status)
	item.ReviewedAt = &at
	if note != "" {
		item.Notes = &note
	}
	s.undo.Push(entry)
	s.cursor = entry.Index
	s.advanceLocked()

	s.log.Info("classified",
		zap.String("key", cur.Key),
		zap.String("from", entry.Previous),
		zap.String("to", status),
		zap.Bool("notes", note != ""))
	s.setBannerLocked(BannerSuccess, "Saved successfully!")
	s.refreshStatsLocked()
	return nil
}

// Undo reverses the most recent classification: the previous status is
// restored and notes and review time are cleared. The entry is consumed even
// if the write fails.
func (s *Session) Undo(ctx context.Context) error {
	field := s.variant.StatusField

	s.mu.Lock()
	if s.saving {
		s.mu.Unlock()
		return ErrSaveInFlight
	}
	if s.undo.Len() == 0 {
		s.mu.Unlock()
		return ErrNothingToUndo
	}
	if s.loading {
		s.mu.Unlock()
		return ErrLoading
	}
	entry, _ := s.undo.Pop()
	s.saving = true
	s.setBannerLocked(BannerSaving, "Undoing...")
	s.notifyLocked()
	s.mu.Unlock()

	previous := entry.Previous
	if previous == "" {
		previous = s.variant.Pending
	}
	key := entry.Record.Key
	err := s.store.UpdateRecord(ctx, key, db.Patch{
		StatusField:     field,
		Status:          previous,
		ClearReviewedAt: true,
		ClearNotes:      true,
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.saving = false
	defer s.notifyLocked()

	if err != nil {
		s.log.Error("undo failed", zap.String("key", key), zap.Error(err))
		s.setBannerLocked(BannerError, fmt.Sprintf("Failed to undo: %v", err))
		return &Failure{Kind: UndoFailure, Key: key, Err: err}
	}

	restored := entry.Record
	restored.SetStatusValue(field, previous)
	restored.Notes = nil
	restored.ReviewedAt = nil
	if idx := s.indexOfLocked(key, entry.Index); idx >= 0 {
		s.items[idx] = restored
		s.cursor = idx
	}

	s.log.Info("undone", zap.String("key", key), zap.String("from", entry.Next), zap.String("to", previous))
	s.setBannerLocked(BannerSuccess, "Undone")
	s.refreshStatsLocked()
	return nil
}

// indexOfLocked finds key in the view, trying hint first. The view may have
// been reloaded since the entry was recorded.
func (s *Session) indexOfLocked(key string, hint int) int {
	if hint >= 0 && hint < len(s.items) && s.items[hint].Key == key {
		return hint
	}
	for i, r := range s.items {
		if r.Key == key {
			return i
		}
	}
	return -1
}

// RefreshStats reloads the aggregate counts.
func (s *Session) RefreshStats(ctx context.Context) error {
	s.mu.Lock()
	where := s.scopeLocked(s.selection)
	s.mu.Unlock()

	stats, err := s.store.CountStatuses(ctx, where, s.variant.StatusField, s.variant.Pending)
	if err != nil {
		s.log.Warn("stats refresh failed", zap.Error(err))
		return fmt.Errorf("refreshing stats: %w", err)
	}

	s.mu.Lock()
	s.stats = stats
	s.notifyLocked()
	s.mu.Unlock()
	return nil
}

// RefreshCategories reloads the category list.
func (s *Session) RefreshCategories(ctx context.Context) error {
	s.mu.Lock()
	where := s.scopeLocked(s.selection)
	s.mu.Unlock()

	categories, err := s.store.Categories(ctx, where)
	if err != nil {
		s.log.Warn("category refresh failed", zap.Error(err))
		return fmt.Errorf("refreshing categories: %w", err)
	}

	s.mu.Lock()
	s.categories = categories
	s.notifyLocked()
	s.mu.Unlock()
	return nil
}

func (s *Session) refreshStatsLocked() {
	s.spawnLocked(func(ctx context.Context) { _ = s.RefreshStats(ctx) })
}

func (s *Session) refreshCategoriesLocked() {
	s.spawnLocked(func(ctx context.Context) { _ = s.RefreshCategories(ctx) })
}

// RefreshStatsAsync schedules a background stats refresh.
func (s *Session) RefreshStatsAsync() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshStatsLocked()
}

// spawnLocked runs fn on a tracked goroutine. Background reads only touch
// the stats and category projections, never the view.
func (s *Session) spawnLocked(fn func(ctx context.Context)) {
	if s.closed {
		return
	}
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		ctx, cancel := context.WithTimeout(s.ctx, s.refreshTimeout)
		defer cancel()
		fn(ctx)
	}()
}
