package review

import "datacurator/curate/internal/db"

// UndoLimit is how many classifications can be undone.
const UndoLimit = 5

// UndoEntry records one classification so it can be reversed.
type UndoEntry struct {
	Record   db.Record // snapshot before the change
	Previous string
	Next     string
	Index    int // cursor position when the change was made
}

// UndoLog is a bounded stack that drops its oldest entry when full.
type UndoLog struct {
	entries []UndoEntry
	limit   int
}

// NewUndoLog returns an empty log holding at most limit entries.
func NewUndoLog(limit int) *UndoLog {
	if limit <= 0 {
		limit = UndoLimit
	}
	return &UndoLog{limit: limit}
}

// Push adds e, evicting the oldest entry if the log is full.
func (l *UndoLog) Push(e UndoEntry) {
	if len(l.entries) == l.limit {
		copy(l.entries, l.entries[1:])
		l.entries = l.entries[:len(l.entries)-1]
	}
	l.entries = append(l.entries, e)
}

// Pop removes and returns the most recent entry.
func (l *UndoLog) Pop() (UndoEntry, bool) {
	if len(l.entries) == 0 {
		return UndoEntry{}, false
	}
	e := l.entries[len(l.entries)-1]
	l.entries = l.entries[:len(l.entries)-1]
	return e, true
}

// Len returns the number of entries.
func (l *UndoLog) Len() int { return len(l.entries) }

// Entries returns the entries oldest first.
func (l *UndoLog) Entries() []UndoEntry {
	return append([]UndoEntry(nil), l.entries...)
}
