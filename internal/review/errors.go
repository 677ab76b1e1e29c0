package review

import (
	"errors"
	"fmt"
)

var (
	ErrSaveInFlight  = errors.New("a save is already in progress")
	ErrLoading       = errors.New("records are still loading")
	ErrNoCurrent     = errors.New("no record selected")
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrUnknownStatus = errors.New("unknown status")
)

// FailureKind classifies a failed store call.
type FailureKind int

const (
	LoadFailure FailureKind = iota
	WriteFailure
	UndoFailure
)

func (k FailureKind) String() string {
	switch k {
	case LoadFailure:
		return "load"
	case WriteFailure:
		return "write"
	case UndoFailure:
		return "undo"
	default:
		return "unknown"
	}
}

// Failure wraps a store error with the operation that issued it.
type Failure struct {
	Kind FailureKind
	Key  string // empty for loads
	Err  error
}

func (f *Failure) Error() string {
	if f.Key == "" {
		return fmt.Sprintf("%s failed: %v", f.Kind, f.Err)
	}
	return fmt.Sprintf("%s failed for %s: %v", f.Kind, f.Key, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// IsFailure reports whether err is a Failure of the given kind.
func IsFailure(err error, kind FailureKind) bool {
	var f *Failure
	return errors.As(err, &f) && f.Kind == kind
}
