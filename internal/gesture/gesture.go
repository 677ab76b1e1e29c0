// Package gesture turns a pointer drag into one of four swipe directions.
package gesture

import (
	"math"

	"datacurator/curate/internal/variant"
)

// DefaultThreshold is the distance, in device-independent units, one axis
// must exceed for a drag to count as a swipe.
const DefaultThreshold = 100.0

// Point is a position in device-independent units.
type Point struct {
	X, Y float64
}

// Classify maps a drag offset to a direction. Offsets where neither axis
// exceeds threshold are taps and report false. Y grows downward, so a
// negative dy is an upward swipe. Ties go to the vertical axis.
func Classify(dx, dy, threshold float64) (variant.Direction, bool) {
	ax, ay := math.Abs(dx), math.Abs(dy)
	if ax <= threshold && ay <= threshold {
		return "", false
	}
	if ax > ay {
		if dx > 0 {
			return variant.Right, true
		}
		return variant.Left, true
	}
	if dy < 0 {
		return variant.Up, true
	}
	return variant.Down, true
}

// Tracker follows a single active pointer from press to release.
type Tracker struct {
	Threshold float64

	active bool
	start  Point
	offset Point
}

// NewTracker returns a tracker using threshold, or DefaultThreshold if it
// is not positive.
func NewTracker(threshold float64) *Tracker {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Tracker{Threshold: threshold}
}

// Start begins tracking at p. It is ignored while suppressed, e.g. when a
// save is in flight.
func (t *Tracker) Start(p Point, suppressed bool) {
	if suppressed {
		return
	}
	t.active = true
	t.start = p
	t.offset = Point{}
}

// Move updates the drag offset. It does nothing without an active drag or
// while suppressed.
func (t *Tracker) Move(p Point, suppressed bool) {
	if !t.active || suppressed {
		return
	}
	t.offset = Point{X: p.X - t.start.X, Y: p.Y - t.start.Y}
}

// End finishes the drag and reports its direction, if it was a swipe. The
// tracker is reset either way.
func (t *Tracker) End() (variant.Direction, bool) {
	if !t.active {
		return "", false
	}
	off := t.offset
	t.active = false
	t.offset = Point{}
	return Classify(off.X, off.Y, t.Threshold)
}

// Active reports whether a drag is in progress.
func (t *Tracker) Active() bool { return t.active }

// Offset returns the current drag offset.
func (t *Tracker) Offset() Point { return t.offset }

// CellScale converts terminal cell coordinates to device-independent units.
type CellScale struct {
	Width  float64 // units per column
	Height float64 // units per row
}

// DefaultCellScale approximates a typical terminal cell.
var DefaultCellScale = CellScale{Width: 10, Height: 20}

// Point returns the position of the cell at column x, row y.
func (s CellScale) Point(x, y int) Point {
	return Point{X: float64(x) * s.Width, Y: float64(y) * s.Height}
}
