package gesture

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"datacurator/curate/internal/variant"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		dx, dy float64
		want   variant.Direction
		ok     bool
	}{
		{"positive x", 120, 10, variant.Right, true},
		{"negative x", -120, 10, variant.Left, true},
		{"negative y is up", 10, -120, variant.Up, true},
		{"positive y is down", 10, 120, variant.Down, true},
		{"both below threshold", 40, 40, "", false},
		{"exactly threshold is a tap", 100, -100, "", false},
		{"one axis over", 101, 0, variant.Right, true},
		{"larger axis wins", 150, -130, variant.Right, true},
		{"tie goes vertical", 150, -150, variant.Up, true},
		{"zero", 0, 0, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Classify(tt.dx, tt.dy, DefaultThreshold)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTracker_Swipe(t *testing.T) {
	tr := NewTracker(0)
	assert.Equal(t, DefaultThreshold, tr.Threshold)

	tr.Start(Point{50, 50}, false)
	assert.True(t, tr.Active())
	tr.Move(Point{100, 55}, false)
	tr.Move(Point{175, 60}, false)
	assert.Equal(t, Point{125, 10}, tr.Offset())

	d, ok := tr.End()
	assert.True(t, ok)
	assert.Equal(t, variant.Right, d)
	assert.False(t, tr.Active())
	assert.Equal(t, Point{}, tr.Offset())
}

func TestTracker_PartialDragIsTap(t *testing.T) {
	tr := NewTracker(100)
	tr.Start(Point{0, 0}, false)
	tr.Move(Point{60, 30}, false)
	_, ok := tr.End()
	assert.False(t, ok)
}

func TestTracker_OneActionPerGesture(t *testing.T) {
	tr := NewTracker(100)
	tr.Start(Point{0, 0}, false)
	tr.Move(Point{0, -200}, false)
	d, ok := tr.End()
	assert.True(t, ok)
	assert.Equal(t, variant.Up, d)

	_, ok = tr.End()
	assert.False(t, ok, "second release must not fire again")
}

func TestTracker_SuppressedWhileSaving(t *testing.T) {
	tr := NewTracker(100)
	tr.Start(Point{0, 0}, true)
	assert.False(t, tr.Active())
	tr.Move(Point{300, 0}, true)
	_, ok := tr.End()
	assert.False(t, ok)

	// a drag begun before the save started stops updating once it does
	tr.Start(Point{0, 0}, false)
	tr.Move(Point{50, 0}, false)
	tr.Move(Point{300, 0}, true)
	assert.Equal(t, Point{50, 0}, tr.Offset())
	_, ok = tr.End()
	assert.False(t, ok)
}

func TestCellScale(t *testing.T) {
	p := DefaultCellScale.Point(12, 3)
	assert.Equal(t, Point{120, 60}, p)

	from := DefaultCellScale.Point(10, 10)
	to := DefaultCellScale.Point(10, 4)
	d, ok := Classify(to.X-from.X, to.Y-from.Y, DefaultThreshold)
	assert.True(t, ok)
	assert.Equal(t, variant.Up, d)
}
