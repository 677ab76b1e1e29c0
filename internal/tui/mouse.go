package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"datacurator/curate/internal/variant"
)

const undoAction = "undo"

// button is a clickable action on the bottom bar, spanning columns [x0, x1).
type button struct {
	label  string
	action string
	x0, x1 int
}

// buttons lays out the action bar: the variant's actions, then undo.
func (m Model) buttons() []button {
	var out []button
	x := 1
	add := func(label, action string) {
		text := " " + label + " "
		w := len([]rune(text))
		out = append(out, button{label: text, action: action, x0: x, x1: x + w})
		x += w + 1
	}
	for _, a := range m.variant.Actions() {
		label := a
		if k := m.variant.KeyFor(a); k != "" {
			label = k + " " + a
		}
		add(label, a)
	}
	add("u undo", undoAction)
	return out
}

func (m Model) barRow() int {
	return m.height - 1
}

func (m Model) buttonAt(x, y int) (button, bool) {
	if y != m.barRow() {
		return button{}, false
	}
	for _, b := range m.buttons() {
		if x >= b.x0 && x < b.x1 {
			return b, true
		}
	}
	return button{}, false
}

// updateMouse feeds the drag tracker. A completed swipe triggers the
// variant's action for its direction; a click on the action bar triggers
// that button. Tracking is suppressed while a save is in flight.
func (m Model) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.notesOpen {
		return m, nil
	}
	suppressed := m.saving()
	p := m.scale.Point(msg.X, msg.Y)

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		m.tracker.Start(p, suppressed)

	case tea.MouseActionMotion:
		m.tracker.Move(p, suppressed)

	case tea.MouseActionRelease:
		if !m.tracker.Active() {
			return m, nil
		}
		m.tracker.Move(p, suppressed)
		dir, swiped := m.tracker.End()
		if suppressed {
			return m, nil
		}
		if swiped {
			return m.swipe(dir)
		}
		if b, ok := m.buttonAt(msg.X, msg.Y); ok {
			if b.action == undoAction {
				return m.updateKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'u'}})
			}
			return m.act(b.action)
		}
	}
	return m, nil
}

func (m Model) swipe(dir variant.Direction) (tea.Model, tea.Cmd) {
	action := m.variant.SwipeAction(dir)
	if action == "" {
		return m, nil
	}
	m.log.Debug("swipe", zap.String("direction", string(dir)), zap.String("action", action))
	return m.act(action)
}
