package tui

import (
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"datacurator/curate/internal/variant"
)

// command is what a key press asks the screen to do.
type command int

const (
	cmdNone command = iota
	cmdQuit
	cmdPrev
	cmdNext
	cmdUndo
	cmdCategoryNext
	cmdCategoryPrev
	cmdSecondaryNext
	cmdSecondaryPrev
	cmdStats
	cmdReload
	cmdHelp
	cmdAction // classify or open notes; see dispatch.action
)

type dispatch struct {
	cmd    command
	action string
}

// readOnly commands only change what is displayed and stay available while a
// save is in flight.
func (c command) readOnly() bool {
	switch c {
	case cmdQuit, cmdStats, cmdHelp:
		return true
	}
	return false
}

type keyMap struct {
	Prev          key.Binding
	Next          key.Binding
	Undo          key.Binding
	CategoryNext  key.Binding
	CategoryPrev  key.Binding
	SecondaryNext key.Binding
	SecondaryPrev key.Binding
	Stats         key.Binding
	Reload        key.Binding
	Help          key.Binding
	Quit          key.Binding
	ForceQuit     key.Binding

	variant *variant.Variant
	actions []key.Binding
}

func newKeyMap(v *variant.Variant) keyMap {
	k := keyMap{
		Prev:          key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "previous")),
		Next:          key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "next")),
		Undo:          key.NewBinding(key.WithKeys("u", "U"), key.WithHelp("u", "undo")),
		CategoryNext:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next category")),
		CategoryPrev:  key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev category")),
		SecondaryNext: key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next filter")),
		SecondaryPrev: key.NewBinding(key.WithKeys("["), key.WithHelp("[", "prev filter")),
		Stats:         key.NewBinding(key.WithKeys("s", "S"), key.WithHelp("s", "stats")),
		Reload:        key.NewBinding(key.WithKeys("r", "R"), key.WithHelp("r", "reload")),
		Help:          key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:          key.NewBinding(key.WithKeys("q", "Q"), key.WithHelp("q", "quit")),
		ForceQuit:     key.NewBinding(key.WithKeys("ctrl+c")),
		variant:       v,
	}
	if v.Secondary == nil {
		k.SecondaryNext.SetEnabled(false)
		k.SecondaryPrev.SetEnabled(false)
	}

	keys := make([]string, 0, len(v.Keys))
	for ks := range v.Keys {
		keys = append(keys, ks)
	}
	sort.Slice(keys, func(i, j int) bool {
		return actionRank(v, v.Keys[keys[i]]) < actionRank(v, v.Keys[keys[j]])
	})
	for _, ks := range keys {
		k.actions = append(k.actions, key.NewBinding(
			key.WithKeys(ks, strings.ToUpper(ks)),
			key.WithHelp(ks, v.Keys[ks]),
		))
	}
	return k
}

// actionRank orders actions the way the variant lists them.
func actionRank(v *variant.Variant, action string) int {
	for i, a := range v.Actions() {
		if a == action {
			return i
		}
	}
	return len(v.Statuses) + 1
}

// resolve maps a key press to a command. Chords with ctrl or alt are never
// bound to actions; ctrl+c is the only one the screen handles.
func (k keyMap) resolve(msg tea.KeyMsg) dispatch {
	if key.Matches(msg, k.ForceQuit) {
		return dispatch{cmd: cmdQuit}
	}
	if msg.Alt || strings.HasPrefix(msg.String(), "ctrl+") {
		return dispatch{}
	}

	switch {
	case key.Matches(msg, k.Quit):
		return dispatch{cmd: cmdQuit}
	case key.Matches(msg, k.Prev):
		return dispatch{cmd: cmdPrev}
	case key.Matches(msg, k.Next):
		return dispatch{cmd: cmdNext}
	case key.Matches(msg, k.Undo):
		return dispatch{cmd: cmdUndo}
	case key.Matches(msg, k.CategoryNext):
		return dispatch{cmd: cmdCategoryNext}
	case key.Matches(msg, k.CategoryPrev):
		return dispatch{cmd: cmdCategoryPrev}
	case key.Matches(msg, k.SecondaryNext):
		return dispatch{cmd: cmdSecondaryNext}
	case key.Matches(msg, k.SecondaryPrev):
		return dispatch{cmd: cmdSecondaryPrev}
	case key.Matches(msg, k.Stats):
		return dispatch{cmd: cmdStats}
	case key.Matches(msg, k.Reload):
		return dispatch{cmd: cmdReload}
	case key.Matches(msg, k.Help):
		return dispatch{cmd: cmdHelp}
	}

	if msg.Type != tea.KeyRunes || len(msg.Runes) != 1 {
		return dispatch{}
	}
	if action, ok := k.variant.KeyAction(string(msg.Runes)); ok {
		return dispatch{cmd: cmdAction, action: action}
	}
	return dispatch{}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	out := append([]key.Binding{}, k.actions...)
	return append(out, k.Undo, k.Help, k.Quit)
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		append(append([]key.Binding{}, k.actions...), k.Undo),
		{k.Prev, k.Next, k.Reload},
		{k.CategoryNext, k.CategoryPrev, k.SecondaryNext, k.SecondaryPrev},
		{k.Stats, k.Help, k.Quit},
	}
}

// notesKeys are active while the notes editor is open.
type notesKeys struct {
	Save   key.Binding
	Cancel key.Binding
}

func newNotesKeys() notesKeys {
	return notesKeys{
		Save:   key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}
