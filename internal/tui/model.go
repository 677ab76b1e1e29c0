// Package tui is the interactive review screen: one record at a time,
// classified by key, swipe, or action bar click.
package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"datacurator/curate/internal/gesture"
	"datacurator/curate/internal/review"
	"datacurator/curate/internal/variant"
)

// Options configures the review screen.
type Options struct {
	Selection review.Selection // initial filter
	Logger    *zap.Logger
	Threshold float64
	CellScale gesture.CellScale
	Markdown  bool // render record content with glamour
	Now       func() time.Time
}

type (
	loadedMsg struct {
		err error
		seq int
	}
	savedMsg         struct{ err error }
	undoneMsg        struct{ err error }
	sessionUpdateMsg struct{}
	bannerExpiredMsg struct{}
)

// Model is the bubbletea model for a review session.
type Model struct {
	ctx      context.Context
	session  *review.Session
	variant  *variant.Variant
	log      *zap.Logger
	now      func() time.Time
	initial  review.Selection
	markdown bool

	keys      keyMap
	notesKeys notesKeys
	help      help.Model
	spinner   spinner.Model
	notes     textarea.Model

	tracker *gesture.Tracker
	scale   gesture.CellScale

	renderer *glamour.TermRenderer
	rendered map[string]string // content cache keyed by record key

	width     int
	height    int
	notesOpen bool
	notesKey  string
	showStats bool
	busy      bool // a write was dispatched and has not reported back
	quitting  bool

	// requested is the selection of the newest dispatched load until it
	// reports back, so repeated cycling steps from it rather than the view.
	requested  review.Selection
	requesting bool
	loadSeq    int
}

// New returns a screen driving s. ctx bounds store calls made by the screen.
func New(ctx context.Context, s *review.Session, opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.CellScale.Width <= 0 || opts.CellScale.Height <= 0 {
		opts.CellScale = gesture.DefaultCellScale
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = savingStyle

	ta := textarea.New()
	ta.Placeholder = "Add a note..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 2000
	ta.SetWidth(60)
	ta.SetHeight(4)

	m := Model{
		ctx:       ctx,
		session:   s,
		variant:   s.Variant(),
		log:       opts.Logger,
		now:       opts.Now,
		initial:   opts.Selection,
		markdown:  opts.Markdown,
		keys:      newKeyMap(s.Variant()),
		notesKeys: newNotesKeys(),
		help:      help.New(),
		spinner:   sp,
		notes:     ta,
		tracker:   gesture.NewTracker(opts.Threshold),
		scale:     opts.CellScale,
		rendered:  map[string]string{},
		width:     100,
		height:    30,
	}
	m.resetRenderer()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(m.initial), m.listen(), m.spinner.Tick)
}

func (m Model) loadCmd(sel review.Selection) tea.Cmd {
	s, ctx, seq := m.session, m.ctx, m.loadSeq
	return func() tea.Msg {
		return loadedMsg{err: s.Load(ctx, sel), seq: seq}
	}
}

func (m Model) classifyCmd(status, note string) tea.Cmd {
	s, ctx := m.session, m.ctx
	return func() tea.Msg {
		return savedMsg{err: s.Classify(ctx, status, note)}
	}
}

func (m Model) undoCmd() tea.Cmd {
	s, ctx := m.session, m.ctx
	return func() tea.Msg {
		return undoneMsg{err: s.Undo(ctx)}
	}
}

// listen waits for the next session change. It stops once the session is
// closed.
func (m Model) listen() tea.Cmd {
	ch := m.session.Updates()
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return sessionUpdateMsg{}
	}
}

// expireBanner schedules a redraw for when the current banner lapses.
func (m Model) expireBanner() tea.Cmd {
	b := m.session.View().Banner
	if b.Expires.IsZero() {
		return nil
	}
	d := b.Expires.Sub(m.now())
	if d < 0 {
		d = 0
	}
	return tea.Tick(d+10*time.Millisecond, func(time.Time) tea.Msg { return bannerExpiredMsg{} })
}

func (m *Model) resetRenderer() {
	m.renderer = nil
	m.rendered = map[string]string{}
	if !m.markdown {
		return
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(m.contentWidth()),
	)
	if err != nil {
		m.log.Warn("markdown renderer unavailable", zap.Error(err))
		return
	}
	m.renderer = r
}

// saving reports whether writes and navigation are currently locked.
func (m Model) saving() bool {
	return m.busy || m.session.View().Saving
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		resize := msg.Width != m.width
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.notes.SetWidth(min(60, max(20, msg.Width-8)))
		if resize {
			m.resetRenderer()
		}
		return m, nil

	case sessionUpdateMsg:
		return m, m.listen()

	case loadedMsg:
		if msg.seq == m.loadSeq {
			m.requesting = false
		}
		if msg.err != nil && !errors.Is(msg.err, review.ErrSaveInFlight) {
			m.log.Debug("load did not complete", zap.Error(msg.err))
		}
		return m, m.expireBanner()

	case savedMsg:
		m.busy = false
		if msg.err != nil {
			m.log.Debug("classify did not complete", zap.Error(msg.err))
		}
		return m, m.expireBanner()

	case undoneMsg:
		m.busy = false
		if msg.err != nil {
			m.log.Debug("undo did not complete", zap.Error(msg.err))
		}
		return m, m.expireBanner()

	case bannerExpiredMsg:
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.notesOpen {
			return m.updateNotes(msg)
		}
		return m.updateKey(msg)

	case tea.MouseMsg:
		return m.updateMouse(msg)
	}
	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	d := m.keys.resolve(msg)
	if d.cmd == cmdNone {
		return m, nil
	}
	if m.saving() && !d.cmd.readOnly() {
		return m, nil
	}

	v := m.session.View()
	switch d.cmd {
	case cmdQuit:
		m.quitting = true
		return m, tea.Quit

	case cmdPrev:
		m.session.Retreat()

	case cmdNext:
		m.session.Advance()

	case cmdUndo:
		if v.UndoDepth == 0 || v.Loading {
			return m, nil
		}
		m.busy = true
		return m, m.undoCmd()

	case cmdCategoryNext, cmdCategoryPrev:
		step := 1
		if d.cmd == cmdCategoryPrev {
			step = -1
		}
		sel := m.selection(v)
		sel.Category = cycle(v.Categories, sel.Category, step)
		return m.request(sel)

	case cmdSecondaryNext, cmdSecondaryPrev:
		if m.variant.Secondary == nil {
			return m, nil
		}
		step := 1
		if d.cmd == cmdSecondaryPrev {
			step = -1
		}
		sel := m.selection(v)
		sel.Secondary = cycle(m.variant.Secondary.Values, sel.Secondary, step)
		return m.request(sel)

	case cmdStats:
		m.showStats = !m.showStats

	case cmdReload:
		return m.request(m.selection(v))

	case cmdHelp:
		m.help.ShowAll = !m.help.ShowAll

	case cmdAction:
		return m.act(d.action)
	}
	return m, nil
}

// selection is the filter the next load should start from: the pending
// request if one is in flight, else the loaded view's.
func (m Model) selection(v review.View) review.Selection {
	if m.requesting {
		return m.requested
	}
	return v.Selection
}

func (m Model) request(sel review.Selection) (tea.Model, tea.Cmd) {
	m.requested = sel
	m.requesting = true
	m.loadSeq++
	return m, m.loadCmd(sel)
}

// act performs a variant action on the current record: classify, or open
// the notes editor.
func (m Model) act(action string) (tea.Model, tea.Cmd) {
	if m.saving() {
		return m, nil
	}
	v := m.session.View()
	if v.Current == nil || v.Loading {
		return m, nil
	}
	if action == variant.NotesAction {
		m.notesOpen = true
		m.notesKey = v.Current.Key
		m.notes.Reset()
		if v.Current.Notes != nil {
			m.notes.SetValue(*v.Current.Notes)
		}
		return m, m.notes.Focus()
	}
	m.busy = true
	return m, m.classifyCmd(action, "")
}

func (m Model) updateNotes(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ForceQuit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.notesKeys.Cancel):
		m.closeNotes()
		return m, nil

	case key.Matches(msg, m.notesKeys.Save):
		note := strings.TrimSpace(m.notes.Value())
		cur := m.session.Current()
		m.closeNotes()
		if cur == nil || cur.Key != m.notesKey || m.saving() {
			return m, nil
		}
		m.busy = true
		return m, m.classifyCmd(m.variant.NotesStatus, note)
	}

	var cmd tea.Cmd
	m.notes, cmd = m.notes.Update(msg)
	return m, cmd
}

func (m *Model) closeNotes() {
	m.notesOpen = false
	m.notesKey = ""
	m.notes.Blur()
}

// cycle steps through "" (all) followed by values, wrapping around.
func cycle(values []string, current string, step int) string {
	opts := append([]string{""}, values...)
	idx := 0
	for i, o := range opts {
		if o == current {
			idx = i
			break
		}
	}
	idx = (idx + step + len(opts)) % len(opts)
	return opts[idx]
}
