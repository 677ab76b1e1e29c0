package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"datacurator/curate/internal/db"
	"datacurator/curate/internal/gesture"
	"datacurator/curate/internal/review"
)

const statsWidth = 28

func (m Model) contentWidth() int {
	w := m.width - 6
	if m.showStats {
		w -= statsWidth + 1
	}
	return max(20, w)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	v := m.session.View()

	header := m.renderHeader(v)
	footer := m.renderFooter(v)
	bodyHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)

	var body string
	switch {
	case m.notesOpen:
		body = m.renderNotes(v)
	case !v.Loaded && v.Loading:
		body = "\n  " + m.spinner.View() + " Loading records..."
	case !v.Loaded:
		body = "\n  " + dimStyle.Render("No records loaded. Press r to retry.")
	case v.Exhausted():
		body = m.renderExhausted(v)
	default:
		body = m.renderCard(v)
	}
	if m.showStats {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, " ", m.renderStats(v))
	}

	return header + "\n" + fit(body, bodyHeight) + "\n" + footer
}

// fit pads or clips s to exactly h lines.
func fit(s string, h int) string {
	if h < 1 {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > h {
		lines = lines[:h]
	}
	for len(lines) < h {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderHeader(v review.View) string {
	title := titleStyle.Render("curate") + dimStyle.Render(" "+m.variant.Name)

	filter := "all categories"
	if v.Selection.Category != "" {
		filter = v.Selection.Category
	}
	if m.variant.Secondary != nil {
		sec := "all"
		if v.Selection.Secondary != "" {
			sec = v.Selection.Secondary
		}
		filter += fmt.Sprintf(" · %s: %s", m.variant.Secondary.Field, sec)
	}
	position := ""
	if v.Loaded && v.Len > 0 {
		position = fmt.Sprintf("  %d/%d", min(v.Cursor+1, v.Len), v.Len)
	}
	line1 := title + dimStyle.Render("  ["+filter+"]"+position)

	barWidth := max(10, min(40, m.width-40))
	line2 := "  " + progressBar(v.Stats.Progress(), barWidth) + "  " +
		dimStyle.Render(progressLine(v.Stats.Reviewed, v.Stats.Total))
	return line1 + "\n" + line2
}

func (m Model) renderCard(v review.View) string {
	r := v.Current
	field := m.variant.StatusField
	status := r.StatusValue(field, m.variant.Pending)
	tag := reviewedTag
	if status == m.variant.Pending {
		tag = pendingTag
	}

	var b strings.Builder
	b.WriteString(labelStyle.Render("key") + keyStyle.Render(truncateMiddle(r.Key, m.contentWidth()-10)) + "\n")
	b.WriteString(labelStyle.Render("category") + r.Category + "\n")
	b.WriteString(labelStyle.Render(field) + tag.Render(status))
	if m.variant.Secondary != nil && m.variant.Secondary.Field != field {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  (%s: %s)", m.variant.Secondary.Field,
			r.StatusValue(m.variant.Secondary.Field, m.variant.Pending))))
	}
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("reviewed") + reviewedAgo(r.ReviewedAt, m.now()) + "\n")
	if r.Notes != nil && *r.Notes != "" {
		b.WriteString(labelStyle.Render("notes") + *r.Notes + "\n")
	}
	b.WriteString("\n")
	b.WriteString(m.renderContent(*r))

	return cardStyle.Width(m.contentWidth() + 2).Render(strings.TrimRight(b.String(), "\n"))
}

// renderContent renders record content as markdown when enabled, caching
// the result per record.
func (m Model) renderContent(r db.Record) string {
	if r.Content == "" {
		return dimStyle.Render("(no content)")
	}
	if m.renderer == nil {
		return lipgloss.NewStyle().Width(m.contentWidth()).Render(r.Content)
	}
	cacheKey := r.Key + "\x00" + r.Content
	if out, ok := m.rendered[cacheKey]; ok {
		return out
	}
	out, err := m.renderer.Render(r.Content)
	if err != nil {
		return r.Content
	}
	out = strings.Trim(out, "\n")
	m.rendered[cacheKey] = out
	return out
}

func (m Model) renderExhausted(v review.View) string {
	var b strings.Builder
	b.WriteString("\n  " + successStyle.Render("All records in this view have been reviewed.") + "\n\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %s records seen.", humanize.Comma(int64(v.Len)))) + "\n")
	hints := []string{"r reload", "tab next category"}
	if v.UndoDepth > 0 {
		hints = append(hints, "u undo last")
	}
	b.WriteString(dimStyle.Render("  " + strings.Join(hints, " · ")))
	return b.String()
}

func (m Model) renderNotes(v review.View) string {
	title := headerStyle.Render("Notes for " + truncateMiddle(m.notesKey, 40))
	hint := helpStyle.Render(fmt.Sprintf("ctrl+s save as %s · esc cancel", m.variant.NotesStatus))
	return modalStyle.Render(title + "\n\n" + m.notes.View() + "\n\n" + hint)
}

func (m Model) renderStats(v review.View) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Stats") + "\n")
	row := func(label string, n int) {
		b.WriteString(pad(label, 12) + fmt.Sprintf("%10s", humanize.Comma(int64(n))) + "\n")
	}
	row("total", v.Stats.Total)
	row(m.variant.Pending, v.Stats.Pending())

	statuses := append([]string{}, m.variant.Statuses...)
	seen := map[string]bool{m.variant.Pending: true}
	for _, s := range statuses {
		seen[s] = true
	}
	var extra []string
	for s := range v.Stats.ByStatus {
		if !seen[s] {
			extra = append(extra, s)
		}
	}
	sort.Strings(extra)
	for _, s := range append(statuses, extra...) {
		row(s, v.Stats.ByStatus[s])
	}
	b.WriteString(fmt.Sprintf("\n%.1f%% reviewed\n", v.Stats.Progress()*100))
	b.WriteString(dimStyle.Render(fmt.Sprintf("%d categories", len(v.Categories))))
	return lipgloss.NewStyle().Width(statsWidth).Render(b.String())
}

func (m Model) renderFooter(v review.View) string {
	return m.renderBanner(v) + "\n" + m.help.View(m.keys) + "\n" + m.renderBar(v)
}

func (m Model) renderBanner(v review.View) string {
	switch v.Banner.Kind {
	case review.BannerSaving:
		return " " + m.spinner.View() + savingStyle.Render(v.Banner.Message)
	case review.BannerSuccess:
		return " " + successStyle.Render("✓ "+v.Banner.Message)
	case review.BannerError:
		return " " + errorStyle.Render("✗ "+v.Banner.Message)
	}
	if m.tracker.Active() {
		off := m.tracker.Offset()
		if dir, ok := gesture.Classify(off.X, off.Y, m.tracker.Threshold); ok {
			if a := m.variant.SwipeAction(dir); a != "" {
				return " " + dragStyle.Render(fmt.Sprintf("release to %s", a))
			}
		}
		return " " + dragStyle.Render("drag further to choose")
	}
	if v.Loading {
		return " " + m.spinner.View() + dimStyle.Render("Loading...")
	}
	return ""
}

func (m Model) renderBar(v review.View) string {
	disabled := m.saving() || v.Current == nil
	var b strings.Builder
	b.WriteString(" ")
	for i, btn := range m.buttons() {
		if i > 0 {
			b.WriteString(" ")
		}
		style := buttonStyle
		off := disabled
		if btn.action == undoAction {
			off = m.saving() || v.UndoDepth == 0
		}
		if off {
			style = buttonDisabledStyle
		}
		b.WriteString(style.Render(btn.label))
	}
	return statusBarStyle.Width(m.width).Render(b.String())
}
