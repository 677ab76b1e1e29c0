package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// truncateMiddle shortens s by replacing the middle with "..." if it
// exceeds maxLen runes. Roughly equal portions of the start and end survive.
func truncateMiddle(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	available := maxLen - 3
	first := (available + 1) / 2
	last := available / 2
	return string(r[:first]) + "..." + string(r[len(r)-last:])
}

// progressBar draws frac (clamped to [0,1]) as a bar of width cells.
func progressBar(frac float64, width int) string {
	if width <= 0 {
		return ""
	}
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	n := int(frac * float64(width))
	return strings.Repeat("█", n) + strings.Repeat("░", width-n)
}

// progressLine summarizes reviewed/total, e.g. "1,204 / 5,000 reviewed (24%)".
func progressLine(reviewed, total int) string {
	pct := 0.0
	if total > 0 {
		pct = float64(reviewed) / float64(total) * 100
	}
	return fmt.Sprintf("%s / %s reviewed (%.0f%%)",
		humanize.Comma(int64(reviewed)), humanize.Comma(int64(total)), pct)
}

// reviewedAgo renders a reviewed_at value in milliseconds relative to now.
func reviewedAgo(ms *int64, now time.Time) string {
	if ms == nil {
		return "never"
	}
	return humanize.RelTime(time.UnixMilli(*ms), now, "ago", "from now")
}

func pad(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
