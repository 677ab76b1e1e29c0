package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"datacurator/curate/internal/review"
)

// Run shows the review screen until the user quits or ctx is done.
func Run(ctx context.Context, s *review.Session, opts Options) error {
	p := tea.NewProgram(New(ctx, s, opts),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running review screen: %w", err)
	}
	return nil
}
