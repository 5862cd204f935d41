package ui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Roman77St/trimsound"
)

// Run показывает интерфейс и блокируется до выхода пользователя или отмены ctx.
// Окончание трека из горутины плеера пересылается в цикл событий сообщением.
func Run(ctx context.Context, s *trimsound.Session, opts Options) error {
	p := tea.NewProgram(New(ctx, s, opts),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	s.OnPlaybackStopped(func() { p.Send(playbackStoppedMsg{}) })
	defer s.OnPlaybackStopped(nil)

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run ui: %w", err)
	}
	if err := s.Close(); err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	return nil
}
