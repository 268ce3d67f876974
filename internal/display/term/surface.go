// Package term renders the panel in a terminal with bubbletea. It is the
// development stand-in for the physical display and also accepts key
// presses as an input affordance.
package term

import (
	"context"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// Surface is a display.Surface backed by a bubbletea program.
// Render calls never block: they update a shared state and nudge a pump
// goroutine that forwards the latest copy to the program.
type Surface struct {
	prog *tea.Program

	mu    sync.Mutex
	state state
	dirty chan struct{}
}

// New creates a terminal surface. opts are passed to tea.NewProgram.
func New(actions Actions, opts ...tea.ProgramOption) *Surface {
	m := newModel(actions)

	return &Surface{
		prog:  tea.NewProgram(m, opts...),
		state: m.state,
		dirty: make(chan struct{}, 1),
	}
}

// Run drives the terminal until the program quits or ctx is cancelled.
func (s *Surface) Run(ctx context.Context) error {
	pumpCtx, stop := context.WithCancel(ctx)
	defer stop()

	go s.pump(pumpCtx)

	go func() {
		<-pumpCtx.Done()
		s.prog.Quit()
	}()

	if _, err := s.prog.Run(); err != nil {
		return fmt.Errorf("run terminal: %w", err)
	}

	return nil
}

func (s *Surface) pump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.dirty:
			s.mu.Lock()
			snap := s.state
			s.mu.Unlock()

			s.prog.Send(refreshMsg(snap))
		}
	}
}

func (s *Surface) update(fn func(*state)) {
	s.mu.Lock()
	fn(&s.state)
	s.mu.Unlock()

	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

// RenderTime implements display.Surface.
func (s *Surface) RenderTime(v string) {
	s.update(func(st *state) { st.Time = v })
}

// RenderDaysLabel implements display.Surface.
func (s *Surface) RenderDaysLabel(label string, visible bool) {
	s.update(func(st *state) {
		st.DaysLabel = label
		st.ShowDays = visible
	})
}

// RenderVisibility implements display.Surface.
func (s *Surface) RenderVisibility(visible bool) {
	s.update(func(st *state) { st.Controls = visible })
}

// RenderImage implements display.Surface.
func (s *Surface) RenderImage(id string) error {
	s.update(func(st *state) { st.Image = id })
	return nil
}
