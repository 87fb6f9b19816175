package viewer

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"minefield/internal/logging"
	"minefield/internal/minefield"
)

const DefaultInterval = 100 * time.Millisecond

type tickMsg time.Time

func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Terminal is the bubbletea model for the live view. Every environment call
// happens inside Update, so the program loop is the only scheduler.
type Terminal struct {
	ctx      context.Context
	env      *minefield.Environment
	log      logrus.FieldLogger
	interval time.Duration
	paused   bool
	err      error
}

func NewTerminal(ctx context.Context, env *minefield.Environment, interval time.Duration, logger logrus.FieldLogger) Terminal {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return Terminal{
		ctx:      ctx,
		env:      env,
		log:      logging.OrDiscard(logger),
		interval: interval,
	}
}

func (m Terminal) Init() tea.Cmd {
	return tickCmd(m.interval)
}

func (m Terminal) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "p", " ":
			m.paused = !m.paused
			m.log.WithField("paused", m.paused).Debug("toggled pause")
		case "r":
			if err := m.env.Reset(m.ctx); err != nil {
				m.err = err
				return m, tea.Quit
			}
		}
	case tickMsg:
		if !m.paused {
			if err := m.env.Tick(m.ctx); err != nil {
				m.err = err
				return m, tea.Quit
			}
		}
		return m, tickCmd(m.interval)
	}
	return m, nil
}

func (m Terminal) View() string {
	s := Render(m.env) + "\n\n"
	if m.paused {
		s += "[paused]  "
	}
	if m.err != nil {
		s += fmt.Sprintf("error: %v\n", m.err)
	}
	s += "p pause  r reset  q quit\n"
	return s
}

func (m Terminal) Paused() bool { return m.paused }

// Err is the error that stopped the view, if any.
func (m Terminal) Err() error { return m.err }

// RunTerminal runs the live view until the user quits or ctx is cancelled.
func RunTerminal(ctx context.Context, env *minefield.Environment, interval time.Duration, logger logrus.FieldLogger, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(NewTerminal(ctx, env, interval, logger), opts...)
	final, err := p.Run()
	if err != nil {
		return err
	}
	if t, ok := final.(Terminal); ok {
		return t.Err()
	}
	return nil
}
