// Package ui provides the terminal pomodoro view.
package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aretw0/daybook/pkg/core"
)

// Interval lengths used when a work or break interval finishes.
const (
	WorkSeconds  = core.DefaultPomodoroSeconds
	BreakSeconds = 5 * 60
	ModeBreak    = "break"
)

// Store is the part of core.Service the view drives.
type Store interface {
	PomodoroState(ctx context.Context) (core.PomodoroState, error)
	UpdatePomodoroState(ctx context.Context, state core.PomodoroState) error
	StartPomodoro(ctx context.Context) (core.PomodoroState, error)
	ResetPomodoro(ctx context.Context) (core.PomodoroState, error)
	SavePomodoroSession(ctx context.Context, sessionName string, workMinutes uint32) ([]core.PomodoroSession, error)
}

// RunPomodoro shows the timer until the user quits or ctx is done.
func RunPomodoro(ctx context.Context, store Store) error {
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("pomodoro view requires a TTY")
	}
	model := NewPomodoroModel(ctx, store)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	finalModel, err := program.Run()
	if err != nil {
		return err
	}
	if m, ok := finalModel.(*PomodoroModel); ok && m.err != nil {
		return m.err
	}
	return nil
}

// PomodoroModel is the bubbletea model of the timer view.
type PomodoroModel struct {
	ctx          context.Context
	store        Store
	now          func() time.Time
	tickInterval time.Duration

	state     core.PomodoroState
	completed int
	err       error
}

type tickMsg time.Time

// NewPomodoroModel creates the model; the state is read on Init.
func NewPomodoroModel(ctx context.Context, store Store) *PomodoroModel {
	return &PomodoroModel{
		ctx:          ctx,
		store:        store,
		now:          time.Now,
		tickInterval: time.Second,
	}
}

// State returns the last state the view has seen.
func (m *PomodoroModel) State() core.PomodoroState {
	return m.state
}

func (m *PomodoroModel) Init() tea.Cmd {
	m.refresh()
	return tickCmd(m.tickInterval)
}

func (m *PomodoroModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "s":
			m.toggle()
			return m, nil
		case "r":
			m.apply(m.store.ResetPomodoro(m.ctx))
			return m, nil
		}
	case tickMsg:
		m.refresh()
		if m.state.IsRunning && m.state.Remaining(m.now()) == 0 {
			m.finish()
		}
		return m, tickCmd(m.tickInterval)
	}
	return m, nil
}

// toggle starts a stopped timer, or pauses a running one keeping the time left.
func (m *PomodoroModel) toggle() {
	if !m.state.IsRunning {
		m.apply(m.store.StartPomodoro(m.ctx))
		return
	}
	paused := m.state
	paused.RemainingSeconds = m.state.Remaining(m.now())
	paused.IsRunning = false
	paused.StartTime = 0
	m.update(paused)
}

// finish records a completed work interval and switches to the next one.
func (m *PomodoroModel) finish() {
	if m.state.CurrentMode != ModeBreak {
		if _, err := m.store.SavePomodoroSession(m.ctx, m.state.SessionName, WorkSeconds/60); err != nil {
			m.err = err
			return
		}
		m.completed++
	}
	m.update(NextInterval(m.state))
}

// NextInterval returns the stopped state that follows a finished interval:
// work is followed by a break and counts a cycle, a break by work.
func NextInterval(s core.PomodoroState) core.PomodoroState {
	next := s
	next.IsRunning = false
	next.StartTime = 0
	if s.CurrentMode == ModeBreak {
		next.CurrentMode = core.DefaultPomodoroMode
		next.RemainingSeconds = WorkSeconds
		return next
	}
	next.CurrentMode = ModeBreak
	next.RemainingSeconds = BreakSeconds
	next.CycleCount++
	return next
}

func (m *PomodoroModel) refresh() {
	state, err := m.store.PomodoroState(m.ctx)
	if err != nil {
		m.err = err
		return
	}
	m.state = state
}

func (m *PomodoroModel) update(s core.PomodoroState) {
	if err := m.store.UpdatePomodoroState(m.ctx, s); err != nil {
		m.err = err
		return
	}
	m.state = s
	m.err = nil
}

func (m *PomodoroModel) apply(s core.PomodoroState, err error) {
	if err != nil {
		m.err = err
		return
	}
	m.state = s
	m.err = nil
}

func (m *PomodoroModel) View() string {
	var b strings.Builder
	b.WriteString("daybook pomodoro\n\n")

	mode := m.state.CurrentMode
	if mode == "" {
		mode = core.DefaultPomodoroMode
	}
	left := m.state.Remaining(m.now())
	fmt.Fprintf(&b, "  %s  %02d:%02d", strings.ToUpper(mode), left/60, left%60)
	if m.state.IsRunning {
		b.WriteString("  running")
	} else {
		b.WriteString("  paused")
	}
	b.WriteString("\n")
	if m.state.SessionName != "" {
		fmt.Fprintf(&b, "  session: %s\n", m.state.SessionName)
	}
	fmt.Fprintf(&b, "  cycles: %d\n", m.state.CycleCount)
	if m.err != nil {
		fmt.Fprintf(&b, "\n  error: %s\n", core.Message(m.err))
	}
	b.WriteString("\n  s start/pause  r reset  q quit\n")
	return b.String()
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// IsTTY reports whether w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
