package ui

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/daybook/pkg/adapters/fs"
	"github.com/aretw0/daybook/pkg/core"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func setupModel(t *testing.T) (*PomodoroModel, *core.Service, *fakeClock) {
	t.Helper()
	repo := fs.NewRepository(fs.Config{Path: filepath.Join(t.TempDir(), "data")})
	require.NoError(t, repo.Initialize(context.Background()))

	clock := &fakeClock{t: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
	svc := core.NewService(repo, core.WithClock(clock.Now))
	require.NoError(t, svc.Load(context.Background()))

	m := NewPomodoroModel(context.Background(), svc)
	m.now = clock.Now
	require.NotNil(t, m.Init())
	return m, svc, clock
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestPomodoroModel_StartPause(t *testing.T) {
	m, svc, clock := setupModel(t)
	ctx := context.Background()

	m.Update(key("s"))
	assert.True(t, m.State().IsRunning)
	assert.Contains(t, m.View(), "WORK  25:00  running")

	clock.t = clock.t.Add(90 * time.Second)
	m.Update(tickMsg(clock.t))
	assert.Contains(t, m.View(), "23:30")

	m.Update(key("s"))
	stored, err := svc.PomodoroState(ctx)
	require.NoError(t, err)
	assert.False(t, stored.IsRunning)
	assert.Equal(t, uint32(1410), stored.RemainingSeconds)
	assert.Contains(t, m.View(), "23:30  paused")
}

func TestPomodoroModel_WorkIntervalCompletes(t *testing.T) {
	m, svc, clock := setupModel(t)
	ctx := context.Background()

	m.Update(key("s"))
	clock.t = clock.t.Add(25 * time.Minute)
	_, cmd := m.Update(tickMsg(clock.t))
	assert.NotNil(t, cmd)

	state, err := svc.PomodoroState(ctx)
	require.NoError(t, err)
	assert.Equal(t, ModeBreak, state.CurrentMode)
	assert.Equal(t, uint32(BreakSeconds), state.RemainingSeconds)
	assert.Equal(t, uint32(1), state.CycleCount)
	assert.False(t, state.IsRunning)

	sessions, err := svc.PomodoroSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, uint32(25), sessions[0].WorkMinutes)

	// A finished break records nothing and returns to work.
	m.Update(key("s"))
	clock.t = clock.t.Add(5 * time.Minute)
	m.Update(tickMsg(clock.t))

	state, err = svc.PomodoroState(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.DefaultPomodoroMode, state.CurrentMode)
	assert.Equal(t, uint32(WorkSeconds), state.RemainingSeconds)
	sessions, err = svc.PomodoroSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestPomodoroModel_ResetAndQuit(t *testing.T) {
	m, svc, _ := setupModel(t)
	ctx := context.Background()

	require.NoError(t, svc.UpdatePomodoroState(ctx, core.PomodoroState{CurrentMode: ModeBreak, RemainingSeconds: 3, CycleCount: 4}))
	m.Update(key("r"))
	assert.Equal(t, core.DefaultPomodoroState(), m.State())

	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestPomodoroModel_ShowsStoreErrors(t *testing.T) {
	m, _, _ := setupModel(t)
	readOnly := core.NewService(fs.NewRepository(fs.Config{Path: t.TempDir(), ReadOnly: true}), core.WithReadOnlyService(true))
	m.store = readOnly

	m.Update(key("s"))
	assert.Contains(t, m.View(), "error: Data is opened read-only")
}

func TestNextInterval(t *testing.T) {
	work := core.PomodoroState{SessionName: "deep", CurrentMode: "work", RemainingSeconds: 0, IsRunning: true, CycleCount: 2, StartTime: 99}
	brk := NextInterval(work)
	assert.Equal(t, core.PomodoroState{SessionName: "deep", CurrentMode: ModeBreak, RemainingSeconds: BreakSeconds, CycleCount: 3}, brk)

	back := NextInterval(brk)
	assert.Equal(t, core.PomodoroState{SessionName: "deep", CurrentMode: "work", RemainingSeconds: WorkSeconds, CycleCount: 3}, back)
}
