package core_test

import (
	"context"
	"encoding/json"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/daybook/pkg/core"
)

// MockRepository implements core.Repository in memory.
// It keeps the aggregate as JSON to behave like a real store.
type MockRepository struct {
	doc      []byte
	saves    int
	failSave error
	failLoad error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{}
}

func (m *MockRepository) Initialize(ctx context.Context) error { return nil }

func (m *MockRepository) Load(ctx context.Context) (core.AppData, error) {
	if m.failLoad != nil {
		return core.AppData{}, m.failLoad
	}
	if m.doc == nil {
		return core.AppData{}, core.ErrNoData
	}
	var data core.AppData
	if err := json.Unmarshal(m.doc, &data); err != nil {
		return core.AppData{}, core.Corrupt("load", err)
	}
	return data, nil
}

func (m *MockRepository) Save(ctx context.Context, data core.AppData) error {
	if m.failSave != nil {
		return m.failSave
	}
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	m.doc = b
	m.saves++
	return nil
}

func (m *MockRepository) Location() string { return "memory" }

func (m *MockRepository) stored(t *testing.T) core.AppData {
	t.Helper()
	var data core.AppData
	require.NoError(t, json.Unmarshal(m.doc, &data))
	return data
}

var fixedNow = time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)

func setupService(t *testing.T, opts ...core.ServiceOption) (*core.Service, *MockRepository) {
	t.Helper()
	repo := NewMockRepository()
	opts = append([]core.ServiceOption{core.WithClock(func() time.Time { return fixedNow })}, opts...)
	svc := core.NewService(repo, opts...)
	require.NoError(t, svc.Load(context.Background()))
	return svc, repo
}

func TestService_TodoCRUD(t *testing.T) {
	svc, repo := setupService(t)
	ctx := context.Background()

	todos, err := svc.AddTodo(ctx, "buy milk")
	require.NoError(t, err)
	require.Len(t, todos, 1)
	assert.Equal(t, 0, todos[0].ID)
	assert.Equal(t, "buy milk", todos[0].Text)
	assert.False(t, todos[0].Completed)
	assert.Equal(t, fixedNow, todos[0].CreatedAt)
	assert.Equal(t, fixedNow, todos[0].UpdatedAt)

	todos, err = svc.ToggleTodo(ctx, 0)
	require.NoError(t, err)
	assert.True(t, todos[0].Completed)

	todos, err = svc.RemoveTodo(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, todos)
	assert.NotNil(t, todos)

	assert.Equal(t, 3, repo.saves)
	assert.Empty(t, repo.stored(t).Todos)
}

func TestService_LengthBasedIDs(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		notes, err := svc.AddNote(ctx, "title", "content")
		require.NoError(t, err)
		assert.Equal(t, i, notes[len(notes)-1].ID, "id must equal pre-insertion length")
	}
}

// Regression guard: ids are the collection length, so a delete followed by a
// create hands out an id that is still in use.
func TestService_DeleteThenCreateCollides(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.AddTodo(ctx, "first")
	require.NoError(t, err)
	_, err = svc.AddTodo(ctx, "second")
	require.NoError(t, err)

	_, err = svc.RemoveTodo(ctx, 0)
	require.NoError(t, err)

	todos, err := svc.AddTodo(ctx, "third")
	require.NoError(t, err)
	require.Len(t, todos, 2)
	assert.Equal(t, 1, todos[0].ID)
	assert.Equal(t, 1, todos[1].ID)

	// Both records with the duplicated id go away together.
	todos, err = svc.RemoveTodo(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, todos)
}

func TestService_NextAfterMaxIDs(t *testing.T) {
	svc, _ := setupService(t, core.WithIDAllocator(core.NextAfterMaxIDs))
	ctx := context.Background()

	_, _ = svc.AddTodo(ctx, "first")
	_, _ = svc.AddTodo(ctx, "second")
	_, err := svc.RemoveTodo(ctx, 0)
	require.NoError(t, err)

	todos, err := svc.AddTodo(ctx, "third")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, []int{todos[0].ID, todos[1].ID})
}

func TestService_ToggleUnknownID(t *testing.T) {
	t.Run("Lenient By Default", func(t *testing.T) {
		svc, repo := setupService(t)
		ctx := context.Background()
		_, err := svc.AddTodo(ctx, "only")
		require.NoError(t, err)

		todos, err := svc.ToggleTodo(ctx, 42)
		require.NoError(t, err)
		require.Len(t, todos, 1)
		assert.False(t, todos[0].Completed)
		assert.Equal(t, 2, repo.saves, "unchanged state is still persisted")
	})

	t.Run("Strict", func(t *testing.T) {
		svc, _ := setupService(t, core.WithStrictToggle(true))
		_, err := svc.ToggleTodo(context.Background(), 42)
		require.ErrorIs(t, err, core.ErrNotFound)
		assert.Equal(t, "Todo not found", core.Message(err))
	})
}

func TestService_UpdateNotFound(t *testing.T) {
	svc, repo := setupService(t)
	ctx := context.Background()

	_, err := svc.UpdateNote(ctx, 7, "t", "c")
	require.ErrorIs(t, err, core.ErrNotFound)
	assert.Equal(t, "Note not found", core.Message(err))

	_, err = svc.UpdateGoal(ctx, 7, "t", "m")
	require.ErrorIs(t, err, core.ErrNotFound)
	assert.Equal(t, "Goal not found", core.Message(err))

	assert.Equal(t, 0, repo.saves)
}

func TestService_UpdateNoteAndGoal(t *testing.T) {
	repo := NewMockRepository()
	now := fixedNow
	svc := core.NewService(repo, core.WithClock(func() time.Time { return now }))
	ctx := context.Background()

	_, err := svc.AddNote(ctx, "draft", "body")
	require.NoError(t, err)
	_, err = svc.AddGoal(ctx, "run", "health")
	require.NoError(t, err)

	now = fixedNow.Add(time.Hour)
	notes, err := svc.UpdateNote(ctx, 0, "final", "new body")
	require.NoError(t, err)
	assert.Equal(t, "final", notes[0].Title)
	assert.Equal(t, "new body", notes[0].Content)
	assert.Equal(t, fixedNow, notes[0].CreatedAt)
	assert.Equal(t, now, notes[0].UpdatedAt)

	goals, err := svc.UpdateGoal(ctx, 0, "marathon", "fun")
	require.NoError(t, err)
	assert.Equal(t, "marathon", goals[0].Title)
	assert.Equal(t, "fun", goals[0].Motivation)
	assert.Equal(t, now, goals[0].UpdatedAt)

	goals, err = svc.RemoveGoal(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, goals)

	notes, err = svc.DeleteNote(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestService_ReadsAreIdempotent(t *testing.T) {
	svc, repo := setupService(t)
	ctx := context.Background()
	_, _ = svc.AddTodo(ctx, "a")
	_, _ = svc.AddNote(ctx, "b", "c")
	saves := repo.saves

	first, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	second, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	t1, _ := svc.Todos(ctx)
	t2, _ := svc.Todos(ctx)
	assert.Equal(t, t1, t2)
	assert.Equal(t, saves, repo.saves, "reads never persist")

	// Snapshots are copies.
	t1[0].Text = "mutated"
	t3, _ := svc.Todos(ctx)
	assert.Equal(t, "a", t3[0].Text)
}

func TestService_SaveFailureKeepsMemory(t *testing.T) {
	svc, repo := setupService(t)
	ctx := context.Background()

	repo.failSave = errors.New("disk full")
	_, err := svc.AddTodo(ctx, "unsaved")
	require.ErrorIs(t, err, core.ErrIO)
	assert.Equal(t, "disk full", core.Message(err))

	// Memory and storage diverge.
	todos, err := svc.Todos(ctx)
	require.NoError(t, err)
	assert.Len(t, todos, 1)
	assert.Nil(t, repo.doc)

	// Close flushes once the disk is back.
	repo.failSave = nil
	require.NoError(t, svc.Close(ctx))
	assert.Len(t, repo.stored(t).Todos, 1)
}

func TestService_Load(t *testing.T) {
	t.Run("Corrupt Keeps Defaults", func(t *testing.T) {
		repo := NewMockRepository()
		repo.doc = []byte("{not json")
		svc := core.NewService(repo)

		err := svc.Load(context.Background())
		require.ErrorIs(t, err, core.ErrCorrupt)

		snap, err := svc.Snapshot(context.Background())
		require.NoError(t, err)
		assert.Equal(t, core.DefaultAppData(), snap)
		assert.Equal(t, []byte("{not json"), repo.doc, "bad document left untouched")
	})

	t.Run("IO Failure", func(t *testing.T) {
		repo := NewMockRepository()
		repo.failLoad = errors.New("permission denied")
		svc := core.NewService(repo)
		require.ErrorIs(t, svc.Load(context.Background()), core.ErrIO)
	})

	t.Run("Round Trip", func(t *testing.T) {
		svc, repo := setupService(t)
		ctx := context.Background()
		_, _ = svc.AddTodo(ctx, "a")
		_, _ = svc.AddJournalEntry(ctx, "entry", "2024-01-01T08:00:00Z")
		_, _ = svc.SavePomodoroSession(ctx, "focus", 25)
		before := append([]byte(nil), repo.doc...)

		reloaded := core.NewService(repo)
		require.NoError(t, reloaded.Load(ctx))
		require.NoError(t, reloaded.Replace(ctx, mustSnapshot(t, reloaded)))
		assert.JSONEq(t, string(before), string(repo.doc))
	})
}

func mustSnapshot(t *testing.T, svc *core.Service) core.AppData {
	t.Helper()
	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	return snap
}

func TestService_ReadOnly(t *testing.T) {
	svc, repo := setupService(t, core.WithReadOnlyService(true))
	ctx := context.Background()

	_, err := svc.AddTodo(ctx, "nope")
	require.ErrorIs(t, err, core.ErrReadOnly)
	_, err = svc.StartPomodoro(ctx)
	require.ErrorIs(t, err, core.ErrReadOnly)
	assert.Equal(t, 0, repo.saves)

	todos, err := svc.Todos(ctx)
	require.NoError(t, err)
	assert.Empty(t, todos)
}

func TestService_CanceledContext(t *testing.T) {
	svc, repo := setupService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.AddTodo(ctx, "late")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, repo.saves)
}

func TestService_Subscribe(t *testing.T) {
	svc, _ := setupService(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := svc.Subscribe(ctx)
	_, err := svc.AddGoal(ctx, "learn go", "fun")
	require.NoError(t, err)

	select {
	case e := <-events:
		assert.Equal(t, core.EventCreate, e.Type)
		assert.Equal(t, core.CollectionGoals, e.Collection)
		assert.Equal(t, 0, e.ID)
		assert.Equal(t, "CREATE goals#0", e.String())
	case <-time.After(time.Second):
		t.Fatal("expected an event")
	}

	require.NoError(t, svc.Close(context.Background()))
	_, open := <-events
	assert.False(t, open, "channel closed with the service")
}

func TestService_WatchUnsupported(t *testing.T) {
	svc, _ := setupService(t)
	_, err := svc.Watch(context.Background())
	require.Error(t, err)
	assert.Equal(t, "repository does not support watch", err.Error())
}

func TestService_Reload(t *testing.T) {
	t.Run("Picks Up Stored Changes", func(t *testing.T) {
		svc, repo := setupService(t)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		changes := svc.Subscribe(ctx)

		other := core.NewService(repo)
		require.NoError(t, other.Load(ctx))
		_, err := other.AddTodo(ctx, "from another process")
		require.NoError(t, err)

		require.NoError(t, svc.Reload(ctx))
		todos, err := svc.Todos(ctx)
		require.NoError(t, err)
		require.Len(t, todos, 1)
		assert.Equal(t, "from another process", todos[0].Text)

		select {
		case e := <-changes:
			assert.Equal(t, "RELOAD app_data", e.String())
		case <-time.After(time.Second):
			t.Fatal("expected a reload event")
		}
	})

	t.Run("Corrupt Keeps Memory", func(t *testing.T) {
		svc, repo := setupService(t)
		ctx := context.Background()
		_, err := svc.AddTodo(ctx, "kept")
		require.NoError(t, err)

		repo.doc = []byte("{not json")
		require.ErrorIs(t, svc.Reload(ctx), core.ErrCorrupt)

		todos, err := svc.Todos(ctx)
		require.NoError(t, err)
		require.Len(t, todos, 1)
		assert.Equal(t, "kept", todos[0].Text)
	})

	t.Run("Clears Dirty", func(t *testing.T) {
		svc, repo := setupService(t)
		ctx := context.Background()

		repo.failSave = errors.New("disk full")
		_, err := svc.AddTodo(ctx, "unsaved")
		require.ErrorIs(t, err, core.ErrIO)

		repo.failSave = nil
		external := core.DefaultAppData()
		external.Todos = []core.TodoItem{{ID: 0, Text: "external", CreatedAt: fixedNow, UpdatedAt: fixedNow}}
		repo.doc, err = json.Marshal(external)
		require.NoError(t, err)

		require.NoError(t, svc.Reload(ctx))
		saves := repo.saves
		require.NoError(t, svc.Close(ctx))
		assert.Equal(t, saves, repo.saves, "nothing left to flush")
		assert.Equal(t, "external", repo.stored(t).Todos[0].Text)
	})
}

func TestService_Closed(t *testing.T) {
	svc, repo := setupService(t)
	ctx := context.Background()
	require.NoError(t, svc.Close(ctx))

	_, err := svc.AddTodo(ctx, "late")
	require.ErrorIs(t, err, core.ErrClosed)
	_, err = svc.StartPomodoro(ctx)
	require.ErrorIs(t, err, core.ErrClosed)
	_, err = svc.AddJournalEntry(ctx, "late", "2024-01-01T08:00:00Z")
	require.ErrorIs(t, err, core.ErrClosed)
	require.ErrorIs(t, svc.Reload(ctx), core.ErrClosed)
	assert.Equal(t, 0, repo.saves)

	todos, err := svc.Todos(ctx)
	require.NoError(t, err)
	assert.Empty(t, todos)

	require.NoError(t, svc.Close(ctx), "close is idempotent")
}

func TestService_SubscribeReleasedOnClose(t *testing.T) {
	before := runtime.NumGoroutine()
	for range 50 {
		svc := core.NewService(NewMockRepository())
		events := svc.Subscribe(context.Background())
		require.NoError(t, svc.Close(context.Background()))
		_, open := <-events
		require.False(t, open)
	}
	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before+5
	}, time.Second, 10*time.Millisecond)
}
