package fs_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/daybook/pkg/adapters/fs"
	"github.com/aretw0/daybook/pkg/core"
)

// setupRepo helps create a repository for testing.
// It returns the repository and its data directory.
func setupRepo(t *testing.T, opts ...func(*fs.Config)) (*fs.Repository, string) {
	t.Helper()

	dataDir := filepath.Join(t.TempDir(), "daybook")
	cfg := fs.Config{
		Path: dataDir,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	repo := fs.NewRepository(cfg)
	return repo, dataDir
}

func sampleData() core.AppData {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 123456789, time.UTC)
	data := core.DefaultAppData()
	data.Todos = []core.TodoItem{{ID: 0, Text: "water plants", CreatedAt: ts, UpdatedAt: ts}}
	data.Notes = []core.Note{{ID: 0, Title: "idea", Content: "daybook", CreatedAt: ts, UpdatedAt: ts}}
	data.Goals = []core.Goal{{ID: 0, Title: "read", Motivation: "joy", CreatedAt: ts, UpdatedAt: ts}}
	data.JournalEntries = []core.JournalEntry{{ID: 0, Date: ts, Content: "dear diary"}}
	data.PomodoroSessions = []core.PomodoroSession{{ID: 0, SessionName: "focus", WorkMinutes: 25, CompletedAt: ts}}
	data.Pomodoro.StartTime = uint64(ts.UnixMilli())
	return data
}

func TestInitialize(t *testing.T) {
	t.Run("Creates Directory if Missing", func(t *testing.T) {
		repo, path := setupRepo(t)

		if err := repo.Initialize(context.Background()); err != nil {
			t.Fatalf("Initialize failed: %v", err)
		}
		if info, err := os.Stat(path); err != nil || !info.IsDir() {
			t.Errorf("expected directory to be created at %s", path)
		}
	})

	t.Run("Fails if MustExist and Missing", func(t *testing.T) {
		repo, _ := setupRepo(t, func(c *fs.Config) {
			c.MustExist = true
		})

		if err := repo.Initialize(context.Background()); err == nil {
			t.Error("expected Initialize to fail when directory is missing and MustExist=true")
		}
	})

	t.Run("ReadOnly Does Not Create Directory", func(t *testing.T) {
		repo, path := setupRepo(t, func(c *fs.Config) {
			c.ReadOnly = true
		})

		require.NoError(t, repo.Initialize(context.Background()))
		_, err := os.Stat(path)
		assert.True(t, os.IsNotExist(err))

		_, err = repo.Load(context.Background())
		assert.ErrorIs(t, err, core.ErrNoData)
		assert.ErrorIs(t, repo.Save(context.Background(), core.DefaultAppData()), core.ErrReadOnly)
	})
}

func TestLocation(t *testing.T) {
	repo, path := setupRepo(t)
	assert.Equal(t, filepath.Join(path, "app_data.json"), repo.Location())
	assert.True(t, filepath.IsAbs(repo.Location()))
}

func TestLoad_Missing(t *testing.T) {
	repo, _ := setupRepo(t)
	require.NoError(t, repo.Initialize(context.Background()))

	_, err := repo.Load(context.Background())
	assert.ErrorIs(t, err, core.ErrNoData)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Initialize(ctx))

	want := sampleData()
	require.NoError(t, repo.Save(ctx, want))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// save(load()) is byte-identical.
	first, err := os.ReadFile(repo.Location())
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, got))
	second, err := os.ReadFile(repo.Location())
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestSave_DocumentShape(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Initialize(ctx))
	require.NoError(t, repo.Save(ctx, core.AppData{}))

	raw, err := os.ReadFile(repo.Location())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"todos": [], "notes": [], "goals": [], "journal_entries": [], "pomodoro_sessions": [],
		"pomodoro": {"session_name": "", "current_mode": "", "remaining_seconds": 0,
			"is_running": false, "cycle_count": 0, "start_time": 0}
	}`, string(raw))
}

func TestLoad_ReadsLegacyDocument(t *testing.T) {
	repo, path := setupRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Initialize(ctx))

	legacy := `{"todos":[{"id":0,"text":"t","completed":true,"created_at":"2024-06-01T10:00:00.123456Z","updated_at":"2024-06-01T10:00:00.123456Z"}],` +
		`"notes":[],"goals":[],"pomodoro":{"session_name":"","current_mode":"work","remaining_seconds":1500,"is_running":false,"cycle_count":0,"start_time":0},` +
		`"journal_entries":[{"id":0,"date":"2024-06-01T00:00:00+00:00","content":"hi"}],"pomodoro_sessions":[]}`
	require.NoError(t, os.WriteFile(filepath.Join(path, "app_data.json"), []byte(legacy), 0644))

	data, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, data.Todos, 1)
	assert.True(t, data.Todos[0].Completed)
	assert.Equal(t, time.UTC, data.JournalEntries[0].Date.Location())
	assert.Equal(t, "work", data.Pomodoro.CurrentMode)
}

func TestLoad_Corrupt(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"Not JSON", `{"todos": [`},
		{"Missing Field", `{"todos": [], "notes": [], "goals": [], "journal_entries": [], "pomodoro_sessions": []}`},
		{"Negative Seconds", `{"todos": [], "notes": [], "goals": [], "journal_entries": [], "pomodoro_sessions": [],
			"pomodoro": {"session_name": "", "current_mode": "work", "remaining_seconds": -1, "is_running": false, "cycle_count": 0, "start_time": 0}}`},
		{"Bad Timestamp", `{"todos": [{"id": 0, "text": "x", "completed": false, "created_at": "yesterday", "updated_at": "yesterday"}],
			"notes": [], "goals": [], "journal_entries": [], "pomodoro_sessions": [],
			"pomodoro": {"session_name": "", "current_mode": "work", "remaining_seconds": 1, "is_running": false, "cycle_count": 0, "start_time": 0}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, path := setupRepo(t)
			ctx := context.Background()
			require.NoError(t, repo.Initialize(ctx))
			file := filepath.Join(path, "app_data.json")
			require.NoError(t, os.WriteFile(file, []byte(tt.doc), 0644))

			_, err := repo.Load(ctx)
			require.ErrorIs(t, err, core.ErrCorrupt)

			// The bad file is left untouched.
			raw, err := os.ReadFile(file)
			require.NoError(t, err)
			assert.Equal(t, tt.doc, string(raw))
		})
	}
}

func TestLoad_SchemaViolationsAreListed(t *testing.T) {
	repo, path := setupRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Initialize(ctx))
	doc := `{"todos": [{"id": -3}], "notes": [], "goals": [], "journal_entries": [], "pomodoro_sessions": [],
		"pomodoro": {"session_name": "", "current_mode": "work", "remaining_seconds": 1, "is_running": false, "cycle_count": 0, "start_time": 0}}`
	require.NoError(t, os.WriteFile(filepath.Join(path, "app_data.json"), []byte(doc), 0644))

	_, err := repo.Load(ctx)
	var se *fs.SchemaError
	require.True(t, errors.As(err, &se), "expected a SchemaError, got %v", err)
	assert.NotEmpty(t, se.Violations)
}

func TestLoad_SkipSchema(t *testing.T) {
	repo, path := setupRepo(t, func(c *fs.Config) { c.SkipSchema = true })
	ctx := context.Background()
	require.NoError(t, repo.Initialize(ctx))
	// Missing collections are tolerated without the schema and come back empty.
	require.NoError(t, os.WriteFile(filepath.Join(path, "app_data.json"), []byte(`{"todos": []}`), 0644))

	data, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.NotNil(t, data.Notes)
	assert.Empty(t, data.Notes)
}

func TestSave_NoTempFilesLeft(t *testing.T) {
	repo, path := setupRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Initialize(ctx))

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Save(ctx, sampleData()))
	}

	entries, err := os.ReadDir(path)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), fs.TempFilePrefix)
	}
}

func TestState(t *testing.T) {
	repo, path := setupRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Initialize(ctx))
	require.NoError(t, repo.Save(ctx, sampleData()))

	state, ok := repo.State().(fs.RepositoryState)
	require.True(t, ok)
	assert.Equal(t, path, state.Path)
	assert.True(t, state.Schema)
	assert.Contains(t, state.Codecs, ".msgpack")
	assert.NotNil(t, state.LastSave)
	assert.False(t, state.WatcherActive)
	assert.Equal(t, "fs-repository", repo.ComponentType())
}
