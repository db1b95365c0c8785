// Package sqlite stores the daybook aggregate as a single row in a SQLite
// database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/introspection"
	_ "modernc.org/sqlite"

	"github.com/aretw0/daybook/pkg/adapters/fs"
	"github.com/aretw0/daybook/pkg/core"
)

// DefaultFileName is the database file inside the data directory.
const DefaultFileName = "app_data.db"

const schemaSQL = `CREATE TABLE IF NOT EXISTS app_data (
	id       INTEGER PRIMARY KEY CHECK (id = 1),
	body     TEXT NOT NULL,
	saved_at TEXT NOT NULL
)`

// Config holds the configuration for the SQLite repository.
type Config struct {
	Path     string // data directory
	FileName string // defaults to app_data.db
	ReadOnly bool
	Logger   *slog.Logger
}

// Repository implements core.Repository on top of modernc.org/sqlite.
type Repository struct {
	config Config
	file   string
	codec  fs.JSONCodec

	mu       sync.Mutex
	db       *sql.DB
	lastSave *time.Time
}

// NewRepository creates a repository; the database is opened by Initialize.
func NewRepository(config Config) *Repository {
	if config.FileName == "" {
		config.FileName = DefaultFileName
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	dir := config.Path
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	config.Path = dir
	return &Repository{
		config: config,
		file:   filepath.Join(dir, config.FileName),
	}
}

// Initialize opens the database and creates the table. In read-only mode a
// missing database is not created.
func (r *Repository) Initialize(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db != nil {
		return nil
	}

	dsn := r.file + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	if r.config.ReadOnly {
		if _, err := os.Stat(r.file); errors.Is(err, os.ErrNotExist) {
			return nil
		}
		dsn = "file:" + r.file + "?mode=ro&_busy_timeout=5000"
	} else if err := os.MkdirAll(r.config.Path, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping sqlite db: %w", err)
	}
	if !r.config.ReadOnly {
		if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
			_ = db.Close()
			return fmt.Errorf("create app_data table: %w", err)
		}
	}
	r.db = db
	r.config.Logger.Debug("opened sqlite database", "path", r.file)
	return nil
}

// Location returns the absolute path of the database file.
func (r *Repository) Location() string {
	return r.file
}

// Load reads the stored aggregate.
func (r *Repository) Load(ctx context.Context) (core.AppData, error) {
	r.mu.Lock()
	db := r.db
	r.mu.Unlock()
	if db == nil {
		return core.AppData{}, core.ErrNoData
	}

	var body string
	err := db.QueryRowContext(ctx, `SELECT body FROM app_data WHERE id = 1`).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return core.AppData{}, core.ErrNoData
	}
	if err != nil {
		if r.config.ReadOnly && isMissingTable(err) {
			return core.AppData{}, core.ErrNoData
		}
		return core.AppData{}, fmt.Errorf("load app data: %w", err)
	}

	data, err := r.codec.Decode([]byte(body))
	if err != nil {
		return core.AppData{}, core.Corrupt("load_app_data", fmt.Errorf("%s: %w", r.file, err))
	}
	return data, nil
}

// Save replaces the stored aggregate.
func (r *Repository) Save(ctx context.Context, data core.AppData) error {
	if r.config.ReadOnly {
		return core.ErrReadOnly
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db == nil {
		return errors.New("sqlite repository is not initialized")
	}

	body, err := r.codec.Encode(data)
	if err != nil {
		return fmt.Errorf("failed to encode app data: %w", err)
	}
	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO app_data (id, body, saved_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET body = excluded.body, saved_at = excluded.saved_at`,
		string(body), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save app data: %w", err)
	}
	r.lastSave = &now
	r.config.Logger.Info("saved app data", "path", r.file)
	return nil
}

// Close releases the database handle.
func (r *Repository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

func isMissingTable(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "no such table")
}

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	File     string     `json:"file"`
	Open     bool       `json:"open"`
	ReadOnly bool       `json:"read_only"`
	LastSave *time.Time `json:"last_save,omitempty"`
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RepositoryState{
		File:     r.file,
		Open:     r.db != nil,
		ReadOnly: r.config.ReadOnly,
		LastSave: r.lastSave,
	}
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string {
	return "sqlite-repository"
}

var (
	_ core.Repository              = (*Repository)(nil)
	_ core.Closer                  = (*Repository)(nil)
	_ introspection.Introspectable = (*Repository)(nil)
	_ introspection.Component      = (*Repository)(nil)
)
