package daybook

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/daybook/internal/platform"
	"github.com/aretw0/daybook/pkg/core"
)

// --- Types ---

// Service is the daybook store.
type Service = core.Service

// AppData is the persisted aggregate.
type AppData = core.AppData

// --- Configuration ---

// Option defines a functional option for configuring daybook.
type Option = platform.Option

// Config is the file/env configuration understood by LoadConfig.
type Config = platform.Config

// WithLogger sets the logger for the service and its adapter.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithRepository injects a custom storage adapter.
func WithRepository(repo core.Repository) Option {
	return platform.WithRepository(repo)
}

// WithAdapter selects the storage adapter by name ("fs" or "sqlite").
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithReadOnly rejects every mutation and never creates the data directory.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithStrictToggle makes toggling an unknown todo fail with ErrNotFound.
func WithStrictToggle(enabled bool) Option {
	return platform.WithStrictToggle(enabled)
}

// WithIDAllocator selects how new record ids are chosen.
func WithIDAllocator(alloc core.IDAllocator) Option {
	return platform.WithIDAllocator(alloc)
}

// WithClock replaces time.Now for record timestamps.
func WithClock(now func() time.Time) Option {
	return platform.WithClock(now)
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithDevSafety controls the `go run` sandbox. Enabled by default.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// WithSchemaValidation toggles JSON Schema validation of the data file.
func WithSchemaValidation(enabled bool) Option {
	return platform.WithSchemaValidation(enabled)
}

// WithEventBuffer sets the per-subscriber event buffer size.
func WithEventBuffer(size int) Option {
	return platform.WithEventBuffer(size)
}

// --- Factory ---

// New opens the daybook stored in dir ("" for DefaultDataDir).
func New(dir string, opts ...Option) (*core.Service, error) {
	return platform.New(dir, opts...)
}

// Init builds and initializes the storage adapter without loading it.
func Init(dir string, opts ...Option) (core.Repository, error) {
	return platform.Init(dir, opts...)
}

// DefaultDataDir returns the per-user data directory.
func DefaultDataDir() (string, error) {
	return platform.DefaultDataDir()
}

// LoadConfig reads the TOML config file and DAYBOOK_* overrides.
func LoadConfig(path string) (Config, error) {
	return platform.LoadConfig(path)
}

// OpenFile opens path with the OS default application.
func OpenFile(ctx context.Context, path string) (string, error) {
	return platform.OpenFile(ctx, path)
}
