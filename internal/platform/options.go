package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/daybook/pkg/core"
)

// Adapter names accepted by WithAdapter.
const (
	AdapterFS     = "fs"
	AdapterSQLite = "sqlite"
)

// options holds the internal configuration for a daybook service.
type options struct {
	repository       core.Repository
	logger           *slog.Logger
	adapter          string
	readOnly         bool
	strictToggle     bool
	idAllocator      core.IDAllocator
	clock            func() time.Time
	forceTemp        bool
	devSafety        bool
	schemaValidation bool
	mustExist        bool
	eventBuffer      int
	watchErrors      func(error)
}

// Option defines a functional option for configuring daybook.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		adapter:          AdapterFS,
		devSafety:        true,
		schemaValidation: true,
	}
}

// WithLogger sets the logger for the service and its adapter.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRepository injects a storage adapter. The adapter named by WithAdapter
// is not built.
func WithRepository(repo core.Repository) Option {
	return func(o *options) {
		o.repository = repo
	}
}

// WithAdapter selects the storage adapter by name ("fs" or "sqlite").
// Defaults to "fs".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithReadOnly enables read-only mode.
// In this mode:
// 1. Mutations return ErrReadOnly.
// 2. The data directory is not created.
// 3. Dev safety is bypassed (reads use the real path).
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.readOnly = enabled
	}
}

// WithStrictToggle makes toggling an unknown todo id fail with ErrNotFound.
func WithStrictToggle(enabled bool) Option {
	return func(o *options) {
		o.strictToggle = enabled
	}
}

// WithIDAllocator selects how new ids are assigned (core.LengthIDs by default).
func WithIDAllocator(alloc core.IDAllocator) Option {
	return func(o *options) {
		o.idAllocator = alloc
	}
}

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.clock = now
	}
}

// WithForceTemp forces the data directory into the temp sandbox.
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.forceTemp = force
	}
}

// WithDevSafety controls the sandbox used when running via `go run` or
// `go test`. Enabled by default.
//
// CAUTION: disabling it lets development builds touch real user data.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.devSafety = enabled
	}
}

// WithSchemaValidation toggles JSON Schema validation of the data file (fs
// adapter only). Enabled by default.
func WithSchemaValidation(enabled bool) Option {
	return func(o *options) {
		o.schemaValidation = enabled
	}
}

// WithMustExist requires the data directory to exist already.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.mustExist = must
	}
}

// WithEventBuffer sets the per-subscriber event buffer. Zero means default.
func WithEventBuffer(size int) Option {
	return func(o *options) {
		o.eventBuffer = size
	}
}

// WithWatcherErrorHandler registers a callback for runtime watcher failures
// (e.g. permission denied), which are otherwise only logged.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.watchErrors = fn
	}
}

func (o *options) loggerOrDiscard() *slog.Logger {
	if o.logger != nil {
		return o.logger
	}
	return slog.New(slog.DiscardHandler)
}

func (o *options) serviceOptions() []core.ServiceOption {
	opts := []core.ServiceOption{
		core.WithReadOnlyService(o.readOnly),
		core.WithStrictToggle(o.strictToggle),
	}
	if o.logger != nil {
		opts = append(opts, core.WithServiceLogger(o.logger))
	}
	if o.idAllocator != nil {
		opts = append(opts, core.WithIDAllocator(o.idAllocator))
	}
	if o.clock != nil {
		opts = append(opts, core.WithClock(o.clock))
	}
	if o.eventBuffer > 0 {
		opts = append(opts, core.WithEventBuffer(o.eventBuffer))
	}
	return opts
}
