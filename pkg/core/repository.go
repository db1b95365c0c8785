package core

import "context"

// Repository defines the contract for persisting the aggregate.
// The aggregate is always read and written as a whole; adapters decide where
// it lives (a JSON file, a SQLite row, memory).
type Repository interface {
	// Initialize ensures the underlying storage is ready (e.g., create directories, schema).
	Initialize(ctx context.Context) error

	// Load reads the whole aggregate. It returns ErrNoData when nothing was
	// persisted yet, and an error matching ErrCorrupt when the stored document
	// cannot be decoded.
	Load(ctx context.Context) (AppData, error)

	// Save overwrites the stored aggregate.
	Save(ctx context.Context, data AppData) error

	// Location returns the absolute path (or DSN) of the stored aggregate.
	Location() string
}

// Watchable is implemented by repositories that can report changes made to
// the stored aggregate by other processes.
type Watchable interface {
	Watch(ctx context.Context) (<-chan Event, error)
}

// Closer is implemented by repositories holding resources (e.g. a DB handle).
type Closer interface {
	Close() error
}
