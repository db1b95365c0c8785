package fs

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/aretw0/daybook/pkg/core"
)

// DefaultFileName is the name of the data file inside the data directory.
const DefaultFileName = "app_data.json"

// Repository implements core.Repository with a single JSON document on disk.
type Repository struct {
	Path   string // data directory
	file   string // absolute path of the data file
	config Config
	schema *jsonschema.Schema
	codecs map[string]Codec

	mu            sync.RWMutex
	lastHash      [sha256.Size]byte
	watcherActive bool
	lastSave      *time.Time
}

// Config holds the configuration for the filesystem repository.
type Config struct {
	Path      string // data directory
	FileName  string // defaults to app_data.json
	BackupDir string // defaults to <Path>/backups
	MustExist bool
	ReadOnly  bool
	// SkipSchema disables JSON Schema validation on load.
	SkipSchema   bool
	Logger       *slog.Logger
	ErrorHandler func(error) // receives watcher failures
}

// NewRepository creates a new filesystem-backed repository.
func NewRepository(config Config) *Repository {
	if config.FileName == "" {
		config.FileName = DefaultFileName
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	path := config.Path
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if config.BackupDir == "" {
		config.BackupDir = filepath.Join(path, "backups")
	}
	return &Repository{
		Path:   path,
		file:   filepath.Join(path, config.FileName),
		config: config,
		codecs: DefaultCodecs(),
	}
}

// RegisterCodec adds or replaces the codec used for an extension (e.g. ".toml").
func (r *Repository) RegisterCodec(ext string, c Codec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codecs[ext] = c
}

// Initialize ensures the data directory exists and compiles the document schema.
func (r *Repository) Initialize(ctx context.Context) error {
	if !r.config.SkipSchema {
		schema, err := compileSchema()
		if err != nil {
			return fmt.Errorf("failed to compile app data schema: %w", err)
		}
		r.schema = schema
	}

	if r.config.MustExist || r.config.ReadOnly {
		info, err := os.Stat(r.Path)
		if os.IsNotExist(err) {
			if r.config.ReadOnly {
				// Nothing to read yet; Load reports ErrNoData.
				return nil
			}
			return fmt.Errorf("data directory does not exist: %s", r.Path)
		}
		if err != nil {
			return fmt.Errorf("failed to stat data directory: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("data path is not a directory: %s", r.Path)
		}
		return nil
	}

	if err := os.MkdirAll(r.Path, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

// Location returns the absolute path of the data file.
func (r *Repository) Location() string {
	return r.file
}

// Load reads and validates the data file.
func (r *Repository) Load(ctx context.Context) (core.AppData, error) {
	raw, err := os.ReadFile(r.file)
	if errors.Is(err, os.ErrNotExist) {
		return core.AppData{}, core.ErrNoData
	}
	if err != nil {
		return core.AppData{}, fmt.Errorf("failed to read %s: %w", r.file, err)
	}

	data, err := r.decode(raw)
	if err != nil {
		return core.AppData{}, core.Corrupt("load_app_data", fmt.Errorf("%s: %w", r.file, err))
	}

	r.mu.Lock()
	r.lastHash = sha256.Sum256(raw)
	r.mu.Unlock()

	r.config.Logger.Debug("loaded data file", "path", r.file, "bytes", len(raw))
	return data, nil
}

// decode validates raw against the schema (unless disabled) and decodes it.
func (r *Repository) decode(raw []byte) (core.AppData, error) {
	if r.schema != nil {
		if err := validateDocument(r.schema, raw); err != nil {
			return core.AppData{}, err
		}
	}
	return JSONCodec{}.Decode(raw)
}

// Save overwrites the data file atomically.
func (r *Repository) Save(ctx context.Context, data core.AppData) error {
	if r.config.ReadOnly {
		return core.ErrReadOnly
	}

	raw, err := JSONCodec{}.Encode(data)
	if err != nil {
		return fmt.Errorf("failed to encode app data: %w", err)
	}

	if err := writeFileAtomic(r.file, raw, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	now := time.Now()
	r.mu.Lock()
	r.lastHash = sha256.Sum256(raw)
	r.lastSave = &now
	r.mu.Unlock()

	r.config.Logger.Info("saved app data", "path", r.file)
	return nil
}

// ownContent reports whether raw is what this repository last read or wrote.
func (r *Repository) ownContent(raw []byte) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sha256.Sum256(raw) == r.lastHash
}

var _ core.Repository = (*Repository)(nil)
var _ core.Watchable = (*Repository)(nil)
