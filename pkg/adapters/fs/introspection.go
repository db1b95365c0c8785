package fs

import (
	"sort"
	"time"

	"github.com/aretw0/introspection"
)

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	Path          string     `json:"path"`
	File          string     `json:"file"`
	BackupDir     string     `json:"backup_dir"`
	ReadOnly      bool       `json:"read_only"`
	Schema        bool       `json:"schema_validation"`
	Codecs        []string   `json:"codecs"`
	WatcherActive bool       `json:"watcher_active"`
	LastSave      *time.Time `json:"last_save,omitempty"`
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	codecs := make([]string, 0, len(r.codecs))
	for ext := range r.codecs {
		codecs = append(codecs, ext)
	}
	sort.Strings(codecs)

	return RepositoryState{
		Path:          r.Path,
		File:          r.file,
		BackupDir:     r.config.BackupDir,
		ReadOnly:      r.config.ReadOnly,
		Schema:        r.schema != nil,
		Codecs:        codecs,
		WatcherActive: r.watcherActive,
		LastSave:      r.lastSave,
	}
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string {
	return "fs-repository"
}

var _ introspection.Introspectable = (*Repository)(nil)
var _ introspection.Component = (*Repository)(nil)

func (r *Repository) setWatcherActive(active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watcherActive = active
}
