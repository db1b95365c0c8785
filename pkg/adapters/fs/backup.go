package fs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/daybook/pkg/core"
)

// BackupPattern matches backup files anywhere below the backup directory.
const BackupPattern = "**/app_data-*.json"

const backupTimeLayout = "20060102T150405.000000000Z"

// BackupDir returns the directory holding backups.
func (r *Repository) BackupDir() string {
	return r.config.BackupDir
}

// Backup copies the current data file into the backup directory and returns
// the path of the copy.
func (r *Repository) Backup(now time.Time) (string, error) {
	raw, err := os.ReadFile(r.file)
	if errors.Is(err, os.ErrNotExist) {
		return "", core.ErrNoData
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", r.file, err)
	}

	if err := os.MkdirAll(r.config.BackupDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	name := "app_data-" + now.UTC().Format(backupTimeLayout) + ".json"
	dst := filepath.Join(r.config.BackupDir, name)
	if err := writeFileAtomic(dst, raw, 0644); err != nil {
		return "", err
	}
	r.config.Logger.Info("backed up app data", "path", dst)
	return dst, nil
}

// Backups lists backup files, oldest first.
func (r *Repository) Backups() ([]string, error) {
	if _, err := os.Stat(r.config.BackupDir); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	matches, err := doublestar.Glob(os.DirFS(r.config.BackupDir), BackupPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	sort.Slice(matches, func(i, j int) bool {
		return backupKey(matches[i]) < backupKey(matches[j])
	})

	paths := make([]string, 0, len(matches))
	for _, m := range matches {
		paths = append(paths, filepath.Join(r.config.BackupDir, filepath.FromSlash(m)))
	}
	return paths, nil
}

// backupKey orders backups by the timestamp embedded in their name.
func backupKey(p string) string {
	base := filepath.Base(filepath.FromSlash(p))
	return strings.TrimSuffix(strings.TrimPrefix(base, "app_data-"), ".json")
}

// PruneBackups removes all but the newest keep backups and returns the
// removed paths.
func (r *Repository) PruneBackups(keep int) ([]string, error) {
	if keep < 0 {
		return nil, fmt.Errorf("keep must not be negative: %d", keep)
	}
	all, err := r.Backups()
	if err != nil {
		return nil, err
	}
	if len(all) <= keep {
		return nil, nil
	}

	var removed []string
	for _, p := range all[:len(all)-keep] {
		if err := os.Remove(p); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", p, err)
		}
		removed = append(removed, p)
	}
	r.config.Logger.Info("pruned backups", "removed", len(removed), "kept", keep)
	return removed, nil
}
