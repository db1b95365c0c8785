package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/daybook/pkg/core"
)

func TestBackups(t *testing.T) {
	repo, path := setupRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Initialize(ctx))

	t.Run("Nothing To Back Up", func(t *testing.T) {
		_, err := repo.Backup(time.Now())
		assert.ErrorIs(t, err, core.ErrNoData)

		list, err := repo.Backups()
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	require.NoError(t, repo.Save(ctx, sampleData()))

	base := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
	var created []string
	for i := 0; i < 3; i++ {
		p, err := repo.Backup(base.Add(time.Duration(i) * time.Minute))
		require.NoError(t, err)
		created = append(created, p)
	}
	assert.Equal(t, filepath.Join(path, "backups"), filepath.Dir(created[0]))

	t.Run("Lists Oldest First", func(t *testing.T) {
		list, err := repo.Backups()
		require.NoError(t, err)
		assert.Equal(t, created, list)
	})

	t.Run("Backup Matches Data File", func(t *testing.T) {
		want, err := os.ReadFile(repo.Location())
		require.NoError(t, err)
		got, err := os.ReadFile(created[2])
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("Import Restores Backup", func(t *testing.T) {
		data, err := repo.Import(created[0])
		require.NoError(t, err)
		assert.Equal(t, sampleData(), data)
	})

	t.Run("Prune Keeps Newest", func(t *testing.T) {
		removed, err := repo.PruneBackups(1)
		require.NoError(t, err)
		assert.Equal(t, created[:2], removed)

		list, err := repo.Backups()
		require.NoError(t, err)
		assert.Equal(t, created[2:], list)
	})

	t.Run("Prune Rejects Negative", func(t *testing.T) {
		_, err := repo.PruneBackups(-1)
		assert.Error(t, err)
	})
}
