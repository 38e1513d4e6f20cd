package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/trialset/pkg/adapters/file"
	"github.com/aretw0/trialset/pkg/domain"
	"github.com/aretw0/trialset/pkg/ports"
)

func TestFileStore_Contract(t *testing.T) {
	ports.RunPlanStoreContract(t, file.NewStore(t.TempDir()))
}

func TestFileStore_ListEmptyDir(t *testing.T) {
	store := file.NewStore(filepath.Join(t.TempDir(), "missing"))
	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestFileStore_RejectsPathIDs(t *testing.T) {
	ctx := context.Background()
	store := file.NewStore(t.TempDir())

	for _, id := range []string{"", "../escape", `a\b`, ".."} {
		assert.ErrorIs(t, store.Save(ctx, &domain.Plan{ID: id}), file.ErrInvalidID, id)
		_, err := store.Load(ctx, id)
		assert.ErrorIs(t, err, file.ErrInvalidID, id)
	}
}

func TestFileStore_IgnoresStrayFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tmp-p-123.json"), []byte("{"), 0o644))

	store := file.NewStore(dir)
	require.NoError(t, store.Save(context.Background(), &domain.Plan{ID: "p"}))

	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"p"}, ids)
}

func TestFileStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{"), 0o644))

	_, err := file.NewStore(dir).Load(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrPlanNotFound)
}
