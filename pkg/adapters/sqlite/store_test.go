package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/trialset/pkg/domain"
	"github.com/aretw0/trialset/pkg/ports"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "plans.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_Contract(t *testing.T) {
	ports.RunPlanStoreContract(t, openTempStore(t))
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}

func TestStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plans.db")
	ctx := context.Background()

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, &domain.Plan{ID: "p1", Experiment: "e", Seed: ^uint64(0)}))
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()

	plan, err := store.Load(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, ^uint64(0), plan.Seed)
}

func TestStore_ListByExperiment(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, &domain.Plan{ID: "b", Experiment: "rc", CreatedAt: base.Add(time.Minute)}))
	require.NoError(t, store.Save(ctx, &domain.Plan{ID: "a", Experiment: "rc", CreatedAt: base.Add(2 * time.Minute)}))
	require.NoError(t, store.Save(ctx, &domain.Plan{ID: "c", Experiment: "other", CreatedAt: base}))

	ids, err := store.ListByExperiment(ctx, "rc")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, ids)

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, all)
}

func TestStore_RequiresID(t *testing.T) {
	assert.Error(t, openTempStore(t).Save(context.Background(), &domain.Plan{}))
}

func TestStore_CanceledContext(t *testing.T) {
	store := openTempStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := store.Load(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}
