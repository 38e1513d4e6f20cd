package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/trialset/pkg/adapters/memory"
	"github.com/aretw0/trialset/pkg/domain"
	"github.com/aretw0/trialset/pkg/ports"
)

func TestMemoryStore_Contract(t *testing.T) {
	ports.RunPlanStoreContract(t, memory.NewStore())
}

func TestMemoryStore_Isolation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	plan := &domain.Plan{ID: "p", Entries: []domain.Entry{
		{Item: domain.Item{Group: "a", Options: map[string]any{"k": "v"}}},
	}}
	require.NoError(t, store.Save(ctx, plan))

	plan.Entries[0].Item.Options["k"] = "changed"
	loaded, err := store.Load(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, "v", loaded.Entries[0].Item.Options["k"])

	loaded.Entries[0].Item.Group = "mutated"
	again, err := store.Load(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, "a", again.Entries[0].Item.Group)
}

func TestLoader_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	loader := memory.NewLoader(&domain.Experiment{
		Name:  "x",
		Items: []domain.Item{{Group: "a", Type: domain.TypeMessage}},
	})

	first, err := loader.Load(ctx)
	require.NoError(t, err)
	first.Items[0].Group = "changed"

	second, err := loader.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", second.Items[0].Group)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = loader.Load(canceled)
	assert.ErrorIs(t, err, context.Canceled)
}
