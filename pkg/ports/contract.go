package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/trialset/pkg/domain"
)

func contractPlan(id string) *domain.Plan {
	return &domain.Plan{
		ID:         id,
		Experiment: "contract",
		Seed:       0xfeedface12345678,
		CreatedAt:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Entries: []domain.Entry{
			{Position: 0, Item: domain.Item{Index: 1, Group: "intro", Type: domain.TypeForm,
				Payload: domain.Payload{Include: "intro.html", Validators: map[string]domain.Rule{"edad": {Pattern: `^\d+$`, Message: "Valor erróneo para ‘edad’"}}},
				Options: map[string]any{"hideProgressBar": true}}},
			{Position: 1, Item: domain.Item{Index: 0, Group: "subj_rel", Ordinal: 3, Type: domain.TypeJudgment,
				Payload: domain.Payload{Sentence: "El periodista que atacó al senador admitió el error."},
				Options: map[string]any{"as": []any{"1", "2", "3"}, "presentAsScale": true}}},
		},
	}
}

// RunPlanStoreContract runs a suite of tests to verify that a PlanStore implementation
// adheres to the defined interface contract.
func RunPlanStoreContract(t *testing.T, store PlanStore) {
	ctx := context.Background()
	planID := "contract-plan-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		plan := contractPlan(planID)
		require.NoError(t, store.Save(ctx, plan), "Save should not return error")

		loaded, err := store.Load(ctx, planID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, plan.ID, loaded.ID)
		assert.Equal(t, plan.Experiment, loaded.Experiment)
		assert.Equal(t, plan.Seed, loaded.Seed, "seeds must survive storage exactly")
		assert.True(t, plan.CreatedAt.Equal(loaded.CreatedAt))
		require.Len(t, loaded.Entries, 2)
		assert.True(t, plan.SameOrder(loaded))
		assert.Equal(t, plan.Entries[1].Item.Payload.Sentence, loaded.Entries[1].Item.Payload.Sentence)
		assert.Equal(t, plan.Entries[0].Item.Payload.Validators, loaded.Entries[0].Item.Payload.Validators)
		// JSON persistence may turn typed values into their generic form; only check presence.
		assert.NotNil(t, loaded.Entries[1].Item.Options["as"])
	})

	t.Run("Save Replaces", func(t *testing.T) {
		plan := contractPlan(planID)
		plan.Experiment = "replaced"
		require.NoError(t, store.Save(ctx, plan))

		loaded, err := store.Load(ctx, planID)
		require.NoError(t, err)
		assert.Equal(t, "replaced", loaded.Experiment)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+planID)
		assert.ErrorIs(t, err, domain.ErrPlanNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, contractPlan(planID)))
		require.NoError(t, store.Delete(ctx, planID), "Delete should not return error")

		_, err := store.Load(ctx, planID)
		assert.ErrorIs(t, err, domain.ErrPlanNotFound, "Load after Delete should return ErrPlanNotFound")

		assert.NoError(t, store.Delete(ctx, planID), "deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := planID + "-1"
		id2 := planID + "-2"
		require.NoError(t, store.Save(ctx, contractPlan(id1)))
		require.NoError(t, store.Save(ctx, contractPlan(id2)))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
		assert.NotContains(t, ids, planID)
	})
}
