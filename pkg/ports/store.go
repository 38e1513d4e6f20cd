package ports

import (
	"context"

	"github.com/aretw0/trialset/pkg/domain"
)

// PlanStore defines the interface for persisting generated plans.
type PlanStore interface {
	// Save persists the plan under plan.ID, replacing any previous plan with that ID.
	Save(ctx context.Context, plan *domain.Plan) error

	// Load retrieves a plan.
	// Returns domain.ErrPlanNotFound if the plan does not exist.
	Load(ctx context.Context, id string) (*domain.Plan, error)

	// Delete removes a plan. Deleting a missing plan is not an error.
	Delete(ctx context.Context, id string) error

	// List returns the IDs of all stored plans.
	List(ctx context.Context) ([]string, error)
}
