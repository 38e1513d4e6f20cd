package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/trialset/pkg/domain"
)

// LogHooks returns hooks that log every plan and every rejected field.
func LogHooks(logger *slog.Logger) domain.PlanHooks {
	return domain.PlanHooks{
		OnPlanStart: func(ctx context.Context, e *domain.PlanEvent) {
			logger.DebugContext(ctx, "plan start", "experiment", e.Experiment, "seed", e.Seed)
		},
		OnPlanDone: func(ctx context.Context, e *domain.PlanEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "plan failed", "experiment", e.Experiment, "seed", e.Seed, "error", e.Err)
				return
			}
			logger.InfoContext(ctx, "plan done",
				"experiment", e.Experiment,
				"plan_id", e.PlanID,
				"seed", e.Seed,
				"items", e.Items,
				"duration", e.Duration,
			)
		},
		OnFieldRejected: func(ctx context.Context, e *domain.FieldEvent) {
			logger.InfoContext(ctx, "field rejected", "group", e.Group, "field", e.Field)
		},
	}
}

// Combine fans every event out to all hooks, in order.
func Combine(hooks ...domain.PlanHooks) domain.PlanHooks {
	return domain.PlanHooks{
		OnPlanStart: func(ctx context.Context, e *domain.PlanEvent) {
			for _, h := range hooks {
				if h.OnPlanStart != nil {
					h.OnPlanStart(ctx, e)
				}
			}
		},
		OnPlanDone: func(ctx context.Context, e *domain.PlanEvent) {
			for _, h := range hooks {
				if h.OnPlanDone != nil {
					h.OnPlanDone(ctx, e)
				}
			}
		},
		OnFieldRejected: func(ctx context.Context, e *domain.FieldEvent) {
			for _, h := range hooks {
				if h.OnFieldRejected != nil {
					h.OnFieldRejected(ctx, e)
				}
			}
		},
	}
}
