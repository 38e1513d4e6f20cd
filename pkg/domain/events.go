package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventPlanStart     EventType = "plan_start"
	EventPlanDone      EventType = "plan_done"
	EventFieldRejected EventType = "field_rejected"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// PlanEvent describes the generation of one plan.
type PlanEvent struct {
	EventBase
	Experiment string        `json:"experiment"`
	PlanID     string        `json:"plan_id,omitempty"`
	Seed       uint64        `json:"seed"`
	Items      int           `json:"items"`
	Duration   time.Duration `json:"duration,omitempty"`
	Err        error         `json:"-"`
}

// FieldEvent describes a form input rejected by its validator.
type FieldEvent struct {
	EventBase
	Group   string `json:"group"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// PlanHooks defines callbacks for engine observability.
type PlanHooks struct {
	OnPlanStart     func(context.Context, *PlanEvent)
	OnPlanDone      func(context.Context, *PlanEvent)
	OnFieldRejected func(context.Context, *FieldEvent)
}
