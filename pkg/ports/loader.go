package ports

import (
	"context"

	"github.com/aretw0/trialset/pkg/domain"
)

// ExperimentLoader defines how the engine obtains an experiment definition.
// Implementations return a fresh value on every call; callers may mutate it.
type ExperimentLoader interface {
	Load(ctx context.Context) (*domain.Experiment, error)
}

// Watchable defines an interface for loaders that can notify about backend changes.
// This is typically used for hot-reload in long-running servers.
type Watchable interface {
	// Watch returns a channel that is signaled when the underlying source changes.
	// It is closed when ctx is done.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
