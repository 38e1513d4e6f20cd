package memory

import (
	"context"
	"fmt"

	"github.com/aretw0/trialset/pkg/domain"
)

// Loader implements ports.ExperimentLoader for an experiment held in memory.
// It is what the Go DSL builds and what most tests use.
type Loader struct {
	exp *domain.Experiment
}

// NewLoader creates a loader serving a copy of exp.
func NewLoader(exp *domain.Experiment) *Loader {
	if exp == nil {
		return &Loader{}
	}
	return &Loader{exp: exp.Clone()}
}

// Load returns a fresh copy of the experiment, so callers may mutate it freely.
func (l *Loader) Load(ctx context.Context) (*domain.Experiment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.exp == nil {
		return nil, fmt.Errorf("memory loader: no experiment")
	}
	return l.exp.Clone(), nil
}
