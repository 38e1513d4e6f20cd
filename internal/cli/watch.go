package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/trialset/pkg/schema"
)

// Watcher is the part of the engine RunWatch needs.
type Watcher interface {
	Validate(ctx context.Context) error
	Watch(ctx context.Context) (<-chan struct{}, error)
}

// RunWatch validates the experiment, then again after every change of its
// source, until ctx ends. Bursts of changes closer than debounce collapse
// into one validation.
func RunWatch(ctx context.Context, eng Watcher, out io.Writer, logger *slog.Logger, debounce time.Duration) error {
	changes, err := eng.Watch(ctx)
	if err != nil {
		return err
	}

	report(ctx, eng, out)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			logger.Debug("experiment source changed")
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			report(ctx, eng, out)
		}
	}
}

func report(ctx context.Context, eng Watcher, out io.Writer) {
	err := eng.Validate(ctx)
	if err == nil {
		PrintSystemMessage(out, "Experiment is valid.")
		return
	}

	problems := schema.ValidationErrors(err)
	if len(problems) == 0 && !errors.Is(err, context.Canceled) {
		PrintSystemMessage(out, "Could not load experiment: %v", err)
		return
	}
	PrintSystemMessage(out, "Experiment has %d problem(s):", len(problems))
	for _, p := range problems {
		PrintSystemMessage(out, "  - %v", p)
	}
}
