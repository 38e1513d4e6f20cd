package trialset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/loam"

	"github.com/aretw0/trialset/internal/logging"
	"github.com/aretw0/trialset/internal/planner"
	"github.com/aretw0/trialset/internal/validator"
	"github.com/aretw0/trialset/pkg/adapters/file"
	"github.com/aretw0/trialset/pkg/adapters/hcl"
	loamAdapter "github.com/aretw0/trialset/pkg/adapters/loam"
	"github.com/aretw0/trialset/pkg/adapters/memory"
	"github.com/aretw0/trialset/pkg/domain"
	"github.com/aretw0/trialset/pkg/ports"
	"github.com/aretw0/trialset/pkg/schema"
	"github.com/aretw0/trialset/pkg/sequence"
)

// ErrWatchUnsupported is returned by Watch when the loader cannot signal changes.
var ErrWatchUnsupported = errors.New("loader does not support watching")

// Engine is the high-level entry point for the trialset library.
type Engine struct {
	loader  ports.ExperimentLoader
	store   ports.PlanStore
	planner *planner.Planner
	hooks   domain.PlanHooks
	logger  *slog.Logger
	strict  bool

	maxInputSize int
	plannerOpts  []planner.Option

	// Name labels the experiment source (file or directory name).
	Name string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLoader injects a custom ExperimentLoader, bypassing source detection.
func WithLoader(l ports.ExperimentLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithStore sets where plans are saved. The default is an in-memory store.
func WithStore(s ports.PlanStore) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.PlanHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithStrict makes Validate also reject items of unknown presentation types.
func WithStrict(strict bool) Option {
	return func(e *Engine) {
		e.strict = strict
	}
}

// WithMaxInputSize bounds the inputs accepted by CheckField, in bytes.
// The default is schema.DefaultMaxInputSize.
func WithMaxInputSize(n int) Option {
	return func(e *Engine) {
		e.maxInputSize = n
	}
}

// WithPlannerOptions passes options such as a fixed clock to the planner.
func WithPlannerOptions(opts ...planner.Option) Option {
	return func(e *Engine) {
		e.plannerOpts = append(e.plannerOpts, opts...)
	}
}

// New initializes a new Engine for the experiment at path.
// A directory is read as a Loam repository, a .hcl file as HCL, anything else
// as YAML or JSON. If WithLoader is given, path may be empty.
func New(path string, opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.loader == nil {
		if path == "" {
			return nil, fmt.Errorf("path is required when no custom loader is provided")
		}
		loader, err := OpenLoader(path)
		if err != nil {
			return nil, err
		}
		eng.loader = loader
	}
	if path != "" {
		eng.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("source", eng.Name)
	}
	if eng.store == nil {
		eng.store = memory.NewStore()
	}

	plannerOpts := append([]planner.Option{
		planner.WithLogger(eng.logger),
		planner.WithHooks(eng.hooks),
	}, eng.plannerOpts...)
	eng.planner = planner.New(plannerOpts...)

	return eng, nil
}

// OpenLoader picks a loader for path by its kind.
func OpenLoader(path string) (ports.ExperimentLoader, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("experiment source: %w", err)
	}

	switch {
	case info.IsDir():
		// Read-only: the engine never writes to the experiment sources.
		repo, err := loam.Init(absPath,
			loam.WithStrict(true),
			loam.WithReadOnly(true),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize loam: %w", err)
		}
		l := loamAdapter.New(loam.NewTypedRepository[loamAdapter.DocumentMetadata](repo))
		l.Name = filepath.Base(absPath)
		return l, nil
	case strings.EqualFold(filepath.Ext(absPath), ".hcl"):
		return hcl.NewLoader(absPath), nil
	default:
		return file.NewLoader(absPath), nil
	}
}

// Experiment loads the experiment from its source.
func (e *Engine) Experiment(ctx context.Context) (*domain.Experiment, error) {
	exp, err := e.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load experiment: %w", err)
	}
	return exp, nil
}

// Validate loads the experiment and reports every problem found.
// The error is a *schema.AggregateError wrapping the individual failures.
func (e *Engine) Validate(ctx context.Context) error {
	exp, err := e.Experiment(ctx)
	if err != nil {
		return err
	}
	return validator.Validate(exp, validator.WithStrict(e.strict))
}

// Sequence returns the expression plans are drawn from. Experiments
// without one get the default: every group once, in table order.
func (e *Engine) Sequence(ctx context.Context) (sequence.Expr, error) {
	exp, err := e.Experiment(ctx)
	if err != nil {
		return sequence.Expr{}, err
	}
	if exp.Sequence.IsZero() {
		return planner.DefaultSequence(exp), nil
	}
	return exp.Sequence, nil
}

// PlanOptions controls a single Plan call.
type PlanOptions struct {
	// Seed fixes the random draws. Nil draws a fresh seed, which is recorded in the plan.
	Seed *uint64
	// Save stores the plan in the engine's PlanStore.
	Save bool
}

// Seed is a helper for PlanOptions.Seed.
func Seed(s uint64) *uint64 {
	return &s
}

// Plan generates one presentation order.
func (e *Engine) Plan(ctx context.Context, opts PlanOptions) (*domain.Plan, error) {
	exp, err := e.Experiment(ctx)
	if err != nil {
		return nil, err
	}

	seed := planner.NewSeed()
	if opts.Seed != nil {
		seed = *opts.Seed
	}

	plan, err := e.planner.Plan(ctx, exp, seed)
	if err != nil {
		return nil, err
	}

	if opts.Save {
		if err := e.store.Save(ctx, plan); err != nil {
			return nil, fmt.Errorf("save plan: %w", err)
		}
		e.logger.Info("plan saved", "plan_id", plan.ID, "seed", seed)
	}
	return plan, nil
}

// Replay re-derives a stored plan from its seed and checks the order matches.
// It fails with domain.ErrPlanMismatch when the experiment changed since.
func (e *Engine) Replay(ctx context.Context, planID string) (*domain.Plan, error) {
	stored, err := e.store.Load(ctx, planID)
	if err != nil {
		return nil, err
	}
	exp, err := e.Experiment(ctx)
	if err != nil {
		return nil, err
	}
	if stored.Experiment != exp.Name {
		return nil, fmt.Errorf("%w: plan %s belongs to %q, not %q", domain.ErrPlanMismatch, planID, stored.Experiment, exp.Name)
	}

	replayed, err := e.planner.Replay(ctx, exp, stored.Seed)
	if err != nil {
		return nil, err
	}
	if !stored.SameOrder(replayed) {
		return nil, fmt.Errorf("%w: plan %s (seed %d)", domain.ErrPlanMismatch, planID, stored.Seed)
	}
	return stored, nil
}

// CheckField runs the validator of one form field against a participant's input.
// Control characters are stripped from the input first; oversized or invalid
// UTF-8 inputs fail with schema.ErrInputTooLarge or schema.ErrInvalidUTF8.
// It returns nil when accepted, a *schema.FieldError carrying the message to
// show when rejected, and domain.ErrUnknownGroup or domain.ErrFieldNotFound
// when there is no such validator.
func (e *Engine) CheckField(ctx context.Context, group, field, input string) error {
	exp, err := e.Experiment(ctx)
	if err != nil {
		return err
	}
	if !exp.HasGroup(group) {
		return fmt.Errorf("%w: %q", domain.ErrUnknownGroup, group)
	}
	rule, ok := exp.Validators(group)[field]
	if !ok {
		return fmt.Errorf("%w: %q in group %q", domain.ErrFieldNotFound, field, group)
	}

	compiled, err := schema.ParseRule(field, rule)
	if err != nil {
		return err
	}
	clean, err := schema.SanitizeInput(input, e.maxInputSize)
	if err != nil {
		return err
	}

	err = compiled.Validate(clean)
	var fe *schema.FieldError
	if errors.As(err, &fe) && e.hooks.OnFieldRejected != nil {
		e.hooks.OnFieldRejected(ctx, &domain.FieldEvent{
			EventBase: domain.EventBase{Timestamp: time.Now().UTC(), Type: domain.EventFieldRejected},
			Group:     group,
			Field:     field,
			Message:   fe.Message,
		})
	}
	return err
}

// Store returns the plan store.
func (e *Engine) Store() ports.PlanStore {
	return e.store
}

// Watch signals when the experiment source changes, if the loader supports it.
func (e *Engine) Watch(ctx context.Context) (<-chan struct{}, error) {
	w, ok := e.loader.(ports.Watchable)
	if !ok {
		return nil, ErrWatchUnsupported
	}
	return w.Watch(ctx)
}
