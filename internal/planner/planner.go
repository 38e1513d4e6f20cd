// Package planner evaluates a sequencing expression against an experiment's
// item table and produces one concrete presentation order.
package planner

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/aretw0/trialset/internal/logging"
	"github.com/aretw0/trialset/pkg/domain"
	"github.com/aretw0/trialset/pkg/sequence"
	"github.com/google/uuid"
)

// seedMix decorrelates the two PCG words derived from a single seed.
const seedMix = 0x9e3779b97f4a7c15

// Planner turns experiments into plans.
// It keeps no state between calls and is safe for concurrent use.
type Planner struct {
	logger *slog.Logger
	hooks  domain.PlanHooks
	now    func() time.Time
	newID  func() string
}

// Option configures the Planner.
type Option func(*Planner)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Planner) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.PlanHooks) Option {
	return func(p *Planner) {
		p.hooks = hooks
	}
}

// WithClock overrides the time source used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(p *Planner) {
		p.now = now
	}
}

// WithIDGenerator overrides how plan IDs are minted.
func WithIDGenerator(newID func() string) Option {
	return func(p *Planner) {
		p.newID = newID
	}
}

// New creates a Planner.
func New(opts ...Option) *Planner {
	p := &Planner{
		logger: logging.NewNop(),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewSeed draws a fresh seed for a run that did not ask for one.
func NewSeed() uint64 {
	return rand.Uint64()
}

// Plan evaluates the experiment's sequence with the given seed.
// The same experiment and seed always produce the same order.
func (p *Planner) Plan(ctx context.Context, exp *domain.Experiment, seed uint64) (*domain.Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	event := &domain.PlanEvent{
		EventBase:  domain.EventBase{Timestamp: p.now(), Type: domain.EventPlanStart},
		Experiment: exp.Name,
		Seed:       seed,
	}
	if p.hooks.OnPlanStart != nil {
		p.hooks.OnPlanStart(ctx, event)
	}

	plan, err := p.plan(exp, seed)

	done := *event
	done.Type = domain.EventPlanDone
	done.Timestamp = p.now()
	done.Duration = time.Since(start)
	done.Err = err
	if plan != nil {
		done.PlanID = plan.ID
		done.Items = len(plan.Entries)
	}
	if p.hooks.OnPlanDone != nil {
		p.hooks.OnPlanDone(ctx, &done)
	}

	if err != nil {
		p.logger.Warn("plan failed", "experiment", exp.Name, "seed", seed, "error", err)
		return nil, err
	}
	p.logger.Debug("plan generated", "experiment", exp.Name, "plan_id", plan.ID, "seed", seed, "items", len(plan.Entries))
	return plan, nil
}

// Replay re-derives the order drawn earlier with seed. It fires no hooks:
// a replay is a check, not a newly generated plan.
func (p *Planner) Replay(ctx context.Context, exp *domain.Experiment, seed uint64) (*domain.Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	plan, err := p.plan(exp, seed)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("plan replayed", "experiment", exp.Name, "seed", seed, "items", len(plan.Entries))
	return plan, nil
}

func (p *Planner) plan(exp *domain.Experiment, seed uint64) (*domain.Plan, error) {
	expr := exp.Sequence
	if expr.IsZero() {
		expr = DefaultSequence(exp)
	}

	items, err := Evaluate(exp, expr, rand.New(rand.NewPCG(seed, seed^seedMix)))
	if err != nil {
		return nil, err
	}

	plan := &domain.Plan{
		ID:         p.newID(),
		Experiment: exp.Name,
		Seed:       seed,
		CreatedAt:  p.now(),
		Entries:    make([]domain.Entry, len(items)),
	}
	for i, it := range items {
		plan.Entries[i] = domain.Entry{Position: i, Item: exp.Resolve(it)}
	}
	return plan, nil
}

// DefaultSequence presents every group in order of first appearance, declared
// empty groups last. It is used when an experiment defines no sequence.
func DefaultSequence(exp *domain.Experiment) sequence.Expr {
	var labels []string
	for _, it := range exp.Items {
		if !slices.Contains(labels, it.Group) {
			labels = append(labels, it.Group)
		}
	}
	for _, g := range exp.Groups {
		if !slices.Contains(labels, g) {
			labels = append(labels, g)
		}
	}
	return sequence.Seq(sequence.Groups(labels...)...)
}

// Evaluate computes the order described by expr using rng as the only source of randomness.
// Every referenced label is checked before any draw, so an unknown group is
// reported even when it sits in an alternative that would not be selected.
func Evaluate(exp *domain.Experiment, expr sequence.Expr, rng *rand.Rand) ([]domain.Item, error) {
	if err := sequence.Check(expr); err != nil {
		return nil, err
	}
	groups := exp.GroupItems()
	for _, label := range sequence.Labels(expr) {
		if _, ok := groups[label]; !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownGroup, label)
		}
	}
	ev := &evaluator{groups: groups, rng: rng}
	return ev.eval(expr), nil
}

type evaluator struct {
	groups map[string][]domain.Item
	rng    *rand.Rand
}

func (ev *evaluator) eval(e sequence.Expr) []domain.Item {
	switch e.Kind {
	case sequence.KindGroup:
		return slices.Clone(ev.groups[e.Label])

	case sequence.KindSeq:
		var out []domain.Item
		for _, c := range e.Children {
			out = append(out, ev.eval(c)...)
		}
		return out

	case sequence.KindRandomize:
		items := ev.eval(e.Children[0])
		ev.rng.Shuffle(len(items), func(i, j int) {
			items[i], items[j] = items[j], items[i]
		})
		return items

	case sequence.KindShuffle:
		lists := make([][]domain.Item, len(e.Children))
		for i, c := range e.Children {
			lists[i] = ev.eval(c)
		}
		return ev.interleave(lists)

	case sequence.KindAnyOf:
		if len(e.Children) == 0 {
			return nil
		}
		return ev.eval(e.Children[ev.rng.IntN(len(e.Children))])
	}
	return nil
}

// interleave merges lists so that every interleaving is equally likely:
// the next item comes from list i with probability remaining(i)/remaining(all).
func (ev *evaluator) interleave(lists [][]domain.Item) []domain.Item {
	total := 0
	for _, l := range lists {
		total += len(l)
	}
	out := make([]domain.Item, 0, total)
	next := make([]int, len(lists))

	for remaining := total; remaining > 0; remaining-- {
		k := ev.rng.IntN(remaining)
		for i, l := range lists {
			left := len(l) - next[i]
			if k < left {
				out = append(out, l[next[i]])
				next[i]++
				break
			}
			k -= left
		}
	}
	return out
}
