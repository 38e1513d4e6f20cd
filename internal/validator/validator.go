// Package validator checks an experiment for the mistakes that would make a
// plan wrong or a host fail at presentation time.
package validator

import (
	"errors"
	"fmt"
	"slices"

	"golang.org/x/text/language"

	"github.com/aretw0/trialset/pkg/domain"
	"github.com/aretw0/trialset/pkg/schema"
	"github.com/aretw0/trialset/pkg/sequence"
)

var (
	// ErrInvalidItem marks an item whose payload cannot be presented.
	ErrInvalidItem = errors.New("invalid item")
	// ErrUnknownType marks an item whose presentation type has no defaults bundle.
	ErrUnknownType = errors.New("unknown presentation type")
	// ErrInvalidLocale marks a locale that is not a BCP 47 tag.
	ErrInvalidLocale = errors.New("invalid locale")
	// ErrDuplicateItem marks two items sharing a group and ordinal.
	ErrDuplicateItem = errors.New("duplicate item")
)

type config struct {
	strict bool
}

// Option configures Validate.
type Option func(*config)

// WithStrict also reports items whose type is neither built in nor given a defaults bundle.
func WithStrict(strict bool) Option {
	return func(c *config) {
		c.strict = strict
	}
}

// Validate returns nil for a sound experiment, or a *schema.AggregateError
// listing every problem found. Individual entries wrap the domain sentinels,
// so errors.Is(err, domain.ErrOrphanedGroup) works on the result.
func Validate(exp *domain.Experiment, opts ...Option) error {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	var errs []error
	errs = append(errs, checkSequence(exp)...)
	errs = append(errs, checkItems(exp, cfg)...)
	errs = append(errs, checkDefaults(exp)...)

	if exp.Locale != "" {
		if _, err := language.Parse(exp.Locale); err != nil {
			errs = append(errs, fmt.Errorf("%w: %q: %v", ErrInvalidLocale, exp.Locale, err))
		}
	}
	return schema.Join(errs...)
}

func checkSequence(exp *domain.Experiment) []error {
	// Without an expression every group is planned once in table order.
	if exp.Sequence.IsZero() {
		return nil
	}
	if err := sequence.Check(exp.Sequence); err != nil {
		return []error{err}
	}

	var errs []error
	counts := make(map[string]int)
	var order []string
	for _, label := range sequence.Labels(exp.Sequence) {
		if counts[label] == 0 {
			order = append(order, label)
		}
		counts[label]++
	}

	for _, label := range order {
		if !exp.HasGroup(label) {
			errs = append(errs, fmt.Errorf("%w: %q", domain.ErrUnknownGroup, label))
		}
		if counts[label] > 1 {
			errs = append(errs, fmt.Errorf("%w: %q referenced %d times", domain.ErrDuplicateReference, label, counts[label]))
		}
	}

	seen := make(map[string]bool)
	for _, it := range exp.Items {
		if it.Group == "" || seen[it.Group] {
			continue
		}
		seen[it.Group] = true
		if counts[it.Group] == 0 {
			errs = append(errs, fmt.Errorf("%w: %q is never referenced", domain.ErrOrphanedGroup, it.Group))
		}
	}
	return errs
}

type itemKey struct {
	group   string
	ordinal int
}

func checkItems(exp *domain.Experiment, cfg *config) []error {
	var errs []error
	seen := make(map[itemKey]int)

	for _, it := range exp.Items {
		where := fmt.Sprintf("item %d (%s)", it.Index, it.Label())

		if it.Group == "" {
			errs = append(errs, fmt.Errorf("%w: item %d has no group", ErrInvalidItem, it.Index))
		}
		if it.Type == "" {
			errs = append(errs, fmt.Errorf("%w: %s has no type", ErrInvalidItem, where))
			continue
		}

		if it.Ordinal != 0 {
			key := itemKey{it.Group, it.Ordinal}
			if prev, ok := seen[key]; ok {
				errs = append(errs, fmt.Errorf("%w: %s repeats item %d", ErrDuplicateItem, where, prev))
			} else {
				seen[key] = it.Index
			}
		}

		_, hasDefaults := exp.Defaults[it.Type]
		if cfg.strict && !hasDefaults && !slices.Contains(domain.BuiltinTypes, it.Type) {
			errs = append(errs, fmt.Errorf("%w: %s has type %q", ErrUnknownType, where, it.Type))
		}

		switch it.Type {
		case domain.TypeJudgment:
			if it.Payload.Sentence == "" {
				errs = append(errs, fmt.Errorf("%w: %s has no sentence", ErrInvalidItem, where))
			}
		case domain.TypeForm:
			if it.Payload.Include == "" && it.Payload.HTML == "" {
				errs = append(errs, fmt.Errorf("%w: %s has no html", ErrInvalidItem, where))
			}
		}

		if err := schema.ValidateOptions(schema.OptionSchemas[it.Type], it.Options); err != nil {
			errs = append(errs, fmt.Errorf("%s options: %w", where, err))
		}
		if len(it.Payload.Validators) > 0 {
			if _, err := schema.CompileRules(it.Payload.Validators); err != nil {
				errs = append(errs, fmt.Errorf("%s validators: %w", where, err))
			}
		}
	}
	return errs
}

func checkDefaults(exp *domain.Experiment) []error {
	types := make([]string, 0, len(exp.Defaults))
	for typ := range exp.Defaults {
		types = append(types, typ)
	}
	slices.Sort(types)

	var errs []error
	for _, typ := range types {
		if err := schema.ValidateOptions(schema.OptionSchemas[typ], exp.Defaults[typ]); err != nil {
			errs = append(errs, fmt.Errorf("defaults %q: %w", typ, err))
		}
	}
	return errs
}
