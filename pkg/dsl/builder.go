package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/trialset/internal/validator"
	"github.com/aretw0/trialset/pkg/adapters/memory"
	"github.com/aretw0/trialset/pkg/domain"
	"github.com/aretw0/trialset/pkg/sequence"
)

// Builder accumulates an experiment definition.
type Builder struct {
	exp   domain.Experiment
	items []*ItemBuilder
	errs  []error
}

// New creates a new experiment builder.
func New(name string) *Builder {
	return &Builder{exp: domain.Experiment{Name: name}}
}

// Locale sets the BCP 47 locale of the experiment's texts.
func (b *Builder) Locale(tag string) *Builder {
	b.exp.Locale = tag
	return b
}

// Groups declares labels that may stay empty.
func (b *Builder) Groups(labels ...string) *Builder {
	b.exp.Groups = append(b.exp.Groups, labels...)
	return b
}

// Defaults sets the option bundle of a presentation type.
func (b *Builder) Defaults(itemType string, opts map[string]any) *Builder {
	if b.exp.Defaults == nil {
		b.exp.Defaults = make(domain.Defaults)
	}
	b.exp.Defaults[itemType] = opts
	return b
}

// Messages sets the UI strings passed through to the host.
func (b *Builder) Messages(m domain.Messages) *Builder {
	b.exp.Messages = m
	return b
}

// Sequence sets the sequencing expression.
func (b *Builder) Sequence(expr sequence.Expr) *Builder {
	b.exp.Sequence = expr
	return b
}

// SequenceString parses and sets the sequencing expression.
// A parse error is reported by Build.
func (b *Builder) SequenceString(src string) *Builder {
	expr, err := sequence.Parse(src)
	if err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	b.exp.Sequence = expr
	return b
}

// Item appends an item of any presentation type.
func (b *Builder) Item(group, itemType string) *ItemBuilder {
	ib := &ItemBuilder{item: domain.Item{Group: group, Type: itemType}}
	b.items = append(b.items, ib)
	return ib
}

// Judgment appends an acceptability judgment item.
func (b *Builder) Judgment(group, sentence string) *ItemBuilder {
	return b.Item(group, domain.TypeJudgment).Sentence(sentence)
}

// Form appends a form item. Give it an Include or HTML.
func (b *Builder) Form(group string) *ItemBuilder {
	return b.Item(group, domain.TypeForm)
}

// Message appends a static message item.
func (b *Builder) Message(group, html string) *ItemBuilder {
	return b.Item(group, domain.TypeMessage).HTML(html)
}

// Experiment returns the validated experiment.
func (b *Builder) Experiment() (*domain.Experiment, error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	exp := b.exp
	exp.Items = make([]domain.Item, len(b.items))
	for i, ib := range b.items {
		it := ib.item.Clone()
		it.Index = i
		exp.Items[i] = it
	}
	if err := validator.Validate(&exp); err != nil {
		return nil, fmt.Errorf("invalid experiment %q: %w", exp.Name, err)
	}
	return &exp, nil
}

// Build compiles the experiment into a memory loader.
func (b *Builder) Build() (*memory.Loader, error) {
	exp, err := b.Experiment()
	if err != nil {
		return nil, err
	}
	return memory.NewLoader(exp), nil
}

// ItemBuilder configures one item.
type ItemBuilder struct {
	item domain.Item
}

// Ordinal sets the item's number within its group.
func (ib *ItemBuilder) Ordinal(n int) *ItemBuilder {
	ib.item.Ordinal = n
	return ib
}

// Sentence sets the stimulus text.
func (ib *ItemBuilder) Sentence(s string) *ItemBuilder {
	ib.item.Payload.Sentence = s
	return ib
}

// Include references an HTML file rendered by the host.
func (ib *ItemBuilder) Include(path string) *ItemBuilder {
	ib.item.Payload.Include = path
	return ib
}

// HTML sets inline markup.
func (ib *ItemBuilder) HTML(html string) *ItemBuilder {
	ib.item.Payload.HTML = html
	return ib
}

// Option overrides one key of the type's defaults bundle.
func (ib *ItemBuilder) Option(key string, value any) *ItemBuilder {
	if ib.item.Options == nil {
		ib.item.Options = make(map[string]any)
	}
	ib.item.Options[key] = value
	return ib
}

// Validate adds a pattern rule for a form field.
func (ib *ItemBuilder) Validate(field, pattern, message string) *ItemBuilder {
	return ib.rule(field, domain.Rule{Pattern: pattern, Message: message})
}

// Script adds a Lua rule for a form field.
func (ib *ItemBuilder) Script(field, source string) *ItemBuilder {
	return ib.rule(field, domain.Rule{Script: source})
}

func (ib *ItemBuilder) rule(field string, r domain.Rule) *ItemBuilder {
	if ib.item.Payload.Validators == nil {
		ib.item.Payload.Validators = make(map[string]domain.Rule)
	}
	ib.item.Payload.Validators[field] = r
	return ib
}
