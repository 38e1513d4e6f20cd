package compiler

import (
	"errors"
	"fmt"
	"maps"

	"github.com/mitchellh/mapstructure"
	"golang.org/x/text/unicode/norm"

	"github.com/aretw0/trialset/pkg/domain"
	"github.com/aretw0/trialset/pkg/sequence"
)

// ErrMalformed is returned when raw data does not have the shape of an experiment.
var ErrMalformed = errors.New("malformed experiment")

// Compile decodes a raw experiment document into the domain model.
func Compile(raw map[string]any) (*domain.Experiment, error) {
	var doc ExperimentDocument
	if err := decode(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return CompileDocument(&doc)
}

// CompileDocument converts an already decoded document.
func CompileDocument(doc *ExperimentDocument) (*domain.Experiment, error) {
	exp := &domain.Experiment{
		Name:   doc.Name,
		Locale: doc.Locale,
		Groups: doc.Groups,
	}

	if len(doc.Defaults) > 0 {
		exp.Defaults = make(domain.Defaults, len(doc.Defaults))
		for typ, bundle := range doc.Defaults {
			exp.Defaults[typ] = maps.Clone(bundle)
		}
	}

	if err := decode(doc.Messages, &exp.Messages); err != nil {
		return nil, fmt.Errorf("%w: messages: %v", ErrMalformed, err)
	}

	if doc.Sequence != nil {
		expr, err := sequence.FromValue(doc.Sequence)
		if err != nil {
			return nil, fmt.Errorf("sequence: %w", err)
		}
		exp.Sequence = expr
	}

	exp.Items = make([]domain.Item, 0, len(doc.Items))
	for i, raw := range doc.Items {
		it, err := CompileItem(raw)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		it.Index = i
		exp.Items = append(exp.Items, it)
	}
	return exp, nil
}

// CompileItem decodes one item in either the compact triple form
// [group | [group, ordinal], type, payload] or the mapping form.
// The returned item has Index 0.
func CompileItem(raw any) (domain.Item, error) {
	switch v := raw.(type) {
	case []any:
		return compileTriple(v)
	case map[string]any:
		var doc ItemDocument
		if err := decode(v, &doc); err != nil {
			return domain.Item{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return CompileItemDocument(&doc)
	default:
		return domain.Item{}, fmt.Errorf("%w: expected list or mapping, got %T", ErrMalformed, raw)
	}
}

func compileTriple(v []any) (domain.Item, error) {
	if len(v) < 2 || len(v) > 3 {
		return domain.Item{}, fmt.Errorf("%w: triple must have 2 or 3 elements, got %d", ErrMalformed, len(v))
	}

	var doc ItemDocument
	switch head := v[0].(type) {
	case string:
		doc.Group = head
	case []any:
		if len(head) != 2 {
			return domain.Item{}, fmt.Errorf("%w: label must be [group, ordinal]", ErrMalformed)
		}
		group, ok := head[0].(string)
		if !ok {
			return domain.Item{}, fmt.Errorf("%w: group must be a string, got %T", ErrMalformed, head[0])
		}
		doc.Group = group
		if err := decode(head[1], &doc.Ordinal); err != nil {
			return domain.Item{}, fmt.Errorf("%w: ordinal: %v", ErrMalformed, err)
		}
	default:
		return domain.Item{}, fmt.Errorf("%w: label must be a string or [group, ordinal], got %T", ErrMalformed, v[0])
	}

	typ, ok := v[1].(string)
	if !ok {
		return domain.Item{}, fmt.Errorf("%w: type must be a string, got %T", ErrMalformed, v[1])
	}
	doc.Type = typ

	if len(v) == 3 && v[2] != nil {
		payload, ok := v[2].(map[string]any)
		if !ok {
			return domain.Item{}, fmt.Errorf("%w: payload must be a mapping, got %T", ErrMalformed, v[2])
		}
		// Triples mix payload and option keys in one mapping.
		payload = maps.Clone(payload)
		delete(payload, "group")
		delete(payload, "ordinal")
		delete(payload, "type")
		if err := decode(payload, &doc); err != nil {
			return domain.Item{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}
	return CompileItemDocument(&doc)
}

// CompileItemDocument converts an already decoded item.
func CompileItemDocument(doc *ItemDocument) (domain.Item, error) {
	it := domain.Item{
		Group:   doc.Group,
		Ordinal: doc.Ordinal,
		Type:    doc.Type,
		Payload: domain.Payload{
			Sentence: NormalizeText(doc.Sentence),
			Include:  doc.Include,
		},
	}

	switch h := doc.HTML.(type) {
	case nil:
	case string:
		it.Payload.HTML = h
	case map[string]any:
		// Hosts accept html: {include: "file.html"}.
		inc, ok := h["include"].(string)
		if !ok {
			return domain.Item{}, fmt.Errorf("%w: html mapping needs an include", ErrMalformed)
		}
		it.Payload.Include = inc
	default:
		return domain.Item{}, fmt.Errorf("%w: html must be a string or {include}, got %T", ErrMalformed, doc.HTML)
	}

	if len(doc.Validators) > 0 {
		it.Payload.Validators = make(map[string]domain.Rule, len(doc.Validators))
		for field, raw := range doc.Validators {
			r, err := compileRule(raw)
			if err != nil {
				return domain.Item{}, fmt.Errorf("validator %q: %w", field, err)
			}
			it.Payload.Validators[field] = r
		}
	}

	if len(doc.Options)+len(doc.Extra) > 0 {
		it.Options = make(map[string]any, len(doc.Options)+len(doc.Extra))
		maps.Copy(it.Options, doc.Extra)
		maps.Copy(it.Options, doc.Options)
	}
	return it, nil
}

// compileRule accepts a bare pattern string or a {pattern, message} / {script} mapping.
func compileRule(raw any) (domain.Rule, error) {
	if s, ok := raw.(string); ok {
		return domain.Rule{Pattern: s}, nil
	}
	var r domain.Rule
	if err := decode(raw, &r); err != nil {
		return domain.Rule{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return r, nil
}

// NormalizeText returns s in Unicode normalization form C.
func NormalizeText(s string) string {
	if s == "" {
		return s
	}
	return norm.NFC.String(s)
}

func decode(input, output any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           output,
		WeaklyTypedInput: true,
		ErrorUnused:      false,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}
