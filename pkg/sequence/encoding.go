package sequence

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// FromValue decodes an expression from generic data as produced by YAML, JSON
// or front matter decoders. Accepted shapes:
//
//	"seq(a, randomize(b))"          textual form
//	["intro", {randomize: "b"}]     a list is an implicit seq
//	{shuffle: [x, y]}               single-key mapping naming the operator
func FromValue(v any) (Expr, error) {
	switch val := v.(type) {
	case nil:
		return Expr{}, nil
	case Expr:
		return val, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return Expr{}, nil
		}
		return Parse(val)
	case []any:
		children, err := fromList(val)
		if err != nil {
			return Expr{}, err
		}
		return Seq(children...), nil
	case []string:
		return Seq(Groups(val...)...), nil
	case map[string]any:
		if len(val) != 1 {
			return Expr{}, fmt.Errorf("%w: operator mapping must have exactly one key, got %d", ErrInvalidExpression, len(val))
		}
		for name, arg := range val {
			return fromOperator(name, arg)
		}
	case map[any]any:
		converted := make(map[string]any, len(val))
		for k, sub := range val {
			converted[fmt.Sprint(k)] = sub
		}
		return FromValue(converted)
	}
	return Expr{}, fmt.Errorf("%w: unsupported value of type %T", ErrInvalidExpression, v)
}

func fromOperator(name string, arg any) (Expr, error) {
	kind, ok := operators[strings.ToLower(name)]
	if !ok {
		// A mapping may also be {group: label}.
		if strings.EqualFold(name, string(KindGroup)) {
			label, isString := arg.(string)
			if !isString {
				return Expr{}, fmt.Errorf("%w: group label must be a string, got %T", ErrInvalidExpression, arg)
			}
			return Group(label), nil
		}
		return Expr{}, fmt.Errorf("%w: unknown operator %q", ErrInvalidExpression, name)
	}

	var children []Expr
	switch a := arg.(type) {
	case []any:
		var err error
		if children, err = fromList(a); err != nil {
			return Expr{}, err
		}
	case []string:
		children = Groups(a...)
	case string:
		// A bare string argument is a label, not a nested textual expression,
		// unless it carries a call.
		if strings.Contains(a, "(") {
			child, err := Parse(a)
			if err != nil {
				return Expr{}, err
			}
			children = []Expr{child}
		} else {
			children = []Expr{Group(strings.TrimSpace(a))}
		}
	default:
		child, err := FromValue(arg)
		if err != nil {
			return Expr{}, err
		}
		children = []Expr{child}
	}

	e := Expr{Kind: kind, Children: children}
	if err := Check(e); err != nil {
		return Expr{}, err
	}
	return e, nil
}

func fromList(items []any) ([]Expr, error) {
	var out []Expr
	for i, item := range items {
		if s, ok := item.(string); ok && !strings.Contains(s, "(") {
			out = append(out, Group(strings.TrimSpace(s)))
			continue
		}
		child, err := FromValue(item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, child)
	}
	return out, nil
}

// MarshalText renders the canonical textual form. The zero expression renders empty.
func (e Expr) MarshalText() ([]byte, error) {
	if e.IsZero() {
		return []byte{}, nil
	}
	return []byte(e.String()), nil
}

// UnmarshalText parses the textual form.
func (e *Expr) UnmarshalText(text []byte) error {
	parsed, err := FromValue(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// MarshalJSON encodes the expression as a JSON string in textual form.
func (e Expr) MarshalJSON() ([]byte, error) {
	text, _ := e.MarshalText()
	return json.Marshal(string(text))
}

// UnmarshalJSON accepts the textual form or the structured form.
func (e *Expr) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidExpression, err)
	}
	parsed, err := FromValue(raw)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// MarshalYAML encodes the expression as a YAML scalar in textual form.
func (e Expr) MarshalYAML() (any, error) {
	if e.IsZero() {
		return "", nil
	}
	return e.String(), nil
}

// UnmarshalYAML accepts the textual form or the structured form.
func (e *Expr) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("%w: line %d: %v", ErrInvalidExpression, node.Line, err)
	}
	parsed, err := FromValue(raw)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*e = parsed
	return nil
}
