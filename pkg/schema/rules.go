package schema

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/aretw0/trialset/pkg/domain"
)

// ErrInvalidRule is returned when a declarative rule cannot be compiled.
var ErrInvalidRule = errors.New("invalid field rule")

// FieldRule checks one raw form input.
type FieldRule interface {
	Validate(input string) error
}

// DefaultMessage is the rejection message used when a rule does not provide one.
func DefaultMessage(field string) string {
	return fmt.Sprintf("invalid value for %q", field)
}

type patternRule struct {
	field   string
	re      *regexp.Regexp
	message string
}

// Pattern returns a rule accepting inputs that contain a match for expr.
// Anchor the expression to constrain the whole input.
func Pattern(field, expr, message string) (FieldRule, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: field %q: %v", ErrInvalidRule, field, err)
	}
	if message == "" {
		message = DefaultMessage(field)
	}
	return &patternRule{field: field, re: re, message: message}, nil
}

// MustPattern is like Pattern but panics on an invalid expression.
func MustPattern(field, expr, message string) FieldRule {
	r, err := Pattern(field, expr, message)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *patternRule) Validate(input string) error {
	if r.re.MatchString(input) {
		return nil
	}
	return &FieldError{Field: r.field, Message: r.message}
}

// scriptTimeout bounds the run of one validator, loading included.
var scriptTimeout = time.Second

type scriptRule struct {
	field  string
	source string
}

// Script returns a rule backed by a Lua chunk. The chunk must evaluate to a
// function taking the input string and returning true to accept it, or a
// string holding the rejection message. Returning false or nil rejects with
// DefaultMessage.
//
// Every call runs in a fresh interpreter, so rules are safe for concurrent use.
func Script(field, source string) (FieldRule, error) {
	r := &scriptRule{field: field, source: source}
	ctx, cancel := context.WithTimeout(context.Background(), scriptTimeout)
	defer cancel()
	l, _, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	l.Close()
	return r, nil
}

// load runs the chunk and returns the validator function it evaluates to.
// The caller closes the state.
func (r *scriptRule) load(ctx context.Context) (*lua.LState, *lua.LFunction, error) {
	l := sandbox()
	l.SetContext(ctx)
	if err := l.DoString(r.source); err != nil {
		l.Close()
		return nil, nil, fmt.Errorf("%w: field %q: %v", ErrInvalidRule, r.field, err)
	}
	ret := l.Get(-1)
	fn, ok := ret.(*lua.LFunction)
	if !ok {
		l.Close()
		return nil, nil, fmt.Errorf("%w: field %q: script must return a function, got %s",
			ErrInvalidRule, r.field, ret.Type())
	}
	l.Pop(l.GetTop())
	return l, fn, nil
}

func (r *scriptRule) Validate(input string) error {
	ctx, cancel := context.WithTimeout(context.Background(), scriptTimeout)
	defer cancel()
	l, fn, err := r.load(ctx)
	if err != nil {
		return err
	}
	defer l.Close()

	if err := l.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, lua.LString(input)); err != nil {
		return fmt.Errorf("field %q: script failed: %w", r.field, err)
	}

	switch v := l.Get(-1).(type) {
	case lua.LBool:
		if bool(v) {
			return nil
		}
	case lua.LString:
		return &FieldError{Field: r.field, Message: string(v)}
	}
	return &FieldError{Field: r.field, Message: DefaultMessage(r.field)}
}

// sandbox opens the libraries a validator may need and nothing that touches
// the filesystem.
func sandbox() *lua.LState {
	l := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.StringLibName, lua.OpenString},
		{lua.TabLibName, lua.OpenTable},
		{lua.MathLibName, lua.OpenMath},
	} {
		l.Push(l.NewFunction(lib.open))
		l.Push(lua.LString(lib.name))
		l.Call(1, 0)
	}
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		l.SetGlobal(name, lua.LNil)
	}
	return l
}

// ParseRule compiles the declarative form of a rule.
func ParseRule(field string, rule domain.Rule) (FieldRule, error) {
	switch {
	case rule.Pattern != "" && rule.Script != "":
		return nil, fmt.Errorf("%w: field %q: pattern and script are exclusive", ErrInvalidRule, field)
	case rule.Pattern != "":
		return Pattern(field, rule.Pattern, rule.Message)
	case rule.Script != "":
		return Script(field, rule.Script)
	default:
		return nil, fmt.Errorf("%w: field %q: neither pattern nor script given", ErrInvalidRule, field)
	}
}

// CompileRules compiles every rule of a form. All failures are reported.
func CompileRules(rules map[string]domain.Rule) (map[string]FieldRule, error) {
	out := make(map[string]FieldRule, len(rules))
	var errs []error
	for _, field := range sortedKeys(rules) {
		r, err := ParseRule(field, rules[field])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out[field] = r
	}
	if err := Join(errs...); err != nil {
		return nil, err
	}
	return out, nil
}

// ValidateForm checks values against rules in field order. A field with a
// rule but no value is checked as the empty string. The returned error is an
// *AggregateError whose entries are *FieldError values for rejected inputs.
func ValidateForm(rules map[string]FieldRule, values map[string]string) error {
	var errs []error
	for _, field := range sortedKeys(rules) {
		if err := rules[field].Validate(values[field]); err != nil {
			errs = append(errs, err)
		}
	}
	return Join(errs...)
}

// FieldErrors extracts the participant-facing rejections from err.
func FieldErrors(err error) []*FieldError {
	var out []*FieldError
	if fe, ok := err.(*FieldError); ok {
		return []*FieldError{fe}
	}
	for _, e := range ValidationErrors(err) {
		var fe *FieldError
		if errors.As(e, &fe) {
			out = append(out, fe)
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
