package sequence

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidExpression is returned when an expression cannot be parsed or decoded.
var ErrInvalidExpression = errors.New("invalid sequence expression")

// Kind identifies the variant of an expression node.
type Kind string

const (
	KindGroup     Kind = "group"
	KindSeq       Kind = "seq"
	KindRandomize Kind = "randomize"
	KindShuffle   Kind = "shuffle"
	KindAnyOf     Kind = "anyOf"
)

// Expr is one node of a sequencing expression.
// Label is only set for KindGroup; Children only for the other kinds.
type Expr struct {
	Kind     Kind
	Label    string
	Children []Expr
}

// Group references every item carrying label.
func Group(label string) Expr {
	return Expr{Kind: KindGroup, Label: label}
}

// Groups is a shorthand for one Group reference per label.
func Groups(labels ...string) []Expr {
	out := make([]Expr, len(labels))
	for i, l := range labels {
		out[i] = Group(l)
	}
	return out
}

// Seq concatenates children in order.
func Seq(children ...Expr) Expr {
	return Expr{Kind: KindSeq, Children: children}
}

// Randomize permutes every item produced by x.
func Randomize(x Expr) Expr {
	return Expr{Kind: KindRandomize, Children: []Expr{x}}
}

// Shuffle interleaves children at random while keeping each child's own order.
func Shuffle(children ...Expr) Expr {
	return Expr{Kind: KindShuffle, Children: children}
}

// AnyOf selects exactly one of the alternatives per run.
func AnyOf(alternatives ...Expr) Expr {
	return Expr{Kind: KindAnyOf, Children: alternatives}
}

// IsZero reports whether e is the zero expression (no sequence defined).
func (e Expr) IsZero() bool {
	return e.Kind == "" && e.Label == "" && len(e.Children) == 0
}

// String renders e in its canonical textual form.
func (e Expr) String() string {
	var sb strings.Builder
	e.write(&sb)
	return sb.String()
}

func (e Expr) write(sb *strings.Builder) {
	if e.Kind == KindGroup {
		sb.WriteString(strconv.Quote(e.Label))
		return
	}
	sb.WriteString(string(e.Kind))
	sb.WriteByte('(')
	for i, c := range e.Children {
		if i > 0 {
			sb.WriteString(", ")
		}
		c.write(sb)
	}
	sb.WriteByte(')')
}

// Walk visits e and its descendants depth-first, in document order.
// Returning false from fn skips the children of the visited node.
func Walk(e Expr, fn func(Expr) bool) {
	if !fn(e) {
		return
	}
	for _, c := range e.Children {
		Walk(c, fn)
	}
}

// Labels returns every group label referenced by e in document order.
// A label referenced twice appears twice.
func Labels(e Expr) []string {
	var out []string
	Walk(e, func(n Expr) bool {
		if n.Kind == KindGroup {
			out = append(out, n.Label)
		}
		return true
	})
	return out
}

// Check verifies the arity of every node.
func Check(e Expr) error {
	var err error
	Walk(e, func(n Expr) bool {
		if err != nil {
			return false
		}
		switch n.Kind {
		case KindGroup:
			if n.Label == "" {
				err = fmt.Errorf("%w: group reference without label", ErrInvalidExpression)
			}
		case KindRandomize:
			if len(n.Children) != 1 {
				err = fmt.Errorf("%w: randomize takes exactly one argument, got %d", ErrInvalidExpression, len(n.Children))
			}
		case KindSeq, KindShuffle, KindAnyOf:
		default:
			err = fmt.Errorf("%w: unknown operator %q", ErrInvalidExpression, n.Kind)
		}
		return true
	})
	return err
}
