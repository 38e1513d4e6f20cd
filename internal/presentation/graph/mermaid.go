package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/trialset/pkg/sequence"
)

// PlanOverlay marks the groups a concrete plan drew items from.
type PlanOverlay struct {
	// Counts maps each presented group to the number of its items in the plan.
	Counts map[string]int
}

// GenerateMermaid produces a Mermaid flowchart of a sequencing expression.
// sizes gives the number of items of each group and may be nil.
// Shapes follow the operator:
// - seq: [Rectangle] with numbered edges
// - randomize: {{Hexagon}}
// - shuffle: [/Parallelogram/]
// - anyOf: {Rhombus} with dotted edges
// - group: ([Stadium])
// With an overlay, groups the plan used are highlighted and the others dimmed.
func GenerateMermaid(expr sequence.Expr, sizes map[string]int, overlay *PlanOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	w := &writer{sb: &sb, sizes: sizes}
	if !expr.IsZero() {
		w.node(expr)
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef presented fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef skipped fill:#eeeeee,stroke:#9e9e9e,stroke-dasharray:4,color:#757575;\n")
		for _, g := range w.groups {
			class := "skipped"
			if overlay.Counts[g.label] > 0 {
				class = "presented"
			}
			sb.WriteString(fmt.Sprintf("    class %s %s;\n", g.id, class))
		}
	}

	return sb.String()
}

type groupNode struct {
	id    string
	label string
}

type writer struct {
	sb     *strings.Builder
	sizes  map[string]int
	next   int
	groups []groupNode
}

func (w *writer) node(e sequence.Expr) string {
	id := fmt.Sprintf("n%d", w.next)
	w.next++

	switch e.Kind {
	case sequence.KindGroup:
		label := escape(e.Label)
		if n, ok := w.sizes[e.Label]; ok {
			label = fmt.Sprintf("%s <br/> %d items", label, n)
		}
		w.sb.WriteString(fmt.Sprintf("    %s([\"%s\"])\n", id, label))
		w.groups = append(w.groups, groupNode{id: id, label: e.Label})
		return id
	case sequence.KindRandomize:
		w.sb.WriteString(fmt.Sprintf("    %s{{\"randomize\"}}\n", id))
	case sequence.KindShuffle:
		w.sb.WriteString(fmt.Sprintf("    %s[/\"shuffle\"/]\n", id))
	case sequence.KindAnyOf:
		w.sb.WriteString(fmt.Sprintf("    %s{\"anyOf\"}\n", id))
	default:
		w.sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", id, e.Kind))
	}

	for i, c := range e.Children {
		child := w.node(c)
		switch e.Kind {
		case sequence.KindSeq:
			w.sb.WriteString(fmt.Sprintf("    %s -- \"%d\" --> %s\n", id, i+1, child))
		case sequence.KindAnyOf:
			w.sb.WriteString(fmt.Sprintf("    %s -.-> %s\n", id, child))
		default:
			w.sb.WriteString(fmt.Sprintf("    %s --> %s\n", id, child))
		}
	}
	return id
}

// escape replaces double quotes, which would end a Mermaid label.
func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
