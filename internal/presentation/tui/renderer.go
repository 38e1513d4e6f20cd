package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/aretw0/trialset/pkg/domain"
)

// NewRenderer returns a function that renders markdown using glamour.
// Without a terminal on stdout the markdown is returned unchanged.
func NewRenderer() func(string) (string, error) {
	if !IsTerminal(os.Stdout) {
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	)
	if err != nil {
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}
	return r.Render
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// PlanMarkdown formats a plan as a markdown table.
func PlanMarkdown(plan *domain.Plan) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Plan %s\n\n", plan.ID)
	fmt.Fprintf(&sb, "- **Experiment:** %s\n", plan.Experiment)
	fmt.Fprintf(&sb, "- **Seed:** `%d`\n", plan.Seed)
	fmt.Fprintf(&sb, "- **Items:** %d\n\n", len(plan.Entries))

	sb.WriteString("| # | Item | Type | Content |\n")
	sb.WriteString("|---|------|------|---------|\n")
	for _, e := range plan.Entries {
		fmt.Fprintf(&sb, "| %d | %s | %s | %s |\n",
			e.Position+1, e.Item.Label(), e.Item.Type, cell(content(e.Item)))
	}
	return sb.String()
}

func content(it domain.Item) string {
	switch {
	case it.Payload.Sentence != "":
		return it.Payload.Sentence
	case it.Payload.Include != "":
		return "include: " + it.Payload.Include
	default:
		return it.Payload.HTML
	}
}

// cell keeps table rows on one line.
func cell(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.ReplaceAll(s, "|", "\\|")
	if len([]rune(s)) > 60 {
		s = string([]rune(s)[:57]) + "..."
	}
	return s
}
