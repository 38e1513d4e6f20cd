package domain

import (
	"maps"
	"slices"
	"sort"

	"github.com/aretw0/trialset/pkg/sequence"
)

// Messages holds UI strings handed verbatim to the host's rendering layer.
type Messages struct {
	SendingResults string `json:"sending_results,omitempty" yaml:"sending_results,omitempty" mapstructure:"sending_results"`
	Completion     string `json:"completion,omitempty" yaml:"completion,omitempty" mapstructure:"completion"`
	ProgressBar    string `json:"progress_bar,omitempty" yaml:"progress_bar,omitempty" mapstructure:"progress_bar"`
	PageTitle      string `json:"page_title,omitempty" yaml:"page_title,omitempty" mapstructure:"page_title"`
}

// Experiment is a complete stimulus-set definition.
type Experiment struct {
	Name   string `json:"name" yaml:"name"`
	Locale string `json:"locale,omitempty" yaml:"locale,omitempty"`

	Items []Item `json:"items" yaml:"items"`

	// Groups declares labels that may legitimately have no items.
	Groups []string `json:"groups,omitempty" yaml:"groups,omitempty"`

	Defaults Defaults `json:"defaults,omitempty" yaml:"defaults,omitempty"`
	Messages Messages `json:"messages" yaml:"messages"`

	Sequence sequence.Expr `json:"sequence" yaml:"sequence"`
}

// GroupItems returns the items of every group, each slice in table order.
func (e *Experiment) GroupItems() map[string][]Item {
	out := make(map[string][]Item)
	for _, g := range e.Groups {
		if _, ok := out[g]; !ok {
			out[g] = nil
		}
	}
	for _, it := range e.Items {
		out[it.Group] = append(out[it.Group], it)
	}
	return out
}

// Labels returns every known group label (with items or declared), sorted.
func (e *Experiment) Labels() []string {
	groups := e.GroupItems()
	labels := make([]string, 0, len(groups))
	for l := range groups {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// HasGroup reports whether label has items or was declared.
func (e *Experiment) HasGroup(label string) bool {
	if slices.Contains(e.Groups, label) {
		return true
	}
	for _, it := range e.Items {
		if it.Group == label {
			return true
		}
	}
	return false
}

// Resolve returns a copy of it with its options merged over the type's defaults.
func (e *Experiment) Resolve(it Item) Item {
	out := it.Clone()
	out.Options = e.Defaults.Resolve(it.Type, it.Options)
	return out
}

// Validators returns the merged field rules of every item in group.
func (e *Experiment) Validators(group string) map[string]Rule {
	var out map[string]Rule
	for _, it := range e.Items {
		if it.Group != group || len(it.Payload.Validators) == 0 {
			continue
		}
		if out == nil {
			out = make(map[string]Rule)
		}
		for field, r := range it.Payload.Validators {
			out[field] = r
		}
	}
	return out
}

// Clone returns a deep copy of the experiment's tables and bundles.
// Option values themselves are shared.
func (e *Experiment) Clone() *Experiment {
	out := *e
	out.Items = make([]Item, len(e.Items))
	for i, it := range e.Items {
		out.Items[i] = it.Clone()
	}
	out.Groups = slices.Clone(e.Groups)
	if e.Defaults != nil {
		out.Defaults = make(Defaults, len(e.Defaults))
		for typ, bundle := range e.Defaults {
			out.Defaults[typ] = maps.Clone(bundle)
		}
	}
	return &out
}
