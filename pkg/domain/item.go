package domain

import (
	"fmt"
	"maps"
)

// Rule is the declarative form of a form field validator.
// Exactly one of Pattern or Script is expected to be set.
type Rule struct {
	// Pattern is a regular expression the input must match somewhere.
	Pattern string `json:"pattern,omitempty" yaml:"pattern,omitempty" mapstructure:"pattern"`
	// Message is returned to the participant when Pattern does not match.
	Message string `json:"message,omitempty" yaml:"message,omitempty" mapstructure:"message"`
	// Script is a Lua chunk returning function(s) -> true | "error message".
	Script string `json:"script,omitempty" yaml:"script,omitempty" mapstructure:"script"`
}

// Payload is the presentation content of an item.
type Payload struct {
	// Sentence is the stimulus text of a judgment item.
	Sentence string `json:"s,omitempty" yaml:"s,omitempty" mapstructure:"s"`
	// Include references an HTML file rendered by the host.
	Include string `json:"include,omitempty" yaml:"include,omitempty" mapstructure:"include"`
	// HTML is inline markup rendered by the host.
	HTML string `json:"html,omitempty" yaml:"html,omitempty" mapstructure:"html"`
	// Validators maps form field names to their rules.
	Validators map[string]Rule `json:"validators,omitempty" yaml:"validators,omitempty" mapstructure:"validators"`
}

// Item is one labeled trial of the stimulus table.
type Item struct {
	// Index is the item's position in the input table. It identifies the item within an experiment.
	Index   int    `json:"index" yaml:"index"`
	Group   string `json:"group" yaml:"group"`
	Ordinal int    `json:"ordinal,omitempty" yaml:"ordinal,omitempty"`
	Type    string `json:"type" yaml:"type"`

	Payload Payload `json:"payload" yaml:"payload"`

	// Options overrides the defaults bundle of Type, key by key.
	Options map[string]any `json:"options,omitempty" yaml:"options,omitempty"`
}

// Label returns the group label, suffixed with the ordinal when there is one.
func (i Item) Label() string {
	if i.Ordinal == 0 {
		return i.Group
	}
	return fmt.Sprintf("%s#%d", i.Group, i.Ordinal)
}

// Clone returns a copy that shares no maps with the receiver.
func (i Item) Clone() Item {
	out := i
	out.Options = maps.Clone(i.Options)
	if i.Payload.Validators != nil {
		out.Payload.Validators = maps.Clone(i.Payload.Validators)
	}
	return out
}

// Defaults maps a presentation type to its option bundle.
type Defaults map[string]map[string]any

// Resolve merges the bundle for itemType with overrides. Overrides win.
// The result is always a fresh map.
func (d Defaults) Resolve(itemType string, overrides map[string]any) map[string]any {
	out := make(map[string]any, len(d[itemType])+len(overrides))
	maps.Copy(out, d[itemType])
	maps.Copy(out, overrides)
	return out
}
