package compiler

// ExperimentDocument is the raw shape of an experiment file.
// It uses "mapstructure" tags so YAML, JSON, HCL and front matter share one decoder.
type ExperimentDocument struct {
	Name     string                    `json:"name" mapstructure:"name"`
	Locale   string                    `json:"locale" mapstructure:"locale"`
	Groups   []string                  `json:"groups" mapstructure:"groups"`
	Defaults map[string]map[string]any `json:"defaults" mapstructure:"defaults"`
	Messages map[string]string         `json:"messages" mapstructure:"messages"`

	// Sequence is either the textual expression or its structured form.
	Sequence any `json:"sequence" mapstructure:"sequence"`

	// Items holds compact triples or ItemDocument mappings.
	Items []any `json:"items" mapstructure:"items"`
}

// ItemDocument is the mapping form of an item.
type ItemDocument struct {
	Group      string         `json:"group" mapstructure:"group"`
	Ordinal    int            `json:"ordinal" mapstructure:"ordinal"`
	Type       string         `json:"type" mapstructure:"type"`
	Sentence   string         `json:"s" mapstructure:"s"`
	Include    string         `json:"include" mapstructure:"include"`
	HTML       any            `json:"html" mapstructure:"html"`
	Validators map[string]any `json:"validators" mapstructure:"validators"`
	Options    map[string]any `json:"options" mapstructure:"options"`

	// Extra collects every other key. They are treated as options.
	Extra map[string]any `json:"-" mapstructure:",remain"`
}
