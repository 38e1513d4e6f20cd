package loam

// DocumentMetadata is the front matter of a document in an experiment directory.
// The document named "experiment" carries the experiment-level keys; every
// other document is one item. It uses "mapstructure" tags to match the
// YAML keys written by authors.
type DocumentMetadata struct {
	// Experiment keys.
	Name     string                    `json:"name" mapstructure:"name"`
	Locale   string                    `json:"locale" mapstructure:"locale"`
	Groups   []string                  `json:"groups" mapstructure:"groups"`
	Defaults map[string]map[string]any `json:"defaults" mapstructure:"defaults"`
	Messages map[string]string         `json:"messages" mapstructure:"messages"`
	Sequence any                       `json:"sequence" mapstructure:"sequence"`

	// Item keys.
	Group      string         `json:"group" mapstructure:"group"`
	Ordinal    int            `json:"ordinal" mapstructure:"ordinal"`
	Type       string         `json:"type" mapstructure:"type"`
	Sentence   string         `json:"s" mapstructure:"s"`
	Include    string         `json:"include" mapstructure:"include"`
	Options    map[string]any `json:"options" mapstructure:"options"`
	Validators map[string]any `json:"validators" mapstructure:"validators"`

	// Order positions the item in the table. Items without one follow, by document ID.
	Order int `json:"order" mapstructure:"order"`
}
