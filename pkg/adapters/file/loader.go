package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/trialset/internal/compiler"
	"github.com/aretw0/trialset/pkg/domain"
)

// Loader implements ports.ExperimentLoader for a single YAML or JSON document.
type Loader struct {
	Path string
}

// NewLoader creates a loader for the document at path.
func NewLoader(path string) *Loader {
	return &Loader{Path: path}
}

// Load reads and compiles the document. The experiment name defaults to the
// file name without its extension.
func (l *Loader) Load(ctx context.Context) (*domain.Experiment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read experiment: %w", err)
	}
	return Parse(data, strings.TrimSuffix(filepath.Base(l.Path), filepath.Ext(l.Path)))
}

// Parse compiles a YAML or JSON document. JSON is accepted as a subset of YAML.
func Parse(data []byte, defaultName string) (*domain.Experiment, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse experiment: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: empty document", compiler.ErrMalformed)
	}
	exp, err := compiler.Compile(raw)
	if err != nil {
		return nil, err
	}
	if exp.Name == "" {
		exp.Name = defaultName
	}
	return exp, nil
}
