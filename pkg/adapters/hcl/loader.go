// Package hcl loads experiments written in HashiCorp Configuration Language.
//
//	experiment "relative-clauses" {
//	  locale   = "es"
//	  sequence = "seq(\"intro\", randomize(\"practice\"))"
//	}
//
//	defaults "AcceptabilityJudgment" {
//	  options = { as = ["1", "2", "3"], presentAsScale = true }
//	}
//
//	item "practice" {
//	  type = "AcceptabilityJudgment"
//	  s    = "El niño que la niña vio corrió."
//	}
//
//	item "intro" {
//	  type    = "Form"
//	  include = "intro.html"
//	  validator "edad" {
//	    pattern = "^\\d+$"
//	    message = "Valor erróneo para ‘edad’"
//	  }
//	}
package hcl

import (
	"context"
	"fmt"
	"math/big"
	"path/filepath"
	"strings"

	hclv2 "github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/aretw0/trialset/internal/compiler"
	"github.com/aretw0/trialset/pkg/domain"
)

type hclFile struct {
	Experiment *hclExperiment `hcl:"experiment,block"`
	Defaults   []*hclDefaults `hcl:"defaults,block"`
	Messages   *hclMessages   `hcl:"messages,block"`
	Items      []*hclItem     `hcl:"item,block"`
}

type hclExperiment struct {
	Name     string   `hcl:"name,label"`
	Locale   string   `hcl:"locale,optional"`
	Sequence string   `hcl:"sequence,optional"`
	Groups   []string `hcl:"groups,optional"`
}

type hclDefaults struct {
	Type    string    `hcl:"type,label"`
	Options cty.Value `hcl:"options"`
}

type hclMessages struct {
	SendingResults string `hcl:"sending_results,optional"`
	Completion     string `hcl:"completion,optional"`
	ProgressBar    string `hcl:"progress_bar,optional"`
	PageTitle      string `hcl:"page_title,optional"`
}

type hclItem struct {
	Group      string          `hcl:"group,label"`
	Type       string          `hcl:"type"`
	Ordinal    int             `hcl:"ordinal,optional"`
	Sentence   string          `hcl:"s,optional"`
	Include    string          `hcl:"include,optional"`
	HTML       string          `hcl:"html,optional"`
	Options    cty.Value       `hcl:"options,optional"`
	Validators []*hclValidator `hcl:"validator,block"`
}

type hclValidator struct {
	Field   string `hcl:"field,label"`
	Pattern string `hcl:"pattern,optional"`
	Message string `hcl:"message,optional"`
	Script  string `hcl:"script,optional"`
}

// Loader implements ports.ExperimentLoader for a single .hcl file.
type Loader struct {
	Path string
}

// NewLoader creates a loader for the file at path.
func NewLoader(path string) *Loader {
	return &Loader{Path: path}
}

// Load parses and compiles the file. Without an experiment block the name
// defaults to the file name without extension.
func (l *Loader) Load(ctx context.Context) (*domain.Experiment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(l.Path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", l.Path, diags)
	}
	return decode(file.Body, strings.TrimSuffix(filepath.Base(l.Path), filepath.Ext(l.Path)))
}

// Parse compiles HCL source held in memory. filename is used in diagnostics.
func Parse(src []byte, filename string) (*domain.Experiment, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL %s: %w", filename, diags)
	}
	return decode(file.Body, strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)))
}

func decode(body hclv2.Body, defaultName string) (*domain.Experiment, error) {
	var parsed hclFile
	if diags := gohcl.DecodeBody(body, nil, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %w", diags)
	}

	doc := &compiler.ExperimentDocument{Name: defaultName}
	if e := parsed.Experiment; e != nil {
		doc.Name = e.Name
		doc.Locale = e.Locale
		doc.Groups = e.Groups
		if e.Sequence != "" {
			doc.Sequence = e.Sequence
		}
	}

	if len(parsed.Defaults) > 0 {
		doc.Defaults = make(map[string]map[string]any, len(parsed.Defaults))
		for _, d := range parsed.Defaults {
			bundle, err := toMap(d.Options)
			if err != nil {
				return nil, fmt.Errorf("defaults %q: %w", d.Type, err)
			}
			doc.Defaults[d.Type] = bundle
		}
	}

	if m := parsed.Messages; m != nil {
		doc.Messages = map[string]string{
			"sending_results": m.SendingResults,
			"completion":      m.Completion,
			"progress_bar":    m.ProgressBar,
			"page_title":      m.PageTitle,
		}
	}

	for _, it := range parsed.Items {
		raw := map[string]any{
			"group":   it.Group,
			"type":    it.Type,
			"ordinal": it.Ordinal,
			"s":       it.Sentence,
			"include": it.Include,
		}
		if it.HTML != "" {
			raw["html"] = it.HTML
		}
		opts, err := toMap(it.Options)
		if err != nil {
			return nil, fmt.Errorf("item %q options: %w", it.Group, err)
		}
		if opts != nil {
			raw["options"] = opts
		}
		if len(it.Validators) > 0 {
			validators := make(map[string]any, len(it.Validators))
			for _, v := range it.Validators {
				validators[v.Field] = map[string]any{
					"pattern": v.Pattern,
					"message": v.Message,
					"script":  v.Script,
				}
			}
			raw["validators"] = validators
		}
		doc.Items = append(doc.Items, raw)
	}

	return compiler.CompileDocument(doc)
}

func toMap(val cty.Value) (map[string]any, error) {
	v, err := toGo(val)
	if err != nil || v == nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected an object, got %s", val.Type().FriendlyName())
	}
	return m, nil
}

// toGo converts a cty value to plain Go values. Whole numbers become int.
func toGo(val cty.Value) (any, error) {
	if val.IsNull() || !val.IsKnown() {
		return nil, nil
	}
	ty := val.Type()
	switch {
	case ty == cty.String:
		return val.AsString(), nil
	case ty == cty.Bool:
		return val.True(), nil
	case ty == cty.Number:
		bf := val.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return int(i), nil
			}
		}
		f, _ := bf.Float64()
		return f, nil
	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any)
		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()
			gv, err := toGo(v)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = gv
		}
		return out, nil
	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
		out := []any{}
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			gv, err := toGo(v)
			if err != nil {
				return nil, err
			}
			out = append(out, gv)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value type %s", ty.FriendlyName())
	}
}
