package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"

	"github.com/aretw0/trialset/internal/compiler"
	"github.com/aretw0/trialset/pkg/domain"
)

// ExperimentDocument is the ID (without extension) of the experiment-level document.
const ExperimentDocument = "experiment"

// Loader adapts a Loam repository to the ExperimentLoader interface.
type Loader struct {
	Repo *loam.TypedRepository[DocumentMetadata]
	// Name is used when the experiment document does not set one.
	Name string
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[DocumentMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

type itemDoc struct {
	id   string
	meta DocumentMetadata
	body string
}

// Load reads every document of the repository and compiles them into an experiment.
// Item bodies hold the sentence of judgment items and the inline HTML of other types.
func (l *Loader) Load(ctx context.Context) (*domain.Experiment, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	doc := &compiler.ExperimentDocument{Name: l.Name}
	var items []itemDoc
	seen := make(map[string]string)

	for _, listed := range docs {
		id := trimExtension(listed.ID)
		if prev, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: ID '%s' is defined in both '%s' and '%s'", id, prev, listed.ID)
		}
		seen[id] = listed.ID

		// List may omit bodies; Get returns the full document.
		full, err := l.Repo.Get(ctx, listed.ID)
		if err != nil {
			return nil, fmt.Errorf("loam get failed for %s: %w", listed.ID, err)
		}

		if id == ExperimentDocument {
			applyExperiment(doc, full.Data)
			continue
		}
		items = append(items, itemDoc{id: id, meta: full.Data, body: strings.TrimSpace(full.Content)})
	}

	sort.SliceStable(items, func(i, j int) bool {
		oi, oj := items[i].meta.Order, items[j].meta.Order
		if oi != oj {
			// Zero means unordered and sorts last.
			if oi == 0 || oj == 0 {
				return oj == 0
			}
			return oi < oj
		}
		return items[i].id < items[j].id
	})

	for _, it := range items {
		doc.Items = append(doc.Items, itemMap(it))
	}
	return compiler.CompileDocument(doc)
}

func applyExperiment(doc *compiler.ExperimentDocument, meta DocumentMetadata) {
	if meta.Name != "" {
		doc.Name = meta.Name
	}
	doc.Locale = meta.Locale
	doc.Groups = meta.Groups
	doc.Defaults = meta.Defaults
	doc.Messages = meta.Messages
	doc.Sequence = meta.Sequence
}

func itemMap(it itemDoc) map[string]any {
	m := it.meta
	group := m.Group
	if group == "" {
		// A document without a group names its group by its directory.
		group = filepath.ToSlash(filepath.Dir(it.id))
		if group == "." {
			group = it.id
		}
	}
	raw := map[string]any{
		"group":   group,
		"ordinal": m.Ordinal,
		"type":    m.Type,
		"s":       m.Sentence,
		"include": m.Include,
	}
	if it.body != "" {
		switch m.Type {
		case domain.TypeForm, domain.TypeMessage:
			raw["html"] = it.body
		default:
			if m.Sentence == "" {
				raw["s"] = it.body
			}
		}
	}
	if len(m.Options) > 0 {
		raw["options"] = m.Options
	}
	if len(m.Validators) > 0 {
		raw["validators"] = m.Validators
	}
	return raw
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

// Watch implements ports.Watchable.
func (l *Loader) Watch(ctx context.Context) (<-chan struct{}, error) {
	events, err := l.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan struct{}, 1)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				// Coalesce bursts: one pending signal is enough to trigger a reload.
				select {
				case ch <- struct{}{}:
				default:
				}
			}
		}
	}()

	return ch, nil
}
