package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/aretw0/lattice/pkg/domain"
)

// Templates implements ports.TemplateSource using an in-memory map.
type Templates struct {
	templates map[string]domain.Draft
}

// NewTemplates creates a template source from domain objects.
func NewTemplates(templates ...domain.Draft) (*Templates, error) {
	data := make(map[string]domain.Draft, len(templates))
	for _, t := range templates {
		if t.ID == "" {
			return nil, fmt.Errorf("template missing ID")
		}
		data[t.ID] = t
	}
	return &Templates{templates: data}, nil
}

// GetTemplate retrieves a template by ID.
func (l *Templates) GetTemplate(ctx context.Context, id string) (domain.Draft, error) {
	t, ok := l.templates[id]
	if !ok {
		return domain.Draft{}, fmt.Errorf("%w: %s", domain.ErrTemplateNotFound, id)
	}
	doc := t.Document()
	t.Nodes, t.Edges = doc.Nodes, doc.Edges
	return t, nil
}

// ListTemplates returns all templates ordered by ID.
func (l *Templates) ListTemplates(ctx context.Context) ([]domain.Draft, error) {
	keys := make([]string, 0, len(l.templates))
	for k := range l.templates {
		keys = append(keys, k)
	}
	sort.Strings(keys) // Deterministic order

	out := make([]domain.Draft, 0, len(keys))
	for _, k := range keys {
		t, _ := l.GetTemplate(ctx, k)
		out = append(out, t)
	}
	return out, nil
}
