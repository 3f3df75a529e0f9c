package dsl

import (
	"fmt"

	"github.com/aretw0/lattice/internal/validator"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/graph"
)

// Layout of nodes without an explicit position: one column, top to bottom.
var (
	origin = domain.Position{X: 100, Y: 100}
	step   = 200.0
)

// Builder manages the questionnaire construction.
type Builder struct {
	nodes map[string]*NodeBuilder
	order []string
}

// New creates a new questionnaire builder.
func New() *Builder {
	return &Builder{
		nodes: make(map[string]*NodeBuilder),
	}
}

// Add creates a new node in the questionnaire. Nodes keep the order they are
// added in, which is the order questions are numbered.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(id string) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node: domain.Node{
			ID:   id,
			Type: domain.KindQuestion,
		},
	}
	b.nodes[id] = nb
	b.order = append(b.order, id)
	return nb
}

// Build compiles the questionnaire into a document. Routes get their ids and
// labels the way the editor assigns them, and the result must pass validation.
func (b *Builder) Build() (domain.Document, error) {
	nodes := make([]domain.Node, 0, len(b.order))
	for i, id := range b.order {
		nb := b.nodes[id]
		n := nb.Build()
		if !nb.placed {
			n.Position = domain.Position{X: origin.X, Y: origin.Y + step*float64(i)}
		}
		nodes = append(nodes, n)
	}

	store := graph.NewStore()
	if err := store.ReplaceAll(nodes, nil); err != nil {
		return domain.Document{}, err
	}
	for _, id := range b.order {
		for _, link := range b.nodes[id].routes {
			if _, err := store.AddEdge(link); err != nil {
				return domain.Document{}, fmt.Errorf("failed to route %s: %w", id, err)
			}
		}
	}

	doc := store.Snapshot().Document()
	if err := validator.ValidateQuestionnaire(doc).Err(); err != nil {
		return domain.Document{}, fmt.Errorf("invalid questionnaire: %w", err)
	}
	return doc, nil
}
