package graph

import (
	"github.com/aretw0/lattice/pkg/domain"
)

// Snapshot is an immutable view of a questionnaire graph.
// Callers must not modify its slices; use Document for a mutable copy.
type Snapshot struct {
	Nodes   []domain.Node
	Edges   []domain.Edge
	NextID  int
	EdgeSeq uint64
	Version uint64
}

// Node returns the node with the given id.
func (s Snapshot) Node(id string) (domain.Node, bool) {
	if i := s.IndexOf(id); i >= 0 {
		return s.Nodes[i], true
	}
	return domain.Node{}, false
}

// IndexOf returns the position of the node in insertion order, or -1.
func (s Snapshot) IndexOf(id string) int {
	for i, n := range s.Nodes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// EdgesFrom returns the edges leaving the node, in insertion order.
func (s Snapshot) EdgesFrom(id string) []domain.Edge {
	var out []domain.Edge
	for _, e := range s.Edges {
		if e.Source == id {
			out = append(out, e)
		}
	}
	return out
}

// Questions returns the committed question nodes in insertion order.
func (s Snapshot) Questions() []domain.Node {
	var out []domain.Node
	for _, n := range s.Nodes {
		if n.Type == domain.KindQuestion {
			out = append(out, n)
		}
	}
	return out
}

// Document returns a deep copy of the graph.
func (s Snapshot) Document() domain.Document {
	return domain.Document{Nodes: s.Nodes, Edges: s.Edges}.Clone()
}
