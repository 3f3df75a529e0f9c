package domain

import (
	"reflect"
)

// GraphDiff represents the changes between two versions of a questionnaire graph.
// It is designed to be serialized to JSON for partial updates on the client.
type GraphDiff struct {
	SessionID    string   `json:"session_id"`
	AddedNodes   []Node   `json:"added_nodes,omitempty"`
	UpdatedNodes []Node   `json:"updated_nodes,omitempty"`
	RemovedNodes []string `json:"removed_nodes,omitempty"`
	AddedEdges   []Edge   `json:"added_edges,omitempty"`
	UpdatedEdges []Edge   `json:"updated_edges,omitempty"`
	RemovedEdges []string `json:"removed_edges,omitempty"`
}

// Diff calculates the difference between two documents.
// If old is nil, every node and edge of new is reported as added (initial load).
// It returns nil when nothing changed.
func Diff(sessionID string, old, new *Document) *GraphDiff {
	if new == nil {
		return nil
	}
	if old == nil {
		old = &Document{}
	}

	diff := &GraphDiff{SessionID: sessionID}

	oldNodes := make(map[string]Node, len(old.Nodes))
	for _, n := range old.Nodes {
		oldNodes[n.ID] = n
	}
	newNodes := make(map[string]struct{}, len(new.Nodes))
	for _, n := range new.Nodes {
		newNodes[n.ID] = struct{}{}
		prev, exists := oldNodes[n.ID]
		switch {
		case !exists:
			diff.AddedNodes = append(diff.AddedNodes, n)
		case !reflect.DeepEqual(prev, n):
			diff.UpdatedNodes = append(diff.UpdatedNodes, n)
		}
	}
	for _, n := range old.Nodes {
		if _, ok := newNodes[n.ID]; !ok {
			diff.RemovedNodes = append(diff.RemovedNodes, n.ID)
		}
	}

	oldEdges := make(map[string]Edge, len(old.Edges))
	for _, e := range old.Edges {
		oldEdges[e.ID] = e
	}
	newEdges := make(map[string]struct{}, len(new.Edges))
	for _, e := range new.Edges {
		newEdges[e.ID] = struct{}{}
		prev, exists := oldEdges[e.ID]
		switch {
		case !exists:
			diff.AddedEdges = append(diff.AddedEdges, e)
		case !reflect.DeepEqual(prev, e):
			diff.UpdatedEdges = append(diff.UpdatedEdges, e)
		}
	}
	for _, e := range old.Edges {
		if _, ok := newEdges[e.ID]; !ok {
			diff.RemovedEdges = append(diff.RemovedEdges, e.ID)
		}
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *GraphDiff) IsEmpty() bool {
	return len(d.AddedNodes) == 0 &&
		len(d.UpdatedNodes) == 0 &&
		len(d.RemovedNodes) == 0 &&
		len(d.AddedEdges) == 0 &&
		len(d.UpdatedEdges) == 0 &&
		len(d.RemovedEdges) == 0
}
