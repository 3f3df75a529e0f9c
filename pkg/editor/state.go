package editor

import (
	"context"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/graph"
)

// State is the persistable form of an editor.
type State struct {
	Nodes          []domain.Node           `json:"nodes"`
	Edges          []domain.Edge           `json:"edges"`
	NextID         int                     `json:"nextId"`
	EdgeSeq        uint64                  `json:"edgeSeq"`
	Version        uint64                  `json:"version"`
	Metadata       domain.TemplateMetadata `json:"metadata"`
	MetadataSet    bool                    `json:"metadataSet"`
	MetadataLocal  bool                    `json:"metadataLocal,omitempty"`
	StartCompleted bool                    `json:"startCompleted"`
	Mode           Mode                    `json:"mode"`
}

// State captures the editor for persistence.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := e.graph.Snapshot()
	doc := snap.Document()
	meta, set := e.meta.Get()
	return State{
		Nodes:          doc.Nodes,
		Edges:          doc.Edges,
		NextID:         snap.NextID,
		EdgeSeq:        snap.EdgeSeq,
		Version:        snap.Version,
		Metadata:       meta,
		MetadataSet:    set,
		MetadataLocal:  e.metadataLocal,
		StartCompleted: e.startCompleted,
		Mode:           e.mode,
	}
}

// Restore reinstates a captured state without notifying hooks.
func (e *Editor) Restore(s State) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.graph.Restore(graph.Snapshot{
		Nodes:   s.Nodes,
		Edges:   s.Edges,
		NextID:  s.NextID,
		EdgeSeq: s.EdgeSeq,
		Version: s.Version,
	})
	if s.MetadataSet {
		e.meta.Replace(s.Metadata)
	} else {
		e.meta.Reset()
	}
	e.metadataLocal = s.MetadataLocal
	e.startCompleted = s.StartCompleted
	e.mode = s.Mode
}

// NavigateAway ends the editing session: metadata and its backup are cleared,
// the graph is emptied and the start dialog has to be submitted again.
func (e *Editor) NavigateAway(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.meta.Clear(ctx); err != nil {
		return err
	}
	if err := e.graph.ReplaceAll(nil, nil); err != nil {
		return err
	}
	e.startCompleted = false
	e.metadataLocal = false
	e.loadGen.Add(1)
	return nil
}

// CancelStart dismisses the start dialog without submitting it.
func (e *Editor) CancelStart(ctx context.Context) error {
	return e.NavigateAway(ctx)
}
