package graph

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/aretw0/lattice/pkg/domain"
)

// Mutation names reported to observers.
const (
	OpAddNode        = "add_node"
	OpUpdateNode     = "update_node"
	OpDeleteNode     = "delete_node"
	OpMoveNode       = "move_node"
	OpAddEdge        = "add_edge"
	OpDeleteEdge     = "delete_edge"
	OpDeleteOption   = "delete_option"
	OpClearQuestions = "clear_questions"
	OpRoute          = "route"
	OpReplaceAll     = "replace_all"
)

// Link is a request to connect an output handle of Source to Target.
type Link struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
}

// Observer is notified after every committed mutation.
type Observer func(op string, before, after Snapshot)

// Store owns one questionnaire graph. It is safe for concurrent use; every
// mutation is atomic with respect to Snapshot.
type Store struct {
	mu        sync.RWMutex
	snap      Snapshot
	observers []Observer
}

// Option configures a Store.
type Option func(*Store)

// WithObserver registers a callback invoked after each mutation.
func WithObserver(o Observer) Option {
	return func(s *Store) {
		s.observers = append(s.observers, o)
	}
}

// NewStore creates an empty graph.
func NewStore(opts ...Option) *Store {
	s := &Store{
		snap: Snapshot{Nodes: []domain.Node{}, Edges: []domain.Edge{}, NextID: 1},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns the current immutable view of the graph.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// mutate runs fn on a working copy and publishes it when fn succeeds.
func (s *Store) mutate(op string, fn func(w *Snapshot) error) error {
	s.mu.Lock()
	before := s.snap
	work := Snapshot{
		Nodes:   append([]domain.Node(nil), before.Nodes...),
		Edges:   append([]domain.Edge(nil), before.Edges...),
		NextID:  before.NextID,
		EdgeSeq: before.EdgeSeq,
		Version: before.Version + 1,
	}
	if err := fn(&work); err != nil {
		s.mu.Unlock()
		return err
	}
	if work.Nodes == nil {
		work.Nodes = []domain.Node{}
	}
	if work.Edges == nil {
		work.Edges = []domain.Edge{}
	}
	s.snap = work
	observers := s.observers
	s.mu.Unlock()

	for _, o := range observers {
		o(op, before, work)
	}
	return nil
}

// AddNode inserts a node at an automatically chosen free position and returns its id.
func (s *Store) AddNode(kind domain.NodeKind, data domain.NodeData) (string, error) {
	var id string
	err := s.mutate(OpAddNode, func(w *Snapshot) error {
		var err error
		id, err = insertNode(w, kind, data, FindOptimalPosition(w.Nodes))
		return err
	})
	return id, err
}

// AddNodeAt inserts a node at pos and returns its id.
//
// Question ids are the decimal value of the counter and section ids are
// "section-" followed by it; the counter is then incremented. The editing kind
// always takes EditingNodeID and replaces any previous editing node.
func (s *Store) AddNodeAt(kind domain.NodeKind, data domain.NodeData, pos domain.Position) (string, error) {
	var id string
	err := s.mutate(OpAddNode, func(w *Snapshot) error {
		var err error
		id, err = insertNode(w, kind, data, pos)
		return err
	})
	return id, err
}

func insertNode(w *Snapshot, kind domain.NodeKind, data domain.NodeData, pos domain.Position) (string, error) {
	if !kind.Valid() {
		return "", &domain.ValidationError{Field: "type", Reason: fmt.Sprintf("unknown node kind %q", kind)}
	}
	if kind.IsQuestion() && data.QuestionType != "" && !data.QuestionType.Valid() {
		return "", &domain.ValidationError{Field: "questionType", Reason: fmt.Sprintf("unknown question type %q", data.QuestionType)}
	}

	var id string
	switch kind {
	case domain.KindEditingQuestion:
		id = domain.EditingNodeID
		if i := w.IndexOf(id); i >= 0 {
			w.Nodes = append(w.Nodes[:i:i], w.Nodes[i+1:]...)
			w.Edges = removeEdgesTouching(w.Edges, id)
		}
	default:
		for {
			id = strconv.Itoa(w.NextID)
			if kind == domain.KindSection {
				id = "section-" + id
			}
			w.NextID++
			if w.IndexOf(id) < 0 {
				break
			}
		}
	}

	w.Nodes = append(w.Nodes, domain.Node{
		ID:       id,
		Type:     kind,
		Position: pos,
		Data:     data.Clone(),
	})
	return id, nil
}

// UpdateNode merges patch into the node data. When the patch replaces the options,
// the labels of the node's option edges are refreshed; edges whose option no
// longer has text keep their label.
func (s *Store) UpdateNode(id string, patch domain.NodePatch) error {
	return s.mutate(OpUpdateNode, func(w *Snapshot) error {
		i := w.IndexOf(id)
		if i < 0 {
			return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
		}
		data := patch.Apply(w.Nodes[i].Data)
		if data.QuestionType != "" && !data.QuestionType.Valid() {
			return &domain.ValidationError{Field: "questionType", Reason: fmt.Sprintf("unknown question type %q", data.QuestionType)}
		}
		w.Nodes[i].Data = data
		if patch.Options != nil {
			relabelOptionEdges(w.Edges, id, data.Options)
		}
		return nil
	})
}

// DeleteNode removes the node and every edge touching it.
func (s *Store) DeleteNode(id string) error {
	return s.mutate(OpDeleteNode, func(w *Snapshot) error {
		i := w.IndexOf(id)
		if i < 0 {
			return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
		}
		w.Nodes = append(w.Nodes[:i:i], w.Nodes[i+1:]...)
		w.Edges = removeEdgesTouching(w.Edges, id)
		return nil
	})
}

// MoveNode changes the canvas position of a node.
func (s *Store) MoveNode(id string, pos domain.Position) error {
	return s.mutate(OpMoveNode, func(w *Snapshot) error {
		i := w.IndexOf(id)
		if i < 0 {
			return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
		}
		w.Nodes[i].Position = pos
		return nil
	})
}

// AddEdge connects a handle to a target node. The label is derived from the
// source handle and the source node's current options. Edge ids end in a
// per-graph sequence number, so they never repeat. Connecting a handle to a
// target it already leads to returns the existing edge.
func (s *Store) AddEdge(link Link) (domain.Edge, error) {
	var edge domain.Edge
	err := s.mutate(OpAddEdge, func(w *Snapshot) error {
		var err error
		edge, err = insertEdge(w, link)
		return err
	})
	return edge, err
}

func insertEdge(w *Snapshot, link Link) (domain.Edge, error) {
	source, ok := w.Node(link.Source)
	if !ok {
		return domain.Edge{}, fmt.Errorf("%w: source %s", domain.ErrNodeNotFound, link.Source)
	}
	if _, ok := w.Node(link.Target); !ok {
		return domain.Edge{}, fmt.Errorf("%w: target %s", domain.ErrNodeNotFound, link.Target)
	}
	h, err := domain.ParseHandle(link.SourceHandle)
	if err != nil {
		return domain.Edge{}, err
	}

	for _, e := range w.Edges {
		if e.Source == link.Source && e.Target == link.Target && e.SourceHandle == link.SourceHandle {
			return e, nil
		}
	}

	handleID := link.SourceHandle
	if handleID == "" {
		handleID = "default"
	}
	var id string
	for {
		w.EdgeSeq++
		id = fmt.Sprintf("%s-%s-%s-%d", link.Source, link.Target, handleID, w.EdgeSeq)
		if !hasEdge(w.Edges, id) {
			break
		}
	}

	label := h.EdgeLabel(source.Data.Options)
	edge := domain.Edge{
		ID:           id,
		Source:       link.Source,
		Target:       link.Target,
		SourceHandle: link.SourceHandle,
		Label:        label,
		Data: domain.EdgeData{
			OptionText:   label,
			SourceHandle: link.SourceHandle,
			Condition:    source.Data.QuestionType,
		},
	}
	w.Edges = append(w.Edges, edge)
	return edge, nil
}

// DeleteEdge removes an edge by id.
func (s *Store) DeleteEdge(id string) error {
	return s.mutate(OpDeleteEdge, func(w *Snapshot) error {
		for i, e := range w.Edges {
			if e.ID == id {
				w.Edges = append(w.Edges[:i:i], w.Edges[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: %s", domain.ErrEdgeNotFound, id)
	})
}

// AddOption appends "Option N+1" to the node's options.
func (s *Store) AddOption(id string) error {
	return s.mutate(OpUpdateNode, func(w *Snapshot) error {
		i := w.IndexOf(id)
		if i < 0 {
			return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
		}
		data := w.Nodes[i].Data.Clone()
		data.Options = append(data.Options, fmt.Sprintf("Option %d", len(data.Options)+1))
		w.Nodes[i].Data = data
		return nil
	})
}

// DeleteOption removes the option at index. Edges leaving that option are removed
// and edges leaving later options are renumbered so they keep following the same
// option text.
func (s *Store) DeleteOption(id string, index int) error {
	return s.mutate(OpDeleteOption, func(w *Snapshot) error {
		i := w.IndexOf(id)
		if i < 0 {
			return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
		}
		data := w.Nodes[i].Data.Clone()
		if index < 0 || index >= len(data.Options) {
			return fmt.Errorf("%w: %s option %d", domain.ErrOptionNotFound, id, index)
		}
		data.Options = append(data.Options[:index:index], data.Options[index+1:]...)
		w.Nodes[i].Data = data

		edges := make([]domain.Edge, 0, len(w.Edges))
		for _, e := range w.Edges {
			if e.Source != id {
				edges = append(edges, e)
				continue
			}
			h, err := domain.ParseHandle(e.SourceHandle)
			if err != nil || h.Kind != domain.HandleOption || h.Index < index {
				edges = append(edges, e)
				continue
			}
			if h.Index == index {
				continue
			}
			e.SourceHandle = domain.OptionHandle(h.Index - 1)
			e.Data.SourceHandle = e.SourceHandle
			edges = append(edges, e)
		}
		relabelOptionEdges(edges, id, data.Options)
		w.Edges = edges
		return nil
	})
}

// ClearQuestions removes every question and editing node together with their
// edges. Sections are kept.
func (s *Store) ClearQuestions() error {
	return s.mutate(OpClearQuestions, func(w *Snapshot) error {
		removed := make(map[string]struct{})
		nodes := make([]domain.Node, 0, len(w.Nodes))
		for _, n := range w.Nodes {
			if n.Type.IsQuestion() {
				removed[n.ID] = struct{}{}
				continue
			}
			nodes = append(nodes, n)
		}
		edges := make([]domain.Edge, 0, len(w.Edges))
		for _, e := range w.Edges {
			_, src := removed[e.Source]
			_, dst := removed[e.Target]
			if !src && !dst {
				edges = append(edges, e)
			}
		}
		w.Nodes, w.Edges = nodes, edges
		return nil
	})
}

// Route points the output handle of a node at target, replacing any edge that
// currently leaves that handle. An empty target only removes the existing edges.
func (s *Store) Route(nodeID, handle, target string) (*domain.Edge, error) {
	var out *domain.Edge
	err := s.mutate(OpRoute, func(w *Snapshot) error {
		if _, ok := w.Node(nodeID); !ok {
			return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, nodeID)
		}
		if _, err := domain.ParseHandle(handle); err != nil {
			return err
		}
		edges := make([]domain.Edge, 0, len(w.Edges))
		for _, e := range w.Edges {
			if e.Source == nodeID && e.SourceHandle == handle {
				continue
			}
			edges = append(edges, e)
		}
		w.Edges = edges
		if target == "" {
			return nil
		}
		edge, err := insertEdge(w, Link{Source: nodeID, Target: target, SourceHandle: handle})
		if err != nil {
			return err
		}
		out = &edge
		return nil
	})
	return out, err
}

// ReplaceAll swaps the whole graph, as done on import and load. The id counter
// is recomputed from the new nodes.
func (s *Store) ReplaceAll(nodes []domain.Node, edges []domain.Edge) error {
	doc := domain.Document{Nodes: nodes, Edges: edges}.Clone()
	return s.mutate(OpReplaceAll, func(w *Snapshot) error {
		w.Nodes = doc.Nodes
		w.Edges = doc.Edges
		w.NextID = NextNodeID(doc.Nodes)
		return nil
	})
}

// Restore installs a previously taken snapshot, counters included. Observers are
// not notified.
func (s *Store) Restore(snap Snapshot) {
	doc := snap.Document()
	if snap.NextID < 1 {
		snap.NextID = NextNodeID(doc.Nodes)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = Snapshot{
		Nodes:   doc.Nodes,
		Edges:   doc.Edges,
		NextID:  snap.NextID,
		EdgeSeq: snap.EdgeSeq,
		Version: snap.Version,
	}
}

func hasEdge(edges []domain.Edge, id string) bool {
	for _, e := range edges {
		if e.ID == id {
			return true
		}
	}
	return false
}

func removeEdgesTouching(edges []domain.Edge, id string) []domain.Edge {
	out := make([]domain.Edge, 0, len(edges))
	for _, e := range edges {
		if !e.Touches(id) {
			out = append(out, e)
		}
	}
	return out
}

// relabelOptionEdges updates, in place, the labels of option edges leaving id.
func relabelOptionEdges(edges []domain.Edge, id string, options []string) {
	for i := range edges {
		e := &edges[i]
		if e.Source != id {
			continue
		}
		h, err := domain.ParseHandle(e.SourceHandle)
		if err != nil || h.Kind != domain.HandleOption {
			continue
		}
		if text, ok := h.Label(options); ok {
			e.Label = text
			e.Data.OptionText = text
		}
	}
}
