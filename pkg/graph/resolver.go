package graph

import (
	"fmt"

	"github.com/aretw0/lattice/pkg/domain"
)

// Navigation texts used by the table view.
const (
	NavigateDefault = "Refer to Consultant"
	NavigateEnd     = "End Survey"
)

// Connection is one answer output of a node and where it leads.
type Connection struct {
	Label         string `json:"label"`
	Handle        string `json:"handle"`
	Connected     bool   `json:"connected"`
	TargetID      string `json:"targetId,omitempty"`
	TargetOrdinal int    `json:"targetOrdinal,omitempty"`
}

// Navigation renders the connection the way the table view shows it.
func (c Connection) Navigation() string {
	if !c.Connected {
		return NavigateDefault
	}
	return MoveTo(c.TargetOrdinal)
}

// MoveTo is the navigation text for the question at 1-based ordinal n.
func MoveTo(n int) string {
	return fmt.Sprintf("Move to Q%d", n)
}

// NaturalHandles returns the handles a node exposes given its question type:
// yes/no for yes-no, one per option for choice types plus "multi-all" for
// checkboxes, and "text-output" for free text. Sections expose none.
func NaturalHandles(n domain.Node) []string {
	if !n.Type.IsQuestion() {
		return nil
	}
	switch n.Data.QuestionType {
	case domain.QuestionYesNo:
		return []string{domain.HandleYesID, domain.HandleNoID}
	case domain.QuestionMultipleChoice, domain.QuestionRadio, domain.QuestionSelect, domain.QuestionCheckbox:
		handles := make([]string, 0, len(n.Data.Options)+1)
		for i := range n.Data.Options {
			handles = append(handles, domain.OptionHandle(i))
		}
		if n.Data.QuestionType == domain.QuestionCheckbox {
			handles = append(handles, domain.HandleMultiAllID)
		}
		return handles
	default:
		return []string{domain.HandleTextOutputID}
	}
}

// Resolve lists every answer output of the node in handle order, each marked
// connected or not. Outgoing edges whose handle is not natural for the node are
// appended after the natural outputs. Edges without a handle, to missing
// targets, or from option handles without text are ignored. When several edges
// leave the same handle the last one wins.
func Resolve(s Snapshot, nodeID string) ([]Connection, error) {
	node, ok := s.Node(nodeID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, nodeID)
	}

	var out []Connection
	byHandle := make(map[string]int)
	for _, id := range NaturalHandles(node) {
		h, _ := domain.ParseHandle(id)
		label, ok := h.Label(node.Data.Options)
		if !ok {
			continue
		}
		byHandle[id] = len(out)
		out = append(out, Connection{Label: label, Handle: id})
	}

	for _, e := range s.EdgesFrom(nodeID) {
		if e.SourceHandle == "" {
			continue
		}
		ordinal := s.IndexOf(e.Target) + 1
		if ordinal == 0 {
			continue
		}
		h, err := domain.ParseHandle(e.SourceHandle)
		if err != nil {
			continue
		}
		label, ok := h.Label(node.Data.Options)
		if !ok {
			continue
		}
		c := Connection{
			Label:         label,
			Handle:        e.SourceHandle,
			Connected:     true,
			TargetID:      e.Target,
			TargetOrdinal: ordinal,
		}
		if i, ok := byHandle[e.SourceHandle]; ok {
			out[i] = c
			continue
		}
		byHandle[e.SourceHandle] = len(out)
		out = append(out, c)
	}
	return out, nil
}

// ResolveConnections maps each output label of the node to its connection.
// Outputs sharing a label collapse to the last one.
func ResolveConnections(s Snapshot, nodeID string) (map[string]Connection, error) {
	conns, err := Resolve(s, nodeID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]Connection, len(conns))
	for _, c := range conns {
		out[c.Label] = c
	}
	return out, nil
}

// NavigationChoices lists the navigation targets offered by the table view:
// "Move to Q1" through one past the node count, then the two terminal choices.
func NavigationChoices(s Snapshot) []string {
	choices := make([]string, 0, len(s.Nodes)+3)
	for i := 1; i <= len(s.Nodes)+1; i++ {
		choices = append(choices, MoveTo(i))
	}
	return append(choices, NavigateDefault, NavigateEnd)
}
