package domain

// EdgeData carries the routing details of an edge.
type EdgeData struct {
	OptionText   string       `json:"optionText,omitempty" mapstructure:"optionText"`
	SourceHandle string       `json:"sourceHandle,omitempty" mapstructure:"sourceHandle"`
	Condition    QuestionType `json:"condition,omitempty" mapstructure:"condition"`
}

// Edge routes the answer given on SourceHandle of Source to Target.
type Edge struct {
	ID           string   `json:"id" mapstructure:"id"`
	Source       string   `json:"source" mapstructure:"source"`
	Target       string   `json:"target" mapstructure:"target"`
	SourceHandle string   `json:"sourceHandle,omitempty" mapstructure:"sourceHandle"`
	Label        string   `json:"label,omitempty" mapstructure:"label"`
	Data         EdgeData `json:"data" mapstructure:"data"`
}

// Touches reports whether the edge starts or ends at nodeID.
func (e Edge) Touches(nodeID string) bool {
	return e.Source == nodeID || e.Target == nodeID
}

// Document is the exportable form of a questionnaire graph.
type Document struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Clone returns a deep copy of d with non-nil slices.
func (d Document) Clone() Document {
	out := Document{
		Nodes: make([]Node, len(d.Nodes)),
		Edges: make([]Edge, len(d.Edges)),
	}
	for i, n := range d.Nodes {
		out.Nodes[i] = n.Clone()
	}
	copy(out.Edges, d.Edges)
	return out
}
