package domain

// NodeKind tags how a node participates in the questionnaire.
// The values are the ones written to exported documents.
type NodeKind string

const (
	KindQuestion        NodeKind = "questionNode"
	KindEditingQuestion NodeKind = "editQuestionNode"
	KindSection         NodeKind = "sectionNode"
)

// Valid reports whether k is one of the known node kinds.
func (k NodeKind) Valid() bool {
	switch k {
	case KindQuestion, KindEditingQuestion, KindSection:
		return true
	}
	return false
}

// IsQuestion reports whether nodes of this kind carry a question.
func (k NodeKind) IsQuestion() bool {
	return k == KindQuestion || k == KindEditingQuestion
}

// EditingNodeID is the reserved id of the question currently being composed.
// At most one node with this id exists at any time.
const EditingNodeID = "temp-edit-node"

// QuestionType determines which output handles a question exposes.
type QuestionType string

const (
	QuestionText           QuestionType = "text-input"
	QuestionMultipleChoice QuestionType = "multiple-choice"
	QuestionCheckbox       QuestionType = "checkbox"
	QuestionRadio          QuestionType = "radio"
	QuestionSelect         QuestionType = "select"
	QuestionYesNo          QuestionType = "yes-no"
)

// Valid reports whether q is a known question type.
func (q QuestionType) Valid() bool {
	switch q {
	case QuestionText, QuestionMultipleChoice, QuestionCheckbox, QuestionRadio, QuestionSelect, QuestionYesNo:
		return true
	}
	return false
}

// HasOptions reports whether questions of this type present a list of options.
func (q QuestionType) HasOptions() bool {
	switch q {
	case QuestionMultipleChoice, QuestionCheckbox, QuestionRadio, QuestionSelect, QuestionYesNo:
		return true
	}
	return false
}

// DefaultOptions are the options a freshly composed question starts with.
func DefaultOptions() []string {
	return []string{"Option 1", "Option 2"}
}

// Position is a point on the editing canvas.
type Position struct {
	X float64 `json:"x" mapstructure:"x"`
	Y float64 `json:"y" mapstructure:"y"`
}

// NodeData is the payload of a node. Question fields are used by question kinds,
// SectionName and Weight by sections.
type NodeData struct {
	Question      string       `json:"question,omitempty" mapstructure:"question"`
	QuestionType  QuestionType `json:"questionType,omitempty" mapstructure:"questionType"`
	Options       []string     `json:"options,omitempty" mapstructure:"options"`
	IsRequired    bool         `json:"isRequired,omitempty" mapstructure:"isRequired"`
	IsNewQuestion bool         `json:"isNewQuestion,omitempty" mapstructure:"isNewQuestion"`
	SectionName   string       `json:"sectionName,omitempty" mapstructure:"sectionName"`
	Weight        float64      `json:"weight,omitempty" mapstructure:"weight"`
}

// Clone returns a deep copy of d.
func (d NodeData) Clone() NodeData {
	if d.Options != nil {
		d.Options = append([]string(nil), d.Options...)
	}
	return d
}

// Node is a vertex of the questionnaire graph.
type Node struct {
	ID       string   `json:"id" mapstructure:"id"`
	Type     NodeKind `json:"type" mapstructure:"type"`
	Position Position `json:"position" mapstructure:"position"`
	Data     NodeData `json:"data" mapstructure:"data"`
}

// Clone returns a deep copy of n.
func (n Node) Clone() Node {
	n.Data = n.Data.Clone()
	return n
}

// NodePatch is a partial update of NodeData. Nil fields are left untouched.
// A non-nil Options replaces the whole option list.
type NodePatch struct {
	Question     *string       `json:"question,omitempty"`
	QuestionType *QuestionType `json:"questionType,omitempty"`
	Options      []string      `json:"options,omitempty"`
	IsRequired   *bool         `json:"isRequired,omitempty"`
	SectionName  *string       `json:"sectionName,omitempty"`
	Weight       *float64      `json:"weight,omitempty"`
}

// Apply merges p into d and returns the result. d is not modified.
func (p NodePatch) Apply(d NodeData) NodeData {
	out := d.Clone()
	if p.Question != nil {
		out.Question = *p.Question
	}
	if p.QuestionType != nil {
		out.QuestionType = *p.QuestionType
	}
	if p.Options != nil {
		out.Options = append([]string{}, p.Options...)
	}
	if p.IsRequired != nil {
		out.IsRequired = *p.IsRequired
	}
	if p.SectionName != nil {
		out.SectionName = *p.SectionName
	}
	if p.Weight != nil {
		out.Weight = *p.Weight
	}
	return out
}
