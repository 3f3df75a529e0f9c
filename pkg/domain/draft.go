package domain

import "time"

// DraftStatusInProgress is the status of every locally saved draft.
const DraftStatusInProgress = "In Progress"

// Draft is a locally persisted questionnaire that has not been published.
type Draft struct {
	ID               string    `json:"id" mapstructure:"id"`
	Name             string    `json:"name" mapstructure:"name"`
	Description      string    `json:"description" mapstructure:"description"`
	Nodes            []Node    `json:"nodes" mapstructure:"nodes"`
	Edges            []Edge    `json:"edges" mapstructure:"edges"`
	Status           string    `json:"status" mapstructure:"status"`
	CreatedAt        time.Time `json:"createdAt" mapstructure:"-"`
	UpdatedAt        time.Time `json:"updatedAt" mapstructure:"-"`
	IsDraft          bool      `json:"isDraft" mapstructure:"isDraft"`
	TemplateName     string    `json:"templateName,omitempty" mapstructure:"templateName"`
	FacilityTypes    []string  `json:"facilityTypes,omitempty" mapstructure:"facilityTypes"`
	FacilityServices []string  `json:"facilityServices,omitempty" mapstructure:"facilityServices"`
}

// Metadata returns the template metadata captured with the draft. The template
// name falls back to the draft name.
func (d Draft) Metadata() TemplateMetadata {
	name := d.TemplateName
	if name == "" {
		name = d.Name
	}
	return TemplateMetadata{
		TemplateName:     name,
		FacilityTypes:    d.FacilityTypes,
		FacilityServices: d.FacilityServices,
	}.Normalize()
}

// Document returns the graph stored in the draft.
func (d Draft) Document() Document {
	return Document{Nodes: d.Nodes, Edges: d.Edges}.Clone()
}
