package domain

import "strings"

// TemplateMetadata describes the questionnaire being edited. Facility types and
// service lines are kept as display names; they are mapped to catalog ids only when
// talking to the remote service.
type TemplateMetadata struct {
	TemplateName     string   `json:"templateName" validate:"required" mapstructure:"templateName"`
	FacilityTypes    []string `json:"facilityTypes" mapstructure:"facilityTypes"`
	FacilityServices []string `json:"facilityServices" mapstructure:"facilityServices"`
}

// Normalize trims the name and replaces nil lists with empty ones.
func (m TemplateMetadata) Normalize() TemplateMetadata {
	m.TemplateName = strings.TrimSpace(m.TemplateName)
	if m.FacilityTypes == nil {
		m.FacilityTypes = []string{}
	}
	if m.FacilityServices == nil {
		m.FacilityServices = []string{}
	}
	return m
}

// HasName reports whether a non-blank template name is set.
func (m TemplateMetadata) HasName() bool {
	return strings.TrimSpace(m.TemplateName) != ""
}

// Complete reports whether the metadata carries everything needed to create a
// new remote template: a name, at least one facility type and one service line.
func (m TemplateMetadata) Complete() bool {
	return m.HasName() && len(m.FacilityTypes) > 0 && len(m.FacilityServices) > 0
}

// MetadataInput is the start-dialog form. It names service lines the way the
// dialog does.
type MetadataInput struct {
	TemplateName  string   `json:"templateName" validate:"required"`
	FacilityTypes []string `json:"facilityTypes"`
	ServiceLines  []string `json:"serviceLines"`
}

// Metadata converts the form into TemplateMetadata.
func (in MetadataInput) Metadata() TemplateMetadata {
	return TemplateMetadata{
		TemplateName:     in.TemplateName,
		FacilityTypes:    in.FacilityTypes,
		FacilityServices: in.ServiceLines,
	}.Normalize()
}
