package loam

// TemplateRecord is the document shape of a library template. The same keys work
// as a JSON document or as Markdown frontmatter; the Markdown body becomes the
// description when none is given.
type TemplateRecord struct {
	ID               string   `json:"id" mapstructure:"id"`
	Name             string   `json:"name" mapstructure:"name"`
	Description      string   `json:"description" mapstructure:"description"`
	TemplateName     string   `json:"templateName" mapstructure:"templateName"`
	FacilityTypes    []string `json:"facilityTypes" mapstructure:"facilityTypes"`
	FacilityServices []string `json:"facilityServices" mapstructure:"facilityServices"`

	// Nodes and Edges are decoded into domain types after loading, once numeric
	// values have been normalized.
	Nodes []any `json:"nodes" mapstructure:"nodes"`
	Edges []any `json:"edges" mapstructure:"edges"`
}
