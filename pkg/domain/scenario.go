package domain

// CatalogEntry is a facility type or service line known to the remote service.
type CatalogEntry struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// Questionnaire is the graph payload stored inside a scenario.
type Questionnaire struct {
	Nodes         []Node   `json:"nodes"`
	Edges         []Edge   `json:"edges"`
	TemplateName  string   `json:"templateName,omitempty"`
	FacilityTypes []string `json:"facilityTypes,omitempty"`
	ServiceLines  []string `json:"serviceLines,omitempty"`
	Facilities    []string `json:"facilities,omitempty"`
	Services      []string `json:"services,omitempty"`
}

// Scenario is a remote, versioned questionnaire record.
// Facilities and Services hold catalog ids.
type Scenario struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Version       string        `json:"version,omitempty"`
	Versions      []string      `json:"versions,omitempty"`
	Questionnaire Questionnaire `json:"questionnaire"`
	Facilities    []string      `json:"facilities,omitempty"`
	Services      []string      `json:"services,omitempty"`
}

// FacilityIDs returns the facility ids of the scenario, falling back to the ones
// recorded in the questionnaire.
func (s Scenario) FacilityIDs() []string {
	if len(s.Facilities) > 0 {
		return s.Facilities
	}
	return s.Questionnaire.Facilities
}

// ServiceIDs returns the service ids of the scenario, falling back to the ones
// recorded in the questionnaire.
func (s Scenario) ServiceIDs() []string {
	if len(s.Services) > 0 {
		return s.Services
	}
	return s.Questionnaire.Services
}

// DisplayName is the template name to show for the scenario.
func (s Scenario) DisplayName() string {
	if s.Questionnaire.TemplateName != "" {
		return s.Questionnaire.TemplateName
	}
	return s.Name
}

// CreateScenarioInput publishes a new template.
type CreateScenarioInput struct {
	Name          string        `json:"name"`
	Questionnaire Questionnaire `json:"questionnaire"`
	Facilities    []string      `json:"facilities"`
	Services      []string      `json:"services"`
}

// UpdateScenarioInput replaces the graph of an existing scenario.
type UpdateScenarioInput struct {
	ScenarioID    string        `json:"scenarioId"`
	Questionnaire Questionnaire `json:"questionnaire"`
}

// UpdateTemplateInput replaces the metadata of an existing scenario.
type UpdateTemplateInput struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Facilities []string `json:"facilities"`
	Services   []string `json:"services"`
}

// MutationResult is the outcome of a successful create or update.
type MutationResult struct {
	Message  string    `json:"message,omitempty"`
	Scenario *Scenario `json:"scenario,omitempty"`
}

// UpdateTemplateResult is the outcome of a successful metadata update.
type UpdateTemplateResult struct {
	Message           string    `json:"message,omitempty"`
	Scenario          *Scenario `json:"scenario,omitempty"`
	NewVersionCreated bool      `json:"newVersionCreated"`
}
