package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/google/uuid"
)

// ScenarioAPI implements ports.ScenarioAPI in memory. It keeps every version of
// every scenario, which makes it usable both offline and as a test double.
type ScenarioAPI struct {
	mu             sync.Mutex
	facilityTypes  []domain.CatalogEntry
	serviceLines   []domain.CatalogEntry
	scenarios      map[string][]domain.Scenario
	failures       map[string]error
	calls          map[string]int
	lastCreate     *domain.CreateScenarioInput
	lastUpdate     *domain.UpdateScenarioInput
	lastTemplateIn *domain.UpdateTemplateInput
}

// ScenarioOption configures a ScenarioAPI.
type ScenarioOption func(*ScenarioAPI)

// WithCatalog seeds the facility types and service lines.
func WithCatalog(facilityTypes, serviceLines []domain.CatalogEntry) ScenarioOption {
	return func(a *ScenarioAPI) {
		a.facilityTypes = append([]domain.CatalogEntry(nil), facilityTypes...)
		a.serviceLines = append([]domain.CatalogEntry(nil), serviceLines...)
	}
}

// WithScenario seeds an existing scenario as its first version.
func WithScenario(s domain.Scenario) ScenarioOption {
	return func(a *ScenarioAPI) {
		if s.Version == "" {
			s.Version = "V1"
		}
		a.scenarios[s.ID] = append(a.scenarios[s.ID], s)
	}
}

// NewScenarioAPI creates an empty in-memory remote service.
func NewScenarioAPI(opts ...ScenarioOption) *ScenarioAPI {
	a := &ScenarioAPI{
		scenarios: make(map[string][]domain.Scenario),
		failures:  make(map[string]error),
		calls:     make(map[string]int),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// FailNext makes the next call to op return err.
func (a *ScenarioAPI) FailNext(op string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failures[op] = err
}

// Calls returns how many times op was invoked.
func (a *ScenarioAPI) Calls(op string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls[op]
}

// LastCreate returns the input of the most recent CreateScenario call.
func (a *ScenarioAPI) LastCreate() *domain.CreateScenarioInput {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastCreate
}

// LastUpdate returns the input of the most recent UpdateScenario call.
func (a *ScenarioAPI) LastUpdate() *domain.UpdateScenarioInput {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastUpdate
}

// LastUpdateTemplate returns the input of the most recent UpdateTemplate call.
func (a *ScenarioAPI) LastUpdateTemplate() *domain.UpdateTemplateInput {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastTemplateIn
}

// begin records a call and returns the injected failure, if any. Caller holds mu.
func (a *ScenarioAPI) begin(op string) error {
	a.calls[op]++
	if err, ok := a.failures[op]; ok {
		delete(a.failures, op)
		return err
	}
	return nil
}

func (a *ScenarioAPI) FacilityTypes(ctx context.Context) ([]domain.CatalogEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.begin("getAllFacilityTypes"); err != nil {
		return nil, err
	}
	return append([]domain.CatalogEntry{}, a.facilityTypes...), nil
}

func (a *ScenarioAPI) ServiceLines(ctx context.Context) ([]domain.CatalogEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.begin("getServiceLines"); err != nil {
		return nil, err
	}
	return append([]domain.CatalogEntry{}, a.serviceLines...), nil
}

func (a *ScenarioAPI) CreateScenario(ctx context.Context, in domain.CreateScenarioInput) (domain.MutationResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.begin("createScenario"); err != nil {
		return domain.MutationResult{}, err
	}
	if in.Name == "" {
		return domain.MutationResult{}, &domain.RemoteError{Op: "createScenario", Kind: domain.RemoteValidation, Message: "name is required", StatusCode: 400}
	}
	copied := in
	a.lastCreate = &copied

	s := domain.Scenario{
		ID:            uuid.NewString(),
		Name:          in.Name,
		Version:       "V1",
		Questionnaire: in.Questionnaire,
		Facilities:    in.Facilities,
		Services:      in.Services,
	}
	a.scenarios[s.ID] = []domain.Scenario{s}
	out := a.withVersions(s)
	return domain.MutationResult{Message: "Template created successfully!", Scenario: &out}, nil
}

func (a *ScenarioAPI) UpdateScenario(ctx context.Context, in domain.UpdateScenarioInput) (domain.MutationResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.begin("updateScenario"); err != nil {
		return domain.MutationResult{}, err
	}
	copied := in
	a.lastUpdate = &copied

	versions, ok := a.scenarios[in.ScenarioID]
	if !ok {
		return domain.MutationResult{}, notFound("updateScenario", in.ScenarioID)
	}
	next := versions[len(versions)-1]
	next.Version = "V" + strconv.Itoa(len(versions)+1)
	q := next.Questionnaire
	q.Nodes, q.Edges = in.Questionnaire.Nodes, in.Questionnaire.Edges
	next.Questionnaire = q
	a.scenarios[in.ScenarioID] = append(versions, next)

	out := a.withVersions(next)
	return domain.MutationResult{Message: "Questionnaire updated successfully!", Scenario: &out}, nil
}

func (a *ScenarioAPI) UpdateTemplate(ctx context.Context, in domain.UpdateTemplateInput) (domain.UpdateTemplateResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.begin("updateTemplate"); err != nil {
		return domain.UpdateTemplateResult{}, err
	}
	copied := in
	a.lastTemplateIn = &copied

	versions, ok := a.scenarios[in.ID]
	if !ok {
		return domain.UpdateTemplateResult{}, notFound("updateTemplate", in.ID)
	}
	latest := &versions[len(versions)-1]
	latest.Name = in.Name
	latest.Facilities = in.Facilities
	latest.Services = in.Services
	latest.Questionnaire.TemplateName = in.Name

	out := a.withVersions(*latest)
	return domain.UpdateTemplateResult{Message: "Template metadata updated successfully!", Scenario: &out}, nil
}

func (a *ScenarioAPI) GetScenario(ctx context.Context, id, version string) (domain.Scenario, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.begin("getScenarioById"); err != nil {
		return domain.Scenario{}, err
	}
	versions, ok := a.scenarios[id]
	if !ok {
		return domain.Scenario{}, notFound("getScenarioById", id)
	}
	if version == "" {
		return a.withVersions(versions[len(versions)-1]), nil
	}
	for _, s := range versions {
		if s.Version == version {
			return a.withVersions(s), nil
		}
	}
	return domain.Scenario{}, notFound("getScenarioById", fmt.Sprintf("%s@%s", id, version))
}

// withVersions returns a detached copy of s listing every known version. Caller holds mu.
func (a *ScenarioAPI) withVersions(s domain.Scenario) domain.Scenario {
	out := s
	out.Versions = nil
	for _, v := range a.scenarios[s.ID] {
		out.Versions = append(out.Versions, v.Version)
	}
	doc := domain.Document{Nodes: s.Questionnaire.Nodes, Edges: s.Questionnaire.Edges}.Clone()
	out.Questionnaire.Nodes, out.Questionnaire.Edges = doc.Nodes, doc.Edges
	return out
}

func notFound(op, id string) error {
	return &domain.RemoteError{
		Op:         op,
		Kind:       domain.RemoteValidation,
		Message:    fmt.Sprintf("scenario %s not found", id),
		StatusCode: 404,
	}
}
