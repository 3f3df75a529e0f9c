package graphql

import (
	"context"
	"encoding/json"

	"github.com/aretw0/lattice/pkg/domain"
)

func (c *Client) FacilityTypes(ctx context.Context) ([]domain.CatalogEntry, error) {
	var out []domain.CatalogEntry
	if err := c.call(ctx, "getAllFacilityTypes", queryFacilityTypes, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ServiceLines(ctx context.Context) ([]domain.CatalogEntry, error) {
	var out []domain.CatalogEntry
	if err := c.call(ctx, "getServiceLines", queryServiceLines, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// mutationResult is what createScenario and updateScenario answer with.
type mutationResult struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) mutate(ctx context.Context, op, query string, input any) (domain.MutationResult, error) {
	raw, err := c.do(ctx, op, query, map[string]any{"input": input})
	if err != nil {
		return domain.MutationResult{}, err
	}

	var res mutationResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return domain.MutationResult{}, &domain.RemoteError{Op: op, Kind: domain.RemoteGeneric, Message: "malformed result", Err: err}
	}
	if res.Code >= 400 || res.Type == "error" {
		return domain.MutationResult{}, &domain.RemoteError{Op: op, Kind: domain.RemoteValidation, Message: res.Message, StatusCode: res.Code}
	}

	out := domain.MutationResult{Message: res.Message}
	if !isNull(res.Data) {
		var s domain.Scenario
		if err := json.Unmarshal(res.Data, &s); err == nil && s.ID != "" {
			out.Scenario = &s
		}
	}
	return out, nil
}

func (c *Client) CreateScenario(ctx context.Context, in domain.CreateScenarioInput) (domain.MutationResult, error) {
	return c.mutate(ctx, "createScenario", mutationCreateScenario, in)
}

func (c *Client) UpdateScenario(ctx context.Context, in domain.UpdateScenarioInput) (domain.MutationResult, error) {
	return c.mutate(ctx, "updateScenario", mutationUpdateScenario, in)
}

func (c *Client) UpdateTemplate(ctx context.Context, in domain.UpdateTemplateInput) (domain.UpdateTemplateResult, error) {
	raw, err := c.do(ctx, "updateTemplate", mutationUpdateTemplate, map[string]any{"input": in})
	if err != nil {
		return domain.UpdateTemplateResult{}, err
	}

	var res domain.UpdateTemplateResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return domain.UpdateTemplateResult{}, &domain.RemoteError{Op: "updateTemplate", Kind: domain.RemoteGeneric, Message: "malformed result", Err: err}
	}
	return res, nil
}

// scenarioByID is the shape of getScenarioById, which nests the name under scenario.
type scenarioByID struct {
	Scenario struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"scenario"`
	Version       string               `json:"version"`
	Versions      []string             `json:"versions"`
	Questionnaire domain.Questionnaire `json:"questionnaire"`
	Facilities    []string             `json:"facilities"`
	Services      []string             `json:"services"`
}

func (c *Client) GetScenario(ctx context.Context, id, version string) (domain.Scenario, error) {
	vars := map[string]any{"scenarioId": id}
	if version != "" {
		vars["version"] = version
	}

	raw, err := c.do(ctx, "getScenarioById", queryScenarioByID, vars)
	if err != nil {
		return domain.Scenario{}, err
	}

	var res scenarioByID
	if err := json.Unmarshal(raw, &res); err != nil {
		return domain.Scenario{}, &domain.RemoteError{Op: "getScenarioById", Kind: domain.RemoteGeneric, Message: "malformed scenario", Err: err}
	}

	s := domain.Scenario{
		ID:            res.Scenario.ID,
		Name:          res.Scenario.Name,
		Version:       res.Version,
		Versions:      res.Versions,
		Questionnaire: res.Questionnaire,
		Facilities:    res.Facilities,
		Services:      res.Services,
	}
	if s.ID == "" {
		s.ID = id
	}
	return s, nil
}
