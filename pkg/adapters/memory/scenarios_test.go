package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.ScenarioAPI = (*memory.ScenarioAPI)(nil)

func TestScenarioAPI_Versions(t *testing.T) {
	ctx := context.Background()
	api := memory.NewScenarioAPI()

	created, err := api.CreateScenario(ctx, domain.CreateScenarioInput{
		Name: "Intake",
		Questionnaire: domain.Questionnaire{
			Nodes: []domain.Node{{ID: "1", Type: domain.KindQuestion}},
		},
		Facilities: []string{"f1"},
	})
	require.NoError(t, err)
	require.NotNil(t, created.Scenario)
	id := created.Scenario.ID
	assert.NotEmpty(t, id)

	_, err = api.UpdateScenario(ctx, domain.UpdateScenarioInput{
		ScenarioID: id,
		Questionnaire: domain.Questionnaire{
			Nodes: []domain.Node{{ID: "1"}, {ID: "2"}},
		},
	})
	require.NoError(t, err)

	latest, err := api.GetScenario(ctx, id, "")
	require.NoError(t, err)
	assert.Equal(t, "V2", latest.Version)
	assert.Equal(t, []string{"V1", "V2"}, latest.Versions)
	assert.Len(t, latest.Questionnaire.Nodes, 2)
	assert.Equal(t, []string{"f1"}, latest.Facilities, "graph updates keep metadata")

	v1, err := api.GetScenario(ctx, id, "V1")
	require.NoError(t, err)
	assert.Len(t, v1.Questionnaire.Nodes, 1)

	_, err = api.GetScenario(ctx, id, "V9")
	var remote *domain.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, domain.RemoteValidation, remote.Kind)
}

func TestScenarioAPI_FailNext(t *testing.T) {
	ctx := context.Background()
	api := memory.NewScenarioAPI(memory.WithCatalog(
		[]domain.CatalogEntry{{ID: "f1", Name: "Clinic"}}, nil,
	))
	boom := &domain.RemoteError{Kind: domain.RemoteNetwork, Err: errors.New("connection refused")}
	api.FailNext("getAllFacilityTypes", boom)

	_, err := api.FacilityTypes(ctx)
	assert.ErrorIs(t, err, boom)

	types, err := api.FacilityTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Clinic", types[0].Name)
	assert.Equal(t, 2, api.Calls("getAllFacilityTypes"))
}

func TestTemplates(t *testing.T) {
	ctx := context.Background()
	src, err := memory.NewTemplates(
		domain.Draft{ID: "b", Name: "Second"},
		domain.Draft{ID: "a", Name: "First", Nodes: []domain.Node{{ID: "1"}}},
	)
	require.NoError(t, err)

	list, err := src.ListTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)

	_, err = src.GetTemplate(ctx, "zzz")
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)

	_, err = memory.NewTemplates(domain.Draft{})
	assert.Error(t, err)
}
