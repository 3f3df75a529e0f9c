package lattice_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/editor"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestWorkspace_EditorSaveIsInstrumented(t *testing.T) {
	ctx := context.Background()
	api := memory.NewScenarioAPI(memory.WithCatalog(
		[]domain.CatalogEntry{{ID: "ft1", Name: "Hospital"}},
		[]domain.CatalogEntry{{ID: "sl1", Name: "Cardiology"}},
	))
	ws, err := lattice.New(lattice.WithScenarioAPI(api))
	require.NoError(t, err)

	e := ws.NewEditor()
	_, err = e.AddQuestion(ctx, editor.AddQuestionInput{Kind: editor.AddWithMetadata, Metadata: domain.MetadataInput{
		TemplateName:  "Intake",
		FacilityTypes: []string{"Hospital"},
		ServiceLines:  []string{"Cardiology"},
	}})
	require.NoError(t, err)
	_, err = e.CommitQuestion(domain.NodeData{Question: "Q"})
	require.NoError(t, err)
	_, err = e.Save(ctx)
	require.NoError(t, err)

	expected := `
# HELP lattice_remote_requests_total Total number of calls to the remote scenario service
# TYPE lattice_remote_requests_total counter
lattice_remote_requests_total{op="createScenario",outcome="success"} 1
lattice_remote_requests_total{op="getAllFacilityTypes",outcome="success"} 1
lattice_remote_requests_total{op="getServiceLines",outcome="success"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(ws.Metrics.Registry(), strings.NewReader(expected), "lattice_remote_requests_total"))
}

func TestWorkspace_SessionsShareStore(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewStore()
	ws, err := lattice.New(lattice.WithStore(kv))
	require.NoError(t, err)

	rec, err := ws.Sessions.Create(ctx, editor.Mode{})
	require.NoError(t, err)
	_, err = ws.Sessions.Update(ctx, rec.ID, func(_ context.Context, e *editor.Editor) error {
		_, err := e.AddQuestionAfter("", domain.NodeData{Question: "Q"})
		if err != nil {
			return err
		}
		_, err = e.SaveDraft(ctx, "From session", "")
		return err
	})
	require.NoError(t, err)

	list, err := ws.Drafts.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "From session", list[0].Name)

	keys, err := kv.List(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, keys, "templateDrafts")
	assert.Contains(t, keys, "session:"+rec.ID)
}

func TestWorkspace_Close(t *testing.T) {
	var order []string
	ws, err := lattice.New(
		lattice.WithCloser(closerFunc(func() error { order = append(order, "store"); return nil })),
		lattice.WithCloser(closerFunc(func() error { order = append(order, "client"); return errors.New("boom") })),
	)
	require.NoError(t, err)

	err = ws.Close()
	assert.ErrorContains(t, err, "boom")
	assert.Equal(t, []string{"client", "store"}, order)
}

func TestWorkspace_InvalidLimits(t *testing.T) {
	_, err := lattice.New(lattice.WithMaxInputSize(-1))
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	assert.NotEmpty(t, strings.TrimSpace(lattice.Version))
}
