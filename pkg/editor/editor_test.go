package editor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/document"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/editor"
	"github.com/aretw0/lattice/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	facilityTypes = []domain.CatalogEntry{{ID: "ft1", Name: "Hospital"}, {ID: "ft2", Name: "Clinic"}}
	serviceLines  = []domain.CatalogEntry{{ID: "sl1", Name: "Cardiology"}, {ID: "sl2", Name: "Oncology"}}
)

func intake() domain.MetadataInput {
	return domain.MetadataInput{
		TemplateName:  "Intake",
		FacilityTypes: []string{"Hospital"},
		ServiceLines:  []string{"Cardiology"},
	}
}

func newEditor(t *testing.T, opts ...editor.Option) (*editor.Editor, *memory.Store) {
	t.Helper()
	kv := memory.NewStore()
	return editor.New(kv, opts...), kv
}

func TestAddQuestion_RequiresMetadata(t *testing.T) {
	e, _ := newEditor(t)

	_, err := e.AddQuestion(context.Background(), editor.AddQuestionInput{Kind: editor.AddFromTrigger})

	var pre *domain.PreconditionError
	require.ErrorAs(t, err, &pre)
	assert.ErrorIs(t, err, domain.ErrMetadataRequired)
	assert.True(t, pre.ReopenDialog)
	assert.Empty(t, e.Graph().Nodes)
}

func TestAddQuestion_EditModeSkipsMetadata(t *testing.T) {
	e, _ := newEditor(t, editor.WithMode(editor.Mode{ScenarioID: "s1"}))

	id, err := e.AddQuestion(context.Background(), editor.AddQuestionInput{})
	require.NoError(t, err)
	assert.Equal(t, domain.EditingNodeID, id)
}

func TestAddQuestion_WithMetadataOpensEditingNode(t *testing.T) {
	ctx := context.Background()
	e, kv := newEditor(t)

	id, err := e.AddQuestion(ctx, editor.AddQuestionInput{Kind: editor.AddWithMetadata, Metadata: intake()})
	require.NoError(t, err)
	assert.Equal(t, domain.EditingNodeID, id)
	assert.True(t, e.StartCompleted())

	meta, ok := e.Metadata()
	require.True(t, ok)
	assert.Equal(t, "Intake", meta.TemplateName)
	assert.Equal(t, []string{"Cardiology"}, meta.FacilityServices)

	n, ok := e.Graph().Node(domain.EditingNodeID)
	require.True(t, ok)
	assert.Equal(t, domain.KindEditingQuestion, n.Type)
	assert.Equal(t, domain.Position{X: 400, Y: 143}, n.Position)
	assert.Equal(t, domain.DefaultOptions(), n.Data.Options)
	assert.True(t, n.Data.IsNewQuestion)

	backup, err := kv.Get(ctx, editor.DefaultMetadataKey)
	require.NoError(t, err)
	assert.Contains(t, string(backup), `"templateName":"Intake"`)
}

func TestAddQuestion_BlankNameRejected(t *testing.T) {
	e, _ := newEditor(t)

	in := intake()
	in.TemplateName = "   "
	_, err := e.AddQuestion(context.Background(), editor.AddQuestionInput{Kind: editor.AddWithMetadata, Metadata: in})
	assert.True(t, domain.IsValidation(err))
	_, ok := e.Metadata()
	assert.False(t, ok)
}

func TestCommitQuestion_ReplacesEditingNode(t *testing.T) {
	ctx := context.Background()
	e, _ := newEditor(t)
	_, err := e.AddQuestion(ctx, editor.AddQuestionInput{Kind: editor.AddWithMetadata, Metadata: intake()})
	require.NoError(t, err)

	id, err := e.CommitQuestion(domain.NodeData{Question: "Name?", QuestionType: domain.QuestionRadio})
	require.NoError(t, err)
	assert.Equal(t, "1", id)

	snap := e.Graph()
	require.Len(t, snap.Nodes, 1)
	n := snap.Nodes[0]
	assert.Equal(t, domain.KindQuestion, n.Type)
	assert.Equal(t, domain.Position{X: 450, Y: 193}, n.Position)
	assert.Equal(t, domain.DefaultOptions(), n.Data.Options)
	assert.False(t, n.Data.IsNewQuestion)
}

func TestCommitQuestion_Validation(t *testing.T) {
	e, _ := newEditor(t)

	_, err := e.CommitQuestion(domain.NodeData{Question: "  "})
	assert.True(t, domain.IsValidation(err))

	_, err = e.CommitQuestion(domain.NodeData{Question: "Q", QuestionType: "slider"})
	assert.True(t, domain.IsValidation(err))

	_, err = e.CommitQuestion(domain.NodeData{Question: "bad\xffbyte"})
	assert.True(t, domain.IsValidation(err))

	id, err := e.CommitQuestion(domain.NodeData{Question: "clean\x00ed"})
	require.NoError(t, err)
	n, _ := e.Graph().Node(id)
	assert.Equal(t, "cleaned", n.Data.Question)
}

func TestCommitQuestion_InputTooLarge(t *testing.T) {
	e, _ := newEditor(t, editor.WithMaxInputSize(8))

	_, err := e.CommitQuestion(domain.NodeData{Question: "far too long"})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "question", ve.Field)
}

func TestCancelQuestion(t *testing.T) {
	e, _ := newEditor(t, editor.WithMode(editor.Mode{ScenarioID: "s1"}))
	_, err := e.AddQuestion(context.Background(), editor.AddQuestionInput{})
	require.NoError(t, err)

	require.NoError(t, e.CancelQuestion())
	assert.Empty(t, e.Graph().Nodes)
	assert.NoError(t, e.CancelQuestion(), "cancelling twice is harmless")
}

func TestAddQuestionAfter(t *testing.T) {
	e, _ := newEditor(t)

	first, err := e.AddQuestionAfter("", domain.NodeData{Question: "First"})
	require.NoError(t, err)
	second, err := e.AddQuestionAfter(first, domain.NodeData{Question: "Second", QuestionType: domain.QuestionYesNo})
	require.NoError(t, err)

	snap := e.Graph()
	a, _ := snap.Node(first)
	b, _ := snap.Node(second)
	assert.Equal(t, domain.Position{X: 100, Y: 100}, a.Position)
	assert.Equal(t, domain.Position{X: 100, Y: 300}, b.Position)
	assert.Empty(t, b.Data.Options)
}

func TestViewModeIsReadOnly(t *testing.T) {
	ctx := context.Background()
	api := memory.NewScenarioAPI(memory.WithScenario(domain.Scenario{ID: "s1", Name: "Intake"}))
	e, _ := newEditor(t, editor.WithScenarioAPI(api), editor.WithMode(editor.Mode{ScenarioID: "s1", View: true}))

	_, err := e.LoadScenario(ctx, "s1", "")
	require.NoError(t, err, "view mode can still load")

	_, err = e.AddQuestion(ctx, editor.AddQuestionInput{})
	assert.ErrorIs(t, err, domain.ErrViewOnly)
	_, err = e.AddSection()
	assert.ErrorIs(t, err, domain.ErrViewOnly)
	assert.ErrorIs(t, e.ClearAll(), domain.ErrViewOnly)
	_, err = e.Save(ctx)
	assert.ErrorIs(t, err, domain.ErrViewOnly)
	assert.ErrorIs(t, e.Import([]byte(`{"nodes":[],"edges":[]}`)), domain.ErrViewOnly)
}

func TestConnectAndResolve(t *testing.T) {
	e, _ := newEditor(t)
	q1, err := e.AddQuestionAfter("", domain.NodeData{Question: "Pick", QuestionType: domain.QuestionRadio, Options: []string{"A", "B"}})
	require.NoError(t, err)
	q2, err := e.AddQuestionAfter(q1, domain.NodeData{Question: "Next"})
	require.NoError(t, err)

	edge, err := e.Connect(graph.Link{Source: q1, Target: q2, SourceHandle: domain.OptionHandle(1)})
	require.NoError(t, err)
	assert.Equal(t, "B", edge.Label)

	conns, err := e.Connections(q1)
	require.NoError(t, err)
	require.Len(t, conns, 2)
	assert.Equal(t, graph.NavigateDefault, conns[0].Navigation())
	assert.Equal(t, graph.MoveTo(2), conns[1].Navigation())

	require.NoError(t, e.Disconnect(edge.ID))
	assert.Empty(t, e.Graph().Edges)
}

func TestImportExport(t *testing.T) {
	e, _ := newEditor(t)
	_, err := e.AddQuestionAfter("", domain.NodeData{Question: "Q"})
	require.NoError(t, err)

	data, err := e.Export()
	require.NoError(t, err)

	other, _ := newEditor(t)
	require.NoError(t, other.Import(data))
	assert.Equal(t, e.Graph().Document(), other.Graph().Document())

	err = other.Import([]byte(`{"nodes":[]}`))
	assert.ErrorIs(t, err, domain.ErrInvalidFormat)
	assert.Len(t, other.Graph().Nodes, 1, "failed import leaves the graph")

	doc, err := document.Decode(data)
	require.NoError(t, err)
	assert.Len(t, doc.Nodes, 1)
}

func TestState_RoundTrip(t *testing.T) {
	ctx := context.Background()
	e, _ := newEditor(t)
	_, err := e.AddQuestion(ctx, editor.AddQuestionInput{Kind: editor.AddWithMetadata, Metadata: intake()})
	require.NoError(t, err)
	_, err = e.CommitQuestion(domain.NodeData{Question: "Q"})
	require.NoError(t, err)

	state := e.State()

	restored, _ := newEditor(t)
	restored.Restore(state)
	assert.Equal(t, e.Graph().Document(), restored.Graph().Document())
	assert.True(t, restored.StartCompleted())
	meta, ok := restored.Metadata()
	require.True(t, ok)
	assert.Equal(t, "Intake", meta.TemplateName)

	id, err := restored.AddQuestionAfter("", domain.NodeData{Question: "Next"})
	require.NoError(t, err)
	assert.Equal(t, "2", id, "id counter survives restore")
}

func TestNavigateAway_ClearsSession(t *testing.T) {
	ctx := context.Background()
	e, kv := newEditor(t)
	_, err := e.AddQuestion(ctx, editor.AddQuestionInput{Kind: editor.AddWithMetadata, Metadata: intake()})
	require.NoError(t, err)

	require.NoError(t, e.NavigateAway(ctx))

	assert.Empty(t, e.Graph().Nodes)
	assert.False(t, e.StartCompleted())
	_, ok := e.Metadata()
	assert.False(t, ok)
	_, err = kv.Get(ctx, editor.DefaultMetadataKey)
	assert.True(t, errors.Is(err, domain.ErrKeyNotFound))
}

func TestRestoreMetadata_FromBackup(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewStore()
	first := editor.New(kv)
	_, err := first.AddQuestion(ctx, editor.AddQuestionInput{Kind: editor.AddWithMetadata, Metadata: intake()})
	require.NoError(t, err)

	second := editor.New(kv)
	ok, err := second.RestoreMetadata(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	meta, _ := second.Metadata()
	assert.Equal(t, "Intake", meta.TemplateName)
}

func TestHooks_ReportMutations(t *testing.T) {
	var ops []string
	e, _ := newEditor(t, editor.WithHooks(domain.Hooks{
		OnMutation: func(_ context.Context, ev *domain.MutationEvent) { ops = append(ops, ev.Op) },
	}))

	id, err := e.AddSection()
	require.NoError(t, err)
	require.NoError(t, e.DeleteNode(id))

	assert.Equal(t, []string{graph.OpAddNode, graph.OpDeleteNode}, ops)
}
