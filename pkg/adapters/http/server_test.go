package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/editor"
	"github.com/aretw0/lattice/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	t       *testing.T
	handler http.Handler
	api     *memory.ScenarioAPI
	ws      *lattice.Workspace
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	api := memory.NewScenarioAPI(
		memory.WithCatalog(
			[]domain.CatalogEntry{{ID: "ft1", Name: "Hospital"}},
			[]domain.CatalogEntry{{ID: "sl1", Name: "Cardiology"}},
		),
		memory.WithScenario(domain.Scenario{
			ID:      "sc-1",
			Name:    "Published",
			Version: "V1",
			Questionnaire: domain.Questionnaire{
				Nodes: []domain.Node{{ID: "1", Type: domain.KindQuestion, Data: domain.NodeData{Question: "Loaded?"}}},
				Edges: []domain.Edge{},
			},
		}),
	)
	ws, err := lattice.New(lattice.WithScenarioAPI(api))
	require.NoError(t, err)
	h, err := NewHandler(ws)
	require.NoError(t, err)
	return &fixture{t: t, handler: h, api: api, ws: ws}
}

func (f *fixture) do(method, path string, body any) *httptest.ResponseRecorder {
	f.t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(f.t, err)
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func (f *fixture) session() string {
	f.t.Helper()
	w := f.do("POST", "/sessions", nil)
	require.Equal(f.t, http.StatusCreated, w.Code, w.Body.String())
	var rec session.Record
	require.NoError(f.t, json.Unmarshal(w.Body.Bytes(), &rec))
	return rec.ID
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func intakeMetadata() map[string]any {
	return map[string]any{
		"templateName":  "Intake",
		"facilityTypes": []string{"Hospital"},
		"serviceLines":  []string{"Cardiology"},
	}
}

func TestInfoHealthAndOpenAPI(t *testing.T) {
	f := newFixture(t)

	w := f.do("GET", "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	info := decodeBody[map[string]string](t, f.do("GET", "/info", nil))
	assert.Equal(t, "lattice-http", info["app"])
	assert.Equal(t, "0.1.0", info["api_version"])
	assert.Equal(t, strings.TrimSpace(lattice.Version), info["version"])

	w = f.do("GET", "/openapi.yaml", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "openapi: 3.0.3")

	w = f.do("GET", "/swagger", nil)
	assert.Contains(t, w.Body.String(), "SwaggerUIBundle")
}

func TestEditingFlow(t *testing.T) {
	f := newFixture(t)
	id := f.session()
	base := "/sessions/" + id

	// Without metadata the start dialog has to be shown again.
	w := f.do("POST", base+"/questions", map[string]any{"kind": "trigger"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.True(t, decodeBody[errorBody](t, w).ReopenDialog)

	w = f.do("POST", base+"/questions", map[string]any{"kind": "metadata", "metadata": intakeMetadata()})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, domain.EditingNodeID, decodeBody[createdBody](t, w).ID)

	w = f.do("POST", base+"/questions/editing", map[string]any{"question": "Age?", "questionType": "yes-no", "options": []string{"Yes", "No"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := decodeBody[createdBody](t, w).ID
	assert.Equal(t, "1", first)

	w = f.do("POST", base+"/questions/after", map[string]any{"afterId": first, "data": map[string]any{"question": "Why?"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	second := decodeBody[createdBody](t, w).ID

	w = f.do("PUT", base+"/nodes/"+first+"/routes", map[string]any{"handle": "yes", "target": second})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	conns := decodeBody[[]connectionBody](t, f.do("GET", base+"/nodes/"+first+"/connections", nil))
	require.Len(t, conns, 2)
	assert.True(t, conns[0].Connected)
	assert.Equal(t, "Move to Q2", conns[0].Navigation)
	assert.Equal(t, "Refer to Consultant", conns[1].Navigation)

	w = f.do("PATCH", base+"/nodes/"+second, map[string]any{"question": "Why not?"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rec := decodeBody[session.Record](t, w)
	n, ok := findNode(rec.State.Nodes, second)
	require.True(t, ok)
	assert.Equal(t, "Why not?", n.Data.Question)

	report := decodeBody[validationBody](t, f.do("GET", base+"/validation", nil))
	assert.True(t, report.Valid, report.Errors)

	w = f.do("POST", base+"/save", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decodeBody[editor.SaveResult](t, w)
	assert.Equal(t, editor.OutcomeSuccess, res.Outcome)
	require.NotNil(t, f.api.LastCreate())
	assert.Equal(t, []string{"ft1"}, f.api.LastCreate().Facilities)

	w = f.do("DELETE", base+"/nodes/"+second, nil)
	require.Equal(t, http.StatusOK, w.Code)
	rec = decodeBody[session.Record](t, w)
	assert.Empty(t, rec.State.Edges)
}

func TestRequestValidation(t *testing.T) {
	f := newFixture(t)
	base := "/sessions/" + f.session()

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"unknown kind", "POST", base + "/questions", map[string]any{"kind": "other"}, http.StatusBadRequest},
		{"bad question type", "POST", base + "/questions/after", map[string]any{"data": map[string]any{"questionType": "slider"}}, http.StatusBadRequest},
		{"edge without target", "POST", base + "/edges", map[string]any{"source": "1"}, http.StatusBadRequest},
		{"option index", "DELETE", base + "/nodes/1/options/abc", nil, http.StatusBadRequest},
		{"events without session", "GET", "/events", nil, http.StatusBadRequest},
		{"missing session", "GET", "/sessions/nope", nil, http.StatusNotFound},
		{"missing node", "DELETE", base + "/nodes/99", nil, http.StatusNotFound},
		{"metadata without name", "PUT", base + "/metadata", map[string]any{"templateName": "  "}, http.StatusUnprocessableEntity},
		{"save without questions", "POST", base + "/save", nil, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.NotEmpty(t, decodeBody[errorBody](t, w).Error)
		})
	}
}

func TestImportExport(t *testing.T) {
	f := newFixture(t)
	base := "/sessions/" + f.session()

	doc := `{"nodes":[{"id":"3","type":"questionNode","position":{"x":0,"y":0},"data":{"question":"A"}},
		{"id":"7","type":"questionNode","position":{"x":0,"y":200},"data":{"question":"B"}}],"edges":[]}`
	w := f.do("PUT", base+"/document", doc)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 8, decodeBody[session.Record](t, w).State.NextID)

	w = f.do("PUT", base+"/document", `{"nodes":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do("GET", base+"/document", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "questionnaire.json")
	exported := decodeBody[domain.Document](t, w)
	assert.Len(t, exported.Nodes, 2)
}

func TestDraftsAndScenarios(t *testing.T) {
	f := newFixture(t)
	base := "/sessions/" + f.session()

	w := f.do("POST", base+"/questions/after", map[string]any{"data": map[string]any{"question": "Q"}})
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do("POST", base+"/drafts", map[string]any{"name": "Mine"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	draft := decodeBody[domain.Draft](t, w)

	list := decodeBody[[]domain.Draft](t, f.do("GET", "/drafts", nil))
	require.Len(t, list, 1)
	assert.Equal(t, "Mine", list[0].Name)

	other := "/sessions/" + f.session()
	w = f.do("POST", other+"/drafts/"+draft.ID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decodeBody[session.Record](t, w).State.Nodes, 1)

	w = f.do("DELETE", "/drafts/"+draft.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = f.do("DELETE", "/drafts/"+draft.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do("PUT", other+"/scenario", map[string]any{"scenarioId": "sc-1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rec := decodeBody[session.Record](t, w)
	assert.Equal(t, "sc-1", rec.State.Mode.ScenarioID)
	assert.Equal(t, "Published", rec.State.Metadata.TemplateName)

	w = f.do("PUT", other+"/scenario", map[string]any{"scenarioId": "missing"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestCreateSession_ViewScenario(t *testing.T) {
	f := newFixture(t)

	w := f.do("POST", "/sessions", map[string]any{"scenarioId": "sc-1", "view": true})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	rec := decodeBody[session.Record](t, w)
	assert.Len(t, rec.State.Nodes, 1)

	w = f.do("POST", "/sessions/"+rec.ID+"/sections", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do("POST", "/sessions", map[string]any{"scenarioId": "missing"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	ids := decodeBody[[]string](t, f.do("GET", "/sessions", nil))
	assert.Equal(t, []string{rec.ID}, ids)
}

func TestSaveFailure(t *testing.T) {
	f := newFixture(t)
	base := "/sessions/" + f.session()
	require.Equal(t, http.StatusCreated, f.do("POST", base+"/questions", map[string]any{"kind": "metadata", "metadata": intakeMetadata()}).Code)
	require.Equal(t, http.StatusCreated, f.do("POST", base+"/questions/editing", map[string]any{"question": "Q"}).Code)

	f.api.FailNext("createScenario", &domain.RemoteError{Kind: domain.RemoteNetwork, Message: "dial tcp"})
	w := f.do("POST", base+"/save", nil)
	require.Equal(t, http.StatusBadGateway, w.Code, w.Body.String())
	res := decodeBody[editor.SaveResult](t, w)
	assert.Equal(t, domain.NetworkErrorMessage, res.Message)

	rec := decodeBody[session.Record](t, f.do("GET", base, nil))
	assert.False(t, rec.Saving)
}

func TestCatalogAndMetrics(t *testing.T) {
	f := newFixture(t)

	cat := decodeBody[editor.Catalog](t, f.do("GET", "/catalog", nil))
	require.Len(t, cat.FacilityTypes, 1)
	assert.Equal(t, "Hospital", cat.FacilityTypes[0].Name)

	w := f.do("GET", "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `lattice_remote_requests_total{op="getAllFacilityTypes",outcome="success"} 1`)
}

func TestCORS(t *testing.T) {
	f := newFixture(t)
	w := f.do("OPTIONS", "/sessions", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSubscribeEvents_Session(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.handler)
	defer srv.Close()
	id := f.session()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/events?session_id="+id+"&watch=nodes", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	next := func() string {
		for lines.Scan() {
			if l := lines.Text(); strings.HasPrefix(l, "data: ") {
				return strings.TrimPrefix(l, "data: ")
			}
		}
		return ""
	}
	require.Equal(t, "connected", next())

	w := f.do("POST", "/sessions/"+id+"/sections", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var diff domain.GraphDiff
	require.NoError(t, json.Unmarshal([]byte(next()), &diff))
	assert.Equal(t, id, diff.SessionID)
	require.Len(t, diff.AddedNodes, 1)
	assert.Equal(t, domain.KindSection, diff.AddedNodes[0].Type)
}

func TestSubscribeEvents_UnknownSession(t *testing.T) {
	f := newFixture(t)
	w := f.do("GET", "/events?session_id=nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStreamManager(t *testing.T) {
	sm := NewStreamManager(logging.NewNop())
	ch, cancel := sm.Subscribe("s")
	assert.Equal(t, 1, sm.Subscribers("s"))

	for i := 0; i < 12; i++ {
		sm.Broadcast("s", "m")
	}
	assert.Len(t, ch, 10)

	cancel()
	cancel()
	assert.Equal(t, 0, sm.Subscribers("s"))
}

func TestWatched(t *testing.T) {
	nodes := `{"session_id":"s","added_nodes":[{"id":"1"}]}`
	edges := `{"session_id":"s","removed_edges":["e1"]}`
	assert.True(t, watched(nodes, []string{"nodes"}))
	assert.False(t, watched(nodes, []string{"edges"}))
	assert.True(t, watched(edges, []string{"nodes", "edges"}))
	assert.True(t, watched("not json", []string{"nodes"}))
}

func findNode(nodes []domain.Node, id string) (domain.Node, bool) {
	for _, n := range nodes {
		if n.ID == id {
			return n, true
		}
	}
	return domain.Node{}, false
}
