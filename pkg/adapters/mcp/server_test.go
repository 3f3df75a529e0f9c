package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	ws, err := lattice.New()
	require.NoError(t, err)
	s, err := NewServer(context.Background(), ws, "")
	require.NoError(t, err)
	require.NotEmpty(t, s.SessionID())
	return s
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return tc.Text
}

func addQuestion(t *testing.T, s *Server, args map[string]any) string {
	t.Helper()
	res, err := s.handleAddQuestion(context.Background(), call(args))
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))
	var out map[string]string
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &out))
	return out["id"]
}

func TestServer_EditingFlow(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)

	q1 := addQuestion(t, s, map[string]any{"question": "Smoker?", "question_type": "yes-no", "is_required": true})
	q2 := addQuestion(t, s, map[string]any{"question": "How many?", "after_id": q1})

	res, err := s.handleConnect(ctx, call(map[string]any{"source": q1, "target": q2, "source_handle": "yes"}))
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))
	var edge domain.Edge
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &edge))
	assert.Equal(t, q1, edge.Source)
	assert.Equal(t, q2, edge.Target)

	res, err = s.handleResolveConnections(ctx, call(map[string]any{"node_id": q1}))
	require.NoError(t, err)
	var conns []connectionView
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &conns))
	require.Len(t, conns, 2)
	byHandle := map[string]string{}
	for _, c := range conns {
		byHandle[c.Handle] = c.Navigation
	}
	assert.Equal(t, "Move to Q2", byHandle["yes"])

	res, err = s.handleUpdateNode(ctx, call(map[string]any{"node_id": q2, "question": "How many per day?"}))
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))
	assert.Contains(t, text(t, res), "How many per day?")

	res, err = s.handleExport(ctx, call(nil))
	require.NoError(t, err)
	var doc domain.Document
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &doc))
	assert.Len(t, doc.Nodes, 2)
	assert.Len(t, doc.Edges, 1)

	res, err = s.handleDisconnect(ctx, call(map[string]any{"edge_id": edge.ID}))
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))

	res, err = s.handleDeleteNode(ctx, call(map[string]any{"node_id": q2}))
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))

	contents, err := s.readQuestionnaire(ctx, mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)
	tc := contents[0].(mcp.TextResourceContents)
	assert.Equal(t, ResourceURI, tc.URI)
	require.NoError(t, json.Unmarshal([]byte(tc.Text), &doc))
	assert.Len(t, doc.Nodes, 1)
}

func TestServer_ToolErrors(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)

	res, err := s.handleAddQuestion(ctx, call(map[string]any{"question": "   "}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.handleDeleteNode(ctx, call(map[string]any{"node_id": "missing"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.handleSaveDraft(ctx, call(map[string]any{"name": "Empty"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), domain.ErrNoQuestions.Error())
}

func TestServer_AddSectionAndValidate(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)

	res, err := s.handleAddSection(ctx, call(nil))
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))

	addQuestion(t, s, map[string]any{"question": "Pick", "question_type": "radio", "options": []any{"A", "B"}})

	res, err = s.handleValidate(ctx, call(nil))
	require.NoError(t, err)
	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &report))
	assert.Contains(t, report, "valid")
	assert.Contains(t, report, "warnings")
}

func TestNewServer_UnknownSession(t *testing.T) {
	ws, err := lattice.New()
	require.NoError(t, err)
	_, err = NewServer(context.Background(), ws, "nope")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestServer_ResumesSession(t *testing.T) {
	ctx := context.Background()
	ws, err := lattice.New()
	require.NoError(t, err)

	first, err := NewServer(ctx, ws, "")
	require.NoError(t, err)
	addQuestion(t, first, map[string]any{"question": "Kept?"})

	second, err := NewServer(ctx, ws, first.SessionID())
	require.NoError(t, err)
	res, err := second.handleExport(ctx, call(nil))
	require.NoError(t, err)
	assert.Contains(t, text(t, res), "Kept?")
}

func TestServer_ListsTools(t *testing.T) {
	s := newTestServer(t)
	msg := s.mcpServer.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	for _, name := range []string{"add_question", "add_section", "update_node", "delete_node", "connect", "disconnect", "resolve_connections", "export"} {
		assert.Contains(t, string(data), `"`+name+`"`)
	}
}
