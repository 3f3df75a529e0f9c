// Package mcp exposes questionnaire editing to agents over the Model Context Protocol.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/editor"
	"github.com/aretw0/lattice/pkg/graph"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"
)

// ResourceURI is the questionnaire document of the bound session.
const ResourceURI = "lattice://questionnaire"

// Server edits one persisted session through MCP tools.
type Server struct {
	ws        *lattice.Workspace
	sessionID string
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a server bound to sessionID. An empty id starts a new session.
func NewServer(ctx context.Context, ws *lattice.Workspace, sessionID string) (*Server, error) {
	if sessionID == "" {
		rec, err := ws.Sessions.Create(ctx, editor.Mode{})
		if err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
		sessionID = rec.ID
	} else if _, err := ws.Sessions.Load(ctx, sessionID); err != nil {
		return nil, err
	}

	s := &Server{
		ws:        ws,
		sessionID: sessionID,
		logger:    ws.Logger(),
		mcpServer: server.NewMCPServer("lattice-mcp", strings.TrimSpace(lattice.Version),
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
	}
	s.registerTools()
	s.registerResources()
	return s, nil
}

// SessionID returns the edited session.
func (s *Server) SessionID() string {
	return s.sessionID
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on addr using SSE until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type addQuestionArgs struct {
	Question     string   `mapstructure:"question"`
	QuestionType string   `mapstructure:"question_type"`
	Options      []string `mapstructure:"options"`
	IsRequired   bool     `mapstructure:"is_required"`
	AfterID      string   `mapstructure:"after_id"`
}

type updateNodeArgs struct {
	NodeID       string   `mapstructure:"node_id"`
	Question     *string  `mapstructure:"question"`
	QuestionType *string  `mapstructure:"question_type"`
	Options      []string `mapstructure:"options"`
	IsRequired   *bool    `mapstructure:"is_required"`
	SectionName  *string  `mapstructure:"section_name"`
	Weight       *float64 `mapstructure:"weight"`
}

type nodeArgs struct {
	NodeID string `mapstructure:"node_id"`
}

type connectArgs struct {
	Source       string `mapstructure:"source"`
	Target       string `mapstructure:"target"`
	SourceHandle string `mapstructure:"source_handle"`
}

type disconnectArgs struct {
	EdgeID string `mapstructure:"edge_id"`
}

type draftArgs struct {
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("add_question",
		mcp.WithDescription("Add a question below an existing one, or at the default position."),
		mcp.WithString("question", mcp.Required(), mcp.Description("Question text")),
		mcp.WithString("question_type", mcp.Description("Question type"),
			mcp.Enum("text-input", "multiple-choice", "checkbox", "radio", "select", "yes-no")),
		mcp.WithArray("options", mcp.Description("Answer options"), mcp.WithStringItems()),
		mcp.WithBoolean("is_required", mcp.Description("Whether an answer is required")),
		mcp.WithString("after_id", mcp.Description("Question to place the new one below")),
	), s.handleAddQuestion)

	s.mcpServer.AddTool(mcp.NewTool("add_section",
		mcp.WithDescription("Add a section node."),
	), s.handleAddSection)

	s.mcpServer.AddTool(mcp.NewTool("update_node",
		mcp.WithDescription("Update fields of a node. Changing an option relabels its edges."),
		mcp.WithString("node_id", mcp.Required()),
		mcp.WithString("question"),
		mcp.WithString("question_type"),
		mcp.WithArray("options", mcp.WithStringItems()),
		mcp.WithBoolean("is_required"),
		mcp.WithString("section_name"),
		mcp.WithNumber("weight"),
	), s.handleUpdateNode)

	s.mcpServer.AddTool(mcp.NewTool("delete_node",
		mcp.WithDescription("Delete a node and every edge touching it."),
		mcp.WithString("node_id", mcp.Required()),
	), s.handleDeleteNode)

	s.mcpServer.AddTool(mcp.NewTool("connect",
		mcp.WithDescription("Route an output handle of a question to another node."),
		mcp.WithString("source", mcp.Required()),
		mcp.WithString("target", mcp.Required()),
		mcp.WithString("source_handle", mcp.Description("option-<n>, yes, no, multi-all or text-output")),
	), s.handleConnect)

	s.mcpServer.AddTool(mcp.NewTool("disconnect",
		mcp.WithDescription("Remove an edge."),
		mcp.WithString("edge_id", mcp.Required()),
	), s.handleDisconnect)

	s.mcpServer.AddTool(mcp.NewTool("resolve_connections",
		mcp.WithDescription("List the outputs of a node with their navigation."),
		mcp.WithString("node_id", mcp.Required()),
	), s.handleResolveConnections)

	s.mcpServer.AddTool(mcp.NewTool("export",
		mcp.WithDescription("Export the questionnaire.json document."),
	), s.handleExport)

	s.mcpServer.AddTool(mcp.NewTool("validate",
		mcp.WithDescription("Check the questionnaire for structural problems."),
	), s.handleValidate)

	s.mcpServer.AddTool(mcp.NewTool("save_draft",
		mcp.WithDescription("Save the questionnaire as a local draft."),
		mcp.WithString("name"),
		mcp.WithString("description"),
	), s.handleSaveDraft)
}

func bind(req mcp.CallToolRequest, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      false,
	})
	if err != nil {
		return err
	}
	return dec.Decode(req.GetArguments())
}

// run applies fn to the session and reports domain errors as tool errors.
func (s *Server) run(ctx context.Context, tool string, fn func(context.Context, *editor.Editor) (any, error)) (*mcp.CallToolResult, error) {
	var out any
	_, err := s.ws.Sessions.Update(ctx, s.sessionID, func(ctx context.Context, e *editor.Editor) error {
		var err error
		out, err = fn(ctx, e)
		return err
	})
	return s.result(tool, out, err)
}

func (s *Server) view(ctx context.Context, tool string, fn func(context.Context, *editor.Editor) (any, error)) (*mcp.CallToolResult, error) {
	var out any
	err := s.ws.Sessions.View(ctx, s.sessionID, func(ctx context.Context, e *editor.Editor) error {
		var err error
		out, err = fn(ctx, e)
		return err
	})
	return s.result(tool, out, err)
}

func (s *Server) result(tool string, out any, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, err
		}
		s.logger.Warn("MCP tool rejected", "tool", tool, "err", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	if text, ok := out.(string); ok {
		return mcp.NewToolResultText(text), nil
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s result: %w", tool, err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleAddQuestion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args addQuestionArgs
	if err := bind(req, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.run(ctx, "add_question", func(_ context.Context, e *editor.Editor) (any, error) {
		id, err := e.AddQuestionAfter(args.AfterID, domain.NodeData{
			Question:     args.Question,
			QuestionType: domain.QuestionType(args.QuestionType),
			Options:      args.Options,
			IsRequired:   args.IsRequired,
		})
		return map[string]string{"id": id}, err
	})
}

func (s *Server) handleAddSection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.run(ctx, "add_section", func(_ context.Context, e *editor.Editor) (any, error) {
		id, err := e.AddSection()
		return map[string]string{"id": id}, err
	})
}

func (s *Server) handleUpdateNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args updateNodeArgs
	if err := bind(req, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	patch := domain.NodePatch{
		Question:    args.Question,
		Options:     args.Options,
		IsRequired:  args.IsRequired,
		SectionName: args.SectionName,
		Weight:      args.Weight,
	}
	if args.QuestionType != nil {
		qt := domain.QuestionType(*args.QuestionType)
		patch.QuestionType = &qt
	}
	return s.run(ctx, "update_node", func(_ context.Context, e *editor.Editor) (any, error) {
		if err := e.UpdateNode(args.NodeID, patch); err != nil {
			return nil, err
		}
		n, _ := e.Graph().Node(args.NodeID)
		return n, nil
	})
}

func (s *Server) handleDeleteNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args nodeArgs
	if err := bind(req, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.run(ctx, "delete_node", func(_ context.Context, e *editor.Editor) (any, error) {
		return fmt.Sprintf("deleted %s", args.NodeID), e.DeleteNode(args.NodeID)
	})
}

func (s *Server) handleConnect(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args connectArgs
	if err := bind(req, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.run(ctx, "connect", func(_ context.Context, e *editor.Editor) (any, error) {
		return e.Connect(graph.Link{Source: args.Source, Target: args.Target, SourceHandle: args.SourceHandle})
	})
}

func (s *Server) handleDisconnect(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args disconnectArgs
	if err := bind(req, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.run(ctx, "disconnect", func(_ context.Context, e *editor.Editor) (any, error) {
		return fmt.Sprintf("removed %s", args.EdgeID), e.Disconnect(args.EdgeID)
	})
}

// connectionView is a connection with its table-view navigation text.
type connectionView struct {
	graph.Connection
	Navigation string `json:"navigation"`
}

func (s *Server) handleResolveConnections(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args nodeArgs
	if err := bind(req, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.view(ctx, "resolve_connections", func(_ context.Context, e *editor.Editor) (any, error) {
		conns, err := e.Connections(args.NodeID)
		if err != nil {
			return nil, err
		}
		out := make([]connectionView, len(conns))
		for i, c := range conns {
			out[i] = connectionView{Connection: c, Navigation: c.Navigation()}
		}
		return out, nil
	})
}

func (s *Server) handleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.view(ctx, "export", func(_ context.Context, e *editor.Editor) (any, error) {
		data, err := e.Export()
		return string(data), err
	})
}

func (s *Server) handleValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.view(ctx, "validate", func(_ context.Context, e *editor.Editor) (any, error) {
		report := e.Validate()
		return map[string]any{
			"valid":    report.Err() == nil,
			"errors":   append([]string{}, report.Errors...),
			"warnings": append([]string{}, report.Warnings...),
		}, nil
	})
}

func (s *Server) handleSaveDraft(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args draftArgs
	if err := bind(req, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.run(ctx, "save_draft", func(ctx context.Context, e *editor.Editor) (any, error) {
		return e.SaveDraft(ctx, args.Name, args.Description)
	})
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(ResourceURI, "Current Questionnaire",
		mcp.WithResourceDescription("The questionnaire.json document of the edited session"),
		mcp.WithMIMEType("application/json"),
	), s.readQuestionnaire)
}

func (s *Server) readQuestionnaire(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	var data []byte
	err := s.ws.Sessions.View(ctx, s.sessionID, func(_ context.Context, e *editor.Editor) error {
		var err error
		data, err = e.Export()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to export questionnaire: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ResourceURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
