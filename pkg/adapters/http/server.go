// Package http serves lattice editor sessions as a JSON API.
package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/session"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server exposes a workspace's sessions over HTTP.
type Server struct {
	ws      *lattice.Workspace
	Streams *StreamManager
	spec    *openapi3.T
	logger  *slog.Logger
}

// Option configures the handler.
type Option func(*Server)

// WithLogger sets the request logger. The workspace logger is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithStreams shares a stream manager, e.g. with another transport.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// NewServer creates the server without routing.
func NewServer(ws *lattice.Workspace, opts ...Option) (*Server, error) {
	spec, err := LoadSpec()
	if err != nil {
		return nil, err
	}
	s := &Server{ws: ws, spec: spec, logger: ws.Logger()}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.logger)
	}
	return s, nil
}

// NewHandler creates a new HTTP handler for the workspace.
func NewHandler(ws *lattice.Workspace, opts ...Option) (http.Handler, error) {
	s, err := NewServer(ws, opts...)
	if err != nil {
		return nil, err
	}
	return s.Routes()
}

// Routes builds the router.
func (s *Server) Routes() (http.Handler, error) {
	router, err := newRouter(s.spec)
	if err != nil {
		return nil, fmt.Errorf("failed to build OpenAPI router: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerHTML))
	})
	r.Handle("/metrics", s.ws.Metrics.Handler())
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)

	r.Group(func(r chi.Router) {
		r.Use(validateRequests(router))

		r.Get("/catalog", s.GetCatalog)
		r.Get("/drafts", s.ListDrafts)
		r.Delete("/drafts/{draftId}", s.DeleteDraft)
		r.Get("/events", s.SubscribeEvents)

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", s.ListSessions)
			r.Post("/", s.CreateSession)
			r.Route("/{sessionId}", func(r chi.Router) {
				r.Get("/", s.GetSession)
				r.Delete("/", s.DeleteSession)
				r.Delete("/graph", s.ClearGraph)

				r.Post("/questions", s.AddQuestion)
				r.Post("/questions/editing", s.CommitQuestion)
				r.Delete("/questions/editing", s.CancelQuestion)
				r.Post("/questions/after", s.AddQuestionAfter)
				r.Post("/sections", s.AddSection)

				r.Patch("/nodes/{nodeId}", s.UpdateNode)
				r.Delete("/nodes/{nodeId}", s.DeleteNode)
				r.Put("/nodes/{nodeId}/position", s.MoveNode)
				r.Post("/nodes/{nodeId}/options", s.AddOption)
				r.Delete("/nodes/{nodeId}/options/{index}", s.DeleteOption)
				r.Get("/nodes/{nodeId}/connections", s.GetConnections)
				r.Put("/nodes/{nodeId}/routes", s.SetRoute)

				r.Post("/edges", s.Connect)
				r.Delete("/edges/{edgeId}", s.Disconnect)

				r.Get("/document", s.ExportDocument)
				r.Put("/document", s.ImportDocument)
				r.Get("/validation", s.ValidateSession)

				r.Put("/metadata", s.UpdateMetadata)
				r.Post("/save", s.SaveSession)
				r.Post("/drafts", s.SaveDraft)
				r.Post("/drafts/{draftId}", s.LoadDraft)
				r.Put("/scenario", s.LoadScenario)
				r.Put("/scenario/version", s.SwitchVersion)
				r.Post("/close", s.NavigateAway)
			})
		})
	})

	return enableCORS(r), nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Lattice API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if s.spec.Info != nil {
		apiVersion = s.spec.Info.Version
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "lattice-http",
		"version":     strings.TrimSpace(lattice.Version),
		"api_version": apiVersion,
	})
}

// broadcast publishes the graph diff of a change to the session's listeners.
func (s *Server) broadcast(change *session.Change) {
	if change == nil || change.Diff == nil {
		return
	}
	data, err := json.Marshal(change.Diff)
	if err != nil {
		s.logger.Error("diff encode failed", "err", err)
		return
	}
	s.Streams.Broadcast(change.Diff.SessionID, string(data))
}

// SubscribeEvents handles the GET /events request (SSE). The optional watch
// parameter, a comma separated subset of nodes and edges, filters the diffs.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	if _, err := s.ws.Sessions.Load(r.Context(), sessionID); err != nil {
		writeError(w, s.logger, "SubscribeEvents", err)
		return
	}

	var watchList []string
	if watch := r.URL.Query().Get("watch"); watch != "" {
		for _, f := range strings.Split(watch, ",") {
			watchList = append(watchList, strings.TrimSpace(f))
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.logger.Info("SSE: Subscribing to Session Updates", "session_id", sessionID)
	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watchList) > 0 && !watched(msg, watchList) {
				continue
			}
			fmt.Fprintf(w, "event: diff\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// watched reports whether a diff touches one of the watched collections.
// Undecodable messages are always delivered.
func watched(msg string, fields []string) bool {
	var diff domain.GraphDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	for _, field := range fields {
		switch field {
		case "nodes":
			if len(diff.AddedNodes)+len(diff.UpdatedNodes)+len(diff.RemovedNodes) > 0 {
				return true
			}
		case "edges":
			if len(diff.AddedEdges)+len(diff.UpdatedEdges)+len(diff.RemovedEdges) > 0 {
				return true
			}
		}
	}
	return false
}
