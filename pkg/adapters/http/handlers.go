package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/aretw0/lattice/pkg/document"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/editor"
	"github.com/aretw0/lattice/pkg/graph"
	"github.com/go-chi/chi/v5"
)

type createdBody struct {
	ID string `json:"id"`
}

type connectionBody struct {
	graph.Connection
	Navigation string `json:"navigation"`
}

type validationBody struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return &domain.ValidationError{Field: "body", Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return nil
}

// mutate runs fn on the session's editor, broadcasts the diff and writes the
// updated session with status.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, op string, status int, fn func(context.Context, *editor.Editor) (any, error)) {
	var out any
	change, err := s.ws.Sessions.Update(r.Context(), chi.URLParam(r, "sessionId"), func(ctx context.Context, e *editor.Editor) error {
		var err error
		out, err = fn(ctx, e)
		return err
	})
	if err != nil {
		writeError(w, s.logger, op, err)
		return
	}
	s.broadcast(change)
	if out == nil {
		out = change.Record
	}
	writeJSON(w, status, out)
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.ws.Sessions.List(r.Context())
	if err != nil {
		writeError(w, s.logger, "ListSessions", err)
		return
	}
	writeJSON(w, http.StatusOK, ids)
}

// CreateSession handles POST /sessions. A mode naming a scenario loads it.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var mode editor.Mode
	if err := decode(r, &mode); err != nil {
		writeError(w, s.logger, "CreateSession", err)
		return
	}

	ctx := r.Context()
	rec, err := s.ws.Sessions.Create(ctx, mode)
	if err != nil {
		writeError(w, s.logger, "CreateSession", err)
		return
	}

	if mode.ScenarioID != "" {
		change, err := s.ws.Sessions.Update(ctx, rec.ID, func(ctx context.Context, e *editor.Editor) error {
			_, err := e.LoadScenario(ctx, mode.ScenarioID, mode.Version)
			return err
		})
		if err != nil {
			if delErr := s.ws.Sessions.Delete(context.WithoutCancel(ctx), rec.ID); delErr != nil {
				s.logger.Warn("failed to discard session", "session_id", rec.ID, "err", delErr)
			}
			writeError(w, s.logger, "CreateSession", err)
			return
		}
		rec = change.Record
	}
	writeJSON(w, http.StatusCreated, rec)
}

// GetSession handles GET /sessions/{sessionId}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	rec, err := s.ws.Sessions.Load(r.Context(), chi.URLParam(r, "sessionId"))
	if err != nil {
		writeError(w, s.logger, "GetSession", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// DeleteSession handles DELETE /sessions/{sessionId}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.ws.Sessions.Delete(r.Context(), chi.URLParam(r, "sessionId")); err != nil {
		writeError(w, s.logger, "DeleteSession", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) ClearGraph(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "ClearGraph", http.StatusOK, func(_ context.Context, e *editor.Editor) (any, error) {
		return nil, e.ClearAll()
	})
}

func (s *Server) AddQuestion(w http.ResponseWriter, r *http.Request) {
	var in editor.AddQuestionInput
	if err := decode(r, &in); err != nil {
		writeError(w, s.logger, "AddQuestion", err)
		return
	}
	s.mutate(w, r, "AddQuestion", http.StatusCreated, func(ctx context.Context, e *editor.Editor) (any, error) {
		id, err := e.AddQuestion(ctx, in)
		return createdBody{ID: id}, err
	})
}

func (s *Server) CommitQuestion(w http.ResponseWriter, r *http.Request) {
	var data domain.NodeData
	if err := decode(r, &data); err != nil {
		writeError(w, s.logger, "CommitQuestion", err)
		return
	}
	s.mutate(w, r, "CommitQuestion", http.StatusCreated, func(_ context.Context, e *editor.Editor) (any, error) {
		id, err := e.CommitQuestion(data)
		return createdBody{ID: id}, err
	})
}

func (s *Server) CancelQuestion(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "CancelQuestion", http.StatusOK, func(_ context.Context, e *editor.Editor) (any, error) {
		return nil, e.CancelQuestion()
	})
}

func (s *Server) AddQuestionAfter(w http.ResponseWriter, r *http.Request) {
	var in struct {
		AfterID string          `json:"afterId"`
		Data    domain.NodeData `json:"data"`
	}
	if err := decode(r, &in); err != nil {
		writeError(w, s.logger, "AddQuestionAfter", err)
		return
	}
	s.mutate(w, r, "AddQuestionAfter", http.StatusCreated, func(_ context.Context, e *editor.Editor) (any, error) {
		id, err := e.AddQuestionAfter(in.AfterID, in.Data)
		return createdBody{ID: id}, err
	})
}

func (s *Server) AddSection(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "AddSection", http.StatusCreated, func(_ context.Context, e *editor.Editor) (any, error) {
		id, err := e.AddSection()
		return createdBody{ID: id}, err
	})
}

func (s *Server) UpdateNode(w http.ResponseWriter, r *http.Request) {
	var patch domain.NodePatch
	if err := decode(r, &patch); err != nil {
		writeError(w, s.logger, "UpdateNode", err)
		return
	}
	nodeID := chi.URLParam(r, "nodeId")
	s.mutate(w, r, "UpdateNode", http.StatusOK, func(_ context.Context, e *editor.Editor) (any, error) {
		return nil, e.UpdateNode(nodeID, patch)
	})
}

func (s *Server) DeleteNode(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeId")
	s.mutate(w, r, "DeleteNode", http.StatusOK, func(_ context.Context, e *editor.Editor) (any, error) {
		return nil, e.DeleteNode(nodeID)
	})
}

func (s *Server) MoveNode(w http.ResponseWriter, r *http.Request) {
	var pos domain.Position
	if err := decode(r, &pos); err != nil {
		writeError(w, s.logger, "MoveNode", err)
		return
	}
	nodeID := chi.URLParam(r, "nodeId")
	s.mutate(w, r, "MoveNode", http.StatusOK, func(_ context.Context, e *editor.Editor) (any, error) {
		return nil, e.MoveNode(nodeID, pos)
	})
}

func (s *Server) AddOption(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeId")
	s.mutate(w, r, "AddOption", http.StatusOK, func(_ context.Context, e *editor.Editor) (any, error) {
		return nil, e.AddOption(nodeID)
	})
}

func (s *Server) DeleteOption(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, s.logger, "DeleteOption", &domain.ValidationError{Field: "index", Reason: "must be an integer"})
		return
	}
	nodeID := chi.URLParam(r, "nodeId")
	s.mutate(w, r, "DeleteOption", http.StatusOK, func(_ context.Context, e *editor.Editor) (any, error) {
		return nil, e.DeleteOption(nodeID, index)
	})
}

// GetConnections handles GET /sessions/{sessionId}/nodes/{nodeId}/connections.
func (s *Server) GetConnections(w http.ResponseWriter, r *http.Request) {
	var out []connectionBody
	err := s.ws.Sessions.View(r.Context(), chi.URLParam(r, "sessionId"), func(_ context.Context, e *editor.Editor) error {
		conns, err := e.Connections(chi.URLParam(r, "nodeId"))
		if err != nil {
			return err
		}
		out = make([]connectionBody, len(conns))
		for i, c := range conns {
			out[i] = connectionBody{Connection: c, Navigation: c.Navigation()}
		}
		return nil
	})
	if err != nil {
		writeError(w, s.logger, "GetConnections", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) SetRoute(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Handle string `json:"handle"`
		Target string `json:"target"`
	}
	if err := decode(r, &in); err != nil {
		writeError(w, s.logger, "SetRoute", err)
		return
	}
	nodeID := chi.URLParam(r, "nodeId")
	s.mutate(w, r, "SetRoute", http.StatusOK, func(_ context.Context, e *editor.Editor) (any, error) {
		_, err := e.Route(nodeID, in.Handle, in.Target)
		return nil, err
	})
}

func (s *Server) Connect(w http.ResponseWriter, r *http.Request) {
	var link graph.Link
	if err := decode(r, &link); err != nil {
		writeError(w, s.logger, "Connect", err)
		return
	}
	s.mutate(w, r, "Connect", http.StatusCreated, func(_ context.Context, e *editor.Editor) (any, error) {
		edge, err := e.Connect(link)
		return edge, err
	})
}

func (s *Server) Disconnect(w http.ResponseWriter, r *http.Request) {
	edgeID := chi.URLParam(r, "edgeId")
	s.mutate(w, r, "Disconnect", http.StatusOK, func(_ context.Context, e *editor.Editor) (any, error) {
		return nil, e.Disconnect(edgeID)
	})
}

// ExportDocument handles GET /sessions/{sessionId}/document as a download.
func (s *Server) ExportDocument(w http.ResponseWriter, r *http.Request) {
	var data []byte
	err := s.ws.Sessions.View(r.Context(), chi.URLParam(r, "sessionId"), func(_ context.Context, e *editor.Editor) error {
		var err error
		data, err = e.Export()
		return err
	})
	if err != nil {
		writeError(w, s.logger, "ExportDocument", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", document.Filename))
	_, _ = w.Write(data)
}

// ImportDocument handles PUT /sessions/{sessionId}/document.
func (s *Server) ImportDocument(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, s.logger, "ImportDocument", err)
		return
	}
	s.mutate(w, r, "ImportDocument", http.StatusOK, func(_ context.Context, e *editor.Editor) (any, error) {
		return nil, e.Import(data)
	})
}

// ValidateSession handles GET /sessions/{sessionId}/validation.
func (s *Server) ValidateSession(w http.ResponseWriter, r *http.Request) {
	var out validationBody
	err := s.ws.Sessions.View(r.Context(), chi.URLParam(r, "sessionId"), func(_ context.Context, e *editor.Editor) error {
		report := e.Validate()
		out = validationBody{
			Valid:    report.Err() == nil,
			Errors:   append([]string{}, report.Errors...),
			Warnings: append([]string{}, report.Warnings...),
		}
		return nil
	})
	if err != nil {
		writeError(w, s.logger, "ValidateSession", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) UpdateMetadata(w http.ResponseWriter, r *http.Request) {
	var in domain.MetadataInput
	if err := decode(r, &in); err != nil {
		writeError(w, s.logger, "UpdateMetadata", err)
		return
	}
	s.mutate(w, r, "UpdateMetadata", http.StatusOK, func(ctx context.Context, e *editor.Editor) (any, error) {
		return e.UpdateMetadata(ctx, in)
	})
}

// SaveSession handles POST /sessions/{sessionId}/save. A remote failure is
// reported with its outcome body and 502.
func (s *Server) SaveSession(w http.ResponseWriter, r *http.Request) {
	res, err := s.ws.Sessions.Save(r.Context(), chi.URLParam(r, "sessionId"))
	if err != nil {
		if res.Outcome == editor.OutcomeFailure {
			s.logger.Warn("SaveSession failed remotely", "err", err)
			writeJSON(w, http.StatusBadGateway, res)
			return
		}
		writeError(w, s.logger, "SaveSession", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) SaveDraft(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := decode(r, &in); err != nil {
		writeError(w, s.logger, "SaveDraft", err)
		return
	}
	s.mutate(w, r, "SaveDraft", http.StatusCreated, func(ctx context.Context, e *editor.Editor) (any, error) {
		return e.SaveDraft(ctx, in.Name, in.Description)
	})
}

func (s *Server) LoadDraft(w http.ResponseWriter, r *http.Request) {
	draftID := chi.URLParam(r, "draftId")
	s.mutate(w, r, "LoadDraft", http.StatusOK, func(ctx context.Context, e *editor.Editor) (any, error) {
		_, err := e.LoadDraft(ctx, draftID)
		return nil, err
	})
}

func (s *Server) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ScenarioID string `json:"scenarioId"`
		Version    string `json:"version"`
	}
	if err := decode(r, &in); err != nil {
		writeError(w, s.logger, "LoadScenario", err)
		return
	}
	s.mutate(w, r, "LoadScenario", http.StatusOK, func(ctx context.Context, e *editor.Editor) (any, error) {
		_, err := e.LoadScenario(ctx, in.ScenarioID, in.Version)
		return nil, err
	})
}

func (s *Server) SwitchVersion(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Version string `json:"version"`
	}
	if err := decode(r, &in); err != nil {
		writeError(w, s.logger, "SwitchVersion", err)
		return
	}
	s.mutate(w, r, "SwitchVersion", http.StatusOK, func(ctx context.Context, e *editor.Editor) (any, error) {
		_, err := e.SwitchVersion(ctx, in.Version)
		return nil, err
	})
}

func (s *Server) NavigateAway(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "NavigateAway", http.StatusOK, func(ctx context.Context, e *editor.Editor) (any, error) {
		return nil, e.NavigateAway(ctx)
	})
}

// GetCatalog handles GET /catalog.
func (s *Server) GetCatalog(w http.ResponseWriter, r *http.Request) {
	cat, err := s.ws.NewEditor().LoadCatalog(r.Context())
	if err != nil {
		writeError(w, s.logger, "GetCatalog", err)
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

// ListDrafts handles GET /drafts.
func (s *Server) ListDrafts(w http.ResponseWriter, r *http.Request) {
	list, err := s.ws.Drafts.List(r.Context())
	if err != nil {
		writeError(w, s.logger, "ListDrafts", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// DeleteDraft handles DELETE /drafts/{draftId}.
func (s *Server) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	if err := s.ws.Drafts.Delete(r.Context(), chi.URLParam(r, "draftId")); err != nil {
		writeError(w, s.logger, "DeleteDraft", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
