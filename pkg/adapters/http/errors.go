package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aretw0/lattice/pkg/domain"
)

type errorBody struct {
	Error        string                 `json:"error"`
	Field        string                 `json:"field,omitempty"`
	ReopenDialog bool                   `json:"reopenDialog,omitempty"`
	Kind         domain.RemoteErrorKind `json:"kind,omitempty"`
}

// statusOf maps domain errors to HTTP status codes.
func statusOf(err error) int {
	var (
		pre    *domain.PreconditionError
		remote *domain.RemoteError
	)
	switch {
	case errors.As(err, &pre):
		return http.StatusConflict
	case errors.Is(err, domain.ErrViewOnly), errors.Is(err, domain.ErrStaleLoad):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidFormat):
		return http.StatusBadRequest
	case domain.IsValidation(err), errors.Is(err, domain.ErrInvalidHandle), errors.Is(err, domain.ErrOptionNotFound):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrNodeNotFound),
		errors.Is(err, domain.ErrEdgeNotFound),
		errors.Is(err, domain.ErrDraftNotFound),
		errors.Is(err, domain.ErrTemplateNotFound):
		return http.StatusNotFound
	case errors.As(err, &remote), errors.Is(err, domain.ErrRemoteUnavailable):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	status := statusOf(err)
	body := errorBody{Error: err.Error()}

	var (
		ve     *domain.ValidationError
		pre    *domain.PreconditionError
		remote *domain.RemoteError
	)
	if errors.As(err, &ve) {
		body.Field = ve.Field
	}
	if errors.As(err, &pre) {
		body.ReopenDialog = pre.ReopenDialog
	}
	if errors.As(err, &remote) {
		body.Kind = remote.Kind
	}

	if status >= http.StatusInternalServerError {
		logger.Error(op+" failed", "err", err)
	} else {
		logger.Warn(op+" rejected", "status", status, "err", err)
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}
