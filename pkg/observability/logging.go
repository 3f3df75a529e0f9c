package observability

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aretw0/lattice/pkg/domain"
)

// Outcome names the result of a remote call for metrics and logs: "success",
// or the remote error kind.
func Outcome(err error) string {
	if err == nil {
		return "success"
	}
	var re *domain.RemoteError
	if errors.As(err, &re) && re.Kind != "" {
		return string(re.Kind)
	}
	return string(domain.RemoteGeneric)
}

// LogHooks returns editor hooks that write debug records for mutations and
// remote calls. Failed remote calls are logged as warnings.
func LogHooks(logger *slog.Logger) domain.Hooks {
	return domain.Hooks{
		OnMutation: func(ctx context.Context, e *domain.MutationEvent) {
			logger.DebugContext(ctx, "graph mutation",
				"op", e.Op,
				"nodes", e.Nodes,
				"edges", e.Edges,
			)
		},
		OnRemoteCall: func(ctx context.Context, e *domain.RemoteEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "remote call failed",
					"op", e.Op,
					"duration", e.Duration,
					"outcome", Outcome(e.Err),
					"err", e.Err,
				)
				return
			}
			logger.DebugContext(ctx, "remote call", "op", e.Op, "duration", e.Duration)
		},
	}
}
