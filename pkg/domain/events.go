package domain

import (
	"context"
	"time"
)

// MutationEvent describes a committed change to a questionnaire graph.
type MutationEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Op        string    `json:"op"`
	Nodes     int       `json:"nodes"`
	Edges     int       `json:"edges"`
}

// RemoteEvent describes a finished call to the remote service.
type RemoteEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	Op        string        `json:"op"`
	Duration  time.Duration `json:"duration"`
	Err       error         `json:"-"`
}

// Hooks defines callbacks for editor observability.
type Hooks struct {
	OnMutation   func(context.Context, *MutationEvent)
	OnRemoteCall func(context.Context, *RemoteEvent)
}

// Merge returns hooks that call h first and then other.
func (h Hooks) Merge(other Hooks) Hooks {
	return Hooks{
		OnMutation:   chain(h.OnMutation, other.OnMutation),
		OnRemoteCall: chain(h.OnRemoteCall, other.OnRemoteCall),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
