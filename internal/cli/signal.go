package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// sessionCountTimeout bounds the store round trip made while shutting down.
const sessionCountTimeout = 2 * time.Second

// SignalError is the cancellation cause of a SignalContext stopped by a signal.
type SignalError struct {
	Signal os.Signal
}

func (e *SignalError) Error() string {
	return "received signal " + e.Signal.String()
}

// SignalContext is cancelled when one of its signals arrives, and remembers
// which one it was.
type SignalContext struct {
	context.Context
	stop context.CancelCauseFunc
}

// NewSignalContext returns a context cancelled on the given signals, or on
// SIGINT and SIGTERM when none are given.
func NewSignalContext(parent context.Context, sigs ...os.Signal) *SignalContext {
	if len(sigs) == 0 {
		sigs = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	ctx, cancel := context.WithCancelCause(parent)

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	go func() {
		defer signal.Stop(ch)
		select {
		case sig := <-ch:
			cancel(&SignalError{Signal: sig})
		case <-ctx.Done():
		}
	}()

	return &SignalContext{Context: ctx, stop: cancel}
}

// Stop releases the signal handler and cancels the context.
func (sc *SignalContext) Stop() {
	sc.stop(context.Canceled)
}

// Signal returns the signal that cancelled the context, or nil.
func (sc *SignalContext) Signal() os.Signal {
	var sigErr *SignalError
	if errors.As(context.Cause(sc.Context), &sigErr) {
		return sigErr.Signal
	}
	return nil
}

// SessionLister reports the ids of stored sessions.
type SessionLister interface {
	List(ctx context.Context) ([]string, error)
}

// LogShutdown records why server is stopping and how many sessions it leaves
// in the store.
func LogShutdown(ctx *SignalContext, logger *slog.Logger, server string, sessions SessionLister) {
	attrs := []any{"server", server, "signal", ctx.Signal()}

	countCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sessionCountTimeout)
	defer cancel()
	if ids, err := sessions.List(countCtx); err != nil {
		logger.Warn("Failed to count sessions on shutdown", "server", server, "err", err)
	} else {
		attrs = append(attrs, "sessions", len(ids))
	}

	logger.Info("Start shutdown", attrs...)
}
