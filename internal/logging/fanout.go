package logging

import (
	"context"
	"errors"
	"log/slog"
)

type sink struct {
	handler    slog.Handler
	errorsOnly bool
}

func (s sink) accepts(ctx context.Context, level slog.Level) bool {
	if s.errorsOnly && level < slog.LevelError {
		return false
	}
	return s.handler.Enabled(ctx, level)
}

// fanoutHandler forwards each record to every sink that accepts its level.
type fanoutHandler struct {
	sinks []sink
}

func (h *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, s := range h.sinks {
		if s.accepts(ctx, level) {
			return true
		}
	}
	return false
}

func (h *fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, s := range h.sinks {
		if !s.accepts(ctx, record.Level) {
			continue
		}
		if err := s.handler.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.derive(func(inner slog.Handler) slog.Handler { return inner.WithAttrs(attrs) })
}

func (h *fanoutHandler) WithGroup(name string) slog.Handler {
	return h.derive(func(inner slog.Handler) slog.Handler { return inner.WithGroup(name) })
}

func (h *fanoutHandler) derive(fn func(slog.Handler) slog.Handler) *fanoutHandler {
	sinks := make([]sink, len(h.sinks))
	for i, s := range h.sinks {
		sinks[i] = sink{handler: fn(s.handler), errorsOnly: s.errorsOnly}
	}
	return &fanoutHandler{sinks: sinks}
}
