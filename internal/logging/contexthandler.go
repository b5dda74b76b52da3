package logging

import (
	"context"
	"log/slog"
	"maps"
)

// ContextProvider returns the session attributes stamped on every record,
// such as the simulation clock and feed state.
type ContextProvider func() []slog.Attr

// ContextHandler adds the provider's session attributes to each record.
// Keys the record or the logger already carry take precedence, so a call
// site that logs its own simTime is not stamped twice.
type ContextHandler struct {
	inner    slog.Handler
	provider ContextProvider
	bound    map[string]struct{}
}

// NewContextHandler wraps inner with session attributes from provider.
func NewContextHandler(inner slog.Handler, provider ContextProvider) *ContextHandler {
	return &ContextHandler{inner: inner, provider: provider}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.provider == nil {
		return h.inner.Handle(ctx, r)
	}
	session := h.provider()
	if len(session) == 0 {
		return h.inner.Handle(ctx, r)
	}

	own := make(map[string]struct{}, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		own[a.Key] = struct{}{}
		return true
	})
	for _, a := range session {
		if _, ok := own[a.Key]; ok {
			continue
		}
		if _, ok := h.bound[a.Key]; ok {
			continue
		}
		r.AddAttrs(a)
	}
	return h.inner.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	bound := make(map[string]struct{}, len(h.bound)+len(attrs))
	maps.Copy(bound, h.bound)
	for _, a := range attrs {
		bound[a.Key] = struct{}{}
	}
	return &ContextHandler{inner: h.inner.WithAttrs(attrs), provider: h.provider, bound: bound}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &ContextHandler{inner: h.inner.WithGroup(name), provider: h.provider, bound: h.bound}
}
