package logging

import (
	"context"
	"log/slog"
	"slices"
)

// Attribute keys stamped by Scope.
const (
	KeyProject = "project"
	KeyStorage = "storage"
)

// Scope supplies the project and storage backend attached to every record.
// The lookups run per record, so a project opened after Setup still shows up.
// Empty values are left out.
type Scope struct {
	Project func() string
	Storage func() string
}

// ContextHandler stamps Scope attributes on records before passing them to
// the inner handler. A key the caller already set, on the record or through
// With, is not overwritten.
type ContextHandler struct {
	inner slog.Handler
	scope *Scope
	bound []string
}

// NewContextHandler wraps inner. A nil scope adds nothing.
func NewContextHandler(inner slog.Handler, scope *Scope) *ContextHandler {
	return &ContextHandler{inner: inner, scope: scope}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.scope != nil {
		h.stamp(&r, KeyProject, h.scope.Project)
		h.stamp(&r, KeyStorage, h.scope.Storage)
	}
	return h.inner.Handle(ctx, r)
}

func (h *ContextHandler) stamp(r *slog.Record, key string, lookup func() string) {
	if lookup == nil || slices.Contains(h.bound, key) || recordHas(*r, key) {
		return
	}
	if v := lookup(); v != "" {
		r.AddAttrs(slog.String(key, v))
	}
}

func recordHas(r slog.Record, key string) bool {
	found := false
	r.Attrs(func(a slog.Attr) bool {
		found = a.Key == key
		return !found
	})
	return found
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	bound := slices.Clone(h.bound)
	for _, a := range attrs {
		bound = append(bound, a.Key)
	}
	return &ContextHandler{inner: h.inner.WithAttrs(attrs), scope: h.scope, bound: bound}
}

// WithGroup nests later attributes. Scope attributes land inside the group.
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &ContextHandler{inner: h.inner.WithGroup(name), scope: h.scope, bound: h.bound}
}
