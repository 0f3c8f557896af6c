package status

import (
	"context"
	"log/slog"
)

// Handler wraps a slog.Handler so every record is written with the
// spinner suspended.
type Handler struct {
	next    slog.Handler
	spinner *Spinner
}

// NewHandler wraps next.
func NewHandler(next slog.Handler, spinner *Spinner) *Handler {
	return &Handler{next: next, spinner: spinner}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	var err error
	h.spinner.Quiet(func() {
		err = h.next.Handle(ctx, r)
	})
	return err
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{next: h.next.WithAttrs(attrs), spinner: h.spinner}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{next: h.next.WithGroup(name), spinner: h.spinner}
}
