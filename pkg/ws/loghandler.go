package ws

import (
	"context"
	"log/slog"
)

// LogHandler is a slog.Handler that forwards records to an inner
// handler and mirrors them to all connected websocket clients, so the
// UI can show a live server log.
type LogHandler struct {
	inner slog.Handler
	hub   *Hub
	level slog.Level
	attrs []slog.Attr
}

// NewLogHandler wraps inner with websocket mirroring at the given
// minimum level.
func NewLogHandler(inner slog.Handler, hub *Hub, level slog.Level) *LogHandler {
	return &LogHandler{inner: inner, hub: hub, level: level}
}

func (h *LogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *LogHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level >= h.level {
		fields := map[string]any{}
		for _, a := range h.attrs {
			fields[a.Key] = a.Value.Any()
		}
		record.Attrs(func(a slog.Attr) bool {
			fields[a.Key] = a.Value.Any()
			return true
		})
		h.hub.Broadcast(map[string]any{
			"type":    "log",
			"level":   record.Level.String(),
			"message": record.Message,
			"time":    record.Time,
			"fields":  fields,
		})
	}
	return h.inner.Handle(ctx, record)
}

func (h *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LogHandler{
		inner: h.inner.WithAttrs(attrs),
		hub:   h.hub,
		level: h.level,
		attrs: append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

func (h *LogHandler) WithGroup(name string) slog.Handler {
	return &LogHandler{
		inner: h.inner.WithGroup(name),
		hub:   h.hub,
		level: h.level,
		attrs: h.attrs,
	}
}
