package telemetry

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// TraceHandler wraps a real handler (like JSONHandler) and adds trace info
type TraceHandler struct {
	slog.Handler
}

// NewTraceHandler is a constructor helper
func NewTraceHandler(h slog.Handler) *TraceHandler {
	return &TraceHandler{Handler: h}
}

// Handle adds trace_id and span_id when the record is logged inside a span.
func (h *TraceHandler) Handle(ctx context.Context, r slog.Record) error {
	spanContext := trace.SpanContextFromContext(ctx)

	if spanContext.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", spanContext.TraceID().String()),
			slog.String("span_id", spanContext.SpanID().String()),
		)
	}

	return h.Handler.Handle(ctx, r)
}

// WithAttrs keeps the wrapper so loggers derived with .With still carry trace ids.
func (h *TraceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TraceHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *TraceHandler) WithGroup(name string) slog.Handler {
	return &TraceHandler{Handler: h.Handler.WithGroup(name)}
}

// NewLogger builds the process logger for the given environment:
// text at debug level locally, JSON elsewhere.
func NewLogger(env string, w io.Writer) *slog.Logger {
	var base slog.Handler

	switch env {
	case "prod":
		base = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	case "dev":
		base = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	default:
		base = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}

	return slog.New(NewTraceHandler(base))
}
