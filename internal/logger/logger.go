package logger

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/jaivikTh/nest-microsrv-kit/internal/security"
)

const (
	FormatPretty = "pretty"
	FormatJSON   = "json"
)

// New builds the process handler. Both formats mask sensitive attributes and
// add the request id found in the record's context.
func New(w io.Writer, format, level string) slog.Handler {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var base slog.Handler
	if strings.EqualFold(format, FormatJSON) {
		opts.ReplaceAttr = maskAttr
		base = slog.NewJSONHandler(w, opts)
	} else {
		base = NewPrettyHandler(w, opts)
	}

	return &contextHandler{Handler: base}
}

// Setup installs a handler from New as the slog default and returns the logger.
func Setup(w io.Writer, format, level string) *slog.Logger {
	log := slog.New(New(w, format, level))
	slog.SetDefault(log)
	return log
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func maskAttr(_ []string, a slog.Attr) slog.Attr {
	if security.IsSensitiveField(strings.ToLower(a.Key)) {
		return slog.String(a.Key, security.MaskValue)
	}

	if m, ok := a.Value.Any().(map[string]any); ok {
		return slog.Any(a.Key, security.MaskSensitiveData(m))
	}

	return a
}

type contextHandler struct {
	slog.Handler
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := RequestIDFromContext(ctx); id != "" {
		r.AddAttrs(slog.String("request_id", id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name)}
}
