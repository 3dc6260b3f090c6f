package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/ledring/internal/logging"
	"github.com/smazurov/ledring/internal/metrics"
)

// HTTPLoggingMiddleware records every request in the request metrics and
// logs it at a level chosen by requestLogLevel.
func HTTPLoggingMiddleware(ctx huma.Context, next func(huma.Context)) {
	start := time.Now()
	next(ctx)
	duration := time.Since(start)

	status := ctx.Status()
	operation := "unknown"
	if op := ctx.Operation(); op != nil {
		operation = op.OperationID
	}
	metrics.ObserveHTTPRequest(operation, status, duration)

	u := ctx.URL()
	attrs := []slog.Attr{
		slog.String("method", ctx.Method()),
		slog.String("path", u.Path),
		slog.String("operation", operation),
		slog.Int("status", status),
		slog.Duration("duration", duration),
		slog.String("remote_addr", ctx.RemoteAddr()),
	}
	if u.RawQuery != "" && !strings.Contains(u.RawQuery, "auth=") {
		attrs = append(attrs, slog.String("query", u.RawQuery))
	}

	logging.GetLogger("http").LogAttrs(ctx.Context(), requestLogLevel(ctx.Method(), u.Path, status),
		"HTTP request completed", attrs...)
}

// requestLogLevel keeps preflights and the UI's status polling out of the
// info log; failures are raised to warn or error.
func requestLogLevel(method, path string, status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	case method == http.MethodOptions, method == http.MethodGet && path == "/api/status":
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
