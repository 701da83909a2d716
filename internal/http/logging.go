package http

import (
	"context"
	"log/slog"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

// handlerLogger prefers the request scoped logger, which Authenticate has
// already tagged with the principal. Without one the caller is tagged here.
func handlerLogger(ctx context.Context, fallback *slog.Logger, handlerName, operation string, attrs ...any) *slog.Logger {
	principal, authenticated := PrincipalFromContext(ctx)
	pairs := []any{"handler", handlerName, "authenticated", authenticated}

	logger := LoggerFromContext(ctx)
	if logger == nil {
		logger = defaultLogger(fallback)
		if authenticated {
			pairs = append(pairs, "principal_id", principal.UserID)
		}
	}

	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	return logger.With(append(pairs, attrs...)...)
}
