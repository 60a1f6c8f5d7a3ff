package transport

import (
	"log/slog"
	"net/http"
)

// Recovery returns middleware that catches panics in downstream handlers
// and converts them to 500 responses. The server continues to accept new
// requests after a panic is recovered. If the response has already been
// partially written (a broken stream), only the panic is logged.
func Recovery(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered",
						slog.Any("panic", rec),
						slog.String("path", r.URL.Path),
						slog.String("request_id", RequestIDFromContext(r.Context())),
					)
					WriteFailureStatus(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
