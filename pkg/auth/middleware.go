package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/avollmer/agentcore-showcase/pkg/api"
	"github.com/avollmer/agentcore-showcase/pkg/transport"
)

// DefaultBypassEndpoints lists paths that never require a session.
// The websocket endpoint is bypassed because browser clients cannot
// set headers on the upgrade request.
var DefaultBypassEndpoints = []string{
	"/healthz",
	"/readyz",
	"/metrics",
	"/api/auth/login",
	"/ws",
}

// Middleware enforces login on every request outside the bypass list.
// With login disabled it injects the default identity and passes
// through.
func Middleware(m *Manager, bypassEndpoints []string) transport.Middleware {
	bypass := make(map[string]bool, len(bypassEndpoints))
	for _, ep := range bypassEndpoints {
		bypass[ep] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bypass[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			if !m.Enabled() {
				ctx := SetIdentity(r.Context(), &Identity{Username: DefaultUsername})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			token := bearerToken(r)
			if token == "" {
				transport.WriteFailureStatus(w, http.StatusUnauthorized, "authentication required")
				return
			}

			identity, err := m.Verify(token)
			if err != nil {
				slog.Warn("rejected session token",
					slog.String("path", r.URL.Path),
					slog.String("remote_addr", r.RemoteAddr),
				)
				transport.WriteFailureStatus(w, http.StatusUnauthorized, "invalid or expired session")
				return
			}

			ctx := SetIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken pulls the session token from the Authorization header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// SessionInfo builds the session view for the authenticated caller.
func SessionInfo(id *Identity, loginEnabled bool) *api.SessionInfo {
	username := DefaultUsername
	if id != nil {
		username = id.Username
	}
	return &api.SessionInfo{
		Username:     username,
		LoginEnabled: loginEnabled,
	}
}
