package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/avollmer/agentcore-showcase/pkg/api"
	"github.com/avollmer/agentcore-showcase/pkg/auth"
	"github.com/avollmer/agentcore-showcase/pkg/transport"
)

func (a *Adapter) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !a.svc.Auth.Enabled() {
		transport.WriteFailure(w, "login is disabled")
		return
	}

	var req api.LoginRequest
	if !a.decodeJSON(w, r, &req) {
		return
	}

	result, err := a.svc.Auth.Login(req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		transport.WriteFailureStatus(w, http.StatusUnauthorized, "invalid username or password")
		return
	}
	respond(w, result, err)
}

func (a *Adapter) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := requestToken(r); token != "" {
		a.svc.Auth.Logout(token)
	}
	transport.WriteSuccess(w, map[string]any{"logged_out": true})
}

func (a *Adapter) handleSession(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())
	transport.WriteSuccess(w, auth.SessionInfo(id, a.svc.Auth.Enabled()))
}

func requestToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
