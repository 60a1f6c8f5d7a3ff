package http

import (
	"net/http"

	"github.com/avollmer/agentcore-showcase/pkg/api"
	"github.com/avollmer/agentcore-showcase/pkg/transport"
)

func (a *Adapter) handleSessionsStatus(w http.ResponseWriter, r *http.Request) {
	interp, err := a.svc.Interpreter.Sessions(r.Context())
	if err != nil {
		respond(w, nil, err)
		return
	}
	deployments, err := a.svc.Runtime.Deployments(r.Context())
	if err != nil {
		respond(w, nil, err)
		return
	}

	transport.WriteSuccess(w, api.SessionsStatusResult{
		InterpreterSessions: interp,
		Deployments:         deployments,
		BrowserSessions:     a.svc.Browser.Sessions(),
		WebSocketClients:    a.svc.Hub.ClientCount(),
	})
}

func (a *Adapter) handleHealthz(w http.ResponseWriter, r *http.Request) {
	transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *Adapter) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if a.svc.Store != nil {
		if err := a.svc.Store.HealthCheck(r.Context()); err != nil {
			transport.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"error":  err.Error(),
			})
			return
		}
	}
	transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
