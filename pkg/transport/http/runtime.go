package http

import (
	"net/http"

	"github.com/avollmer/agentcore-showcase/pkg/api"
	"github.com/avollmer/agentcore-showcase/pkg/transport"
)

func (a *Adapter) handleRuntimePackage(w http.ResponseWriter, r *http.Request) {
	result, err := a.svc.Runtime.PackageStep(r.Context())
	respond(w, result, err)
}

func (a *Adapter) handleRuntimeStatus(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := a.sessionFromQuery(w, r)
	if !ok {
		return
	}
	status, err := a.svc.Runtime.Status(r.Context(), sessionID)
	respond(w, status, err)
}

func (a *Adapter) handleRuntimeInvoke(w http.ResponseWriter, r *http.Request) {
	var req api.InvokeRuntimeRequest
	if !a.decodeJSON(w, r, &req) {
		return
	}
	if err := api.ValidateSessionID(req.SessionID); err != nil {
		respond(w, nil, err)
		return
	}

	result, err := a.svc.Runtime.Invoke(r.Context(), &req)
	respond(w, result, err)
}

func (a *Adapter) handleRuntimeCleanup(w http.ResponseWriter, r *http.Request) {
	var req api.CleanupRequest
	if !a.decodeJSON(w, r, &req) {
		return
	}
	if err := api.ValidateSessionID(req.SessionID); err != nil {
		respond(w, nil, err)
		return
	}

	result, err := a.svc.Runtime.Cleanup(r.Context(), req.SessionID)
	respond(w, result, err)
}

func (a *Adapter) handleRuntimeReleaseSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionID")
	if err := api.ValidateSessionID(sessionID); err != nil {
		respond(w, nil, err)
		return
	}
	if err := a.svc.Runtime.ReleaseSession(r.Context(), sessionID); err != nil {
		respond(w, nil, err)
		return
	}
	transport.WriteSuccess(w, map[string]any{"session_id": sessionID, "released": true})
}

func (a *Adapter) handleRuntimeConfig(w http.ResponseWriter, r *http.Request) {
	transport.WriteSuccess(w, a.svc.Runtime.ConfigView())
}

func (a *Adapter) handleContainerConfig(w http.ResponseWriter, r *http.Request) {
	transport.WriteSuccess(w, a.svc.Runtime.ContainerConfigView())
}
