package http

import (
	"net/http"

	"github.com/avollmer/agentcore-showcase/pkg/api"
	"github.com/avollmer/agentcore-showcase/pkg/transport"
)

func (a *Adapter) handleBrowserStart(w http.ResponseWriter, r *http.Request) {
	var req api.BrowserStartRequest
	if !a.decodeJSON(w, r, &req) {
		return
	}
	if err := api.ValidateSessionID(req.SessionID); err != nil {
		respond(w, nil, err)
		return
	}

	view, err := a.svc.Browser.Start(r.Context(), req.SessionID)
	respond(w, view, err)
}

func (a *Adapter) handleBrowserTask(w http.ResponseWriter, r *http.Request) {
	var req api.BrowserTaskRequest
	if !a.decodeJSON(w, r, &req) {
		return
	}
	if err := api.ValidateSessionID(req.SessionID); err != nil {
		respond(w, nil, err)
		return
	}

	narration, err := a.svc.Browser.Task(r.Context(), req.SessionID, req.Task)
	if err != nil {
		respond(w, nil, err)
		return
	}
	transport.WriteSuccess(w, map[string]any{
		"session_id": req.SessionID,
		"narration":  narration,
	})
}

func (a *Adapter) handleBrowserStop(w http.ResponseWriter, r *http.Request) {
	var req api.BrowserStopRequest
	if !a.decodeJSON(w, r, &req) {
		return
	}
	if err := api.ValidateSessionID(req.SessionID); err != nil {
		respond(w, nil, err)
		return
	}

	if err := a.svc.Browser.Stop(r.Context(), req.SessionID); err != nil {
		respond(w, nil, err)
		return
	}
	transport.WriteSuccess(w, map[string]any{"session_id": req.SessionID, "stopped": true})
}

func (a *Adapter) handleBrowserSessions(w http.ResponseWriter, r *http.Request) {
	transport.WriteSuccess(w, a.svc.Browser.Sessions())
}
