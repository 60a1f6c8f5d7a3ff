package http

import (
	"net/http"

	"github.com/avollmer/agentcore-showcase/pkg/api"
	"github.com/avollmer/agentcore-showcase/pkg/transport"
)

func (a *Adapter) handleExecuteCode(w http.ResponseWriter, r *http.Request) {
	var req api.ExecuteCodeRequest
	if !a.decodeJSON(w, r, &req) {
		return
	}
	if err := api.ValidateSessionID(req.SessionID); err != nil {
		respond(w, nil, err)
		return
	}
	if err := api.ValidateCode(req.Code); err != nil {
		respond(w, nil, err)
		return
	}
	language, err := api.NormalizeLanguage(req.Language)
	if err != nil {
		respond(w, nil, err)
		return
	}

	result, err := a.svc.Interpreter.ExecuteCode(r.Context(), req.SessionID, req.Code, language)
	respond(w, result, err)
}

func (a *Adapter) handleExecuteCommand(w http.ResponseWriter, r *http.Request) {
	var req api.ExecuteCommandRequest
	if !a.decodeJSON(w, r, &req) {
		return
	}
	if err := api.ValidateSessionID(req.SessionID); err != nil {
		respond(w, nil, err)
		return
	}
	if req.Command == "" {
		respond(w, nil, api.NewInvalidRequestError("command", "command must not be empty"))
		return
	}

	result, err := a.svc.Interpreter.ExecuteCommand(r.Context(), req.SessionID, req.Command)
	respond(w, result, err)
}

func (a *Adapter) handleInterpreterReset(w http.ResponseWriter, r *http.Request) {
	var req api.ResetRequest
	if !a.decodeJSON(w, r, &req) {
		return
	}
	if err := api.ValidateSessionID(req.SessionID); err != nil {
		respond(w, nil, err)
		return
	}

	if err := a.svc.Interpreter.Reset(r.Context(), req.SessionID); err != nil {
		respond(w, nil, err)
		return
	}
	transport.WriteSuccess(w, map[string]any{"session_id": req.SessionID, "reset": true})
}

func (a *Adapter) handleInterpreterSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := a.svc.Interpreter.Sessions(r.Context())
	respond(w, sessions, err)
}

func (a *Adapter) handleFileDemo(w http.ResponseWriter, r *http.Request) {
	a.sessionStreamHandler(a.svc.Interpreter.FileDemo)(w, r)
}

func (a *Adapter) handleShellDemo(w http.ResponseWriter, r *http.Request) {
	a.sessionStreamHandler(a.svc.Interpreter.ShellDemo)(w, r)
}
