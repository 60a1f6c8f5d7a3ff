package http

import (
	"context"
	"net/http"

	"github.com/avollmer/agentcore-showcase/pkg/api"
	"github.com/avollmer/agentcore-showcase/pkg/transport"
)

func (a *Adapter) handleMemoryInit(w http.ResponseWriter, r *http.Request) {
	result, err := a.svc.Memory.Init(r.Context())
	respond(w, result, err)
}

func (a *Adapter) handleMemoryList(w http.ResponseWriter, r *http.Request) {
	memories, err := a.svc.Memory.List(r.Context())
	respond(w, memories, err)
}

func (a *Adapter) handleMemoryDelete(w http.ResponseWriter, r *http.Request) {
	memoryID := r.PathValue("memoryID")
	if memoryID == "" {
		transport.WriteFailureStatus(w, http.StatusBadRequest, "memory ID is required")
		return
	}
	if err := a.svc.Memory.Delete(r.Context(), memoryID); err != nil {
		respond(w, nil, err)
		return
	}
	transport.WriteSuccess(w, map[string]any{"memory_id": memoryID, "deleted": true})
}

func (a *Adapter) handleSTMStep1(w http.ResponseWriter, r *http.Request) {
	a.handleStoreTurns(w, r, a.svc.Memory.STMStep1)
}

func (a *Adapter) handleLTMStep1(w http.ResponseWriter, r *http.Request) {
	a.handleStoreTurns(w, r, a.svc.Memory.LTMStep1)
}

func (a *Adapter) handleStoreTurns(w http.ResponseWriter, r *http.Request, step func(ctx context.Context, req *api.StoreTurnsRequest) (*api.StoreTurnsResult, error)) {
	req := &api.StoreTurnsRequest{}
	// An empty body means the built-in demo conversation.
	if r.ContentLength > 0 {
		if !a.decodeJSON(w, r, req) {
			return
		}
	}
	result, err := step(r.Context(), req)
	respond(w, result, err)
}

func (a *Adapter) handleSTMStep2(w http.ResponseWriter, r *http.Request) {
	a.handleAsk(w, r, a.svc.Memory.STMStep2)
}

func (a *Adapter) handleLTMStep2(w http.ResponseWriter, r *http.Request) {
	a.handleAsk(w, r, a.svc.Memory.LTMStep2)
}

func (a *Adapter) handleAsk(w http.ResponseWriter, r *http.Request, step func(ctx context.Context, req *api.AskRequest) (*api.AskResult, error)) {
	var req api.AskRequest
	if !a.decodeJSON(w, r, &req) {
		return
	}
	result, err := step(r.Context(), &req)
	respond(w, result, err)
}

func (a *Adapter) handleMemoryEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	events, err := a.svc.Memory.ListEvents(r.Context(), q.Get("memory_id"), q.Get("actor_id"), q.Get("session_id"))
	respond(w, events, err)
}

func (a *Adapter) handleMemoryRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	records, err := a.svc.Memory.ListRecords(r.Context(), q.Get("memory_id"), q.Get("actor_id"))
	respond(w, records, err)
}
