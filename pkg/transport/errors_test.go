package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/avollmer/agentcore-showcase/pkg/api"
	"github.com/avollmer/agentcore-showcase/pkg/storage"
)

func TestHTTPStatusFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "invalid request", err: api.NewInvalidRequestError("prompt", "empty"), want: http.StatusBadRequest},
		{name: "not found", err: api.NewNotFoundError("no deployment"), want: http.StatusNotFound},
		{name: "too many requests", err: api.NewTooManyRequestsError("throttled"), want: http.StatusTooManyRequests},
		{name: "model error", err: api.NewModelError("upstream failed"), want: http.StatusBadGateway},
		{name: "server error", err: api.NewServerError("boom"), want: http.StatusInternalServerError},
		{name: "wrapped api error", err: fmt.Errorf("handling: %w", api.NewNotFoundError("gone")), want: http.StatusNotFound},
		{name: "storage not found", err: storage.ErrNotFound, want: http.StatusNotFound},
		{name: "plain error", err: errors.New("anything"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatusFromError(tt.err); got != tt.want {
				t.Errorf("HTTPStatusFromError() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWriteSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, map[string]string{"output": "42"})

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	var env api.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if !env.Success || env.Error != "" {
		t.Errorf("unexpected envelope: %+v", env)
	}
}

func TestWriteFailureKeeps200(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteFailure(rec, "session not found")

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 for domain failures", rec.Code)
	}
	var env api.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if env.Success || env.Error != "session not found" {
		t.Errorf("unexpected envelope: %+v", env)
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, api.NewInvalidRequestError("code", "code must not be empty"))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	var env api.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if env.Success {
		t.Error("envelope should be a failure")
	}
}
