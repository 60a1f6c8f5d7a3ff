// Package http serves the showcase API: JSON endpoints wrapped in the
// success/error envelope, SSE demo streams, the websocket endpoint, and
// the health and metrics surfaces.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/avollmer/agentcore-showcase/pkg/api"
	"github.com/avollmer/agentcore-showcase/pkg/auth"
	"github.com/avollmer/agentcore-showcase/pkg/storage"
	"github.com/avollmer/agentcore-showcase/pkg/transport"
)

// InterpreterService is the code interpreter surface the adapter
// exposes.
type InterpreterService interface {
	ExecuteCode(ctx context.Context, sessionID, code, language string) (*api.ExecuteResult, error)
	ExecuteCommand(ctx context.Context, sessionID, command string) (*api.ExecuteResult, error)
	Reset(ctx context.Context, sessionID string) error
	Sessions(ctx context.Context) ([]api.InterpreterSessionView, error)
	FileDemo(ctx context.Context, stream transport.LineStream, sessionID string) error
	ShellDemo(ctx context.Context, stream transport.LineStream, sessionID string) error
}

// MemoryService is the memory surface the adapter exposes.
type MemoryService interface {
	Init(ctx context.Context) (*api.MemoryInitResult, error)
	InitStream(ctx context.Context, stream transport.LineStream) error
	CreateSTMStream(ctx context.Context, stream transport.LineStream) error
	CreateLTMStream(ctx context.Context, stream transport.LineStream) error
	List(ctx context.Context) ([]api.MemoryView, error)
	Delete(ctx context.Context, memoryID string) error
	STMStep1(ctx context.Context, req *api.StoreTurnsRequest) (*api.StoreTurnsResult, error)
	STMStep2(ctx context.Context, req *api.AskRequest) (*api.AskResult, error)
	LTMStep1(ctx context.Context, req *api.StoreTurnsRequest) (*api.StoreTurnsResult, error)
	LTMStep2(ctx context.Context, req *api.AskRequest) (*api.AskResult, error)
	CombinedDemo(ctx context.Context, stream transport.LineStream) error
	ListEvents(ctx context.Context, memoryID, actorID, sessionID string) ([]api.MemoryEventView, error)
	ListRecords(ctx context.Context, memoryID, actorID string) ([]api.MemoryRecordView, error)
}

// RuntimeService is the deployment surface the adapter exposes.
type RuntimeService interface {
	CodeStep2(ctx context.Context, stream transport.LineStream) error
	CodeStep3(ctx context.Context, stream transport.LineStream) error
	CodeStep4(ctx context.Context, stream transport.LineStream) error
	PackageStep(ctx context.Context) (map[string]any, error)
	DeployStream(ctx context.Context, stream transport.LineStream, sessionID string) error
	Status(ctx context.Context, sessionID string) (*api.RuntimeStatusResult, error)
	Invoke(ctx context.Context, req *api.InvokeRuntimeRequest) (*api.InvokeRuntimeResult, error)
	Cleanup(ctx context.Context, sessionID string) (*api.CleanupResult, error)
	ReleaseSession(ctx context.Context, sessionID string) error
	Deployments(ctx context.Context) ([]api.DeploymentView, error)
	ConfigView() *api.RuntimeConfigView
	ContainerConfigView() *api.ContainerConfigView
	ContainerStep1(ctx context.Context, stream transport.LineStream) error
	ContainerStep2(ctx context.Context, stream transport.LineStream) error
	ContainerStep3(ctx context.Context, stream transport.LineStream) error
	ContainerStep4(ctx context.Context, stream transport.LineStream) error
	ContainerStep5(ctx context.Context, stream transport.LineStream) error
	ContainerStep6(ctx context.Context, stream transport.LineStream, sessionID string) error
}

// BrowserService is the browser sandbox surface the adapter exposes.
type BrowserService interface {
	Start(ctx context.Context, sessionID string) (*api.BrowserSessionView, error)
	Task(ctx context.Context, sessionID, task string) (string, error)
	Stop(ctx context.Context, sessionID string) error
	Sessions() []api.BrowserSessionView
}

// Hub is the websocket surface the status endpoint needs.
type Hub interface {
	ClientCount() int
}

// Config holds the adapter settings.
type Config struct {
	MaxBodySize int64
	StreamDelay time.Duration
	MetricsPath string
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		MaxBodySize: 1 << 20,
		StreamDelay: 400 * time.Millisecond,
		MetricsPath: "/metrics",
	}
}

// Services bundles everything the adapter serves.
type Services struct {
	Auth        *auth.Manager
	Interpreter InterpreterService
	Memory      MemoryService
	Runtime     RuntimeService
	Browser     BrowserService
	Hub         Hub
	WSHandler   http.Handler
	Store       storage.Store
}

// Adapter routes the showcase API.
type Adapter struct {
	svc    Services
	cfg    Config
	mux    *http.ServeMux
	logger *slog.Logger
}

// NewAdapter creates an adapter. Middleware is applied outermost first.
func NewAdapter(svc Services, cfg Config, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = DefaultConfig().MaxBodySize
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = DefaultConfig().MetricsPath
	}

	a := &Adapter{svc: svc, cfg: cfg, mux: http.NewServeMux(), logger: logger}
	a.routes()
	return a
}

func (a *Adapter) routes() {
	a.mux.HandleFunc("POST /api/auth/login", a.handleLogin)
	a.mux.HandleFunc("POST /api/auth/logout", a.handleLogout)
	a.mux.HandleFunc("GET /api/auth/session", a.handleSession)

	a.mux.HandleFunc("POST /api/interpreter/execute", a.handleExecuteCode)
	a.mux.HandleFunc("POST /api/interpreter/command", a.handleExecuteCommand)
	a.mux.HandleFunc("POST /api/interpreter/reset", a.handleInterpreterReset)
	a.mux.HandleFunc("GET /api/interpreter/sessions", a.handleInterpreterSessions)
	a.mux.HandleFunc("GET /api/interpreter/demo/files-stream", a.handleFileDemo)
	a.mux.HandleFunc("GET /api/interpreter/demo/shell-stream", a.handleShellDemo)

	a.mux.HandleFunc("POST /api/memory/init", a.handleMemoryInit)
	a.mux.HandleFunc("GET /api/memory/init-stream", a.streamHandler(a.svc.Memory.InitStream))
	a.mux.HandleFunc("GET /api/memory/create-stm-stream", a.streamHandler(a.svc.Memory.CreateSTMStream))
	a.mux.HandleFunc("GET /api/memory/create-ltm-stream", a.streamHandler(a.svc.Memory.CreateLTMStream))
	a.mux.HandleFunc("GET /api/memory/list", a.handleMemoryList)
	a.mux.HandleFunc("DELETE /api/memory/{memoryID}", a.handleMemoryDelete)
	a.mux.HandleFunc("POST /api/memory/demo/stm-step1", a.handleSTMStep1)
	a.mux.HandleFunc("POST /api/memory/demo/stm-step2", a.handleSTMStep2)
	a.mux.HandleFunc("POST /api/memory/demo/ltm-step1", a.handleLTMStep1)
	a.mux.HandleFunc("POST /api/memory/demo/ltm-step2", a.handleLTMStep2)
	a.mux.HandleFunc("GET /api/memory/demo/combined-stream", a.streamHandler(a.svc.Memory.CombinedDemo))
	a.mux.HandleFunc("GET /api/memory/events", a.handleMemoryEvents)
	a.mux.HandleFunc("GET /api/memory/records", a.handleMemoryRecords)

	a.mux.HandleFunc("GET /api/runtime/demo/step2-stream", a.streamHandler(a.svc.Runtime.CodeStep2))
	a.mux.HandleFunc("GET /api/runtime/demo/step3-stream", a.streamHandler(a.svc.Runtime.CodeStep3))
	a.mux.HandleFunc("GET /api/runtime/demo/step4-stream", a.streamHandler(a.svc.Runtime.CodeStep4))
	a.mux.HandleFunc("POST /api/runtime/demo/step5-package", a.handleRuntimePackage)
	a.mux.HandleFunc("GET /api/runtime/demo/step5-deploy-stream", a.sessionStreamHandler(a.svc.Runtime.DeployStream))
	a.mux.HandleFunc("GET /api/runtime/status", a.handleRuntimeStatus)
	a.mux.HandleFunc("POST /api/runtime/invoke", a.handleRuntimeInvoke)
	a.mux.HandleFunc("POST /api/runtime/cleanup", a.handleRuntimeCleanup)
	a.mux.HandleFunc("DELETE /api/runtime/session/{sessionID}", a.handleRuntimeReleaseSession)
	a.mux.HandleFunc("GET /api/runtime/config", a.handleRuntimeConfig)
	a.mux.HandleFunc("GET /api/runtime/container/step1-stream", a.streamHandler(a.svc.Runtime.ContainerStep1))
	a.mux.HandleFunc("GET /api/runtime/container/step2-stream", a.streamHandler(a.svc.Runtime.ContainerStep2))
	a.mux.HandleFunc("GET /api/runtime/container/step3-stream", a.streamHandler(a.svc.Runtime.ContainerStep3))
	a.mux.HandleFunc("GET /api/runtime/container/step4-stream", a.streamHandler(a.svc.Runtime.ContainerStep4))
	a.mux.HandleFunc("GET /api/runtime/container/step5-stream", a.streamHandler(a.svc.Runtime.ContainerStep5))
	a.mux.HandleFunc("GET /api/runtime/container/step6-stream", a.sessionStreamHandler(a.svc.Runtime.ContainerStep6))
	a.mux.HandleFunc("GET /api/runtime/container/config", a.handleContainerConfig)

	a.mux.HandleFunc("POST /api/browser/start", a.handleBrowserStart)
	a.mux.HandleFunc("POST /api/browser/task", a.handleBrowserTask)
	a.mux.HandleFunc("POST /api/browser/stop", a.handleBrowserStop)
	a.mux.HandleFunc("GET /api/browser/sessions", a.handleBrowserSessions)

	a.mux.HandleFunc("GET /api/sessions/status", a.handleSessionsStatus)

	if a.svc.WSHandler != nil {
		a.mux.Handle("GET /ws", a.svc.WSHandler)
	}

	a.mux.HandleFunc("GET /healthz", a.handleHealthz)
	a.mux.HandleFunc("GET /readyz", a.handleReadyz)
	a.mux.Handle("GET "+a.cfg.MetricsPath, promhttp.Handler())
}

// Handler returns the routed handler without outer middleware.
func (a *Adapter) Handler() http.Handler {
	return a.mux
}

// decodeJSON reads a size-limited JSON body into v.
func (a *Adapter) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, a.cfg.MaxBodySize)
	defer body.Close()

	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			transport.WriteFailureStatus(w, http.StatusBadRequest, "request body is empty")
			return false
		}
		transport.WriteFailureStatus(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// respond writes either the success envelope or the error. Domain
// errors keep HTTP 200; anything else maps to its transport status.
func respond(w http.ResponseWriter, data any, err error) {
	if err == nil {
		transport.WriteSuccess(w, data)
		return
	}
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		transport.WriteFailure(w, apiErr.Message)
		return
	}
	transport.WriteError(w, err)
}

// streamHandler adapts a stream-only service method to an SSE endpoint.
func (a *Adapter) streamHandler(fn func(ctx context.Context, stream transport.LineStream) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stream := transport.NewStream(w, a.cfg.StreamDelay)
		if err := fn(r.Context(), stream); err != nil {
			a.logger.Warn("stream aborted",
				slog.String("path", r.URL.Path),
				slog.String("error", err.Error()),
			)
		}
	}
}

// sessionStreamHandler is streamHandler for methods that need the
// caller's UI session.
func (a *Adapter) sessionStreamHandler(fn func(ctx context.Context, stream transport.LineStream, sessionID string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := a.sessionFromQuery(w, r)
		if !ok {
			return
		}
		stream := transport.NewStream(w, a.cfg.StreamDelay)
		if err := fn(r.Context(), stream, sessionID); err != nil {
			a.logger.Warn("stream aborted",
				slog.String("path", r.URL.Path),
				slog.String("error", err.Error()),
			)
		}
	}
}

// sessionFromQuery validates the session_id query parameter.
func (a *Adapter) sessionFromQuery(w http.ResponseWriter, r *http.Request) (string, bool) {
	sessionID := r.URL.Query().Get("session_id")
	if err := api.ValidateSessionID(sessionID); err != nil {
		transport.WriteFailureStatus(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return sessionID, true
}
