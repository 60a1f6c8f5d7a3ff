package api

import "time"

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult is returned on successful login.
type LoginResult struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionInfo describes the authenticated caller.
type SessionInfo struct {
	Username     string `json:"username"`
	LoginEnabled bool   `json:"login_enabled"`
}

// ExecuteCodeRequest is the body of POST /api/interpreter/execute.
type ExecuteCodeRequest struct {
	SessionID string `json:"session_id"`
	Code      string `json:"code"`
	Language  string `json:"language,omitempty"`
}

// ExecuteCommandRequest is the body of POST /api/interpreter/command.
type ExecuteCommandRequest struct {
	SessionID string `json:"session_id"`
	Command   string `json:"command"`
}

// ResetRequest is the body of POST /api/interpreter/reset.
type ResetRequest struct {
	SessionID string `json:"session_id"`
}

// ExecuteResult carries the output of a code or command execution.
type ExecuteResult struct {
	SessionID string `json:"session_id"`
	Output    string `json:"output"`
	IsError   bool   `json:"is_error"`
}

// InterpreterSessionView describes one tracked interpreter sandbox.
type InterpreterSessionView struct {
	SessionID            string    `json:"session_id"`
	InterpreterSessionID string    `json:"interpreter_session_id"`
	CreatedAt            time.Time `json:"created_at"`
	LastUsedAt           time.Time `json:"last_used_at"`
}

// MemoryInitResult reports the memory resources the service is bound to.
type MemoryInitResult struct {
	STMMemoryID string `json:"stm_memory_id"`
	LTMMemoryID string `json:"ltm_memory_id"`
	Created     bool   `json:"created"`
}

// Turn is a single conversational turn stored in or read from a memory.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// StoreTurnsRequest is the body of the STM/LTM step-1 demo endpoints.
// Empty fields fall back to the built-in demo actor, session, and turns.
type StoreTurnsRequest struct {
	ActorID   string `json:"actor_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Turns     []Turn `json:"turns,omitempty"`
}

// StoreTurnsResult reports how many turns were persisted.
type StoreTurnsResult struct {
	MemoryID  string `json:"memory_id"`
	ActorID   string `json:"actor_id"`
	SessionID string `json:"session_id"`
	Stored    int    `json:"stored"`
}

// AskRequest is the body of the STM/LTM step-2 demo endpoints.
type AskRequest struct {
	ActorID   string `json:"actor_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Question  string `json:"question"`
}

// AskResult carries the model answer plus the memory context it was given.
type AskResult struct {
	Answer    string             `json:"answer"`
	TurnsUsed []Turn             `json:"turns_used,omitempty"`
	Records   []MemoryRecordView `json:"records,omitempty"`
}

// MemoryView summarizes a memory resource.
type MemoryView struct {
	MemoryID   string         `json:"memory_id"`
	Name       string         `json:"name,omitempty"`
	ARN        string         `json:"arn,omitempty"`
	Status     string         `json:"status"`
	CreatedAt  *time.Time     `json:"created_at,omitempty"`
	Strategies []StrategyView `json:"strategies,omitempty"`
}

// StrategyView summarizes an extraction strategy attached to a memory.
type StrategyView struct {
	StrategyID string `json:"strategy_id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
}

// MemoryEventView summarizes one stored event and its turns.
type MemoryEventView struct {
	EventID   string     `json:"event_id"`
	SessionID string     `json:"session_id"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Turns     []Turn     `json:"turns,omitempty"`
}

// MemoryRecordView summarizes one extracted long-term record.
type MemoryRecordView struct {
	RecordID   string     `json:"record_id"`
	Namespaces []string   `json:"namespaces,omitempty"`
	Text       string     `json:"text"`
	Score      *float64   `json:"score,omitempty"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
}

// DeploymentType distinguishes the two agent runtime packaging modes.
type DeploymentType string

const (
	DeploymentTypeCode      DeploymentType = "code"
	DeploymentTypeContainer DeploymentType = "container"
)

// DeploymentView describes a tracked agent runtime deployment.
type DeploymentView struct {
	SessionID      string         `json:"session_id"`
	DeploymentType DeploymentType `json:"deployment_type"`
	AgentName      string         `json:"agent_name"`
	RuntimeID      string         `json:"runtime_id,omitempty"`
	RuntimeARN     string         `json:"runtime_arn,omitempty"`
	Status         string         `json:"status"`
	S3Key          string         `json:"s3_key,omitempty"`
	ImageURI       string         `json:"image_uri,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// RuntimeStatusResult is the response of GET /api/runtime/status.
type RuntimeStatusResult struct {
	Status     string `json:"status"`
	RuntimeID  string `json:"runtime_id,omitempty"`
	RuntimeARN string `json:"runtime_arn,omitempty"`
	Ready      bool   `json:"ready"`
	Failed     bool   `json:"failed"`
}

// InvokeRuntimeRequest is the body of POST /api/runtime/invoke.
type InvokeRuntimeRequest struct {
	SessionID        string         `json:"session_id"`
	Prompt           string         `json:"prompt"`
	RuntimeSessionID string         `json:"runtime_session_id,omitempty"`
	DeploymentType   DeploymentType `json:"deployment_type,omitempty"`
}

// InvokeRuntimeResult carries a deployed agent's reply.
type InvokeRuntimeResult struct {
	Response         string `json:"response"`
	RuntimeSessionID string `json:"runtime_session_id"`
}

// CleanupRequest is the body of POST /api/runtime/cleanup.
type CleanupRequest struct {
	SessionID string `json:"session_id"`
}

// CleanupResult reports which resources were removed.
type CleanupResult struct {
	RuntimeDeleted  bool `json:"runtime_deleted"`
	PackageDeleted  bool `json:"package_deleted"`
	SessionReleased bool `json:"session_released"`
}

// RuntimeConfigView exposes the effective code-deployment configuration.
type RuntimeConfigView struct {
	Region           string `json:"region"`
	AccountID        string `json:"account_id"`
	S3Bucket         string `json:"s3_bucket"`
	ExecutionRoleARN string `json:"execution_role_arn"`
	PackagePath      string `json:"package_path"`
	AgentName        string `json:"agent_name"`
}

// ContainerConfigView exposes the effective container-deployment configuration.
type ContainerConfigView struct {
	Repository       string `json:"repository"`
	ImageTag         string `json:"image_tag"`
	ImageURI         string `json:"image_uri"`
	ExecutionRoleARN string `json:"execution_role_arn"`
	AgentName        string `json:"agent_name"`
}

// BrowserStartRequest is the body of POST /api/browser/start.
type BrowserStartRequest struct {
	SessionID string `json:"session_id"`
}

// BrowserTaskRequest is the body of POST /api/browser/task.
type BrowserTaskRequest struct {
	SessionID string `json:"session_id"`
	Task      string `json:"task"`
}

// BrowserStopRequest is the body of POST /api/browser/stop.
type BrowserStopRequest struct {
	SessionID string `json:"session_id"`
}

// BrowserSessionView describes one tracked browser sandbox.
type BrowserSessionView struct {
	SessionID        string    `json:"session_id"`
	BrowserSessionID string    `json:"browser_session_id"`
	Status           string    `json:"status"`
	LiveViewURL      string    `json:"live_view_url,omitempty"`
	AutomationURL    string    `json:"automation_url,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	LastActivityAt   time.Time `json:"last_activity_at"`
}

// SessionsStatusResult is the aggregate view behind GET /api/sessions/status.
type SessionsStatusResult struct {
	InterpreterSessions []InterpreterSessionView `json:"interpreter_sessions"`
	Deployments         []DeploymentView         `json:"deployments"`
	BrowserSessions     []BrowserSessionView     `json:"browser_sessions"`
	WebSocketClients    int                      `json:"websocket_clients"`
}
