package storage

import "time"

// InterpreterSession binds a UI session to a live code interpreter sandbox.
type InterpreterSession struct {
	SessionID            string
	InterpreterSessionID string
	Language             string
	CreatedAt            time.Time
	LastUsedAt           time.Time
}

// Deployment tracks an agent runtime created through the deploy demos.
type Deployment struct {
	SessionID      string
	DeploymentType string // "code" or "container"
	AgentName      string
	RuntimeID      string
	RuntimeARN     string
	RuntimeVersion string
	Status         string
	S3Key          string
	ImageURI       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
