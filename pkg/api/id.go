package api

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewRuntimeSessionID generates a runtime session ID that satisfies the
// AgentCore minimum length requirement (see MinRuntimeSessionIDLength).
func NewRuntimeSessionID() string {
	return fmt.Sprintf("session-%d-%s", time.Now().UnixNano(), uuid.NewString())
}

// NewSessionID generates a UI session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// NewClientToken generates an idempotency token for control-plane calls.
func NewClientToken() string {
	return uuid.NewString()
}
