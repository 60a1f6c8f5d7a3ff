package storage

import "context"

// Store persists the gateway's tracked state. All methods are safe for
// concurrent use.
type Store interface {
	// PutInterpreterSession inserts or replaces the sandbox binding for
	// the record's UI session.
	PutInterpreterSession(ctx context.Context, s *InterpreterSession) error

	// GetInterpreterSession returns the binding for a UI session, or
	// ErrNotFound.
	GetInterpreterSession(ctx context.Context, sessionID string) (*InterpreterSession, error)

	// DeleteInterpreterSession removes the binding. Returns ErrNotFound
	// if none exists.
	DeleteInterpreterSession(ctx context.Context, sessionID string) error

	// ListInterpreterSessions returns all bindings, newest first.
	ListInterpreterSessions(ctx context.Context) ([]*InterpreterSession, error)

	// PutDeployment inserts or replaces the deployment for the record's
	// UI session.
	PutDeployment(ctx context.Context, d *Deployment) error

	// GetDeployment returns the deployment for a UI session, or
	// ErrNotFound.
	GetDeployment(ctx context.Context, sessionID string) (*Deployment, error)

	// DeleteDeployment removes the deployment. Returns ErrNotFound if
	// none exists.
	DeleteDeployment(ctx context.Context, sessionID string) error

	// ListDeployments returns all deployments, newest first.
	ListDeployments(ctx context.Context) ([]*Deployment, error)

	// HealthCheck verifies the backend is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}
