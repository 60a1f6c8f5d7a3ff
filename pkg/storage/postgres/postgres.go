// Package postgres provides a PostgreSQL implementation of storage.Store.
// It uses pgx/v5 for connection pooling so tracked sessions and
// deployments survive gateway restarts.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avollmer/agentcore-showcase/pkg/storage"
)

// Store is a PostgreSQL-backed storage.Store.
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.Store = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// PutInterpreterSession inserts or replaces a sandbox binding.
func (s *Store) PutInterpreterSession(ctx context.Context, rec *storage.InterpreterSession) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO interpreter_sessions (session_id, interpreter_session_id, language, created_at, last_used_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (session_id) DO UPDATE SET
			interpreter_session_id = EXCLUDED.interpreter_session_id,
			language = EXCLUDED.language,
			last_used_at = EXCLUDED.last_used_at
	`, rec.SessionID, rec.InterpreterSessionID, rec.Language, rec.CreatedAt, rec.LastUsedAt)
	if err != nil {
		return fmt.Errorf("upserting interpreter session: %w", err)
	}
	return nil
}

// GetInterpreterSession retrieves the binding for a UI session.
func (s *Store) GetInterpreterSession(ctx context.Context, sessionID string) (*storage.InterpreterSession, error) {
	var rec storage.InterpreterSession
	err := s.pool.QueryRow(ctx, `
		SELECT session_id, interpreter_session_id, language, created_at, last_used_at
		FROM interpreter_sessions
		WHERE session_id = $1
	`, sessionID).Scan(&rec.SessionID, &rec.InterpreterSessionID, &rec.Language, &rec.CreatedAt, &rec.LastUsedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying interpreter session: %w", err)
	}
	return &rec, nil
}

// DeleteInterpreterSession removes the binding for a UI session.
func (s *Store) DeleteInterpreterSession(ctx context.Context, sessionID string) error {
	result, err := s.pool.Exec(ctx,
		"DELETE FROM interpreter_sessions WHERE session_id = $1", sessionID)
	if err != nil {
		return fmt.Errorf("deleting interpreter session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListInterpreterSessions returns all bindings, newest first.
func (s *Store) ListInterpreterSessions(ctx context.Context) ([]*storage.InterpreterSession, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT session_id, interpreter_session_id, language, created_at, last_used_at
		FROM interpreter_sessions
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing interpreter sessions: %w", err)
	}
	defer rows.Close()

	var out []*storage.InterpreterSession
	for rows.Next() {
		var rec storage.InterpreterSession
		if err := rows.Scan(&rec.SessionID, &rec.InterpreterSessionID, &rec.Language, &rec.CreatedAt, &rec.LastUsedAt); err != nil {
			return nil, fmt.Errorf("scanning interpreter session: %w", err)
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// PutDeployment inserts or replaces a deployment record.
func (s *Store) PutDeployment(ctx context.Context, rec *storage.Deployment) error {
	updatedAt := rec.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO deployments (
			session_id, deployment_type, agent_name, runtime_id, runtime_arn,
			runtime_version, status, s3_key, image_uri, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (session_id) DO UPDATE SET
			deployment_type = EXCLUDED.deployment_type,
			agent_name = EXCLUDED.agent_name,
			runtime_id = EXCLUDED.runtime_id,
			runtime_arn = EXCLUDED.runtime_arn,
			runtime_version = EXCLUDED.runtime_version,
			status = EXCLUDED.status,
			s3_key = EXCLUDED.s3_key,
			image_uri = EXCLUDED.image_uri,
			updated_at = EXCLUDED.updated_at
	`,
		rec.SessionID, rec.DeploymentType, rec.AgentName, rec.RuntimeID, rec.RuntimeARN,
		rec.RuntimeVersion, rec.Status, rec.S3Key, rec.ImageURI, rec.CreatedAt, updatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting deployment: %w", err)
	}
	return nil
}

// GetDeployment retrieves the deployment for a UI session.
func (s *Store) GetDeployment(ctx context.Context, sessionID string) (*storage.Deployment, error) {
	var rec storage.Deployment
	err := s.pool.QueryRow(ctx, `
		SELECT session_id, deployment_type, agent_name, runtime_id, runtime_arn,
		       runtime_version, status, s3_key, image_uri, created_at, updated_at
		FROM deployments
		WHERE session_id = $1
	`, sessionID).Scan(
		&rec.SessionID, &rec.DeploymentType, &rec.AgentName, &rec.RuntimeID, &rec.RuntimeARN,
		&rec.RuntimeVersion, &rec.Status, &rec.S3Key, &rec.ImageURI, &rec.CreatedAt, &rec.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying deployment: %w", err)
	}
	return &rec, nil
}

// DeleteDeployment removes the deployment for a UI session.
func (s *Store) DeleteDeployment(ctx context.Context, sessionID string) error {
	result, err := s.pool.Exec(ctx,
		"DELETE FROM deployments WHERE session_id = $1", sessionID)
	if err != nil {
		return fmt.Errorf("deleting deployment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListDeployments returns all deployments, newest first.
func (s *Store) ListDeployments(ctx context.Context) ([]*storage.Deployment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT session_id, deployment_type, agent_name, runtime_id, runtime_arn,
		       runtime_version, status, s3_key, image_uri, created_at, updated_at
		FROM deployments
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing deployments: %w", err)
	}
	defer rows.Close()

	var out []*storage.Deployment
	for rows.Next() {
		var rec storage.Deployment
		err := rows.Scan(
			&rec.SessionID, &rec.DeploymentType, &rec.AgentName, &rec.RuntimeID, &rec.RuntimeARN,
			&rec.RuntimeVersion, &rec.Status, &rec.S3Key, &rec.ImageURI, &rec.CreatedAt, &rec.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning deployment: %w", err)
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
