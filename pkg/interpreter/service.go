package interpreter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avollmer/agentcore-showcase/pkg/api"
	"github.com/avollmer/agentcore-showcase/pkg/storage"
)

// Runner is the sandbox surface the service drives. *Client implements it.
type Runner interface {
	StartSession(ctx context.Context, name string) (string, error)
	StopSession(ctx context.Context, sessionID string) error
	Execute(ctx context.Context, sessionID, code, language string) (*Result, error)
	ExecuteCommand(ctx context.Context, sessionID, command string) (*Result, error)
	WriteFiles(ctx context.Context, sessionID string, files []File) (*Result, error)
	ListFiles(ctx context.Context, sessionID, path string) (*Result, error)
	RemoveFiles(ctx context.Context, sessionID string, paths []string) (*Result, error)
}

// Service tracks one sandbox per UI session and exposes the interpreter
// operations the API serves.
type Service struct {
	runner Runner
	store  storage.Store
	logger *slog.Logger
}

// NewService creates an interpreter service.
func NewService(runner Runner, store storage.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{runner: runner, store: store, logger: logger}
}

// ExecuteCode runs code in the UI session's sandbox, starting one on
// first use.
func (s *Service) ExecuteCode(ctx context.Context, sessionID, code, language string) (*api.ExecuteResult, error) {
	ciSessionID, err := s.ensureSession(ctx, sessionID, language)
	if err != nil {
		return nil, err
	}

	result, err := s.runner.Execute(ctx, ciSessionID, code, language)
	if err != nil {
		return nil, err
	}
	s.touch(ctx, sessionID)

	return &api.ExecuteResult{
		SessionID: sessionID,
		Output:    result.Output,
		IsError:   result.IsError,
	}, nil
}

// ExecuteCommand runs a shell command in the UI session's sandbox.
func (s *Service) ExecuteCommand(ctx context.Context, sessionID, command string) (*api.ExecuteResult, error) {
	ciSessionID, err := s.ensureSession(ctx, sessionID, "python")
	if err != nil {
		return nil, err
	}

	result, err := s.runner.ExecuteCommand(ctx, ciSessionID, command)
	if err != nil {
		return nil, err
	}
	s.touch(ctx, sessionID)

	return &api.ExecuteResult{
		SessionID: sessionID,
		Output:    result.Output,
		IsError:   result.IsError,
	}, nil
}

// Reset stops the UI session's sandbox and forgets the binding. The next
// execution starts a fresh sandbox.
func (s *Service) Reset(ctx context.Context, sessionID string) error {
	rec, err := s.store.GetInterpreterSession(ctx, sessionID)
	if errors.Is(err, storage.ErrNotFound) {
		return api.NewNotFoundError(fmt.Sprintf("no interpreter session for %q", sessionID))
	}
	if err != nil {
		return err
	}

	// A stop failure must not leave the binding stuck; the sandbox times
	// out on its own after the idle period.
	if err := s.runner.StopSession(ctx, rec.InterpreterSessionID); err != nil {
		s.logger.Warn("failed to stop interpreter session",
			slog.String("session_id", sessionID),
			slog.String("interpreter_session_id", rec.InterpreterSessionID),
			slog.String("error", err.Error()),
		)
	}

	return s.store.DeleteInterpreterSession(ctx, sessionID)
}

// Sessions lists all tracked sandbox bindings.
func (s *Service) Sessions(ctx context.Context) ([]api.InterpreterSessionView, error) {
	recs, err := s.store.ListInterpreterSessions(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]api.InterpreterSessionView, 0, len(recs))
	for _, rec := range recs {
		out = append(out, api.InterpreterSessionView{
			SessionID:            rec.SessionID,
			InterpreterSessionID: rec.InterpreterSessionID,
			CreatedAt:            rec.CreatedAt,
			LastUsedAt:           rec.LastUsedAt,
		})
	}
	return out, nil
}

// StopAll stops every tracked sandbox. Called on shutdown.
func (s *Service) StopAll(ctx context.Context) {
	recs, err := s.store.ListInterpreterSessions(ctx)
	if err != nil {
		s.logger.Warn("listing interpreter sessions for shutdown", slog.String("error", err.Error()))
		return
	}
	for _, rec := range recs {
		if err := s.runner.StopSession(ctx, rec.InterpreterSessionID); err != nil {
			s.logger.Warn("stopping interpreter session",
				slog.String("interpreter_session_id", rec.InterpreterSessionID),
				slog.String("error", err.Error()),
			)
		}
		_ = s.store.DeleteInterpreterSession(ctx, rec.SessionID)
	}
}

// ensureSession returns the sandbox bound to the UI session, starting a
// new one if needed.
func (s *Service) ensureSession(ctx context.Context, sessionID, language string) (string, error) {
	rec, err := s.store.GetInterpreterSession(ctx, sessionID)
	if err == nil {
		return rec.InterpreterSessionID, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return "", err
	}

	ciSessionID, err := s.runner.StartSession(ctx, sessionName(sessionID))
	if err != nil {
		return "", err
	}

	now := time.Now()
	rec = &storage.InterpreterSession{
		SessionID:            sessionID,
		InterpreterSessionID: ciSessionID,
		Language:             language,
		CreatedAt:            now,
		LastUsedAt:           now,
	}
	if err := s.store.PutInterpreterSession(ctx, rec); err != nil {
		return "", err
	}

	s.logger.Info("started interpreter session",
		slog.String("session_id", sessionID),
		slog.String("interpreter_session_id", ciSessionID),
	)
	return ciSessionID, nil
}

// touch refreshes the binding's last-used timestamp.
func (s *Service) touch(ctx context.Context, sessionID string) {
	rec, err := s.store.GetInterpreterSession(ctx, sessionID)
	if err != nil {
		return
	}
	rec.LastUsedAt = time.Now()
	_ = s.store.PutInterpreterSession(ctx, rec)
}
