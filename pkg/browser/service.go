package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/avollmer/agentcore-showcase/pkg/api"
)

// Launcher is the sandbox surface the service drives. *Client
// implements it.
type Launcher interface {
	Start(ctx context.Context, name string) (*Session, error)
	Get(ctx context.Context, sessionID string) (*Session, error)
	Stop(ctx context.Context, sessionID string) error
}

// Narrator streams the model's step-by-step narration of a browsing
// task.
type Narrator interface {
	Stream(ctx context.Context, system, prompt string, onDelta func(delta string) error) error
}

// Notifier delivers task narration to the session's websocket clients.
// The hub implements it.
type Notifier interface {
	SendToSession(sessionID string, payload any)
}

const narratorSystem = "You narrate, step by step and in present tense, how a browser automation agent would perform the given task. Keep each step to one short sentence."

// binding tracks one browser sandbox per UI session.
type binding struct {
	session        *Session
	createdAt      time.Time
	lastActivityAt time.Time
}

// Service tracks one browser sandbox per UI session and runs the
// narrated browsing demo.
type Service struct {
	launcher Launcher
	narrator Narrator
	notifier Notifier
	logger   *slog.Logger

	mu       sync.Mutex
	sessions map[string]*binding
}

// NewService creates a browser service.
func NewService(launcher Launcher, narrator Narrator, notifier Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		launcher: launcher,
		narrator: narrator,
		notifier: notifier,
		logger:   logger,
		sessions: map[string]*binding{},
	}
}

// Start launches a browser sandbox for the UI session. Starting twice
// returns the existing sandbox.
func (s *Service) Start(ctx context.Context, sessionID string) (*api.BrowserSessionView, error) {
	s.mu.Lock()
	if b, ok := s.sessions[sessionID]; ok {
		view := s.viewLocked(sessionID, b)
		s.mu.Unlock()
		return &view, nil
	}
	s.mu.Unlock()

	session, err := s.launcher.Start(ctx, "showcase-browser-"+sessionID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	b := &binding{session: session, createdAt: now, lastActivityAt: now}
	s.mu.Lock()
	s.sessions[sessionID] = b
	view := s.viewLocked(sessionID, b)
	s.mu.Unlock()

	s.logger.Info("started browser session",
		slog.String("session_id", sessionID),
		slog.String("browser_session_id", session.SessionID),
	)
	return &view, nil
}

// Task narrates a browsing task over the session's websocket and
// returns the full narration.
func (s *Service) Task(ctx context.Context, sessionID, task string) (string, error) {
	if task == "" {
		return "", api.NewInvalidRequestError("task", "task must not be empty")
	}

	s.mu.Lock()
	b, ok := s.sessions[sessionID]
	if ok {
		b.lastActivityAt = time.Now()
	}
	s.mu.Unlock()
	if !ok {
		return "", api.NewNotFoundError(fmt.Sprintf("no browser session for %q", sessionID))
	}

	var narration string
	err := s.narrator.Stream(ctx, narratorSystem, task, func(delta string) error {
		narration += delta
		s.notifier.SendToSession(sessionID, map[string]any{
			"type":  "browser_task",
			"delta": delta,
		})
		return nil
	})
	if err != nil {
		return "", err
	}

	s.notifier.SendToSession(sessionID, map[string]any{
		"type": "browser_task_done",
	})
	return narration, nil
}

// Stop terminates the UI session's browser sandbox.
func (s *Service) Stop(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	b, ok := s.sessions[sessionID]
	if ok {
		delete(s.sessions, sessionID)
	}
	s.mu.Unlock()
	if !ok {
		return api.NewNotFoundError(fmt.Sprintf("no browser session for %q", sessionID))
	}

	if err := s.launcher.Stop(ctx, b.session.SessionID); err != nil {
		s.logger.Warn("stopping browser session",
			slog.String("browser_session_id", b.session.SessionID),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// Sessions lists all tracked browser sandboxes, newest first.
func (s *Service) Sessions() []api.BrowserSessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	views := make([]api.BrowserSessionView, 0, len(s.sessions))
	for id, b := range s.sessions {
		views = append(views, s.viewLocked(id, b))
	}
	sort.Slice(views, func(i, j int) bool {
		return views[i].CreatedAt.After(views[j].CreatedAt)
	})
	return views
}

// StopAll terminates every tracked sandbox. Called on shutdown.
func (s *Service) StopAll(ctx context.Context) {
	s.mu.Lock()
	bindings := make(map[string]*binding, len(s.sessions))
	for id, b := range s.sessions {
		bindings[id] = b
	}
	s.sessions = map[string]*binding{}
	s.mu.Unlock()

	for _, b := range bindings {
		if err := s.launcher.Stop(ctx, b.session.SessionID); err != nil {
			s.logger.Warn("stopping browser session",
				slog.String("browser_session_id", b.session.SessionID),
				slog.String("error", err.Error()),
			)
		}
	}
}

func (s *Service) viewLocked(sessionID string, b *binding) api.BrowserSessionView {
	return api.BrowserSessionView{
		SessionID:        sessionID,
		BrowserSessionID: b.session.SessionID,
		Status:           b.session.Status,
		LiveViewURL:      b.session.LiveViewURL,
		AutomationURL:    b.session.AutomationURL,
		CreatedAt:        b.createdAt,
		LastActivityAt:   b.lastActivityAt,
	}
}
