// Package memory provides an in-memory storage.Store backed by maps with
// LRU eviction. It is the default backend; records do not survive restarts.
package memory

import (
	"container/list"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/avollmer/agentcore-showcase/pkg/storage"
)

// Store is an in-memory storage.Store. When the number of records of one
// kind exceeds maxSize, the least recently used record is evicted.
type Store struct {
	mu       sync.RWMutex
	maxSize  int
	sessions *recordMap[*storage.InterpreterSession]
	deploys  *recordMap[*storage.Deployment]
}

var _ storage.Store = (*Store)(nil)

// New creates an in-memory store holding at most maxSize records per kind.
// A non-positive maxSize falls back to 1000.
func New(maxSize int) *Store {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &Store{
		maxSize:  maxSize,
		sessions: newRecordMap[*storage.InterpreterSession](maxSize),
		deploys:  newRecordMap[*storage.Deployment](maxSize),
	}
}

// PutInterpreterSession inserts or replaces a sandbox binding.
func (s *Store) PutInterpreterSession(ctx context.Context, rec *storage.InterpreterSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.sessions.put(rec.SessionID, &cp)
	return nil
}

// GetInterpreterSession returns the binding for a UI session.
func (s *Store) GetInterpreterSession(ctx context.Context, sessionID string) (*storage.InterpreterSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sessions.get(sessionID)
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

// DeleteInterpreterSession removes the binding for a UI session.
func (s *Store) DeleteInterpreterSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.sessions.delete(sessionID) {
		return storage.ErrNotFound
	}
	return nil
}

// ListInterpreterSessions returns all bindings, newest first.
func (s *Store) ListInterpreterSessions(ctx context.Context) ([]*storage.InterpreterSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.sessions.values()
	out := make([]*storage.InterpreterSession, 0, len(all))
	for _, rec := range all {
		cp := *rec
		out = append(out, &cp)
	}
	sortByTime(out, func(r *storage.InterpreterSession) time.Time { return r.CreatedAt })
	return out, nil
}

// PutDeployment inserts or replaces a deployment record.
func (s *Store) PutDeployment(ctx context.Context, rec *storage.Deployment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.deploys.put(rec.SessionID, &cp)
	return nil
}

// GetDeployment returns the deployment for a UI session.
func (s *Store) GetDeployment(ctx context.Context, sessionID string) (*storage.Deployment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.deploys.get(sessionID)
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

// DeleteDeployment removes the deployment for a UI session.
func (s *Store) DeleteDeployment(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.deploys.delete(sessionID) {
		return storage.ErrNotFound
	}
	return nil
}

// ListDeployments returns all deployments, newest first.
func (s *Store) ListDeployments(ctx context.Context) ([]*storage.Deployment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.deploys.values()
	out := make([]*storage.Deployment, 0, len(all))
	for _, rec := range all {
		cp := *rec
		out = append(out, &cp)
	}
	sortByTime(out, func(r *storage.Deployment) time.Time { return r.CreatedAt })
	return out, nil
}

// HealthCheck always succeeds for the in-memory store.
func (s *Store) HealthCheck(ctx context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// recordMap is a map with LRU eviction. Access order is tracked with a
// doubly linked list; the back holds the least recently used key.
type recordMap[T any] struct {
	maxSize int
	entries map[string]*list.Element
	order   *list.List
}

type mapEntry[T any] struct {
	key   string
	value T
}

func newRecordMap[T any](maxSize int) *recordMap[T] {
	return &recordMap[T]{
		maxSize: maxSize,
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
}

func (m *recordMap[T]) put(key string, value T) {
	if elem, ok := m.entries[key]; ok {
		elem.Value.(*mapEntry[T]).value = value
		m.order.MoveToFront(elem)
		return
	}
	m.entries[key] = m.order.PushFront(&mapEntry[T]{key: key, value: value})
	if m.order.Len() > m.maxSize {
		oldest := m.order.Back()
		if oldest != nil {
			m.order.Remove(oldest)
			delete(m.entries, oldest.Value.(*mapEntry[T]).key)
		}
	}
}

func (m *recordMap[T]) get(key string) (T, bool) {
	elem, ok := m.entries[key]
	if !ok {
		var zero T
		return zero, false
	}
	m.order.MoveToFront(elem)
	return elem.Value.(*mapEntry[T]).value, true
}

func (m *recordMap[T]) delete(key string) bool {
	elem, ok := m.entries[key]
	if !ok {
		return false
	}
	m.order.Remove(elem)
	delete(m.entries, key)
	return true
}

func (m *recordMap[T]) values() []T {
	out := make([]T, 0, len(m.entries))
	for e := m.order.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(*mapEntry[T]).value)
	}
	return out
}

// sortByTime orders records newest first.
func sortByTime[T any](recs []T, at func(T) time.Time) {
	sort.Slice(recs, func(i, j int) bool {
		return at(recs[i]).After(at(recs[j]))
	})
}
