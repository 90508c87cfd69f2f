package registry

import (
	"MayaCRM/internal/entity"
	"context"
	"sync"
	"time"
)

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*entity.Session
	queues   map[string][]entity.Command
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		sessions: make(map[string]*entity.Session),
		queues:   make(map[string][]entity.Command),
	}
}

func (s *memoryStore) PutSession(_ context.Context, session *entity.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *session
	s.sessions[session.ID] = &copied
	if _, ok := s.queues[session.ID]; !ok {
		s.queues[session.ID] = nil
	}
	return nil
}

func (s *memoryStore) GetSession(_ context.Context, id string) (*entity.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	copied := *session
	return &copied, nil
}

func (s *memoryStore) ListSessions(_ context.Context, userID string) ([]*entity.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*entity.Session
	for _, session := range s.sessions {
		if session.UserID == userID {
			copied := *session
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (s *memoryStore) AllSessions(_ context.Context) ([]*entity.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*entity.Session
	for _, session := range s.sessions {
		copied := *session
		result = append(result, &copied)
	}
	return result, nil
}

func (s *memoryStore) RemoveSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	delete(s.queues, id)
	return nil
}

func (s *memoryStore) Enqueue(_ context.Context, sessionID string, cmd entity.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queues[sessionID] = append(s.queues[sessionID], cmd)
	return nil
}

func (s *memoryStore) DequeueDue(_ context.Context, sessionID string, now time.Time) ([]entity.Command, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue := s.queues[sessionID]
	if len(queue) == 0 {
		return nil, nil
	}

	var due, remaining []entity.Command
	for _, cmd := range queue {
		if cmd.Due(now) {
			due = append(due, cmd)
		} else {
			remaining = append(remaining, cmd)
		}
	}

	s.queues[sessionID] = remaining
	return due, nil
}

func (s *memoryStore) QueuedCount(_ context.Context, sessionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.queues[sessionID]), nil
}

func (s *memoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = nil
	s.queues = nil
	return nil
}
