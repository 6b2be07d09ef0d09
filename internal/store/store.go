// Package store persists whole workshop sessions.
package store

import (
	"context"
	"sort"
	"sync"

	"workshop/api/internal/workshop"
)

// Repository loads and saves session aggregates as a unit. Implementations
// hand out copies: mutating a returned session never changes stored state.
type Repository interface {
	Get(ctx context.Context, id string) (*workshop.Session, error)
	Put(ctx context.Context, session *workshop.Session) error
	List(ctx context.Context) ([]*workshop.Session, error)
}

// Pinger is implemented by repositories backed by a remote service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*workshop.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*workshop.Session)}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*workshop.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, workshop.NotFound("session", id)
	}
	return session.Clone(), nil
}

func (s *MemoryStore) Put(_ context.Context, session *workshop.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session.Clone()
	return nil
}

// List returns every session, newest first.
func (s *MemoryStore) List(_ context.Context) ([]*workshop.Session, error) {
	s.mu.RLock()
	out := make([]*workshop.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, session.Clone())
	}
	s.mu.RUnlock()
	SortNewestFirst(out)
	return out, nil
}

// SortNewestFirst orders sessions by creation time, newest first, breaking
// ties by id so the order is stable.
func SortNewestFirst(sessions []*workshop.Session) {
	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
		}
		return sessions[i].ID < sessions[j].ID
	})
}
