package sessionrepo

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/core/session"
)

// InMemorySessionRepository holds live sessions in a map guarded by an
// RWMutex. It stores the sessions it is given; callers that need isolation
// hand it snapshots.
type InMemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session
}

func NewInMemorySessionRepository() *InMemorySessionRepository {
	return &InMemorySessionRepository{
		sessions: make(map[string]*session.Session),
	}
}

func (r *InMemorySessionRepository) Save(ctx context.Context, s *session.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := s.Validate(); err != nil {
		return fmt.Errorf("invalid session: %w", err)
	}
	r.sessions[s.Key] = s
	return nil
}

func (r *InMemorySessionRepository) Get(ctx context.Context, key string) (*session.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[key]
	if !ok {
		return nil, session.ErrNotFound
	}
	return s, nil
}

// List returns all live sessions ordered by key for stable iteration.
func (r *InMemorySessionRepository) List(ctx context.Context) ([]*session.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*session.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (r *InMemorySessionRepository) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[key]; !ok {
		return session.ErrNotFound
	}
	delete(r.sessions, key)
	return nil
}
