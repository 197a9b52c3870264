package sessions

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"sitevis/internal/editor"
)

// ErrNotFound is returned for unknown sessions and for sessions owned by
// someone else.
var ErrNotFound = errors.New("project not found")

// Registry keeps the live editing sessions in memory. Nothing survives a
// restart.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*editor.Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[uuid.UUID]*editor.Session)}
}

func (r *Registry) Add(s *editor.Session) {
	r.mu.Lock()
	r.sessions[s.ID()] = s
	r.mu.Unlock()
}

// Get returns the session only when owner owns it.
func (r *Registry) Get(id uuid.UUID, owner string) (*editor.Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok || s.OwnerID() != owner {
		return nil, ErrNotFound
	}
	return s, nil
}

func (r *Registry) Delete(id uuid.UUID, owner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.OwnerID() != owner {
		return ErrNotFound
	}
	delete(r.sessions, id)
	return nil
}

// List returns the owner's sessions, newest first.
func (r *Registry) List(owner string) []*editor.Session {
	r.mu.RLock()
	var out []*editor.Session
	for _, s := range r.sessions {
		if s.OwnerID() == owner {
			out = append(out, s)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].View().CreatedAt.After(out[j].View().CreatedAt)
	})
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep drops sessions idle since before now-ttl. A session with an edit
// in flight is kept regardless of age. It returns the evicted IDs.
func (r *Registry) Sweep(now time.Time, ttl time.Duration) []uuid.UUID {
	cutoff := now.Add(-ttl)
	r.mu.Lock()
	defer r.mu.Unlock()

	var evicted []uuid.UUID
	for id, s := range r.sessions {
		last, pending := s.IdleSince()
		if pending || !last.Before(cutoff) {
			continue
		}
		delete(r.sessions, id)
		evicted = append(evicted, id)
	}
	return evicted
}
