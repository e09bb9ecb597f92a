package drafts

import (
	"maps"
	"sync"
)

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo is a thread-safe in-memory implementation of Repo
type InMemoryRepo struct {
	mu     sync.RWMutex
	values map[string]map[string]string // sessionID -> name -> value
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		values: make(map[string]map[string]string),
	}
}

func (r *InMemoryRepo) Get(sessionID, name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	value, ok := r.values[sessionID][name]
	return value, ok
}

func (r *InMemoryRepo) Set(sessionID, name, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.values[sessionID]; !ok {
		r.values[sessionID] = make(map[string]string)
	}
	r.values[sessionID][name] = value
}

func (r *InMemoryRepo) Values(sessionID string) map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.values[sessionID]))
	maps.Copy(out, r.values[sessionID])
	return out
}

func (r *InMemoryRepo) ClearSession(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.values, sessionID)
}
