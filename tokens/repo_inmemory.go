package tokens

import (
	"context"
	"fmt"
	"sync"

	"github.com/jrsteele09/go-social-portal/socialmodel"
)

var _ Store = (*InMemoryRepo)(nil)

// InMemoryRepo is an in-memory implementation of Store
type InMemoryRepo struct {
	mu       sync.RWMutex
	sessions map[string]map[socialmodel.ProviderKey]*socialmodel.AccessTokenRecord // sessionID -> provider -> record
}

// NewInMemoryRepo creates a new in-memory token repository
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		sessions: make(map[string]map[socialmodel.ProviderKey]*socialmodel.AccessTokenRecord),
	}
}

func (r *InMemoryRepo) Get(_ context.Context, sessionID string, key socialmodel.ProviderKey) (*socialmodel.AccessTokenRecord, error) {
	if err := validateKeys(sessionID, key); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.sessions[sessionID][key]
	if !ok {
		return nil, ErrNotFound
	}

	// Hand out a copy so the stored record stays immutable
	return record.Clone(), nil
}

func (r *InMemoryRepo) Put(_ context.Context, sessionID string, key socialmodel.ProviderKey, record *socialmodel.AccessTokenRecord) error {
	if err := validateKeys(sessionID, key); err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("record is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[sessionID]; !ok {
		r.sessions[sessionID] = make(map[socialmodel.ProviderKey]*socialmodel.AccessTokenRecord)
	}
	r.sessions[sessionID][key] = record.Canonical()
	return nil
}

func (r *InMemoryRepo) Clear(_ context.Context, sessionID string, key socialmodel.ProviderKey) error {
	if err := validateKeys(sessionID, key); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	records, ok := r.sessions[sessionID]
	if !ok {
		return nil
	}
	delete(records, key)

	// Clean up empty session map
	if len(records) == 0 {
		delete(r.sessions, sessionID)
	}
	return nil
}

func (r *InMemoryRepo) ClearSession(_ context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, sessionID)
	return nil
}

func validateKeys(sessionID string, key socialmodel.ProviderKey) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID is required")
	}
	if key == "" {
		return fmt.Errorf("provider key is required")
	}
	return nil
}
