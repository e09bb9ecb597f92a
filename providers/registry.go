package providers

import (
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/jrsteele09/go-social-portal/socialmodel"
)

var (
	// ErrUnknownProviderKind means no provider is registered for a key. It indicates broken
	// startup registration rather than a runtime condition.
	ErrUnknownProviderKind = stderrors.New("unknown provider kind")
	ErrDuplicateProvider   = stderrors.New("provider already registered")
)

// Registry resolves provider keys to the single OAuthProvider registered for each.
type Registry struct {
	mu        sync.RWMutex
	providers map[socialmodel.ProviderKey]OAuthProvider
	order     []socialmodel.ProviderKey
}

func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[socialmodel.ProviderKey]OAuthProvider),
	}
}

// Register adds p. A key can only be registered once.
func (r *Registry) Register(p OAuthProvider) error {
	if p == nil {
		return fmt.Errorf("[Registry Register] provider is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[p.Key()]; exists {
		return fmt.Errorf("[Registry Register] %w: %s", ErrDuplicateProvider, p.Key())
	}
	r.providers[p.Key()] = p
	r.order = append(r.order, p.Key())
	return nil
}

// Resolve returns the provider registered for key.
func (r *Registry) Resolve(key socialmodel.ProviderKey) (OAuthProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[key]
	if !ok {
		return nil, fmt.Errorf("[Registry Resolve] %w: %q", ErrUnknownProviderKind, key)
	}
	return p, nil
}

// Keys lists registered keys in registration order.
func (r *Registry) Keys() []socialmodel.ProviderKey {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]socialmodel.ProviderKey, len(r.order))
	copy(keys, r.order)
	return keys
}
