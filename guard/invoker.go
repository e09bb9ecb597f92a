// Package guard runs provider API calls and turns their failures into recovery outcomes.
package guard

import (
	"context"

	"github.com/jrsteele09/go-social-portal/providers"
	"github.com/jrsteele09/go-social-portal/socialmodel"
	"github.com/rs/zerolog/log"
)

// Resolver finds the provider registered for a key.
type Resolver interface {
	Resolve(key socialmodel.ProviderKey) (providers.OAuthProvider, error)
}

// Invoker guards provider calls using the providers it can resolve.
type Invoker struct {
	resolver Resolver
}

func NewInvoker(resolver Resolver) *Invoker {
	return &Invoker{resolver: resolver}
}

type executeOptions struct {
	requiredScope string
}

// Option configures a single Execute.
type Option func(*executeOptions)

// WithRequiredScope declares the scope the call needs; it is reported with an
// InsufficientScope outcome.
func WithRequiredScope(scope string) Option {
	return func(o *executeOptions) {
		o.requiredScope = scope
	}
}

// Execute invokes call exactly once and classifies any failure with the classifier of the
// provider registered for key. The token store is never touched.
func Execute[T any](ctx context.Context, inv *Invoker, key socialmodel.ProviderKey, sessionID string, call func(ctx context.Context) (T, error), opts ...Option) Outcome[T] {
	var o executeOptions
	for _, opt := range opts {
		opt(&o)
	}

	provider, err := inv.resolver.Resolve(key)
	if err != nil {
		log.Error().Err(err).Str("provider", key.String()).Str("session", sessionID).Msg("guarded call for unresolvable provider")
		return transient[T](err.Error())
	}

	value, err := call(ctx)
	if err == nil {
		return succeeded(value)
	}

	kind := provider.Classify(err)
	logger := log.With().Str("provider", key.String()).Str("session", sessionID).Stringer("kind", kind).Logger()

	switch kind {
	case providers.InvalidOrExpiredToken:
		logger.Info().Err(err).Msg("access token rejected, reauthorization required")
		return reauthorize[T](provider.FriendlyName())
	case providers.InsufficientScope:
		logger.Warn().Err(err).Str("requiredScope", o.requiredScope).Msg("permission not granted")
		return insufficientScope[T](err.Error(), o.requiredScope)
	default:
		logger.Error().Err(err).Msg("provider call failed")
		return transient[T](err.Error())
	}
}
