// Package widgets holds the provider backed portal widgets. Every provider API call runs
// through guard, so a widget only ever sees a value or a recovery outcome.
package widgets

import (
	"context"

	"github.com/jrsteele09/go-social-portal/drafts"
	"github.com/jrsteele09/go-social-portal/guard"
	"github.com/jrsteele09/go-social-portal/portal"
	"github.com/jrsteele09/go-social-portal/providers"
	"github.com/jrsteele09/go-social-portal/socialmodel"
	"github.com/pkg/errors"
)

// ErrAuthorizationRequired means the session holds no token for the provider. The widget did
// not call the provider; the user has to be sent to authorize first.
var ErrAuthorizationRequired = errors.New("authorization required")

// Service renders widgets for a portal session.
type Service struct {
	portal  *portal.Service
	invoker *guard.Invoker
	drafts  drafts.Repo
}

func NewService(portalService *portal.Service, invoker *guard.Invoker, draftRepo drafts.Repo) (*Service, error) {
	if portalService == nil {
		return nil, errors.New("[widgets.NewService] portal service is required")
	}
	if invoker == nil {
		return nil, errors.New("[widgets.NewService] invoker is required")
	}
	if draftRepo == nil {
		return nil, errors.New("[widgets.NewService] drafts repo is required")
	}
	return &Service{portal: portalService, invoker: invoker, drafts: draftRepo}, nil
}

// call looks up the session token and runs fn against the provider API under guard.
func call[T any](ctx context.Context, s *Service, key socialmodel.ProviderKey, sessionID string, fn func(ctx context.Context, client *providers.APIClient) (T, error), opts ...guard.Option) (guard.Outcome[T], error) {
	record, ok, err := s.portal.AccessToken(ctx, sessionID, key)
	if err != nil {
		return guard.Outcome[T]{}, err
	}
	if !ok {
		return guard.Outcome[T]{}, ErrAuthorizationRequired
	}

	provider, err := s.portal.Provider(key)
	if err != nil {
		return guard.Outcome[T]{}, err
	}
	client := provider.APIClient(ctx, record)

	return guard.Execute(ctx, s.invoker, key, sessionID, func(ctx context.Context) (T, error) {
		return fn(ctx, client)
	}, opts...), nil
}
