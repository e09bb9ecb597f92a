// Package portal is the core flow of the social portal: looking up the token a widget
// renders with, sending the user to a provider to authorize, finishing that authorization,
// and forgetting tokens on logout or when the portal session ends.
package portal

import (
	"context"
	"strings"
	"time"

	"github.com/jrsteele09/go-social-portal/drafts"
	"github.com/jrsteele09/go-social-portal/flows"
	apperrors "github.com/jrsteele09/go-social-portal/internal/errors"
	"github.com/jrsteele09/go-social-portal/providers"
	"github.com/jrsteele09/go-social-portal/socialmodel"
	"github.com/jrsteele09/go-social-portal/tokens"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	defaultFlowTimeout = 15 * time.Minute
	defaultReturnURL   = "/"
)

// Repos holds all repository dependencies for the Service
type Repos struct {
	Tokens tokens.Store // Access tokens per session and provider
	Flows  flows.Repo   // Authorizations waiting for the provider callback
	Drafts drafts.Repo  // Form drafts per session
}

// Service provides the token lifecycle operations used by the presentation layer.
type Service struct {
	registry    *providers.Registry
	repos       Repos
	flowTimeout time.Duration
	nowTime     func() time.Time
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// WithFlowTimeout sets how long an authorization may wait for its callback.
func WithFlowTimeout(timeout time.Duration) ServiceOption {
	return func(s *Service) {
		if timeout > 0 {
			s.flowTimeout = timeout
		}
	}
}

func NewService(registry *providers.Registry, repos Repos, options ...ServiceOption) (*Service, error) {
	if registry == nil {
		return nil, errors.New("[NewService] provider registry is required")
	}
	if repos.Tokens == nil {
		return nil, errors.New("[NewService] Tokens repo is required")
	}
	if repos.Flows == nil {
		return nil, errors.New("[NewService] Flows repo is required")
	}
	if repos.Drafts == nil {
		return nil, errors.New("[NewService] Drafts repo is required")
	}

	s := &Service{
		registry:    registry,
		repos:       repos,
		flowTimeout: defaultFlowTimeout,
		nowTime:     time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// ProviderKeys lists the registered providers.
func (s *Service) ProviderKeys() []socialmodel.ProviderKey {
	return s.registry.Keys()
}

// Provider resolves the provider registered for key.
func (s *Service) Provider(key socialmodel.ProviderKey) (providers.OAuthProvider, error) {
	return s.registry.Resolve(key)
}

// AccessToken returns the token a widget renders with. ok is false when the session has no
// usable token for the provider, in which case the caller must redirect to authorize and
// must not call the provider.
func (s *Service) AccessToken(ctx context.Context, sessionID string, key socialmodel.ProviderKey) (record *socialmodel.AccessTokenRecord, ok bool, err error) {
	provider, err := s.registry.Resolve(key)
	if err != nil {
		return nil, false, err
	}

	record, err = provider.CurrentAccessToken(ctx, sessionID)
	if errors.Is(err, tokens.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "[Service AccessToken] %s", key)
	}
	return record, true, nil
}

// StartAuthorization builds the redirect to the provider's consent page. customScope asks
// for permissions beyond the provider defaults. returnURL must be a local path; anything
// else is replaced with the portal root.
func (s *Service) StartAuthorization(ctx context.Context, sessionID string, key socialmodel.ProviderKey, customScope, returnURL string) (providers.Redirect, error) {
	if sessionID == "" {
		return providers.Redirect{}, apperrors.ErrInvalidSession
	}
	provider, err := s.registry.Resolve(key)
	if err != nil {
		return providers.Redirect{}, err
	}

	s.repos.Flows.DeleteExpired(s.nowTime().Add(-s.flowTimeout))

	redirect, err := provider.StartAuthorizationFlow(ctx, sessionID, customScope, localReturnURL(returnURL))
	if err != nil {
		return providers.Redirect{}, errors.Wrapf(err, "[Service StartAuthorization] %s", key)
	}
	log.Debug().Str("provider", key.String()).Str("session", sessionID).Str("scope", customScope).Msg("authorization started")
	return redirect, nil
}

// CompleteAuthorization consumes the flow identified by state, exchanges code and stores
// the token for the session that started the flow. The callback must arrive on that same
// session. The consumed flow is returned so the caller can send the user back to where
// they came from.
func (s *Service) CompleteAuthorization(ctx context.Context, sessionID string, key socialmodel.ProviderKey, state, code string) (*flows.State, error) {
	flowState, err := s.repos.Flows.Take(state)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[Service CompleteAuthorization]")
	}
	if flowState.SessionID != sessionID {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidSession, "[Service CompleteAuthorization] flow started by another session")
	}
	if flowState.ProviderKey != key {
		return nil, apperrors.Wrapf(apperrors.ErrProviderMismatch, "[Service CompleteAuthorization] flow for %s completed by %s", flowState.ProviderKey, key)
	}
	if s.nowTime().Sub(flowState.CreatedAt) > s.flowTimeout {
		return nil, apperrors.Wrapf(apperrors.ErrFlowExpired, "[Service CompleteAuthorization] started %s", flowState.CreatedAt.Format(time.RFC3339))
	}
	if code == "" {
		return nil, apperrors.ErrMissingCode
	}

	provider, err := s.registry.Resolve(key)
	if err != nil {
		return nil, err
	}
	record, err := provider.CompleteAuthorizationFlow(ctx, flowState, code)
	if err != nil {
		return nil, err
	}

	log.Info().Str("provider", key.String()).Str("session", flowState.SessionID).Strs("scopes", record.Scopes).Msg("authorization completed")
	return flowState, nil
}

// CancelAuthorization discards a pending flow the provider reported as failed, for example
// when the user declined consent. Only the session and provider that started the flow can
// discard it.
func (s *Service) CancelAuthorization(ctx context.Context, sessionID string, key socialmodel.ProviderKey, state string) error {
	flowState, err := s.repos.Flows.Get(state)
	if err != nil {
		return apperrors.Wrapf(err, "[Service CancelAuthorization]")
	}
	if flowState.SessionID != sessionID {
		return apperrors.Wrapf(apperrors.ErrInvalidSession, "[Service CancelAuthorization] flow started by another session")
	}
	if flowState.ProviderKey != key {
		return apperrors.Wrapf(apperrors.ErrProviderMismatch, "[Service CancelAuthorization] flow for %s cancelled by %s", flowState.ProviderKey, key)
	}
	if err := s.repos.Flows.Delete(state); err != nil {
		return apperrors.Wrapf(err, "[Service CancelAuthorization]")
	}

	log.Info().Str("provider", key.String()).Str("session", sessionID).Msg("authorization cancelled")
	return nil
}

// Logout revokes the session's token at the provider, best effort, and forgets it.
func (s *Service) Logout(ctx context.Context, sessionID string, key socialmodel.ProviderKey) error {
	provider, err := s.registry.Resolve(key)
	if err != nil {
		return err
	}

	record, err := s.repos.Tokens.Get(ctx, sessionID, key)
	switch {
	case errors.Is(err, tokens.ErrNotFound):
		return nil
	case err != nil:
		return errors.Wrapf(err, "[Service Logout] %s", key)
	}

	if err := provider.Revoke(ctx, record); err != nil {
		log.Warn().Err(err).Str("provider", key.String()).Str("session", sessionID).Msg("token revocation failed")
	}
	if err := s.repos.Tokens.Clear(ctx, sessionID, key); err != nil {
		return errors.Wrapf(err, "[Service Logout] %s", key)
	}
	return nil
}

// EndSession forgets every token and draft held for the session.
func (s *Service) EndSession(ctx context.Context, sessionID string) error {
	s.repos.Drafts.ClearSession(sessionID)
	if err := s.repos.Tokens.ClearSession(ctx, sessionID); err != nil {
		return errors.Wrap(err, "[Service EndSession]")
	}
	return nil
}

// localReturnURL keeps the redirect after authorization on this site.
func localReturnURL(returnURL string) string {
	if !strings.HasPrefix(returnURL, "/") || strings.HasPrefix(returnURL, "//") || strings.Contains(returnURL, "\\") {
		return defaultReturnURL
	}
	return returnURL
}
