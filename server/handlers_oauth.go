package server

import (
	"net/http"

	apperrors "github.com/jrsteele09/go-social-portal/internal/errors"
	"github.com/jrsteele09/go-social-portal/providers"
	"github.com/jrsteele09/go-social-portal/socialmodel"
	"github.com/rs/zerolog/log"
)

// providerKey reads the {provider} path segment.
func providerKey(w http.ResponseWriter, r *http.Request) (socialmodel.ProviderKey, bool) {
	key, err := socialmodel.ParseProviderKey(r.PathValue("provider"))
	if err != nil {
		writeJSONError(w, "unknown_provider", err.Error(), http.StatusNotFound)
		return "", false
	}
	return key, true
}

// AuthorizeHandler redirects to the provider's consent page. The optional scope parameter
// requests permissions beyond the provider defaults; return is where to land afterwards.
func (s *Server) AuthorizeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, ok := providerKey(w, r)
		if !ok {
			return
		}

		query := r.URL.Query()
		redirect, err := s.portal.StartAuthorization(r.Context(), sessionID(r), key, query.Get("scope"), query.Get("return"))
		if apperrors.Is(err, providers.ErrUnknownProviderKind) {
			writeJSONError(w, "unknown_provider", "provider is not configured", http.StatusNotFound)
			return
		}
		if err != nil {
			log.Err(err).Str("provider", key.String()).Msg("failed to start authorization")
			writeJSONError(w, "server_error", "could not start authorization", http.StatusInternalServerError)
			return
		}

		http.Redirect(w, r, redirect.URL, http.StatusFound)
	}
}

// CallbackHandler finishes an authorization and returns the user to where they started it.
func (s *Server) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, ok := providerKey(w, r)
		if !ok {
			return
		}

		query := r.URL.Query()
		if providerErr := query.Get("error"); providerErr != "" {
			log.Info().Str("provider", key.String()).Str("error", providerErr).Msg("authorization declined at provider")
			if state := query.Get("state"); state != "" {
				if err := s.portal.CancelAuthorization(r.Context(), sessionID(r), key, state); err != nil {
					log.Debug().Err(err).Str("provider", key.String()).Msg("pending authorization not discarded")
				}
			}
			writeJSONError(w, providerErr, query.Get("error_description"), http.StatusBadRequest)
			return
		}

		flowState, err := s.portal.CompleteAuthorization(r.Context(), sessionID(r), key, query.Get("state"), query.Get("code"))
		switch {
		case err == nil:
			http.Redirect(w, r, flowState.ReturnURL, http.StatusSeeOther)
		case apperrors.Is(err, apperrors.ErrInvalidState),
			apperrors.Is(err, apperrors.ErrInvalidSession),
			apperrors.Is(err, apperrors.ErrProviderMismatch):
			writeJSONError(w, "invalid_state", "unknown or foreign authorization state", http.StatusBadRequest)
		case apperrors.Is(err, apperrors.ErrFlowExpired):
			writeJSONError(w, "expired", "authorization took too long, please try again", http.StatusBadRequest)
		case apperrors.Is(err, apperrors.ErrMissingCode):
			writeJSONError(w, "invalid_request", "missing authorization code", http.StatusBadRequest)
		default:
			log.Err(err).Str("provider", key.String()).Msg("failed to complete authorization")
			writeJSONError(w, "authorization_failed", "could not obtain an access token", http.StatusBadGateway)
		}
	}
}

// LogoutHandler revokes and forgets the session's token for one provider.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, ok := providerKey(w, r)
		if !ok {
			return
		}

		err := s.portal.Logout(r.Context(), sessionID(r), key)
		if apperrors.Is(err, providers.ErrUnknownProviderKind) {
			writeJSONError(w, "unknown_provider", "provider is not configured", http.StatusNotFound)
			return
		}
		if err != nil {
			log.Err(err).Str("provider", key.String()).Msg("failed to log out of provider")
			writeJSONError(w, "server_error", "could not log out", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
