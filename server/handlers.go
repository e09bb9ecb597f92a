package server

import (
	"net/http"

	"github.com/rs/zerolog/log"
)

type providerStatus struct {
	Key          string `json:"key"`
	Name         string `json:"name"`
	Connected    bool   `json:"connected"`
	AuthorizeURL string `json:"authorizeURL"`
}

// IndexHandler lists the configured providers and whether the session holds a token for each.
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid := sessionID(r)
		statuses := make([]providerStatus, 0)
		for _, key := range s.portal.ProviderKeys() {
			provider, err := s.portal.Provider(key)
			if err != nil {
				continue
			}
			_, connected, err := s.portal.AccessToken(r.Context(), sid, key)
			if err != nil {
				log.Err(err).Str("provider", key.String()).Msg("failed to read access token")
			}
			statuses = append(statuses, providerStatus{
				Key:          key.String(),
				Name:         provider.FriendlyName(),
				Connected:    connected,
				AuthorizeURL: authorizeURL(key, "", "/"),
			})
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"appName":   s.config.GetAppName(),
			"providers": statuses,
		})
	}
}

// EndSessionHandler forgets every token and draft of the portal session and drops its cookie.
func (s *Server) EndSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.portal.EndSession(r.Context(), sessionID(r)); err != nil {
			log.Err(err).Msg("failed to end portal session")
			writeJSONError(w, "server_error", "could not end session", http.StatusInternalServerError)
			return
		}
		s.setSessionCookie(w, r, "", -1)
		w.WriteHeader(http.StatusNoContent)
	}
}

// PreflightHandler answers OPTIONS requests that carry no Origin header.
func (s *Server) PreflightHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", "GET, POST, OPTIONS")
		w.WriteHeader(http.StatusNoContent)
	}
}
