package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-social-portal/guard"
	"github.com/jrsteele09/go-social-portal/socialmodel"
)

// Named views the portal renders.
const (
	ViewAuthorize         = "authorize"
	ViewTokenInvalid      = "token-invalid"
	ViewIOError           = "io-error"
	ViewInsufficientScope = "insufficient-scope"
)

type viewResponse struct {
	View                 string `json:"view"`
	Provider             string `json:"provider,omitempty"`
	FriendlyProviderName string `json:"friendlyProviderName,omitempty"`
	Message              string `json:"message,omitempty"`
	RequiredScope        string `json:"requiredScope,omitempty"`
	AuthorizeURL         string `json:"authorizeURL,omitempty"`
	Data                 any    `json:"data,omitempty"`
}

// authorizeURL is the portal route that sends the user to the provider's consent page.
func authorizeURL(key socialmodel.ProviderKey, scope, returnURL string) string {
	query := url.Values{}
	if scope != "" {
		query.Set("scope", scope)
	}
	if returnURL != "" {
		query.Set("return", returnURL)
	}
	path := strings.Replace(RouteAuthorize, "{provider}", strings.ToLower(key.String()), 1)
	if len(query) == 0 {
		return path
	}
	return path + "?" + query.Encode()
}

// writeAuthorize tells the page the session has no token for the provider.
func writeAuthorize(w http.ResponseWriter, key socialmodel.ProviderKey, returnURL string) {
	writeJSON(w, http.StatusUnauthorized, viewResponse{
		View:         ViewAuthorize,
		Provider:     key.String(),
		AuthorizeURL: authorizeURL(key, "", returnURL),
	})
}

// writeOutcome renders a successful outcome as view, or the error view the outcome routes to.
func writeOutcome[T any](w http.ResponseWriter, key socialmodel.ProviderKey, returnURL, view string, outcome guard.Outcome[T]) {
	switch outcome.Kind {
	case guard.Success:
		writeJSON(w, http.StatusOK, viewResponse{View: view, Provider: key.String(), Data: outcome.Value})
	case guard.ReauthorizeRequired:
		writeJSON(w, http.StatusUnauthorized, viewResponse{
			View:                 ViewTokenInvalid,
			Provider:             key.String(),
			FriendlyProviderName: outcome.ProviderName,
			AuthorizeURL:         authorizeURL(key, "", returnURL),
		})
	case guard.InsufficientScope:
		writeJSON(w, http.StatusForbidden, viewResponse{
			View:          ViewInsufficientScope,
			Provider:      key.String(),
			Message:       outcome.Message,
			RequiredScope: outcome.RequiredScope,
			AuthorizeURL:  authorizeURL(key, outcome.RequiredScope, returnURL),
		})
	default:
		writeJSON(w, http.StatusBadGateway, viewResponse{
			View:     ViewIOError,
			Provider: key.String(),
			Message:  outcome.Message,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             errorCode,
		"error_description": description,
	})
}
