// Package flows tracks authorization requests that have been redirected to a provider and
// not yet come back. Entries are keyed by the OAuth state parameter.
package flows

import (
	"time"

	"github.com/jrsteele09/go-social-portal/socialmodel"
)

// State is everything needed to finish an authorization once the provider redirects back.
type State struct {
	SessionID    string                  // Portal session that started the flow
	ProviderKey  socialmodel.ProviderKey // Provider the user was sent to
	CodeVerifier string                  // PKCE verifier paired with the challenge in the consent URL
	Scopes       []string                // Scopes requested, including any custom scope
	ReturnURL    string                  // Where to send the user after the exchange
	CreatedAt    time.Time
}

type Repo interface {
	Upsert(state string, flowState *State) error
	Get(state string) (*State, error)
	Delete(state string) error

	// Take returns and removes the flow in one step so a state value is consumed exactly once.
	Take(state string) (*State, error)

	// DeleteExpired removes flows created before cutoff.
	DeleteExpired(cutoff time.Time)
}
