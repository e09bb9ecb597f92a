package socialmodel

import (
	"slices"
	"strings"
	"time"
)

// AccessTokenRecord is the credential a provider issued for one portal session.
// Records are never mutated after creation; a new authorization replaces the stored record.
type AccessTokenRecord struct {
	// ProviderKey is the platform that issued the token.
	ProviderKey ProviderKey

	// AccessToken is the opaque bearer credential sent to the provider API.
	// Security: Never log this value
	AccessToken string

	// TokenType as reported by the token endpoint, usually "Bearer".
	TokenType string

	// RefreshToken is only present when the provider issued one (Google offline access,
	// Twitter offline.access).
	RefreshToken string

	// Scopes is the set of permissions granted, sorted and de-duplicated.
	Scopes []string

	// Expiry is when the provider said the token stops working. Zero means unknown.
	// Staleness is discovered through failed API calls, not by checking this value.
	Expiry time.Time

	// Subject is the verified user identifier from an OpenID Connect id_token (Google only).
	Subject string

	// ObtainedAt is when the token exchange completed.
	ObtainedAt time.Time
}

// NewAccessTokenRecord builds a record with a normalised scope set.
func NewAccessTokenRecord(key ProviderKey, accessToken string, scopes []string, obtainedAt time.Time) (*AccessTokenRecord, error) {
	if accessToken == "" {
		return nil, ErrEmptyAccessToken
	}
	return &AccessTokenRecord{
		ProviderKey: key,
		AccessToken: accessToken,
		TokenType:   "Bearer",
		Scopes:      NormaliseScopes(scopes),
		ObtainedAt:  CanonicalTime(obtainedAt),
	}, nil
}

// CanonicalTime is t as a token store returns it: UTC without a monotonic clock reading.
func CanonicalTime(t time.Time) time.Time {
	return t.UTC().Round(0)
}

// Canonical returns a copy in the form a token store returns it, so a canonical record
// survives Put then Get unchanged.
func (r *AccessTokenRecord) Canonical() *AccessTokenRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.Scopes = NormaliseScopes(r.Scopes)
	c.Expiry = CanonicalTime(r.Expiry)
	c.ObtainedAt = CanonicalTime(r.ObtainedAt)
	return &c
}

// Clone returns a deep copy so callers can never alias a stored record.
func (r *AccessTokenRecord) Clone() *AccessTokenRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.Scopes = slices.Clone(r.Scopes)
	return &c
}

// HasScope reports whether scope was granted.
func (r *AccessTokenRecord) HasScope(scope string) bool {
	return slices.Contains(r.Scopes, scope)
}

// NormaliseScopes trims, de-duplicates and sorts scope names. Entries may themselves hold
// several scopes separated by commas or whitespace.
func NormaliseScopes(scopes []string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(scopes))
	for _, s := range scopes {
		for _, scope := range SplitScopes(s) {
			if _, ok := seen[scope]; ok {
				continue
			}
			seen[scope] = struct{}{}
			out = append(out, scope)
		}
	}
	slices.Sort(out)
	return out
}

// SplitScopes splits a scope string on commas and whitespace, the two separators the
// supported providers use.
func SplitScopes(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}
