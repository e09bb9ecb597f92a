package socialmodel

import (
	"fmt"
	"strings"
)

// ProviderKey identifies which social platform an integration talks to.
// It keys token store entries and selects an OAuth provider implementation.
type ProviderKey string

const (
	// FacebookKey selects the Facebook Graph API integration.
	FacebookKey ProviderKey = "FACEBOOK"

	// GoogleKey selects the Google (OpenID Connect) integration.
	GoogleKey ProviderKey = "GOOGLE"

	// TwitterKey selects the Twitter API v2 integration.
	TwitterKey ProviderKey = "TWITTER"
)

// ProviderKeys lists every key known to this build, in display order.
var ProviderKeys = []ProviderKey{FacebookKey, GoogleKey, TwitterKey}

func (k ProviderKey) String() string {
	return string(k)
}

// Valid reports whether k is one of the known provider keys.
func (k ProviderKey) Valid() bool {
	for _, known := range ProviderKeys {
		if k == known {
			return true
		}
	}
	return false
}

// ParseProviderKey converts user input such as "facebook" or "GOOGLE" into a ProviderKey.
func ParseProviderKey(s string) (ProviderKey, error) {
	k := ProviderKey(strings.ToUpper(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownProviderKey, s)
	}
	return k, nil
}
