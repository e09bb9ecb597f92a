package widgets

import (
	"context"

	"github.com/jrsteele09/go-social-portal/guard"
	"github.com/jrsteele09/go-social-portal/providers"
	"github.com/jrsteele09/go-social-portal/socialmodel"
)

// GoogleProfileScope is the scope the profile widget needs.
const GoogleProfileScope = "https://www.googleapis.com/auth/userinfo.profile"

type GoogleProfile struct {
	Subject       string `json:"sub"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name,omitempty"`
	FamilyName    string `json:"family_name,omitempty"`
	Picture       string `json:"picture,omitempty"`
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	Locale        string `json:"locale,omitempty"`
}

// GoogleProfile loads the OpenID Connect userinfo of the session's Google user.
func (s *Service) GoogleProfile(ctx context.Context, sessionID string) (guard.Outcome[GoogleProfile], error) {
	return call(ctx, s, socialmodel.GoogleKey, sessionID, func(ctx context.Context, client *providers.APIClient) (GoogleProfile, error) {
		var profile GoogleProfile
		err := client.GetJSON(ctx, "/oauth2/v3/userinfo", nil, &profile)
		return profile, err
	}, guard.WithRequiredScope(GoogleProfileScope))
}
