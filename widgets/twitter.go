package widgets

import (
	"context"
	"net/url"

	"github.com/jrsteele09/go-social-portal/guard"
	"github.com/jrsteele09/go-social-portal/providers"
	"github.com/jrsteele09/go-social-portal/socialmodel"
)

// TwitterProfileScope is the scope the profile widget needs.
const TwitterProfileScope = "users.read"

type TwitterProfile struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Username        string `json:"username"`
	Description     string `json:"description,omitempty"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
	Followers       int    `json:"followers"`
	Following       int    `json:"following"`
}

// TwitterProfile loads the session's Twitter user.
func (s *Service) TwitterProfile(ctx context.Context, sessionID string) (guard.Outcome[TwitterProfile], error) {
	return call(ctx, s, socialmodel.TwitterKey, sessionID, func(ctx context.Context, client *providers.APIClient) (TwitterProfile, error) {
		var resp struct {
			Data struct {
				TwitterProfile
				PublicMetrics struct {
					Followers int `json:"followers_count"`
					Following int `json:"following_count"`
				} `json:"public_metrics"`
			} `json:"data"`
		}
		query := url.Values{"user.fields": {"description,profile_image_url,public_metrics"}}
		if err := client.GetJSON(ctx, "/2/users/me", query, &resp); err != nil {
			return TwitterProfile{}, err
		}
		profile := resp.Data.TwitterProfile
		profile.Followers = resp.Data.PublicMetrics.Followers
		profile.Following = resp.Data.PublicMetrics.Following
		return profile, nil
	}, guard.WithRequiredScope(TwitterProfileScope))
}
