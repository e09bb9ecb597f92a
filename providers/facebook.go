package providers

import (
	"context"
	"encoding/json"

	"github.com/jrsteele09/go-social-portal/flows"
	"github.com/jrsteele09/go-social-portal/socialmodel"
	"github.com/jrsteele09/go-social-portal/tokens"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const (
	FacebookFriendlyName  = "Facebook"
	DefaultFacebookAPIURL = "https://graph.facebook.com"
)

var facebookDefaultScopes = []string{"public_profile", "email"}

var facebookRules = classificationRules{
	// Code 10 and 200-299 are Graph permission errors
	insufficientScope: func(e *APIError) bool {
		return e.Code == 10 || (e.Code >= 200 && e.Code <= 299)
	},
	// 190 is an invalid or expired token, 102 an invalid session, 2500 a missing token.
	// Graph tags most errors OAuthException, so the type alone only counts without a code.
	invalidToken: func(e *APIError) bool {
		switch e.Code {
		case 190, 102, 2500:
			return true
		case 0:
			return e.Type == "OAuthException"
		}
		return false
	},
	// Application, user, page and custom rate limits
	transient: func(e *APIError) bool {
		switch e.Code {
		case 4, 17, 32, 613:
			return true
		}
		return false
	},
}

// ClassifyFacebook is the Facebook error classifier.
func ClassifyFacebook(err error) ErrorKind {
	return classify(err, facebookRules)
}

// Facebook integrates the Graph API.
type Facebook struct {
	authFlow
	apiBaseURL string
}

var _ OAuthProvider = (*Facebook)(nil)

func NewFacebook(cfg Config, store tokens.Store, flowRepo flows.Repo, opts ...Option) (*Facebook, error) {
	flow, err := newAuthFlow(socialmodel.FacebookKey, cfg, endpoints.Facebook, facebookDefaultScopes, store, flowRepo, buildOptions(opts))
	if err != nil {
		return nil, err
	}
	// Re-request declined permissions when a custom scope is asked for
	flow.authOptions = []oauth2.AuthCodeOption{oauth2.SetAuthURLParam("auth_type", "rerequest")}

	return &Facebook{
		authFlow:   flow,
		apiBaseURL: valueOr(cfg.APIBaseURL, DefaultFacebookAPIURL),
	}, nil
}

func (p *Facebook) FriendlyName() string {
	return FacebookFriendlyName
}

func (p *Facebook) CompleteAuthorizationFlow(ctx context.Context, flowState *flows.State, code string) (*socialmodel.AccessTokenRecord, error) {
	_, record, err := p.exchange(ctx, flowState, code)
	if err != nil {
		return nil, err
	}
	if err := p.save(ctx, flowState.SessionID, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (p *Facebook) Classify(err error) ErrorKind {
	return ClassifyFacebook(err)
}

func (p *Facebook) APIClient(ctx context.Context, record *socialmodel.AccessTokenRecord) *APIClient {
	return p.apiClient(ctx, record, p.apiBaseURL, decodeFacebookError)
}

// Revoke removes every permission the user granted to the application.
func (p *Facebook) Revoke(ctx context.Context, record *socialmodel.AccessTokenRecord) error {
	return p.APIClient(ctx, record).Delete(ctx, "/me/permissions", nil)
}

// decodeFacebookError reads {"error":{"message","type","code","error_subcode"}}.
func decodeFacebookError(status int, body []byte) *APIError {
	var payload struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    int    `json:"code"`
			Subcode int    `json:"error_subcode"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Error.Message == "" {
		return &APIError{Message: fallbackMessage(status, body)}
	}
	return &APIError{
		Code:    payload.Error.Code,
		Subcode: payload.Error.Subcode,
		Type:    payload.Error.Type,
		Message: payload.Error.Message,
	}
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
