package providers

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/jrsteele09/go-social-portal/flows"
	"github.com/jrsteele09/go-social-portal/socialmodel"
	"github.com/jrsteele09/go-social-portal/tokens"
	"golang.org/x/oauth2"
)

const (
	TwitterFriendlyName  = "Twitter"
	DefaultTwitterAPIURL = "https://api.twitter.com"
	DefaultTwitterRevoke = "https://api.twitter.com/2/oauth2/revoke"
)

// TwitterEndpoint is the OAuth 2.0 authorization code endpoint pair. Confidential clients
// authenticate with HTTP Basic.
var TwitterEndpoint = oauth2.Endpoint{
	AuthURL:   "https://twitter.com/i/oauth2/authorize",
	TokenURL:  "https://api.twitter.com/2/oauth2/token",
	AuthStyle: oauth2.AuthStyleInHeader,
}

var twitterDefaultScopes = []string{"tweet.read", "users.read", "offline.access"}

var twitterRules = classificationRules{
	insufficientScope: func(e *APIError) bool {
		return e.StatusCode == 403 && strings.Contains(strings.ToLower(e.Message), "scope")
	},
	// v1.1 code 89 is "Invalid or expired token"
	invalidToken: func(e *APIError) bool {
		return e.Code == 89
	},
}

// ClassifyTwitter is the Twitter error classifier.
func ClassifyTwitter(err error) ErrorKind {
	return classify(err, twitterRules)
}

// Twitter integrates the Twitter API v2.
type Twitter struct {
	authFlow
	apiBaseURL string
	revokeURL  string
}

var _ OAuthProvider = (*Twitter)(nil)

func NewTwitter(cfg Config, store tokens.Store, flowRepo flows.Repo, opts ...Option) (*Twitter, error) {
	flow, err := newAuthFlow(socialmodel.TwitterKey, cfg, TwitterEndpoint, twitterDefaultScopes, store, flowRepo, buildOptions(opts))
	if err != nil {
		return nil, err
	}
	return &Twitter{
		authFlow:   flow,
		apiBaseURL: valueOr(cfg.APIBaseURL, DefaultTwitterAPIURL),
		revokeURL:  valueOr(cfg.RevokeURL, DefaultTwitterRevoke),
	}, nil
}

func (p *Twitter) FriendlyName() string {
	return TwitterFriendlyName
}

func (p *Twitter) CompleteAuthorizationFlow(ctx context.Context, flowState *flows.State, code string) (*socialmodel.AccessTokenRecord, error) {
	_, record, err := p.exchange(ctx, flowState, code)
	if err != nil {
		return nil, err
	}
	if err := p.save(ctx, flowState.SessionID, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (p *Twitter) Classify(err error) ErrorKind {
	return ClassifyTwitter(err)
}

func (p *Twitter) APIClient(ctx context.Context, record *socialmodel.AccessTokenRecord) *APIClient {
	return p.apiClient(ctx, record, p.apiBaseURL, decodeTwitterError)
}

func (p *Twitter) Revoke(ctx context.Context, record *socialmodel.AccessTokenRecord) error {
	return p.revokeAtEndpoint(ctx, p.revokeURL, record, decodeTwitterError)
}

// decodeTwitterError reads the v2 problem shape {"title","detail","type","status"} and the
// v1.1 shape {"errors":[{"code","message"}]}.
func decodeTwitterError(status int, body []byte) *APIError {
	var payload struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
		Type   string `json:"type"`
		Errors []struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"errors"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return &APIError{Message: fallbackMessage(status, body)}
	}

	switch {
	case payload.Detail != "" || payload.Title != "":
		return &APIError{Type: payload.Type, Message: valueOr(payload.Detail, payload.Title)}
	case len(payload.Errors) > 0:
		return &APIError{Code: payload.Errors[0].Code, Message: payload.Errors[0].Message}
	case payload.Error != "":
		return &APIError{Type: payload.Error, Message: valueOr(payload.ErrorDescription, payload.Error)}
	}
	return &APIError{Message: fallbackMessage(status, body)}
}
