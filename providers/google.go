package providers

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-social-portal/flows"
	"github.com/jrsteele09/go-social-portal/socialmodel"
	"github.com/jrsteele09/go-social-portal/tokens"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const (
	GoogleFriendlyName  = "Google"
	GoogleIssuer        = "https://accounts.google.com"
	GoogleJWKSURL       = "https://www.googleapis.com/oauth2/v3/certs"
	DefaultGoogleAPIURL = "https://www.googleapis.com"
	DefaultGoogleRevoke = "https://oauth2.googleapis.com/revoke"
)

var googleDefaultScopes = []string{oidc.ScopeOpenID, "email", "profile"}

var googleRules = classificationRules{
	insufficientScope: func(e *APIError) bool {
		if e.StatusCode != 403 {
			return false
		}
		return e.Reason == "insufficientPermissions" ||
			e.Reason == "ACCESS_TOKEN_SCOPE_INSUFFICIENT" ||
			strings.Contains(strings.ToLower(e.Message), "insufficient authentication scopes")
	},
	invalidToken: func(e *APIError) bool {
		return e.Type == "UNAUTHENTICATED" || e.Reason == "authError" || e.Type == "invalid_token"
	},
}

// ClassifyGoogle is the Google error classifier.
func ClassifyGoogle(err error) ErrorKind {
	return classify(err, googleRules)
}

// Google integrates Google APIs. Google is an OpenID Connect provider, so the id_token
// returned alongside the access token is verified and its subject kept on the record.
type Google struct {
	authFlow
	apiBaseURL string
	revokeURL  string
	verifier   *oidc.IDTokenVerifier
}

var _ OAuthProvider = (*Google)(nil)

func NewGoogle(cfg Config, store tokens.Store, flowRepo flows.Repo, opts ...Option) (*Google, error) {
	o := buildOptions(opts)
	flow, err := newAuthFlow(socialmodel.GoogleKey, cfg, endpoints.Google, googleDefaultScopes, store, flowRepo, o)
	if err != nil {
		return nil, err
	}
	// Offline access yields a refresh token; granted scopes accumulate across custom scope requests
	flow.authOptions = []oauth2.AuthCodeOption{
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	}

	verifier := o.idTokenVerifier
	if verifier == nil {
		keySet := oidc.NewRemoteKeySet(oidc.ClientContext(context.Background(), o.httpClient), GoogleJWKSURL)
		verifier = oidc.NewVerifier(GoogleIssuer, keySet, &oidc.Config{ClientID: cfg.ClientID, Now: o.nowTime})
	}

	return &Google{
		authFlow:   flow,
		apiBaseURL: valueOr(cfg.APIBaseURL, DefaultGoogleAPIURL),
		revokeURL:  valueOr(cfg.RevokeURL, DefaultGoogleRevoke),
		verifier:   verifier,
	}, nil
}

func (p *Google) FriendlyName() string {
	return GoogleFriendlyName
}

func (p *Google) CompleteAuthorizationFlow(ctx context.Context, flowState *flows.State, code string) (*socialmodel.AccessTokenRecord, error) {
	tok, record, err := p.exchange(ctx, flowState, code)
	if err != nil {
		return nil, err
	}

	if rawIDToken, ok := tok.Extra("id_token").(string); ok && rawIDToken != "" {
		idToken, err := p.verifier.Verify(p.clientContext(ctx), rawIDToken)
		if err != nil {
			return nil, errors.Wrap(err, "[GOOGLE CompleteAuthorizationFlow] id token verification failed")
		}
		record.Subject = idToken.Subject
	}

	if err := p.save(ctx, flowState.SessionID, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (p *Google) Classify(err error) ErrorKind {
	return ClassifyGoogle(err)
}

func (p *Google) APIClient(ctx context.Context, record *socialmodel.AccessTokenRecord) *APIClient {
	return p.apiClient(ctx, record, p.apiBaseURL, decodeGoogleError)
}

func (p *Google) Revoke(ctx context.Context, record *socialmodel.AccessTokenRecord) error {
	return p.revokeAtEndpoint(ctx, p.revokeURL, record, decodeGoogleError)
}

// decodeGoogleError handles both the JSON API shape
// {"error":{"code","message","status","errors":[{"reason"}],"details":[{"reason"}]}}
// and the OAuth shape {"error":"invalid_token","error_description":"..."}.
func decodeGoogleError(status int, body []byte) *APIError {
	var envelope struct {
		Error            json.RawMessage `json:"error"`
		ErrorDescription string          `json:"error_description"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Error) == 0 {
		return &APIError{Message: fallbackMessage(status, body)}
	}

	var oauthCode string
	if err := json.Unmarshal(envelope.Error, &oauthCode); err == nil {
		return &APIError{Type: oauthCode, Message: valueOr(envelope.ErrorDescription, oauthCode)}
	}

	var apiErr struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
		Errors  []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
		Details []struct {
			Reason string `json:"reason"`
		} `json:"details"`
	}
	if err := json.Unmarshal(envelope.Error, &apiErr); err != nil {
		return &APIError{Message: fallbackMessage(status, body)}
	}

	out := &APIError{
		Code:    apiErr.Code,
		Type:    apiErr.Status,
		Message: valueOr(apiErr.Message, fallbackMessage(status, nil)),
	}
	for _, d := range apiErr.Details {
		if d.Reason != "" {
			out.Reason = d.Reason
		}
	}
	if out.Reason == "" && len(apiErr.Errors) > 0 {
		out.Reason = apiErr.Errors[0].Reason
	}
	return out
}
