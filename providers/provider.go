// Package providers holds the OAuth integrations for each supported social platform, the
// per-provider error classifiers and the registry that dispatches provider keys to them.
package providers

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-social-portal/flows"
	"github.com/jrsteele09/go-social-portal/socialmodel"
	"github.com/jrsteele09/go-social-portal/tokens"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

const (
	stateLength        = 32
	defaultHTTPTimeout = 10 * time.Second
)

// OAuthProvider is the capability set every social provider implements.
type OAuthProvider interface {
	Key() socialmodel.ProviderKey

	// FriendlyName is the human readable provider name used in error messages.
	FriendlyName() string

	// StartAuthorizationFlow prepares the redirect to the provider's consent page.
	// customScope, when set, is merged with the default scopes so one action can ask for
	// elevated permissions.
	StartAuthorizationFlow(ctx context.Context, sessionID, customScope, returnURL string) (Redirect, error)

	// CompleteAuthorizationFlow exchanges the authorization code and stores the resulting
	// token for the flow's session.
	CompleteAuthorizationFlow(ctx context.Context, flowState *flows.State, code string) (*socialmodel.AccessTokenRecord, error)

	// CurrentAccessToken returns the session's stored token or tokens.ErrNotFound.
	CurrentAccessToken(ctx context.Context, sessionID string) (*socialmodel.AccessTokenRecord, error)

	// Classify is the provider's error classifier.
	Classify(err error) ErrorKind

	// APIClient builds an authenticated client for the provider API.
	APIClient(ctx context.Context, record *socialmodel.AccessTokenRecord) *APIClient

	// Revoke asks the provider to invalidate the token.
	Revoke(ctx context.Context, record *socialmodel.AccessTokenRecord) error
}

// Redirect instructs the presentation layer to send the user to the consent page.
type Redirect struct {
	URL   string
	State string
}

// Config holds the client registration for one provider. Zero endpoint and URL fields fall
// back to the provider's public defaults.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	Endpoint     oauth2.Endpoint
	APIBaseURL   string
	RevokeURL    string
}

type providerOptions struct {
	httpClient      *http.Client
	nowTime         func() time.Time
	idTokenVerifier *oidc.IDTokenVerifier
}

// Option configures a provider.
type Option func(*providerOptions)

// WithHTTPClient sets the client used for token exchange, API calls and revocation.
func WithHTTPClient(client *http.Client) Option {
	return func(o *providerOptions) {
		o.httpClient = client
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(o *providerOptions) {
		o.nowTime = nowFunc
	}
}

// WithIDTokenVerifier replaces the verifier used for OpenID Connect id_tokens.
func WithIDTokenVerifier(verifier *oidc.IDTokenVerifier) Option {
	return func(o *providerOptions) {
		o.idTokenVerifier = verifier
	}
}

func buildOptions(opts []Option) providerOptions {
	o := providerOptions{
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		nowTime:    time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// authFlow is the authorization code + PKCE flow shared by every provider.
type authFlow struct {
	key         socialmodel.ProviderKey
	oauth       oauth2.Config
	authOptions []oauth2.AuthCodeOption
	tokens      tokens.Store
	flows       flows.Repo
	httpClient  *http.Client
	nowTime     func() time.Time
}

func newAuthFlow(key socialmodel.ProviderKey, cfg Config, defaults oauth2.Endpoint, defaultScopes []string, store tokens.Store, flowRepo flows.Repo, o providerOptions) (authFlow, error) {
	if store == nil {
		return authFlow{}, errors.Errorf("[%s] token store is required", key)
	}
	if flowRepo == nil {
		return authFlow{}, errors.Errorf("[%s] flow repo is required", key)
	}
	if cfg.ClientID == "" {
		return authFlow{}, errors.Errorf("[%s] client id is required", key)
	}

	endpoint := defaults
	if cfg.Endpoint.AuthURL != "" {
		endpoint.AuthURL = cfg.Endpoint.AuthURL
		endpoint.TokenURL = cfg.Endpoint.TokenURL
		if cfg.Endpoint.AuthStyle != oauth2.AuthStyleAutoDetect {
			endpoint.AuthStyle = cfg.Endpoint.AuthStyle
		}
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = defaultScopes
	}

	return authFlow{
		key: key,
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     endpoint,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       socialmodel.NormaliseScopes(scopes),
		},
		tokens:     store,
		flows:      flowRepo,
		httpClient: o.httpClient,
		nowTime:    o.nowTime,
	}, nil
}

func (f *authFlow) Key() socialmodel.ProviderKey {
	return f.key
}

func (f *authFlow) StartAuthorizationFlow(ctx context.Context, sessionID, customScope, returnURL string) (Redirect, error) {
	if sessionID == "" {
		return Redirect{}, errors.Errorf("[%s StartAuthorizationFlow] sessionID is required", f.key)
	}

	scopes := socialmodel.NormaliseScopes(append(slices.Clone(f.oauth.Scopes), customScope))
	state, err := generateState()
	if err != nil {
		return Redirect{}, errors.Wrapf(err, "[%s StartAuthorizationFlow] state", f.key)
	}
	verifier := oauth2.GenerateVerifier()

	cfg := f.oauth
	cfg.Scopes = scopes
	opts := append([]oauth2.AuthCodeOption{oauth2.S256ChallengeOption(verifier)}, f.authOptions...)
	authURL := cfg.AuthCodeURL(state, opts...)

	err = f.flows.Upsert(state, &flows.State{
		SessionID:    sessionID,
		ProviderKey:  f.key,
		CodeVerifier: verifier,
		Scopes:       scopes,
		ReturnURL:    returnURL,
		CreatedAt:    f.nowTime(),
	})
	if err != nil {
		return Redirect{}, errors.Wrapf(err, "[%s StartAuthorizationFlow] store flow", f.key)
	}

	return Redirect{URL: authURL, State: state}, nil
}

// exchange trades the code for a token and builds the record. Callers decorate the record
// before saving it.
func (f *authFlow) exchange(ctx context.Context, flowState *flows.State, code string) (*oauth2.Token, *socialmodel.AccessTokenRecord, error) {
	if flowState == nil {
		return nil, nil, errors.Errorf("[%s exchange] flow state is required", f.key)
	}
	if flowState.ProviderKey != f.key {
		return nil, nil, errors.Errorf("[%s exchange] flow belongs to %s", f.key, flowState.ProviderKey)
	}

	tok, err := f.oauth.Exchange(f.clientContext(ctx), code, oauth2.VerifierOption(flowState.CodeVerifier))
	if err != nil {
		return nil, nil, errors.Wrapf(err, "[%s exchange] token exchange failed", f.key)
	}

	// Providers that echo granted scopes are authoritative; otherwise assume what was asked for
	scopes := flowState.Scopes
	if granted, ok := tok.Extra("scope").(string); ok && granted != "" {
		scopes = []string{granted}
	}

	record, err := socialmodel.NewAccessTokenRecord(f.key, tok.AccessToken, scopes, f.nowTime())
	if err != nil {
		return nil, nil, errors.Wrapf(err, "[%s exchange]", f.key)
	}
	record.TokenType = tok.Type()
	record.RefreshToken = tok.RefreshToken
	record.Expiry = socialmodel.CanonicalTime(tok.Expiry)
	return tok, record, nil
}

func (f *authFlow) save(ctx context.Context, sessionID string, record *socialmodel.AccessTokenRecord) error {
	if err := f.tokens.Put(ctx, sessionID, f.key, record); err != nil {
		return errors.Wrapf(err, "[%s save] store token", f.key)
	}
	return nil
}

func (f *authFlow) CurrentAccessToken(ctx context.Context, sessionID string) (*socialmodel.AccessTokenRecord, error) {
	record, err := f.tokens.Get(ctx, sessionID, f.key)
	if err != nil {
		return nil, err
	}
	if !wellFormedToken(record.AccessToken) {
		return nil, tokens.ErrNotFound
	}
	return record, nil
}

func (f *authFlow) apiClient(ctx context.Context, record *socialmodel.AccessTokenRecord, baseURL string, decode errorDecoder) *APIClient {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: record.AccessToken, TokenType: "Bearer"})
	return &APIClient{
		provider:    f.key,
		baseURL:     strings.TrimRight(baseURL, "/"),
		http:        oauth2.NewClient(f.clientContext(ctx), src),
		decodeError: decode,
	}
}

// revokeAtEndpoint posts an RFC 7009 revocation request.
func (f *authFlow) revokeAtEndpoint(ctx context.Context, revokeURL string, record *socialmodel.AccessTokenRecord, decode errorDecoder) error {
	form := url.Values{}
	form.Set("token", record.AccessToken)
	form.Set("token_type_hint", "access_token")
	form.Set("client_id", f.oauth.ClientID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return errors.Wrapf(err, "[%s Revoke] request", f.key)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if f.oauth.Endpoint.AuthStyle == oauth2.AuthStyleInHeader {
		req.SetBasicAuth(url.QueryEscape(f.oauth.ClientID), url.QueryEscape(f.oauth.ClientSecret))
	}

	client := &APIClient{provider: f.key, http: f.httpClient, decodeError: decode}
	return client.do(req, nil)
}

func (f *authFlow) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, f.httpClient)
}

// wellFormedToken rejects tokens no provider would issue.
func wellFormedToken(token string) bool {
	return token != "" && !strings.ContainsAny(token, " \t\r\n")
}

// generateState creates a random base64url string
func generateState() (string, error) {
	b := make([]byte, stateLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
