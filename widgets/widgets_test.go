package widgets_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-social-portal/drafts"
	"github.com/jrsteele09/go-social-portal/flows"
	"github.com/jrsteele09/go-social-portal/guard"
	"github.com/jrsteele09/go-social-portal/internal/utils"
	"github.com/jrsteele09/go-social-portal/portal"
	"github.com/jrsteele09/go-social-portal/providers"
	"github.com/jrsteele09/go-social-portal/socialmodel"
	"github.com/jrsteele09/go-social-portal/tokens"
	"github.com/jrsteele09/go-social-portal/widgets"
	"github.com/stretchr/testify/require"
)

type testFixture struct {
	store    *tokens.InMemoryRepo
	drafts   *drafts.InMemoryRepo
	mux      *http.ServeMux
	requests atomic.Int32
	widgets  *widgets.Service
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	fx := &testFixture{
		store:  tokens.NewInMemoryRepo(),
		drafts: drafts.NewInMemoryRepo(),
		mux:    http.NewServeMux(),
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fx.requests.Add(1)
		fx.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(server.Close)

	flowRepo := flows.NewInMemoryRepo()
	cfg := providers.Config{ClientID: "client-id", APIBaseURL: server.URL}
	opts := []providers.Option{providers.WithHTTPClient(server.Client())}

	registry := providers.NewRegistry()
	fb, err := providers.NewFacebook(cfg, fx.store, flowRepo, opts...)
	require.NoError(t, err)
	google, err := providers.NewGoogle(cfg, fx.store, flowRepo, opts...)
	require.NoError(t, err)
	tw, err := providers.NewTwitter(cfg, fx.store, flowRepo, opts...)
	require.NoError(t, err)
	require.NoError(t, registry.Register(fb))
	require.NoError(t, registry.Register(google))
	require.NoError(t, registry.Register(tw))

	portalService, err := portal.NewService(registry, portal.Repos{Tokens: fx.store, Flows: flowRepo, Drafts: fx.drafts})
	require.NoError(t, err)
	fx.widgets, err = widgets.NewService(portalService, guard.NewInvoker(registry), fx.drafts)
	require.NoError(t, err)
	return fx
}

func (f *testFixture) authorize(t *testing.T, sessionID string, key socialmodel.ProviderKey) {
	t.Helper()
	record, err := socialmodel.NewAccessTokenRecord(key, "token-"+sessionID, nil, time.Now())
	require.NoError(t, err)
	require.NoError(t, f.store.Put(context.Background(), sessionID, key, record))
}

func (f *testFixture) respond(pattern string, status int, body string) {
	f.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
}

func TestWidgets_NoTokenNeverCallsProvider(t *testing.T) {
	fx := setupTestFixture(t)

	_, err := fx.widgets.GoogleProfile(context.Background(), "s1")
	require.ErrorIs(t, err, widgets.ErrAuthorizationRequired)
	_, err = fx.widgets.FacebookUserInfo(context.Background(), "s1")
	require.ErrorIs(t, err, widgets.ErrAuthorizationRequired)
	_, err = fx.widgets.TwitterProfile(context.Background(), "s1")
	require.ErrorIs(t, err, widgets.ErrAuthorizationRequired)

	require.Zero(t, fx.requests.Load())
}

func TestFacebookUserInfo(t *testing.T) {
	fx := setupTestFixture(t)
	fx.authorize(t, "s1", socialmodel.FacebookKey)
	fx.mux.HandleFunc("GET /me", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer token-s1", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"id":"100","name":"Ada Lovelace","first_name":"Ada","email":"ada@example.com","picture":{"data":{"url":"https://cdn.example.com/ada.jpg"}}}`))
	})

	outcome, err := fx.widgets.FacebookUserInfo(context.Background(), "s1")
	require.NoError(t, err)
	require.Equal(t, guard.Success, outcome.Kind)
	require.Equal(t, widgets.FacebookUser{
		ID:        "100",
		Name:      "Ada Lovelace",
		FirstName: "Ada",
		Email:     "ada@example.com",
		Picture:   "https://cdn.example.com/ada.jpg",
	}, outcome.Value)
}

func TestUpdateFacebookStatus_NothingToPost(t *testing.T) {
	fx := setupTestFixture(t)
	fx.authorize(t, "s1", socialmodel.FacebookKey)

	result, err := fx.widgets.UpdateFacebookStatus(context.Background(), "s1", widgets.StatusForm{
		widgets.FieldMessage: utils.Ptr(""),
		widgets.FieldLink:    utils.Ptr(""),
		widgets.FieldName:    utils.Ptr("kept"),
	})
	require.NoError(t, err)
	require.Equal(t, widgets.StatusNotSpecifiedMessageLink, result.Status)
	require.Equal(t, "kept", result.Draft.Name)
	require.Zero(t, fx.requests.Load())
}

func TestUpdateFacebookStatus(t *testing.T) {
	fx := setupTestFixture(t)
	fx.authorize(t, "s1", socialmodel.FacebookKey)

	posted := make(chan url.Values, 1)
	fx.mux.HandleFunc("POST /me/feed", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		posted <- r.PostForm
		_, _ = w.Write([]byte(`{"id":"100_200"}`))
	})

	result, err := fx.widgets.UpdateFacebookStatus(context.Background(), "s1", widgets.StatusForm{
		widgets.FieldMessage: utils.Ptr("Hello"),
		widgets.FieldLink:    utils.Ptr("https://example.com"),
	})
	require.NoError(t, err)
	require.Equal(t, widgets.StatusSuccess, result.Status)
	require.Equal(t, "100_200", result.PostID)

	form := <-posted
	require.Equal(t, []string{"Hello"}, form["message"])
	require.Equal(t, []string{"https://example.com"}, form["link"])
	require.NotContains(t, form, "picture")

	t.Run("unsubmitted fields come from drafts", func(t *testing.T) {
		result, err := fx.widgets.UpdateFacebookStatus(context.Background(), "s1", widgets.StatusForm{
			widgets.FieldCaption: utils.Ptr("caption"),
		})
		require.NoError(t, err)
		require.Equal(t, widgets.StatusSuccess, result.Status)

		form := <-posted
		require.Equal(t, []string{"Hello"}, form["message"])
		require.Equal(t, []string{"caption"}, form["caption"])
		require.Equal(t, widgets.StatusDraft{Message: "Hello", Link: "https://example.com", Caption: "caption"}, fx.widgets.FacebookStatusDraft("s1"))
	})
}

func TestUpdateFacebookStatus_Failures(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		want         widgets.Status
		errorMessage string
		providerName string
	}{
		{
			name:   "permission not granted",
			status: http.StatusForbidden,
			body:   `{"error":{"message":"(#200) The user hasn't authorized the application to perform this action","type":"OAuthException","code":200}}`,
			want:   widgets.StatusInsufficientScope,
		},
		{
			name:         "expired token",
			status:       http.StatusBadRequest,
			body:         `{"error":{"message":"Error validating access token","type":"OAuthException","code":190}}`,
			want:         widgets.StatusReauthorizeRequired,
			providerName: "Facebook",
		},
		{
			name:         "duplicate post",
			status:       http.StatusBadRequest,
			body:         `{"error":{"message":"Duplicate status message","type":"OAuthException","code":506}}`,
			want:         widgets.StatusOtherError,
			errorMessage: "506 - OAuthException - Duplicate status message",
		},
		{
			name:         "rate limited",
			status:       http.StatusBadRequest,
			body:         `{"error":{"message":"(#4) Application request limit reached","type":"OAuthException","code":4}}`,
			want:         widgets.StatusOtherError,
			errorMessage: "4 - OAuthException - (#4) Application request limit reached",
		},
		{
			name:         "invalid parameter",
			status:       http.StatusBadRequest,
			body:         `{"error":{"message":"(#100) Invalid parameter","type":"OAuthException","code":100}}`,
			want:         widgets.StatusOtherError,
			errorMessage: "100 - OAuthException - (#100) Invalid parameter",
		},
		{
			name:         "other graph error",
			status:       http.StatusBadRequest,
			body:         `{"error":{"message":"Invalid parameter","type":"GraphMethodException","code":100}}`,
			want:         widgets.StatusOtherError,
			errorMessage: "100 - GraphMethodException - Invalid parameter",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fx := setupTestFixture(t)
			fx.authorize(t, "s1", socialmodel.FacebookKey)
			fx.respond("POST /me/feed", tc.status, tc.body)

			result, err := fx.widgets.UpdateFacebookStatus(context.Background(), "s1", widgets.StatusForm{
				widgets.FieldMessage: utils.Ptr("Hello"),
			})
			require.NoError(t, err)
			require.Equal(t, tc.want, result.Status)
			require.Equal(t, tc.providerName, result.ProviderName)
			if tc.errorMessage != "" {
				require.Equal(t, tc.errorMessage, result.ErrorMessage)
			}
			require.Equal(t, "Hello", fx.widgets.FacebookStatusDraft("s1").Message)

			_, err = fx.store.Get(context.Background(), "s1", socialmodel.FacebookKey)
			require.NoError(t, err)
		})
	}
}

func TestGoogleProfile(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		fx := setupTestFixture(t)
		fx.authorize(t, "s1", socialmodel.GoogleKey)
		fx.respond("GET /oauth2/v3/userinfo", http.StatusOK, `{"sub":"1101","name":"Grace Hopper","email":"grace@example.com","email_verified":true}`)

		outcome, err := fx.widgets.GoogleProfile(context.Background(), "s1")
		require.NoError(t, err)
		require.Equal(t, guard.Success, outcome.Kind)
		require.Equal(t, "1101", outcome.Value.Subject)
		require.True(t, outcome.Value.EmailVerified)
	})

	t.Run("missing scope", func(t *testing.T) {
		fx := setupTestFixture(t)
		fx.authorize(t, "s1", socialmodel.GoogleKey)
		fx.respond("GET /oauth2/v3/userinfo", http.StatusForbidden, `{"error":{"code":403,"message":"Insufficient Permission","status":"PERMISSION_DENIED","errors":[{"reason":"insufficientPermissions"}]}}`)

		outcome, err := fx.widgets.GoogleProfile(context.Background(), "s1")
		require.NoError(t, err)
		require.Equal(t, guard.InsufficientScope, outcome.Kind)
		require.Equal(t, widgets.GoogleProfileScope, outcome.RequiredScope)
	})
}

func TestTwitterProfile(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		fx := setupTestFixture(t)
		fx.authorize(t, "s1", socialmodel.TwitterKey)
		fx.mux.HandleFunc("GET /2/users/me", func(w http.ResponseWriter, r *http.Request) {
			require.Contains(t, r.URL.Query().Get("user.fields"), "public_metrics")
			_, _ = w.Write([]byte(`{"data":{"id":"2244994945","name":"Dev","username":"dev","public_metrics":{"followers_count":12,"following_count":3}}}`))
		})

		outcome, err := fx.widgets.TwitterProfile(context.Background(), "s1")
		require.NoError(t, err)
		require.Equal(t, guard.Success, outcome.Kind)
		require.Equal(t, widgets.TwitterProfile{ID: "2244994945", Name: "Dev", Username: "dev", Followers: 12, Following: 3}, outcome.Value)
	})

	t.Run("revoked token", func(t *testing.T) {
		fx := setupTestFixture(t)
		fx.authorize(t, "s1", socialmodel.TwitterKey)
		fx.respond("GET /2/users/me", http.StatusUnauthorized, `{"title":"Unauthorized","type":"about:blank","status":401,"detail":"Unauthorized"}`)

		outcome, err := fx.widgets.TwitterProfile(context.Background(), "s1")
		require.NoError(t, err)
		require.Equal(t, guard.ReauthorizeRequired, outcome.Kind)
		require.Equal(t, "Twitter", outcome.ProviderName)
	})
}

func TestTwitterProfile_ConnectionDropped(t *testing.T) {
	fx := setupTestFixture(t)
	fx.authorize(t, "s1", socialmodel.TwitterKey)
	fx.mux.HandleFunc("GET /2/users/me", func(w http.ResponseWriter, r *http.Request) {
		conn, _, err := http.NewResponseController(w).Hijack()
		require.NoError(t, err)
		conn.Close()
	})

	outcome, err := fx.widgets.TwitterProfile(context.Background(), "s1")
	require.NoError(t, err)
	require.Equal(t, guard.TransientError, outcome.Kind)
	require.True(t, strings.HasPrefix(outcome.Message, `Get "http://`), outcome.Message)
	require.Contains(t, outcome.Message, "/2/users/me")
}
