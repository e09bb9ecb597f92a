package providers_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/jrsteele09/go-social-portal/providers"
	"github.com/jrsteele09/go-social-portal/socialmodel"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func timeoutError() error {
	return &url.Error{Op: "Get", URL: "https://graph.facebook.com/me", Err: context.DeadlineExceeded}
}

func TestClassifiers_SharedRules(t *testing.T) {
	classifiers := map[string]providers.Classifier{
		"facebook": providers.ClassifyFacebook,
		"google":   providers.ClassifyGoogle,
		"twitter":  providers.ClassifyTwitter,
	}

	tests := []struct {
		name string
		err  error
		want providers.ErrorKind
	}{
		{"http 401", &providers.APIError{StatusCode: http.StatusUnauthorized, Message: "Unauthorized"}, providers.InvalidOrExpiredToken},
		{"wrapped http 401", pkgerrors.Wrap(&providers.APIError{StatusCode: 401}, "GET /me"), providers.InvalidOrExpiredToken},
		{"not authorized marker", errors.New("(#200) The user hasn't authorized the application to perform this action"), providers.InsufficientScope},
		{"network timeout", timeoutError(), providers.NetworkOrTransient},
		{"deadline exceeded", context.DeadlineExceeded, providers.NetworkOrTransient},
		{"unexpected eof", pkgerrors.Wrap(io.ErrUnexpectedEOF, "read body"), providers.NetworkOrTransient},
		{"provider outage", &providers.APIError{StatusCode: http.StatusServiceUnavailable}, providers.NetworkOrTransient},
		{"rate limited", &providers.APIError{StatusCode: http.StatusTooManyRequests}, providers.NetworkOrTransient},
		{"invalid grant", &oauth2.RetrieveError{Response: &http.Response{StatusCode: 400}, ErrorCode: "invalid_grant"}, providers.InvalidOrExpiredToken},
		{"token endpoint 401", &oauth2.RetrieveError{Response: &http.Response{StatusCode: 401, Status: "401 Unauthorized"}}, providers.InvalidOrExpiredToken},
		{"token endpoint 502", &oauth2.RetrieveError{Response: &http.Response{StatusCode: 502, Status: "502 Bad Gateway"}}, providers.NetworkOrTransient},
		{"transport wrapping token failure", &url.Error{Op: "Get", URL: "https://api.twitter.com/2/users/me", Err: &oauth2.RetrieveError{Response: &http.Response{StatusCode: 400}, ErrorCode: "invalid_token"}}, providers.InvalidOrExpiredToken},
		{"unrecognised", errors.New("something odd"), providers.Unspecified},
		{"bad request", &providers.APIError{StatusCode: http.StatusBadRequest, Message: "malformed"}, providers.Unspecified},
		{"nil", nil, providers.Unspecified},
	}

	for name, classify := range classifiers {
		for _, tc := range tests {
			t.Run(name+"/"+tc.name, func(t *testing.T) {
				require.Equal(t, tc.want, classify(tc.err))
			})
		}
	}
}

func TestClassifyFacebook(t *testing.T) {
	tests := []struct {
		name string
		err  *providers.APIError
		want providers.ErrorKind
	}{
		{"expired token", &providers.APIError{StatusCode: 400, Code: 190, Subcode: 463, Type: "OAuthException", Message: "Error validating access token: Session has expired"}, providers.InvalidOrExpiredToken},
		{"invalid session", &providers.APIError{StatusCode: 400, Code: 102, Type: "OAuthException", Message: "Session key invalid or no longer valid"}, providers.InvalidOrExpiredToken},
		{"no active token", &providers.APIError{StatusCode: 400, Code: 2500, Type: "OAuthException", Message: "An active access token must be used"}, providers.InvalidOrExpiredToken},
		{"oauth exception without code", &providers.APIError{StatusCode: 400, Type: "OAuthException", Message: "Invalid OAuth access token"}, providers.InvalidOrExpiredToken},
		{"unknown oauth exception", &providers.APIError{StatusCode: 400, Code: 1, Type: "OAuthException", Message: "An unknown error occurred"}, providers.Unspecified},
		{"duplicate post", &providers.APIError{StatusCode: 400, Code: 506, Type: "OAuthException", Message: "Duplicate status message"}, providers.Unspecified},
		{"invalid parameter", &providers.APIError{StatusCode: 400, Code: 100, Type: "OAuthException", Message: "(#100) Invalid parameter"}, providers.Unspecified},
		{"application rate limit", &providers.APIError{StatusCode: 400, Code: 4, Type: "OAuthException", Message: "(#4) Application request limit reached"}, providers.NetworkOrTransient},
		{"user rate limit", &providers.APIError{StatusCode: 400, Code: 17, Type: "OAuthException", Message: "(#17) User request limit reached"}, providers.NetworkOrTransient},
		{"custom rate limit", &providers.APIError{StatusCode: 400, Code: 613, Type: "OAuthException", Message: "(#613) Calls to this api have exceeded the rate limit"}, providers.NetworkOrTransient},
		{"permission code 200", &providers.APIError{StatusCode: 403, Code: 200, Type: "OAuthException", Message: "(#200) Permissions error"}, providers.InsufficientScope},
		{"permission code 10", &providers.APIError{StatusCode: 400, Code: 10, Type: "OAuthException", Message: "(#10) Application does not have permission for this action"}, providers.InsufficientScope},
		{"graph exception", &providers.APIError{StatusCode: 400, Code: 100, Type: "GraphMethodException", Message: "Unsupported get request"}, providers.Unspecified},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, providers.ClassifyFacebook(tc.err))
		})
	}
}

func TestClassifyGoogle(t *testing.T) {
	tests := []struct {
		name string
		err  *providers.APIError
		want providers.ErrorKind
	}{
		{"insufficient permissions", &providers.APIError{StatusCode: 403, Reason: "insufficientPermissions", Message: "Insufficient Permission"}, providers.InsufficientScope},
		{"scope insufficient detail", &providers.APIError{StatusCode: 403, Type: "PERMISSION_DENIED", Reason: "ACCESS_TOKEN_SCOPE_INSUFFICIENT", Message: "Request had insufficient authentication scopes."}, providers.InsufficientScope},
		{"forbidden for other reasons", &providers.APIError{StatusCode: 403, Reason: "dailyLimitExceeded", Message: "Daily Limit Exceeded"}, providers.Unspecified},
		{"unauthenticated", &providers.APIError{StatusCode: 400, Type: "UNAUTHENTICATED", Message: "Request had invalid authentication credentials."}, providers.InvalidOrExpiredToken},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, providers.ClassifyGoogle(tc.err))
		})
	}
}

func TestClassifyTwitter(t *testing.T) {
	tests := []struct {
		name string
		err  *providers.APIError
		want providers.ErrorKind
	}{
		{"v2 unauthorized", &providers.APIError{Provider: socialmodel.TwitterKey, StatusCode: 401, Type: "about:blank", Message: "Unauthorized"}, providers.InvalidOrExpiredToken},
		{"v1 invalid token", &providers.APIError{StatusCode: 400, Code: 89, Message: "Invalid or expired token."}, providers.InvalidOrExpiredToken},
		{"missing scope", &providers.APIError{StatusCode: 403, Message: "Missing required OAuth2 scope: tweet.write"}, providers.InsufficientScope},
		{"suspended", &providers.APIError{StatusCode: 403, Message: "User is suspended"}, providers.Unspecified},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, providers.ClassifyTwitter(tc.err))
		})
	}
}

func TestErrorKind_String(t *testing.T) {
	require.Equal(t, "InvalidOrExpiredToken", providers.InvalidOrExpiredToken.String())
	require.Equal(t, "InsufficientScope", providers.InsufficientScope.String())
	require.Equal(t, "NetworkOrTransient", providers.NetworkOrTransient.String())
	require.Equal(t, "Unspecified", providers.Unspecified.String())
}
