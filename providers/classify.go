package providers

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

// ErrorKind is the abstract failure category a provider error is classified into.
type ErrorKind int

const (
	// Unspecified is anything not recognised. It is presented exactly like NetworkOrTransient.
	Unspecified ErrorKind = iota

	// InvalidOrExpiredToken means the stored token no longer works and the user must reauthorize.
	InvalidOrExpiredToken

	// InsufficientScope means the token works but the user never granted the permission the call needs.
	InsufficientScope

	// NetworkOrTransient covers IO failures, timeouts and provider outages.
	NetworkOrTransient
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidOrExpiredToken:
		return "InvalidOrExpiredToken"
	case InsufficientScope:
		return "InsufficientScope"
	case NetworkOrTransient:
		return "NetworkOrTransient"
	default:
		return "Unspecified"
	}
}

// Classifier maps a raw provider failure to an ErrorKind. Implementations are pure.
type Classifier func(err error) ErrorKind

// notAuthorizedMarker is the text providers use when the user never granted the acting permission.
const notAuthorizedMarker = "hasn't authorized the application to perform this action"

// classificationRules are the provider specific shapes layered onto the shared rules.
type classificationRules struct {
	insufficientScope func(*APIError) bool
	invalidToken      func(*APIError) bool
	transient         func(*APIError) bool
}

// classify applies the rules every provider shares, in priority order: permission denied,
// invalid token, network, then unspecified.
func classify(err error, rules classificationRules) ErrorKind {
	if err == nil {
		return Unspecified
	}

	if strings.Contains(err.Error(), notAuthorizedMarker) {
		return InsufficientScope
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case rules.insufficientScope != nil && rules.insufficientScope(apiErr):
			return InsufficientScope
		case apiErr.StatusCode == http.StatusUnauthorized:
			return InvalidOrExpiredToken
		case rules.invalidToken != nil && rules.invalidToken(apiErr):
			return InvalidOrExpiredToken
		case isTransientStatus(apiErr.StatusCode):
			return NetworkOrTransient
		case rules.transient != nil && rules.transient(apiErr):
			return NetworkOrTransient
		}
		return Unspecified
	}

	// Token endpoint failures, including those surfaced through an oauth2 transport
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		switch retrieveErr.ErrorCode {
		case "invalid_grant", "invalid_token":
			return InvalidOrExpiredToken
		}
		if retrieveErr.Response != nil {
			if retrieveErr.Response.StatusCode == http.StatusUnauthorized {
				return InvalidOrExpiredToken
			}
			if isTransientStatus(retrieveErr.Response.StatusCode) {
				return NetworkOrTransient
			}
		}
		return Unspecified
	}

	if isNetworkError(err) {
		return NetworkOrTransient
	}
	return Unspecified
}

func isTransientStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

func isNetworkError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	// *url.Error and *net.OpError both satisfy net.Error
	var netErr net.Error
	return errors.As(err, &netErr)
}
