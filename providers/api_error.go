package providers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-social-portal/socialmodel"
)

// APIError is a provider API failure normalised from the provider's own error body.
type APIError struct {
	Provider   socialmodel.ProviderKey
	StatusCode int    // HTTP status of the response
	Code       int    // Provider error code (Facebook code, Twitter v1 code)
	Subcode    int    // Facebook error_subcode
	Type       string // Facebook error type, Google status, Twitter problem type
	Reason     string // Google error reason
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (HTTP %d): %s", e.Provider, e.StatusCode, e.Message)
}

// errorDecoder turns a non-2xx response body into an APIError.
type errorDecoder func(status int, body []byte) *APIError

// fallbackMessage is used when a body could not be decoded.
func fallbackMessage(status int, body []byte) string {
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return msg
	}
	return http.StatusText(status)
}
