package providers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-social-portal/socialmodel"
	"github.com/pkg/errors"
)

const maxResponseBody = 1 << 20

// APIClient is a thin authenticated JSON client for one provider's API. Non-2xx responses
// come back as *APIError; transport failures are returned wrapped so they still classify as
// network errors.
type APIClient struct {
	provider    socialmodel.ProviderKey
	baseURL     string
	http        *http.Client
	decodeError errorDecoder
}

// GetJSON issues GET baseURL+path?query and decodes the response into out.
func (c *APIClient) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return errors.Wrapf(err, "[%s GetJSON] request", c.provider)
	}
	return c.do(req, out)
}

// PostForm issues a form encoded POST and decodes the response into out.
func (c *APIClient) PostForm(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return errors.Wrapf(err, "[%s PostForm] request", c.provider)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, out)
}

// Delete issues a DELETE and decodes the response into out when out is not nil.
func (c *APIClient) Delete(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		return errors.Wrapf(err, "[%s Delete] request", c.provider)
	}
	return c.do(req, out)
}

func (c *APIClient) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// *url.Error already names the method and URL
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return errors.Wrapf(err, "%s %s: read body", req.Method, req.URL.Path)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := c.decodeError(resp.StatusCode, body)
		apiErr.Provider = c.provider
		apiErr.StatusCode = resp.StatusCode
		return apiErr
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrapf(err, "%s %s: decode response", req.Method, req.URL.Path)
	}
	return nil
}
