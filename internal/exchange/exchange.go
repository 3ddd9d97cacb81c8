// Package exchange performs the JWT-bearer token request against a Google
// token endpoint.
package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/AmmannChristian/go-gsatoken/serviceaccount"
)

// GrantType is the grant_type form value of the JWT-bearer flow.
const GrantType = "urn:ietf:params:oauth:grant-type:jwt-bearer"

const (
	defaultTimeout  = 30 * time.Second
	maxResponseSize = 1 << 20
)

// Response is the decoded success payload of the token endpoint.
type Response struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	ExpiresIn   int64  `json:"expires_in,omitempty"`
	IDToken     string `json:"id_token,omitempty"`
}

// Client exchanges signed assertions for access tokens.
type Client struct {
	// HTTPClient is used when set. Otherwise the client stored under
	// oauth2.HTTPClient in the request context is used, then a client
	// with a 30 second timeout.
	HTTPClient *http.Client
}

var defaultClient = &http.Client{Timeout: defaultTimeout}

// Exchange posts the assertion to tokenURL and decodes the response.
func (c *Client) Exchange(ctx context.Context, tokenURL, assertion string) (*Response, error) {
	form := url.Values{}
	form.Set("grant_type", GrantType)
	form.Set("assertion", assertion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, serviceaccount.NewTransportError(tokenURL, 0, "build request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client(ctx).Do(req)
	if err != nil {
		return nil, serviceaccount.NewTransportError(tokenURL, 0, "request failed", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, serviceaccount.NewTransportError(tokenURL, resp.StatusCode, "read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if authErr := decodeError(resp.StatusCode, body); authErr != nil {
			return nil, authErr
		}
		return nil, serviceaccount.NewTransportError(tokenURL, resp.StatusCode, "unexpected response: "+truncate(body), nil)
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, serviceaccount.NewTransportError(tokenURL, resp.StatusCode, "decode response", err)
	}
	if out.AccessToken == "" {
		return nil, serviceaccount.NewTransportError(tokenURL, resp.StatusCode, "decode response",
			errors.New("missing access_token"))
	}

	return &out, nil
}

func (c *Client) client(ctx context.Context) *http.Client {
	if c != nil && c.HTTPClient != nil {
		return c.HTTPClient
	}
	if hc, ok := ctx.Value(oauth2.HTTPClient).(*http.Client); ok && hc != nil {
		return hc
	}
	return defaultClient
}

// decodeError returns nil when body does not carry an OAuth2 error payload.
func decodeError(status int, body []byte) *serviceaccount.AuthenticationError {
	var authErr serviceaccount.AuthenticationError
	if err := json.Unmarshal(body, &authErr); err != nil || authErr.Code == "" {
		return nil
	}

	authErr.StatusCode = status
	authErr.Body = append([]byte(nil), body...)

	return &authErr
}

func truncate(body []byte) string {
	const limit = 256
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		return fmt.Sprintf("%s...", s[:limit])
	}
	return s
}
