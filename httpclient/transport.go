package httpclient

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/AmmannChristian/go-gsatoken/oauth2client"
	"github.com/AmmannChristian/go-gsatoken/serviceaccount"
)

// OAuth2Transport is an http.RoundTripper that adds service-account Bearer
// tokens to outgoing HTTP requests.
//
// It wraps an existing transport (typically http.DefaultTransport) and
// injects the Authorization header before each request.
type OAuth2Transport struct {
	// Base is the underlying HTTP transport. If nil, http.DefaultTransport is used.
	Base http.RoundTripper

	// TokenCache provides access tokens.
	TokenCache *oauth2client.TokenCache

	// Scope is the OAuth2 scope requested for every request.
	Scope serviceaccount.Scope
}

// RoundTrip implements http.RoundTripper interface.
// It fetches a valid access token for Scope and adds it as "Authorization: Bearer <token>"
// to the request headers before delegating to the base transport.
// The request context bounds the wait for the token.
func (t *OAuth2Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.TokenCache == nil {
		return nil, errors.New("httpclient: TokenCache is nil")
	}

	token, err := t.TokenCache.GetTokenWithContext(req.Context(), t.Scope)
	if err != nil {
		return nil, fmt.Errorf("httpclient: failed to get token: %w", err)
	}

	// Clone the request to avoid modifying the original
	reqClone := req.Clone(req.Context())
	reqClone.Header.Set("Authorization", "Bearer "+token.Value)

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	return base.RoundTrip(reqClone)
}

// NewOAuth2Transport creates a new OAuth2Transport requesting tokens for scope.
// The base transport defaults to http.DefaultTransport if not specified.
func NewOAuth2Transport(tc *oauth2client.TokenCache, scope serviceaccount.Scope, base http.RoundTripper) *OAuth2Transport {
	if base == nil {
		base = http.DefaultTransport
	}

	return &OAuth2Transport{
		Base:       base,
		TokenCache: tc,
		Scope:      scope,
	}
}
