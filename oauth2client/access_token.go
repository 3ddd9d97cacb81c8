package oauth2client

import (
	"time"

	"golang.org/x/oauth2"

	"github.com/AmmannChristian/go-gsatoken/serviceaccount"
)

// AccessToken is a bearer token issued for a service account and scope.
// Values handed out by TokenCache are shared between callers and must not be modified.
type AccessToken struct {
	Value     string
	TokenType string
	Expiry    time.Time // zero when the endpoint did not report a lifetime
	Scope     serviceaccount.Scope
}

// Expired reports whether the token is unusable at now, treating the last
// leeway before Expiry as already expired.
func (t *AccessToken) Expired(now time.Time, leeway time.Duration) bool {
	if t == nil || t.Value == "" {
		return true
	}
	if t.Expiry.IsZero() {
		return false
	}
	return !now.Before(t.Expiry.Add(-leeway))
}

// Valid reports whether the token is non-empty and not expired.
func (t *AccessToken) Valid() bool {
	return !t.Expired(time.Now(), 0)
}

// OAuth2 converts the token for use with golang.org/x/oauth2 clients.
func (t *AccessToken) OAuth2() *oauth2.Token {
	tokenType := t.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return &oauth2.Token{
		AccessToken: t.Value,
		TokenType:   tokenType,
		Expiry:      t.Expiry,
	}
}
