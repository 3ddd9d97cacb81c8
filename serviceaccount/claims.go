package serviceaccount

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AssertionLifetime is the maximum lifetime the token endpoint accepts for a
// JWT-bearer assertion.
const AssertionLifetime = time.Hour

// Claims is the claim set of a JWT-bearer assertion.
type Claims struct {
	Issuer    string           `json:"iss"`
	Subject   string           `json:"sub,omitempty"`
	Audience  string           `json:"aud"`
	ExpiresAt *jwt.NumericDate `json:"exp"`
	IssuedAt  *jwt.NumericDate `json:"iat"`
	Scope     Scope            `json:"scope"`
}

var _ jwt.Claims = Claims{}

// BuildClaims returns the claim set for one signing attempt.
// It is a pure function; callers must pass validated credentials and a non-empty scope.
func BuildClaims(creds *Credentials, scope Scope, now time.Time) Claims {
	return Claims{
		Issuer:    creds.ClientEmail,
		Audience:  creds.TokenURI,
		ExpiresAt: jwt.NewNumericDate(now.Add(AssertionLifetime)),
		IssuedAt:  jwt.NewNumericDate(now),
		Scope:     scope,
	}
}

// BuildClaimsForSubject is BuildClaims with a sub claim, used for domain-wide
// delegation where the service account acts on behalf of a user.
func BuildClaimsForSubject(creds *Credentials, scope Scope, subject string, now time.Time) Claims {
	claims := BuildClaims(creds, scope, now)
	claims.Subject = subject
	return claims
}

// GetExpirationTime implements jwt.Claims.
func (c Claims) GetExpirationTime() (*jwt.NumericDate, error) { return c.ExpiresAt, nil }

// GetIssuedAt implements jwt.Claims.
func (c Claims) GetIssuedAt() (*jwt.NumericDate, error) { return c.IssuedAt, nil }

// GetNotBefore implements jwt.Claims.
func (c Claims) GetNotBefore() (*jwt.NumericDate, error) { return nil, nil }

// GetIssuer implements jwt.Claims.
func (c Claims) GetIssuer() (string, error) { return c.Issuer, nil }

// GetSubject implements jwt.Claims.
func (c Claims) GetSubject() (string, error) { return c.Subject, nil }

// GetAudience implements jwt.Claims.
func (c Claims) GetAudience() (jwt.ClaimStrings, error) {
	if c.Audience == "" {
		return nil, nil
	}
	return jwt.ClaimStrings{c.Audience}, nil
}
