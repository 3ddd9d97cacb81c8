package serviceaccount

import (
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"os"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2/google"
)

// AccountType is the only key file type accepted by this package.
const AccountType = "service_account"

// Credentials is a Google service account key as published by the Cloud console.
// Field names follow the key file format exactly so that a parsed key marshals
// back to the same JSON shape.
type Credentials struct {
	Type                    string `json:"type"`
	ProjectID               string `json:"project_id,omitempty"`
	PrivateKeyID            string `json:"private_key_id"`
	PrivateKey              string `json:"private_key"`
	ClientEmail             string `json:"client_email"`
	ClientID                string `json:"client_id"`
	AuthURI                 string `json:"auth_uri,omitempty"`
	TokenURI                string `json:"token_uri"`
	AuthProviderX509CertURL string `json:"auth_provider_x509_cert_url,omitempty"`
	ClientX509CertURL       string `json:"client_x509_cert_url"`
	UniverseDomain          string `json:"universe_domain,omitempty"`
}

// ParseCredentials decodes and validates a service account key file.
// A missing token_uri falls back to Google's JWT token endpoint.
func ParseCredentials(data []byte) (*Credentials, error) {
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, NewCredentialError("", "malformed key file", err)
	}

	if creds.TokenURI == "" {
		creds.TokenURI = google.JWTTokenURL
	}

	if err := creds.Validate(); err != nil {
		return nil, err
	}

	return &creds, nil
}

// LoadCredentialsFile reads and parses the key file at path.
func LoadCredentialsFile(path string) (*Credentials, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is supplied by the operator
	if err != nil {
		return nil, fmt.Errorf("serviceaccount: read key file: %w", err)
	}

	return ParseCredentials(data)
}

// Validate checks the fields needed to build and sign an assertion.
func (c *Credentials) Validate() error {
	if c == nil {
		return NewCredentialError("", "credentials are nil", nil)
	}
	if c.Type != AccountType {
		return NewCredentialError("type", fmt.Sprintf("expected %q, got %q", AccountType, c.Type), nil)
	}
	if c.ClientEmail == "" {
		return NewCredentialError("client_email", "is required", nil)
	}
	if c.PrivateKey == "" {
		return NewCredentialError("private_key", "is required", nil)
	}
	if c.TokenURI == "" {
		return NewCredentialError("token_uri", "is required", nil)
	}

	u, err := url.Parse(c.TokenURI)
	if err != nil {
		return NewCredentialError("token_uri", "is not a valid URL", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return NewCredentialError("token_uri", "must be an absolute URL", nil)
	}

	switch u.Scheme {
	case "https":
	case "http":
		// Plain HTTP is only tolerated for loopback test servers.
		if !isLoopback(u.Hostname()) {
			return NewCredentialError("token_uri", "must use https", nil)
		}
	default:
		return NewCredentialError("token_uri", "must use https", nil)
	}

	return nil
}

// RSAPrivateKey decodes the PEM encoded private key.
func (c *Credentials) RSAPrivateKey() (*rsa.PrivateKey, error) {
	if c.PrivateKey == "" {
		return nil, NewCredentialError("private_key", "is required", nil)
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(c.PrivateKey))
	if err != nil {
		return nil, NewCredentialError("private_key", "cannot decode RSA key", err)
	}

	return key, nil
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
