package httpclient

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/AmmannChristian/go-gsatoken/internal/tlsutil"
	"github.com/AmmannChristian/go-gsatoken/oauth2client"
	"github.com/AmmannChristian/go-gsatoken/serviceaccount"
)

// Builder provides a fluent interface for constructing HTTP clients
// with optional service-account authentication and TLS/mTLS support.
type Builder struct {
	// OAuth2 configuration
	tokenCache *oauth2client.TokenCache
	scope      serviceaccount.Scope
	authErr    error // deferred from WithServiceAccount*, reported by Build

	// TLS configuration
	tlsEnabled    bool
	tlsCAFile     string
	tlsCertFile   string
	tlsKeyFile    string
	tlsSkipVerify bool

	// HTTP client configuration
	timeout         time.Duration
	baseTransport   http.RoundTripper
	followRedirects bool
}

// NewBuilder creates a new HTTP client builder.
func NewBuilder() *Builder {
	return &Builder{
		timeout:         30 * time.Second, // Default 30s timeout
		followRedirects: true,
	}
}

// WithTokenCache sets a shared token cache and the scope requested for every request.
func (b *Builder) WithTokenCache(tc *oauth2client.TokenCache, scope serviceaccount.Scope) *Builder {
	b.tokenCache = tc
	b.scope = scope
	b.authErr = nil
	return b
}

// WithServiceAccount enables service-account authentication by creating a new TokenCache.
// Invalid credentials are reported by Build.
//
// Parameters:
//   - ctx: Context for token requests
//   - creds: Parsed service account key
//   - scope: OAuth2 scope(s) to request (e.g., serviceaccount.ScopeDrive)
//   - opts: TokenCache options (WithLogger, WithMetrics, ...)
func (b *Builder) WithServiceAccount(ctx context.Context, creds *serviceaccount.Credentials, scope serviceaccount.Scope, opts ...oauth2client.Option) *Builder {
	tc, err := oauth2client.NewTokenCache(ctx, creds, opts...)
	b.tokenCache = tc
	b.scope = scope
	b.authErr = err
	return b
}

// WithServiceAccountFile is WithServiceAccount reading the key from a JSON key file.
func (b *Builder) WithServiceAccountFile(ctx context.Context, path string, scope serviceaccount.Scope, opts ...oauth2client.Option) *Builder {
	creds, err := serviceaccount.LoadCredentialsFile(path)
	if err != nil {
		b.tokenCache = nil
		b.scope = scope
		b.authErr = err
		return b
	}
	return b.WithServiceAccount(ctx, creds, scope, opts...)
}

// WithTLS enables TLS for the connection.
//
// Parameters:
//   - caFile: Path to CA certificate for server verification (optional, uses system roots if empty)
//   - certFile: Path to client certificate for mTLS (optional, must be paired with keyFile)
//   - keyFile: Path to client private key for mTLS (optional, must be paired with certFile)
func (b *Builder) WithTLS(caFile, certFile, keyFile string) *Builder {
	b.tlsEnabled = true
	b.tlsCAFile = caFile
	b.tlsCertFile = certFile
	b.tlsKeyFile = keyFile
	return b
}

// WithInsecureSkipVerify disables TLS certificate verification (NOT RECOMMENDED for production).
// This should only be used for testing or development purposes.
func (b *Builder) WithInsecureSkipVerify() *Builder {
	b.tlsSkipVerify = true
	return b
}

// WithTimeout sets the request timeout for the HTTP client.
// Default is 30 seconds if not specified.
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.timeout = timeout
	return b
}

// WithBaseTransport sets a custom base transport.
// This is useful for adding custom middleware or using a custom connection pool.
func (b *Builder) WithBaseTransport(transport http.RoundTripper) *Builder {
	b.baseTransport = transport
	return b
}

// WithoutRedirects disables automatic redirect following.
// By default, the client follows up to 10 redirects.
func (b *Builder) WithoutRedirects() *Builder {
	b.followRedirects = false
	return b
}

// Build constructs the HTTP client with the configured options.
//
// Returns:
//   - *http.Client: Configured HTTP client
//   - error: Error if configuration is invalid
func (b *Builder) Build() (*http.Client, error) {
	if b.authErr != nil {
		return nil, fmt.Errorf("httpclient: service account setup failed: %w", b.authErr)
	}
	if b.tokenCache != nil && b.scope.IsEmpty() {
		return nil, errors.New("httpclient: scope is required when a TokenCache is set")
	}

	// Build base transport
	transport := b.baseTransport
	if transport == nil {
		if httpTransport, ok := http.DefaultTransport.(*http.Transport); ok {
			httpTransport = httpTransport.Clone()

			if b.tlsEnabled || b.tlsSkipVerify {
				tlsConfig, err := b.buildTLSConfig()
				if err != nil {
					return nil, fmt.Errorf("httpclient: TLS config failed: %w", err)
				}
				httpTransport.TLSClientConfig = tlsConfig
			} else {
				// Set secure TLS defaults even when TLS is not explicitly configured
				httpTransport.TLSClientConfig = &tls.Config{
					MinVersion: tls.VersionTLS12,
				}
			}

			transport = httpTransport
		} else {
			// Fallback to whatever default transport is configured (e.g., a test stub)
			transport = http.DefaultTransport
			if b.tlsEnabled || b.tlsSkipVerify {
				if base, ok := transport.(*http.Transport); ok {
					tlsConfig, err := b.buildTLSConfig()
					if err != nil {
						return nil, fmt.Errorf("httpclient: TLS config failed: %w", err)
					}
					cloned := base.Clone()
					cloned.TLSClientConfig = tlsConfig
					transport = cloned
				}
			}
		}
	}

	// Wrap with OAuth2 transport if a token cache is set
	if b.tokenCache != nil {
		transport = NewOAuth2Transport(b.tokenCache, b.scope, transport)
	}

	// Build HTTP client
	client := &http.Client{
		Transport: transport,
		Timeout:   b.timeout,
	}

	// Configure redirect policy
	if !b.followRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	return client, nil
}

// buildTLSConfig constructs the TLS configuration for the HTTP client.
func (b *Builder) buildTLSConfig() (*tls.Config, error) {
	return tlsutil.ClientConfig(tlsutil.ClientOptions{
		CAFile:             b.tlsCAFile,
		CertFile:           b.tlsCertFile,
		KeyFile:            b.tlsKeyFile,
		InsecureSkipVerify: b.tlsSkipVerify,
	})
}

// NewHTTPClient is a convenience function that creates a simple HTTP client
// authenticated with tokens for scope. For more configuration options, use Builder instead.
//
// Example:
//
//	tc, err := oauth2client.NewTokenCache(ctx, creds)
//	client := httpclient.NewHTTPClient(tc, serviceaccount.ScopeDrive)
//	resp, err := client.Get("https://www.googleapis.com/drive/v3/files")
func NewHTTPClient(tc *oauth2client.TokenCache, scope serviceaccount.Scope) *http.Client {
	transport := NewOAuth2Transport(tc, scope, nil)
	return &http.Client{
		Transport: transport,
		Timeout:   30 * time.Second,
	}
}
