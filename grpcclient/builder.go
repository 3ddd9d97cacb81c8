package grpcclient

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"

	"github.com/AmmannChristian/go-gsatoken/internal/tlsutil"
	"github.com/AmmannChristian/go-gsatoken/oauth2client"
	"github.com/AmmannChristian/go-gsatoken/serviceaccount"
)

// Builder provides a fluent interface for constructing gRPC client connections
// with optional service-account authentication and TLS/mTLS support.
type Builder struct {
	address string

	// service account configuration
	authEnabled bool
	creds       *serviceaccount.Credentials
	keyFile     string
	tokenCache  *oauth2client.TokenCache
	scope       serviceaccount.Scope
	cacheOpts   []oauth2client.Option

	// TLS configuration
	tlsEnabled    bool
	tlsCAFile     string
	tlsCertFile   string
	tlsKeyFile    string
	tlsServerName string

	// Additional dial options
	dialOpts []grpc.DialOption
}

// NewBuilder creates a new gRPC client builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// WithAddress sets the server address (e.g., "server.example.com:9090").
func (b *Builder) WithAddress(address string) *Builder {
	b.address = address
	return b
}

// WithServiceAccount enables service-account authentication. A TokenCache is
// created by Build.
//
// Parameters:
//   - creds: Parsed service account key
//   - scope: OAuth2 scope(s) to request (e.g., serviceaccount.ScopeCloudPlatform)
//   - opts: TokenCache options (WithLogger, WithMetrics, ...)
func (b *Builder) WithServiceAccount(creds *serviceaccount.Credentials, scope serviceaccount.Scope, opts ...oauth2client.Option) *Builder {
	b.authEnabled = true
	b.creds = creds
	b.keyFile = ""
	b.tokenCache = nil
	b.scope = scope
	b.cacheOpts = opts
	return b
}

// WithServiceAccountFile is WithServiceAccount reading the key file at path during Build.
func (b *Builder) WithServiceAccountFile(path string, scope serviceaccount.Scope, opts ...oauth2client.Option) *Builder {
	b.WithServiceAccount(nil, scope, opts...)
	b.keyFile = path
	return b
}

// WithTokenCache authenticates with an existing cache, sharing its tokens with other clients.
func (b *Builder) WithTokenCache(tc *oauth2client.TokenCache, scope serviceaccount.Scope) *Builder {
	b.WithServiceAccount(nil, scope)
	b.tokenCache = tc
	return b
}

// WithTLS enables TLS for the connection.
//
// Parameters:
//   - caFile: Path to CA certificate for server verification (required)
//   - certFile: Path to client certificate for mTLS (optional, must be paired with keyFile)
//   - keyFile: Path to client private key for mTLS (optional, must be paired with certFile)
//   - serverName: Expected server name for TLS verification (optional, overrides SNI)
func (b *Builder) WithTLS(caFile, certFile, keyFile, serverName string) *Builder {
	b.tlsEnabled = true
	b.tlsCAFile = caFile
	b.tlsCertFile = certFile
	b.tlsKeyFile = keyFile
	b.tlsServerName = serverName
	return b
}

// WithDialOptions adds custom gRPC dial options.
// These options are applied after authentication and TLS options.
func (b *Builder) WithDialOptions(opts ...grpc.DialOption) *Builder {
	b.dialOpts = append(b.dialOpts, opts...)
	return b
}

// Build constructs the gRPC client connection with the configured options.
//
// Returns:
//   - *grpc.ClientConn: Established gRPC connection
//   - error: Error if connection fails
func (b *Builder) Build(ctx context.Context) (*grpc.ClientConn, error) {
	if b.address == "" {
		return nil, errors.New("grpcclient: server address is required")
	}

	var opts []grpc.DialOption

	// Add token interceptors if enabled
	if b.authEnabled {
		if err := b.validateServiceAccountConfig(); err != nil {
			return nil, err
		}

		tc, err := b.resolveTokenCache(ctx)
		if err != nil {
			return nil, err
		}

		opts = append(opts,
			grpc.WithUnaryInterceptor(tc.UnaryClientInterceptor(b.scope)),
			grpc.WithStreamInterceptor(tc.StreamClientInterceptor(b.scope)),
		)
	}

	// Add TLS credentials if enabled
	if b.tlsEnabled {
		tlsConfig, err := b.buildTLSConfig()
		if err != nil {
			return nil, fmt.Errorf("grpcclient: TLS config failed: %w", err)
		}
		opts = append(opts, grpc.WithTransportCredentials(credentials.NewTLS(tlsConfig)))
	} else {
		// Default to TLS with system roots to avoid accidental plaintext connections.
		// Set MinVersion to TLS 1.2 for secure defaults.
		opts = append(opts, grpc.WithTransportCredentials(credentials.NewTLS(&tls.Config{
			MinVersion: tls.VersionTLS12,
		})))
	}

	// Add custom dial options
	opts = append(opts, b.dialOpts...)

	// Create connection
	conn, err := grpc.NewClient(b.address, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpcclient: dial failed: %w", err)
	}

	return conn, nil
}

// validateServiceAccountConfig ensures the authentication configuration is complete.
func (b *Builder) validateServiceAccountConfig() error {
	if b.scope.IsEmpty() {
		return errors.New("grpcclient: OAuth2 scope is required")
	}
	if b.tokenCache == nil && b.creds == nil && b.keyFile == "" {
		return errors.New("grpcclient: service account credentials are required")
	}
	return nil
}

// resolveTokenCache returns the configured cache or creates one from the key.
func (b *Builder) resolveTokenCache(ctx context.Context) (*oauth2client.TokenCache, error) {
	if b.tokenCache != nil {
		return b.tokenCache, nil
	}

	creds := b.creds
	if b.keyFile != "" {
		loaded, err := serviceaccount.LoadCredentialsFile(b.keyFile)
		if err != nil {
			return nil, fmt.Errorf("grpcclient: %w", err)
		}
		creds = loaded
	}

	tc, err := oauth2client.NewTokenCache(ctx, creds, b.cacheOpts...)
	if err != nil {
		return nil, fmt.Errorf("grpcclient: %w", err)
	}
	return tc, nil
}

// buildTLSConfig constructs the TLS configuration for the gRPC connection.
func (b *Builder) buildTLSConfig() (*tls.Config, error) {
	return tlsutil.ClientConfig(tlsutil.ClientOptions{
		CAFile:     b.tlsCAFile,
		CertFile:   b.tlsCertFile,
		KeyFile:    b.tlsKeyFile,
		ServerName: b.tlsServerName,
	})
}
