// Package oauth2client issues Google service-account access tokens through the
// JWT-bearer grant and caches them per scope for gRPC and HTTP clients.
//
// A TokenCache signs a fresh assertion for each exchange, posts it to the
// account's token endpoint, and keeps the result keyed by the normalized
// scope. Callers asking for the same scope while an exchange runs share a
// single PendingToken, so at most one request per scope is in flight.
// Exchanges for different scopes run independently.
//
// # Features
//
//   - JWT-bearer grant with RS256 assertions (see package serviceaccount)
//   - Per-scope cache with shared in-flight exchanges
//   - Tokens are replaced one minute before expiry (WithExpiryLeeway)
//   - Failed exchanges stay cached until Evict is called
//   - Evict and Purge leave exchanges still in flight untouched
//   - gRPC unary and stream client interceptors that inject Bearer tokens
//   - oauth2.TokenSource adapter for golang.org/x/oauth2 based clients
//   - Optional logging (WithLogger, WithLoggingEnabled) and Prometheus metrics (WithMetrics)
//
// # Quick Start
//
//	creds, err := serviceaccount.LoadCredentialsFile("key.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	tc, err := oauth2client.NewTokenCache(ctx, creds, oauth2client.WithLoggingEnabled())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	token, err := tc.GetTokenWithContext(ctx, serviceaccount.ScopeDrive)
//
//	conn, err := grpc.NewClient(
//	    "pubsub.googleapis.com:443",
//	    grpc.WithUnaryInterceptor(tc.UnaryClientInterceptor(serviceaccount.ScopeCloudPlatform)),
//	    grpc.WithStreamInterceptor(tc.StreamClientInterceptor(serviceaccount.ScopeCloudPlatform)),
//	)
//
//	client := http.Client{Transport: httpclient.NewOAuth2Transport(tc, serviceaccount.ScopeDrive, nil)}
//
// # Notes
//
//   - The context passed to a Get call bounds the wait only. Abandoning the wait
//     does not cancel the exchange for other callers.
//   - Access tokens are never logged.
package oauth2client
