// Package httpclient offers HTTP client construction helpers with service-account authentication and TLS/mTLS options.
//
// It provides a fluent Builder that can create an http.Client with automatic Bearer token injection using
// oauth2client.TokenCache, configurable TLS (custom CA, mTLS, insecure for tests), timeouts, base transports,
// and redirect handling. OAuth2Transport can wrap any RoundTripper.
//
// # Features
//
//   - Fluent builder for http.Client with optional token injection for one scope
//   - Key file loading through WithServiceAccountFile
//   - TLS 1.2+ by default, with custom CA/mTLS and optional InsecureSkipVerify
//   - Custom timeouts, base transport override, and redirect disabling
//   - Reusable OAuth2Transport for manual composition
//
// # Quick Start
//
//	client, err := httpclient.NewBuilder().
//	    WithServiceAccountFile(ctx, os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"), serviceaccount.ScopeDrive).
//	    WithTimeout(60 * time.Second).
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := client.Get("https://www.googleapis.com/drive/v3/files")
//
// # Manual Transport Wrapping
//
//	transport := httpclient.NewOAuth2Transport(tc, serviceaccount.ScopeDrive, nil)
//	client := &http.Client{Transport: transport}
//
// Several clients may share one TokenCache; each scope is exchanged once.
package httpclient
