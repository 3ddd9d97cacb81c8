// Package testutil provides helpers for testing code that uses go-gsatoken.
//
// # Utilities
//
//   - NewLocalHTTPServer: start httptest server bound to 127.0.0.1
//   - MockOAuth2Server, StaticJSONResponse and JSONResponse: stub the token endpoint and capture requests
//   - ReadTokenRequest: decode the form body of a captured token request
//   - NewServiceAccount / WriteServiceAccountKeyFile: generate service account keys for tests
//   - WriteTestCACert / WriteTestCertAndKey: generate temporary CA and leaf certificates for tests
//
// These helpers may mutate http.DefaultClient/Transport; they restore previous values via tb.Cleanup.
package testutil
