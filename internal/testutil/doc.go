// Package testutil provides test helpers for go-gsatoken packages.
//
// # Utilities
//
//   - GenerateTestKeyPair: RSA key pairs for signing tests
//   - ParseAssertion: verify an RS256 assertion and expose its header and claims
//   - StubExchanger: an in-memory oauth2client.Exchanger that counts calls and can hold
//     exchanges open to exercise concurrent callers
//
// Public helpers (mock token endpoint, key file fixtures, TLS certificates) live in the
// top-level testutil package.
package testutil
