// Package serviceaccount models Google service account keys and the JWT-bearer assertion
// that is exchanged for an access token.
//
// It parses key files, normalizes scopes into comparable cache keys, builds the claim set
// (iss, aud, iat, exp, scope) and signs it with RS256 using github.com/golang-jwt/jwt/v5.
//
// # Quick Start
//
//	creds, err := serviceaccount.LoadCredentialsFile("/etc/keys/sa.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	claims := serviceaccount.BuildClaims(creds, serviceaccount.ScopeDrive, time.Now())
//	assertion, err := serviceaccount.RS256Signer{}.Sign(claims, creds)
//
// # Errors
//
// Failures are reported as *CredentialError, *SigningError, *TransportError or
// *AuthenticationError. Use the IsX helpers or errors.As to tell them apart.
package serviceaccount
