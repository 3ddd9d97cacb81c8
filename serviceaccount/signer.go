package serviceaccount

import (
	"github.com/golang-jwt/jwt/v5"
)

// Signer turns a claim set into a compact JWS assertion using the
// credentials' private key.
type Signer interface {
	Sign(claims Claims, creds *Credentials) (string, error)
}

// SignerFunc adapts a function to the Signer interface.
type SignerFunc func(claims Claims, creds *Credentials) (string, error)

// Sign calls f.
func (f SignerFunc) Sign(claims Claims, creds *Credentials) (string, error) {
	return f(claims, creds)
}

// RS256Signer signs assertions with RSA SHA-256 as required by the Google
// token endpoint. The key id header is set from private_key_id when present.
type RS256Signer struct{}

// Sign implements Signer.
func (RS256Signer) Sign(claims Claims, creds *Credentials) (string, error) {
	key, err := creds.RSAPrivateKey()
	if err != nil {
		return "", err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["typ"] = "JWT"
	if creds.PrivateKeyID != "" {
		token.Header["kid"] = creds.PrivateKeyID
	}

	signed, err := token.SignedString(key)
	if err != nil {
		return "", NewSigningError(jwt.SigningMethodRS256.Alg(), err)
	}

	return signed, nil
}
