package testutil

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"github.com/AmmannChristian/go-gsatoken/internal/exchange"
)

// TestKeyPair holds an RSA key pair for JWT testing.
type TestKeyPair struct {
	PrivateKey *rsa.PrivateKey
	PublicKey  *rsa.PublicKey
}

// GenerateTestKeyPair generates a new RSA key pair for testing.
func GenerateTestKeyPair(tb testing.TB) *TestKeyPair {
	tb.Helper()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		tb.Fatalf("failed to generate RSA key pair: %v", err)
	}

	return &TestKeyPair{
		PrivateKey: privateKey,
		PublicKey:  &privateKey.PublicKey,
	}
}

// ParsedAssertion is a verified JWT-bearer assertion.
type ParsedAssertion struct {
	Header map[string]interface{}
	Claims jwt.MapClaims
}

// ParseAssertion verifies an RS256 assertion against publicKey and returns its
// header and claims. Expiry is not validated so that tests with fixed clocks work.
func ParseAssertion(tb testing.TB, assertion string, publicKey *rsa.PublicKey) *ParsedAssertion {
	tb.Helper()

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(assertion, claims, func(t *jwt.Token) (interface{}, error) {
		return publicKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}), jwt.WithoutClaimsValidation())
	if err != nil {
		tb.Fatalf("failed to verify assertion: %v", err)
	}

	return &ParsedAssertion{
		Header: token.Header,
		Claims: claims,
	}
}

// StubExchanger is an oauth2client.Exchanger that records calls and delegates
// to Respond. When Release is non-nil every call blocks until it is closed.
type StubExchanger struct {
	Respond func(assertion string) (*exchange.Response, error)
	Release chan struct{}

	calls      atomic.Int32
	mu         sync.Mutex
	assertions []string
	started    chan struct{}
	once       sync.Once
}

// Exchange records the call and returns the stubbed response.
func (s *StubExchanger) Exchange(_ context.Context, _ string, assertion string) (*exchange.Response, error) {
	s.calls.Add(1)

	s.mu.Lock()
	s.assertions = append(s.assertions, assertion)
	s.mu.Unlock()

	s.once.Do(s.init)
	select {
	case s.started <- struct{}{}:
	default:
	}

	if s.Release != nil {
		<-s.Release
	}

	if s.Respond == nil {
		return &exchange.Response{AccessToken: "stub-token", TokenType: "Bearer", ExpiresIn: 3600}, nil
	}
	return s.Respond(assertion)
}

// Started receives a value each time an exchange begins (buffered up to 16).
func (s *StubExchanger) Started() <-chan struct{} {
	s.once.Do(s.init)
	return s.started
}

func (s *StubExchanger) init() {
	s.started = make(chan struct{}, 16)
}

// Calls returns the number of exchanges performed.
func (s *StubExchanger) Calls() int {
	return int(s.calls.Load())
}

// Assertions returns the assertions received so far.
func (s *StubExchanger) Assertions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.assertions))
	copy(out, s.assertions)
	return out
}
