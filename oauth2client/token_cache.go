package oauth2client

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/oauth2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/AmmannChristian/go-gsatoken/authz"
	"github.com/AmmannChristian/go-gsatoken/internal/exchange"
	"github.com/AmmannChristian/go-gsatoken/internal/metrics"
	"github.com/AmmannChristian/go-gsatoken/serviceaccount"
)

// maxExpiresIn is the largest expires_in, in seconds, that fits a time.Duration.
const maxExpiresIn = int64(math.MaxInt64 / time.Second)

// ErrEmptyScope is returned for token requests without any scope.
var ErrEmptyScope = errors.New("oauth2: scope is required")

// Logger is an interface for optional logging in TokenCache.
// Implementations can log token exchange events if desired.
type Logger interface {
	Printf(format string, args ...any)
}

// TokenResponse is the decoded success payload of the token endpoint.
type TokenResponse = exchange.Response

// Exchanger trades a signed assertion for an access token at tokenURL.
// Failures should be reported as *serviceaccount.TransportError or
// *serviceaccount.AuthenticationError.
type Exchanger interface {
	Exchange(ctx context.Context, tokenURL, assertion string) (*TokenResponse, error)
}

// ExchangerFunc adapts a function to the Exchanger interface.
type ExchangerFunc func(ctx context.Context, tokenURL, assertion string) (*TokenResponse, error)

// Exchange calls f.
func (f ExchangerFunc) Exchange(ctx context.Context, tokenURL, assertion string) (*TokenResponse, error) {
	return f(ctx, tokenURL, assertion)
}

// TokenCache issues access tokens for a Google service account and caches them per scope.
// At most one exchange per scope is in flight at any time; concurrent callers share it.
// It is safe for concurrent access.
type TokenCache struct {
	creds        *serviceaccount.Credentials
	signer       serviceaccount.Signer
	exchanger    Exchanger
	subject      string
	policy       *authz.Evaluator
	now          func() time.Time
	ctx          context.Context // exchange context, detached from caller cancellation
	expiryLeeway time.Duration
	logger       Logger // optional logger
	metricsReg   prometheus.Registerer
	metrics      *metrics.Metrics

	mu      sync.Mutex
	entries map[serviceaccount.Scope]*PendingToken
}

// Option is a functional option for configuring TokenCache.
type Option func(*TokenCache)

// WithLogger sets a custom logger for token exchange events.
// If not set, no logging will occur.
func WithLogger(logger Logger) Option {
	return func(tc *TokenCache) {
		tc.logger = logger
	}
}

// WithLoggingEnabled enables logging using the default Go log package.
// This is a convenience option that sets the logger to log.Default().
func WithLoggingEnabled() Option {
	return func(tc *TokenCache) {
		tc.logger = log.Default()
	}
}

// WithSigner replaces the RS256 signer.
func WithSigner(signer serviceaccount.Signer) Option {
	return func(tc *TokenCache) {
		if signer != nil {
			tc.signer = signer
		}
	}
}

// WithExchanger replaces the HTTP token exchange.
func WithExchanger(exchanger Exchanger) Option {
	return func(tc *TokenCache) {
		if exchanger != nil {
			tc.exchanger = exchanger
		}
	}
}

// WithHTTPClient sets the HTTP client used for token exchanges.
func WithHTTPClient(client *http.Client) Option {
	return func(tc *TokenCache) {
		tc.exchanger = &exchange.Client{HTTPClient: client}
	}
}

// WithExpiryLeeway sets how long before expiry a cached token is replaced.
// The default is one minute.
func WithExpiryLeeway(leeway time.Duration) Option {
	return func(tc *TokenCache) {
		if leeway >= 0 {
			tc.expiryLeeway = leeway
		}
	}
}

// WithClock overrides the time source used for claims and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(tc *TokenCache) {
		if now != nil {
			tc.now = now
		}
	}
}

// WithSubject sets the sub claim to impersonate a user through domain-wide delegation.
func WithSubject(subject string) Option {
	return func(tc *TokenCache) {
		tc.subject = subject
	}
}

// WithScopePolicy restricts the scopes the cache will request tokens for.
// Rejected requests fail with *authz.PermissionDeniedError and are not cached.
func WithScopePolicy(policy authz.ScopePolicy) Option {
	return func(tc *TokenCache) {
		tc.policy = authz.NewEvaluator(policy)
	}
}

// WithMetrics registers cache and exchange metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(tc *TokenCache) {
		tc.metricsReg = reg
	}
}

// NewTokenCache creates a token cache for the given service account.
//
// Parameters:
//   - ctx: Context for token exchanges; cancellation is stripped, values are kept
//   - creds: Service account key, validated before use
//   - opts: Optional configuration options (WithLogger, WithHTTPClient, WithMetrics, ...)
func NewTokenCache(ctx context.Context, creds *serviceaccount.Credentials, opts ...Option) (*TokenCache, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	// Keep token exchanges independent from caller cancellations while preserving values.
	if ctx == nil {
		ctx = context.Background()
	} else {
		ctx = context.WithoutCancel(ctx)
	}

	owned := *creds

	tc := &TokenCache{
		creds:        &owned,
		signer:       serviceaccount.RS256Signer{},
		exchanger:    &exchange.Client{},
		now:          time.Now,
		ctx:          ctx,
		expiryLeeway: time.Minute, // refresh a bit before expiry to avoid near-expiry races
		entries:      make(map[serviceaccount.Scope]*PendingToken),
	}

	for _, opt := range opts {
		opt(tc)
	}

	if tc.metricsReg != nil {
		m, err := metrics.New(tc.metricsReg)
		if err != nil {
			return nil, fmt.Errorf("oauth2: register metrics: %w", err)
		}
		tc.metrics = m
	}

	return tc, nil
}

// Fetch returns the shared pending token for scope, starting an exchange if no
// usable entry is cached.
//
// A cached failure is returned as is; call Evict to retry. A successful entry
// whose token is within the expiry leeway is replaced by a new exchange.
func (tc *TokenCache) Fetch(scope serviceaccount.Scope) *PendingToken {
	scope = serviceaccount.NewScope(string(scope))
	if scope.IsEmpty() {
		return failedToken(scope, ErrEmptyScope)
	}
	if err := tc.policy.Authorize(scope); err != nil {
		return failedToken(scope, err)
	}

	tc.mu.Lock()
	lookup := metrics.LookupMiss
	if p, ok := tc.entries[scope]; ok {
		if !p.stale(tc.now(), tc.expiryLeeway) {
			tc.mu.Unlock()
			tc.metrics.RecordLookup(metrics.LookupHit)
			return p
		}
		lookup = metrics.LookupRefresh
	}

	// Publish before fetching so concurrent callers join this exchange.
	p := newPendingToken(scope)
	tc.entries[scope] = p
	tc.mu.Unlock()

	tc.metrics.RecordLookup(lookup)
	if lookup == metrics.LookupRefresh && tc.logger != nil {
		tc.logger.Printf("oauth2: cached token for scope %q expired, requesting a new one", scope)
	}

	go tc.resolve(p)

	return p
}

// GetTokenWithContext returns a valid access token for scope, exchanging a new
// assertion if necessary. ctx bounds the wait only; the exchange itself keeps
// running for other callers.
func (tc *TokenCache) GetTokenWithContext(ctx context.Context, scope serviceaccount.Scope) (*AccessToken, error) {
	return tc.Fetch(scope).Wait(ctx)
}

// GetToken is GetTokenWithContext using the context passed to NewTokenCache.
func (tc *TokenCache) GetToken(scope serviceaccount.Scope) (*AccessToken, error) {
	return tc.GetTokenWithContext(tc.ctx, scope)
}

// Evict removes the resolved entry for scope so that the next request performs
// a new exchange. It reports whether an entry was removed. An entry whose
// exchange is still in flight is kept, so a scope never has two exchanges
// outstanding.
func (tc *TokenCache) Evict(scope serviceaccount.Scope) bool {
	scope = serviceaccount.NewScope(string(scope))

	tc.mu.Lock()
	defer tc.mu.Unlock()

	p, ok := tc.entries[scope]
	if !ok {
		return false
	}
	if _, resolved, _ := p.Result(); !resolved {
		return false
	}
	delete(tc.entries, scope)
	return true
}

// Purge removes all resolved entries. Exchanges still in flight keep their entries.
func (tc *TokenCache) Purge() {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	for scope, p := range tc.entries {
		if _, resolved, _ := p.Result(); resolved {
			delete(tc.entries, scope)
		}
	}
}

// Len returns the number of cached scopes, pending ones included.
func (tc *TokenCache) Len() int {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	return len(tc.entries)
}

// ClientEmail returns the service account the cache issues tokens for.
func (tc *TokenCache) ClientEmail() string {
	return tc.creds.ClientEmail
}

func (tc *TokenCache) resolve(p *PendingToken) {
	token, err := tc.exchange(p.scope)

	if tc.logger != nil {
		if err != nil {
			tc.logger.Printf("oauth2: token exchange for scope %q failed: %v", p.scope, err)
		} else {
			tc.logger.Printf("oauth2: obtained new access token for scope %q (expires: %s)", p.scope, expiryString(token.Expiry))
		}
	}

	p.resolve(token, err)
}

func (tc *TokenCache) exchange(scope serviceaccount.Scope) (*AccessToken, error) {
	now := tc.now()

	// Fresh claims per attempt so iat/exp are never replayed.
	claims := serviceaccount.BuildClaims(tc.creds, scope, now)
	if tc.subject != "" {
		claims = serviceaccount.BuildClaimsForSubject(tc.creds, scope, tc.subject, now)
	}

	assertion, err := tc.signer.Sign(claims, tc.creds)
	if err != nil {
		return nil, fmt.Errorf("oauth2: failed to sign assertion: %w", err)
	}

	start := time.Now()
	resp, err := tc.exchanger.Exchange(tc.ctx, tc.creds.TokenURI, assertion)
	tc.metrics.RecordExchange(start, err)
	if err != nil {
		return nil, fmt.Errorf("oauth2: failed to fetch token: %w", err)
	}

	token := &AccessToken{
		Value:     resp.AccessToken,
		TokenType: resp.TokenType,
		Scope:     scope,
	}
	if resp.ExpiresIn > 0 {
		token.Expiry = now.Add(time.Duration(min(resp.ExpiresIn, maxExpiresIn)) * time.Second)
	}

	return token, nil
}

func expiryString(expiry time.Time) string {
	if expiry.IsZero() {
		return "unknown"
	}
	return expiry.Format(time.RFC3339)
}

// TokenSource returns an oauth2.TokenSource serving tokens for scope from the cache.
func (tc *TokenCache) TokenSource(scope serviceaccount.Scope) oauth2.TokenSource {
	return &tokenSource{cache: tc, scope: scope}
}

type tokenSource struct {
	cache *TokenCache
	scope serviceaccount.Scope
}

func (s *tokenSource) Token() (*oauth2.Token, error) {
	token, err := s.cache.GetToken(s.scope)
	if err != nil {
		return nil, err
	}
	return token.OAuth2(), nil
}

// UnaryClientInterceptor returns a gRPC unary client interceptor that automatically
// adds OAuth2 Bearer tokens for scope to request metadata.
//
// The interceptor adds the token as "authorization: Bearer <token>" to the outgoing
// request context metadata. If token fetch fails, the RPC call is aborted with an error.
// The RPC context bounds the wait for the token.
//
// Usage:
//
//	conn, err := grpc.NewClient(
//	    "pubsub.googleapis.com:443",
//	    grpc.WithUnaryInterceptor(cache.UnaryClientInterceptor(serviceaccount.ScopeCloudPlatform)),
//	)
func (tc *TokenCache) UnaryClientInterceptor(scope serviceaccount.Scope) grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply interface{},
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		token, err := tc.GetTokenWithContext(ctx, scope)
		if err != nil {
			return fmt.Errorf("oauth2: failed to get token: %w", err)
		}

		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token.Value)

		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// StreamClientInterceptor returns a gRPC stream client interceptor that automatically
// adds OAuth2 Bearer tokens for scope to request metadata.
//
// If token fetch fails, stream creation is aborted with an error.
func (tc *TokenCache) StreamClientInterceptor(scope serviceaccount.Scope) grpc.StreamClientInterceptor {
	return func(
		ctx context.Context,
		desc *grpc.StreamDesc,
		cc *grpc.ClientConn,
		method string,
		streamer grpc.Streamer,
		opts ...grpc.CallOption,
	) (grpc.ClientStream, error) {
		token, err := tc.GetTokenWithContext(ctx, scope)
		if err != nil {
			return nil, fmt.Errorf("oauth2: failed to get token: %w", err)
		}

		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token.Value)

		return streamer(ctx, desc, cc, method, opts...)
	}
}
