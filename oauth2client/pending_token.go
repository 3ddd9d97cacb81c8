package oauth2client

import (
	"context"
	"time"

	"github.com/AmmannChristian/go-gsatoken/serviceaccount"
)

// PendingToken is the shared, single-resolution result of one token exchange.
// Every caller asking for the same scope while the exchange runs receives the
// same PendingToken and observes the same token or error.
type PendingToken struct {
	scope serviceaccount.Scope
	done  chan struct{}

	// written once before done is closed
	token *AccessToken
	err   error
}

func newPendingToken(scope serviceaccount.Scope) *PendingToken {
	return &PendingToken{
		scope: scope,
		done:  make(chan struct{}),
	}
}

func failedToken(scope serviceaccount.Scope, err error) *PendingToken {
	p := newPendingToken(scope)
	p.resolve(nil, err)
	return p
}

func (p *PendingToken) resolve(token *AccessToken, err error) {
	p.token = token
	p.err = err
	close(p.done)
}

// Scope returns the scope the token is requested for.
func (p *PendingToken) Scope() serviceaccount.Scope {
	return p.scope
}

// Done is closed once the exchange has completed.
func (p *PendingToken) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the exchange completes or ctx is done.
// Giving up on ctx does not cancel the exchange; other waiters still receive its result.
func (p *PendingToken) Wait(ctx context.Context) (*AccessToken, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	select {
	case <-p.done:
		return p.token, p.err
	default:
	}

	select {
	case <-p.done:
		return p.token, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Result returns the outcome without blocking. ok is false while the exchange is in flight.
func (p *PendingToken) Result() (token *AccessToken, ok bool, err error) {
	select {
	case <-p.done:
		return p.token, true, p.err
	default:
		return nil, false, nil
	}
}

// stale reports whether a resolved, successful entry has expired.
// Pending and failed entries are never stale.
func (p *PendingToken) stale(now time.Time, leeway time.Duration) bool {
	token, ok, err := p.Result()
	if !ok || err != nil {
		return false
	}
	return token.Expired(now, leeway)
}
