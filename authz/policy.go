package authz

import (
	"errors"
	"fmt"
	"strings"

	"github.com/AmmannChristian/go-gsatoken/serviceaccount"
)

// ScopePolicy restricts which OAuth2 scopes a service account may request.
//
// The policy is disabled when all lists are empty. Otherwise every scope URI
// of a request must be listed in AllowedScopes or start with one of
// AllowedPrefixes (when either allow list is set), and none may be listed in
// DeniedScopes. A request is denied as a whole if any of its URIs is denied.
type ScopePolicy struct {
	AllowedScopes   []string
	AllowedPrefixes []string
	DeniedScopes    []string
}

// ErrPermissionDenied indicates that a scope request is not permitted by policy.
var ErrPermissionDenied = errors.New("authorization: permission denied")

// PermissionDeniedError carries the scope URIs rejected by a policy.
type PermissionDeniedError struct {
	Scope        serviceaccount.Scope
	DeniedScopes []string
}

// Error returns a concise authorization error message.
func (e *PermissionDeniedError) Error() string {
	if len(e.DeniedScopes) == 0 {
		return ErrPermissionDenied.Error()
	}
	return fmt.Sprintf("authorization: scopes %v are not permitted", e.DeniedScopes)
}

// Is enables errors.Is(err, ErrPermissionDenied).
func (e *PermissionDeniedError) Is(target error) bool {
	return target == ErrPermissionDenied
}

// Evaluator evaluates a scope policy against requested scopes.
type Evaluator struct {
	policy normalizedPolicy
}

type normalizedPolicy struct {
	allowed  map[string]struct{}
	prefixes []string
	denied   map[string]struct{}
}

// NewEvaluator creates a policy evaluator with normalized lists.
func NewEvaluator(policy ScopePolicy) *Evaluator {
	return &Evaluator{policy: normalizePolicy(policy)}
}

// Enabled reports whether this policy performs authorization checks.
func (e *Evaluator) Enabled() bool {
	return e != nil && (e.restrictsAllowed() || len(e.policy.denied) > 0)
}

func (e *Evaluator) restrictsAllowed() bool {
	return len(e.policy.allowed) > 0 || len(e.policy.prefixes) > 0
}

// Authorize checks every URI of scope against the policy.
// A nil or disabled evaluator permits everything.
func (e *Evaluator) Authorize(scope serviceaccount.Scope) error {
	if !e.Enabled() {
		return nil
	}

	var denied []string
	for _, uri := range scope.List() {
		if !e.permits(uri) {
			denied = append(denied, uri)
		}
	}

	if len(denied) == 0 {
		return nil
	}

	return &PermissionDeniedError{
		Scope:        scope,
		DeniedScopes: denied,
	}
}

func (e *Evaluator) permits(uri string) bool {
	if _, ok := e.policy.denied[uri]; ok {
		return false
	}
	if !e.restrictsAllowed() {
		return true
	}
	if _, ok := e.policy.allowed[uri]; ok {
		return true
	}
	for _, prefix := range e.policy.prefixes {
		if strings.HasPrefix(uri, prefix) {
			return true
		}
	}
	return false
}

// Evaluate is a convenience function for one-off authorization checks.
func Evaluate(policy ScopePolicy, scope serviceaccount.Scope) error {
	return NewEvaluator(policy).Authorize(serviceaccount.NewScope(string(scope)))
}

func normalizePolicy(policy ScopePolicy) normalizedPolicy {
	return normalizedPolicy{
		allowed:  toSet(normalizeValues(policy.AllowedScopes)),
		prefixes: normalizeValues(policy.AllowedPrefixes),
		denied:   toSet(normalizeValues(policy.DeniedScopes)),
	}
}

// normalizeValues splits entries on whitespace and drops blanks and duplicates.
func normalizeValues(values []string) []string {
	if len(values) == 0 {
		return nil
	}

	result := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		for _, normalized := range strings.Fields(value) {
			if _, ok := seen[normalized]; ok {
				continue
			}
			seen[normalized] = struct{}{}
			result = append(result, normalized)
		}
	}

	if len(result) == 0 {
		return nil
	}

	return result
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}

	set := make(map[string]struct{}, len(values))
	for _, value := range values {
		set[value] = struct{}{}
	}
	return set
}
