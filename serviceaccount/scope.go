package serviceaccount

import (
	"slices"
	"strings"
)

// Scope is a normalized, space separated list of OAuth2 scope URIs.
// It is comparable and serves as the token cache key.
type Scope string

// Commonly requested Google API scopes.
const (
	ScopeCloudPlatform   Scope = "https://www.googleapis.com/auth/cloud-platform"
	ScopeDrive           Scope = "https://www.googleapis.com/auth/drive"
	ScopeDriveReadOnly   Scope = "https://www.googleapis.com/auth/drive.readonly"
	ScopeSpreadsheets    Scope = "https://www.googleapis.com/auth/spreadsheets"
	ScopeGmailSend       Scope = "https://www.googleapis.com/auth/gmail.send"
	ScopeStorageReadOnly Scope = "https://www.googleapis.com/auth/devstorage.read_only"
	ScopeUserInfoEmail   Scope = "https://www.googleapis.com/auth/userinfo.email"
)

// NewScope joins the given scope URIs into a canonical Scope.
// Each argument may itself hold several whitespace separated URIs.
// Duplicates are dropped and the result is sorted, so the same set of
// scopes always yields the same key regardless of order or spacing.
func NewScope(uris ...string) Scope {
	var fields []string
	for _, u := range uris {
		fields = append(fields, strings.Fields(u)...)
	}

	slices.Sort(fields)
	fields = slices.Compact(fields)

	return Scope(strings.Join(fields, " "))
}

// List returns the individual scope URIs.
func (s Scope) List() []string {
	return strings.Fields(string(s))
}

// IsEmpty reports whether the scope holds no URIs.
func (s Scope) IsEmpty() bool {
	return strings.TrimSpace(string(s)) == ""
}

func (s Scope) String() string {
	return string(s)
}
