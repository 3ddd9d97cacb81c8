package serviceaccount

import (
	"errors"
	"fmt"
)

// CredentialError indicates malformed or missing service account key material.
// It is raised before any signing or network activity and is never retried.
type CredentialError struct {
	Field   string // key file field, e.g. "private_key"
	Message string
	Cause   error
}

func (e *CredentialError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("serviceaccount: invalid credentials: %s: %v", msg, e.Cause)
	}
	return "serviceaccount: invalid credentials: " + msg
}

// Unwrap returns the underlying cause for errors.As/Is support.
func (e *CredentialError) Unwrap() error {
	return e.Cause
}

// NewCredentialError creates a CredentialError.
func NewCredentialError(field, message string, cause error) *CredentialError {
	return &CredentialError{Field: field, Message: message, Cause: cause}
}

// IsCredentialError returns true if the error is a CredentialError.
func IsCredentialError(err error) bool {
	var credErr *CredentialError
	return errors.As(err, &credErr)
}

// SigningError indicates that the signer rejected the key or the claims.
type SigningError struct {
	Algorithm string
	Cause     error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("serviceaccount: %s signing failed: %v", e.Algorithm, e.Cause)
}

// Unwrap returns the underlying cause for errors.As/Is support.
func (e *SigningError) Unwrap() error {
	return e.Cause
}

// NewSigningError creates a SigningError.
func NewSigningError(algorithm string, cause error) *SigningError {
	return &SigningError{Algorithm: algorithm, Cause: cause}
}

// IsSigningError returns true if the error is a SigningError.
func IsSigningError(err error) bool {
	var signErr *SigningError
	return errors.As(err, &signErr)
}

// TransportError indicates a network failure, a non-2xx response without a
// structured error payload, or an undecodable response from the token endpoint.
type TransportError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Message    string
	Cause      error
}

func (e *TransportError) Error() string {
	var msg string
	switch {
	case e.StatusCode != 0:
		msg = fmt.Sprintf("serviceaccount: token exchange with %s failed (status %d): %s", e.URL, e.StatusCode, e.Message)
	default:
		msg = fmt.Sprintf("serviceaccount: token exchange with %s failed: %s", e.URL, e.Message)
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for errors.As/Is support.
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// NewTransportError creates a TransportError.
func NewTransportError(url string, statusCode int, message string, cause error) *TransportError {
	return &TransportError{URL: url, StatusCode: statusCode, Message: message, Cause: cause}
}

// IsTransportError returns true if the error is a TransportError.
func IsTransportError(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}

// AuthenticationError carries a structured error payload returned by the token
// endpoint, such as invalid_grant. Body holds the response verbatim.
type AuthenticationError struct {
	StatusCode  int
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
	URI         string `json:"error_uri,omitempty"`
	Body        []byte `json:"-"`
}

func (e *AuthenticationError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("serviceaccount: token endpoint rejected assertion (status %d): %s: %s", e.StatusCode, e.Code, e.Description)
	}
	return fmt.Sprintf("serviceaccount: token endpoint rejected assertion (status %d): %s", e.StatusCode, e.Code)
}

// IsAuthenticationError returns true if the error is an AuthenticationError.
func IsAuthenticationError(err error) bool {
	var authErr *AuthenticationError
	return errors.As(err, &authErr)
}
