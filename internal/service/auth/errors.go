package auth

import (
	"errors"

	jwtpkg "github.com/EnzoTheBrown/bribe/pkg/jwt"
)

// Failure kinds. Callers match them with errors.Is; the HTTP boundary collapses
// all of them except ErrMalformedInput and ErrTokenIssue into one response.
var (
	ErrMalformedInput      = errors.New("auth: malformed credential input")
	ErrInvalidCredentials  = errors.New("auth: invalid credentials")
	ErrIdentityNotFound    = errors.New("auth: identity not found")
	ErrHashingFailure      = errors.New("auth: hashing failure")
	ErrStorageFailure      = errors.New("auth: storage failure")
	ErrMissingCredential   = errors.New("auth: missing bearer credential")
	ErrMalformedCredential = errors.New("auth: malformed bearer credential")
	ErrInvalidToken        = errors.New("auth: invalid token")
	ErrTokenIssue          = errors.New("auth: token issue failure")
)

// Error records which step failed, the failure kind and the underlying cause.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Kind.Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func fail(op string, kind, cause error) error {
	return &Error{Op: op, Kind: kind, Err: cause}
}

// Reason returns a stable label naming the exact failure, for logs and metrics.
func Reason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrMissingCredential):
		return "missing_credential"
	case errors.Is(err, ErrMalformedCredential):
		return "malformed_credential"
	case errors.Is(err, jwtpkg.ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, jwtpkg.ErrExpired):
		return "expired_token"
	case errors.Is(err, jwtpkg.ErrMalformed):
		return "malformed_token"
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, ErrIdentityNotFound):
		return "identity_not_found"
	case errors.Is(err, ErrStorageFailure):
		return "storage_failure"
	case errors.Is(err, ErrHashingFailure):
		return "hashing_failure"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrMalformedInput):
		return "malformed_input"
	case errors.Is(err, ErrTokenIssue):
		return "token_issue"
	default:
		return "unknown"
	}
}
