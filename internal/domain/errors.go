package domain

import "errors"

var (
	// Internal login causes. Handlers never expose which one fired.
	ErrUnknownPrincipal = errors.New("unknown principal")
	ErrBadCredential    = errors.New("bad credential")

	// ErrInvalidCredentials is the merged external verdict for both
	// login failure causes.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrStoreUnavailable means the credential store could not answer.
	// It is the only retryable category: "cannot verify" must never be
	// reported as "verified and denied".
	ErrStoreUnavailable = errors.New("credential store unavailable")

	// Token decode causes. Externally they all collapse to
	// ErrUnauthenticated; the precise cause is logged per request.
	ErrMalformedToken = errors.New("malformed token")
	ErrBadSignature   = errors.New("bad token signature")
	ErrTokenExpired   = errors.New("token expired")

	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)
