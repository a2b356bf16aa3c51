package domain

import (
	"context"
	"time"
)

// Principal is the identity attached to a request after the bearer token
// has been decoded. A zero Subject means the request is anonymous.
type Principal struct {
	Subject string
	Roles   []string
}

func (p Principal) Anonymous() bool {
	return p.Subject == ""
}

// Credential is the stored record a login attempt is checked against.
// Provisioning and role changes happen outside this service; decisions
// after login use the token's role snapshot, never a fresh lookup.
type Credential struct {
	Identifier string
	SecretHash string
	Roles      []string
}

type CredentialStore interface {
	// GetByIdentifier returns ErrUnknownPrincipal when no record exists.
	// Any other failure is a store failure, not a credential verdict.
	GetByIdentifier(ctx context.Context, identifier string) (*Credential, error)
}

type TokenCodec interface {
	Mint(subject string, roles []string, now time.Time) (string, error)
	Decode(token string, now time.Time) (Principal, error)
}

// RouteAccess describes the route a request matched and what that route
// demands, as fixed at startup by the route policy table.
type RouteAccess struct {
	Method        string
	Pattern       string
	Path          string
	RequiredRoles []string
}

type Authorizer interface {
	Authorize(ctx context.Context, principal Principal, access RouteAccess) error
}
