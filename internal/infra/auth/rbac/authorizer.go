package rbac

import (
	"context"

	"palisade/internal/domain"
)

// Authorizer evaluates the static route policy: a route with an empty
// role set is open to any caller, otherwise the principal must hold at
// least one of the required roles. Role sets are flat; no role implies
// another.
type Authorizer struct{}

func NewAuthorizer() *Authorizer {
	return &Authorizer{}
}

func (a *Authorizer) Authorize(_ context.Context, principal domain.Principal, access domain.RouteAccess) error {
	if len(access.RequiredRoles) == 0 {
		return nil
	}
	if principal.Anonymous() {
		return domain.ErrUnauthenticated
	}
	if intersects(principal.Roles, access.RequiredRoles) {
		return nil
	}
	return domain.ErrForbidden
}

func intersects(held, required []string) bool {
	for _, want := range required {
		for _, have := range held {
			if have == want {
				return true
			}
		}
	}
	return false
}
