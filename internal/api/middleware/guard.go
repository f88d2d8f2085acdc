package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/storefront/commerce-api/internal/core/domain"
)

// Policy describes who may call a route. A public policy skips
// authentication; an empty Roles set admits any authenticated caller.
type Policy struct {
	Public bool
	Roles  []domain.Role
}

func PublicPolicy() Policy { return Policy{Public: true} }

func AuthenticatedPolicy() Policy { return Policy{} }

func RolesPolicy(roles ...domain.Role) Policy { return Policy{Roles: roles} }

// Guard enforces a route policy: authenticate, attach the caller, then
// authorize by role membership.
type Guard struct {
	authn Authenticator
}

func NewGuard(authn Authenticator) *Guard {
	return &Guard{authn: authn}
}

// Require returns the middleware chain for p.
func (g *Guard) Require(p Policy) []echo.MiddlewareFunc {
	if p.Public {
		return nil
	}
	chain := []echo.MiddlewareFunc{Auth(g.authn)}
	if len(p.Roles) > 0 {
		chain = append(chain, RBAC(p.Roles...))
	}
	return chain
}

// Authenticated is shorthand for Require(AuthenticatedPolicy()).
func (g *Guard) Authenticated() []echo.MiddlewareFunc {
	return g.Require(AuthenticatedPolicy())
}

// Roles is shorthand for Require(RolesPolicy(roles...)).
func (g *Guard) Roles(roles ...domain.Role) []echo.MiddlewareFunc {
	return g.Require(RolesPolicy(roles...))
}
