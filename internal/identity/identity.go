// Package identity carries the authenticated actor through request
// contexts. Authentication itself happens upstream; the id and role
// arriving here are trusted as-is.
package identity

import (
	"context"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/carlostcba/GustadosPOS-sub000/pkg/errorbank"
)

// Role is an opaque attribute assigned by the identity provider.
type Role string

const (
	RoleSeller  Role = "seller"
	RoleCashier Role = "cashier"
	RoleManager Role = "manager"
)

// Actor identifies the authenticated user for the current request.
type Actor struct {
	UserID int64
	Role   Role
}

type actorContextKey struct{}

// WithActor stores the actor on the context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// FromContext retrieves the actor, if present.
func FromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok
}

// Require returns the actor or an error when the request is anonymous.
func Require(ctx context.Context) (Actor, error) {
	actor, ok := FromContext(ctx)
	if !ok {
		return Actor{}, errorbank.Validation("missing user identity")
	}
	return actor, nil
}

// RequireRole returns the actor when it holds one of the allowed roles.
func RequireRole(ctx context.Context, roles ...Role) (Actor, error) {
	actor, err := Require(ctx)
	if err != nil {
		return Actor{}, err
	}
	for _, role := range roles {
		if actor.Role == role {
			return actor, nil
		}
	}
	return Actor{}, errorbank.BusinessRule("operation not permitted for this role",
		errorbank.WithDetail("role", string(actor.Role)))
}

const (
	headerUserID = "X-User-ID"
	headerRole   = "X-User-Role"
)

// Middleware lifts the identity headers set by the auth gateway onto the
// request context. Requests without the headers proceed anonymously;
// operations decide whether identity is required.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rawID := strings.TrimSpace(c.Request().Header.Get(headerUserID))
			if rawID == "" {
				return next(c)
			}
			id, err := strconv.ParseInt(rawID, 10, 64)
			if err != nil {
				return next(c)
			}
			role := Role(strings.ToLower(strings.TrimSpace(c.Request().Header.Get(headerRole))))
			ctx := WithActor(c.Request().Context(), Actor{UserID: id, Role: role})
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
