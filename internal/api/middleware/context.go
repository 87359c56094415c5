package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/rasmith-dev/propadmin/internal/core/domain"
)

// Context keys set by Auth and Guard.
const (
	ContextEmail    = "email"
	ContextRole     = "role"
	ContextIdentity = "identity"
)

// RoleFrom returns the role stored on c by Auth or Guard.
func RoleFrom(c echo.Context) domain.Role {
	role, _ := c.Get(ContextRole).(domain.Role)
	return role
}

// IdentityFrom returns the identity stored on c by Guard.
func IdentityFrom(c echo.Context) (domain.Identity, bool) {
	id, ok := c.Get(ContextIdentity).(domain.Identity)
	return id, ok
}
