package rbac

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ContextKeyRole is the echo context key holding the caller's Role.
const ContextKeyRole = "rbac_role"

// Guard builds echo middleware that gates routes on the permission table.
// The caller role is taken from a header set by the upstream auth proxy.
type Guard struct {
	enabled    bool
	roleHeader string
}

// NewGuard creates a Guard. When enabled is false every request passes.
func NewGuard(enabled bool, roleHeader string) *Guard {
	return &Guard{enabled: enabled, roleHeader: roleHeader}
}

// Require rejects requests whose role lacks action on resource.
func (g *Guard) Require(resource Resource, action Action) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !g.enabled {
				return next(c)
			}

			raw := c.Request().Header.Get(g.roleHeader)
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, map[string]any{
					"success": false,
					"error":   "Missing role",
				})
			}
			role, ok := ParseRole(raw)
			if !ok || !HasPermission(role, resource, action) {
				return c.JSON(http.StatusForbidden, map[string]any{
					"success": false,
					"error":   "Insufficient permissions",
				})
			}

			c.Set(ContextKeyRole, role)
			return next(c)
		}
	}
}
