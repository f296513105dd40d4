package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bhv-platform/bhv-go/internal/rbac"
)

// RoleSummary is one role of the permission table.
type RoleSummary struct {
	Role                 rbac.Role         `json:"role"`
	IsBHV                bool              `json:"isBhv"`
	Permissions          []rbac.Permission `json:"permissions"`
	CanManageContractors bool              `json:"canManageContractors"`
	CanManageVisitors    bool              `json:"canManageVisitors"`
	CanAssignBHVRoles    bool              `json:"canAssignBhvRoles"`
	CanRevokeBHVRoles    bool              `json:"canRevokeBhvRoles"`
	CanManageCustomers   bool              `json:"canManageCustomers"`
}

func summarizeRole(role rbac.Role) RoleSummary {
	return RoleSummary{
		Role:                 role,
		IsBHV:                role.IsBHV(),
		Permissions:          rbac.GetPermissions(role),
		CanManageContractors: rbac.CanManageContractors(role),
		CanManageVisitors:    rbac.CanManageVisitors(role),
		CanAssignBHVRoles:    rbac.CanAssignBHVRoles(role),
		CanRevokeBHVRoles:    rbac.CanRevokeBHVRoles(role),
		CanManageCustomers:   rbac.CanManageCustomers(role),
	}
}

// initRBACRoutes registers read-only permission table endpoints.
func (c *Controller) initRBACRoutes() {
	g := c.Group.Group("/rbac")
	g.GET("/roles", c.ListRoles)
	g.GET("/roles/:role", c.GetRole)
	g.GET("/roles/:role/check", c.CheckPermission)
}

// ListRoles returns every role with its permissions.
func (c *Controller) ListRoles(ctx echo.Context) error {
	roles := rbac.Roles()
	out := make([]RoleSummary, 0, len(roles))
	for _, r := range roles {
		out = append(out, summarizeRole(r))
	}
	return ctx.JSON(http.StatusOK, map[string]any{"roles": out})
}

// GetRole returns one role's permissions.
func (c *Controller) GetRole(ctx echo.Context) error {
	role, ok := rbac.ParseRole(ctx.Param("role"))
	if !ok {
		return ctx.JSON(http.StatusNotFound, map[string]string{"error": "Unknown role"})
	}
	return ctx.JSON(http.StatusOK, summarizeRole(role))
}

// CheckPermission answers ?resource=&action= for a role. Unknown values are
// simply not permitted.
func (c *Controller) CheckPermission(ctx echo.Context) error {
	role, _ := rbac.ParseRole(ctx.Param("role"))
	resource := rbac.Resource(ctx.QueryParam("resource"))
	action := rbac.Action(ctx.QueryParam("action"))

	resp := map[string]any{
		"role":     ctx.Param("role"),
		"resource": resource,
		"access":   rbac.CanAccessResource(role, resource),
	}
	if action != "" {
		resp["action"] = action
		resp["allowed"] = rbac.HasPermission(role, resource, action)
	}
	return ctx.JSON(http.StatusOK, resp)
}
