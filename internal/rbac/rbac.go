package rbac

import "slices"

// HasPermission reports whether role may perform action on resource.
// Unknown roles, unlisted resources and unlisted actions all yield false.
func HasPermission(role Role, resource Resource, action Action) bool {
	for _, p := range table[role] {
		if p.Resource == resource {
			return slices.Contains(p.Actions, action)
		}
	}
	return false
}

// GetPermissions returns a copy of the role's capability set, or nil for an
// unknown role.
func GetPermissions(role Role) []Permission {
	perms, ok := table[role]
	if !ok {
		return nil
	}
	out := make([]Permission, len(perms))
	for i, p := range perms {
		out[i] = Permission{Resource: p.Resource, Actions: slices.Clone(p.Actions)}
	}
	return out
}

// CanAccessResource reports whether role has any action on resource.
func CanAccessResource(role Role, resource Resource) bool {
	for _, p := range table[role] {
		if p.Resource == resource && len(p.Actions) > 0 {
			return true
		}
	}
	return false
}

func CanManageContractors(role Role) bool {
	return HasPermission(role, ResourceContractors, ActionManage)
}

func CanManageVisitors(role Role) bool {
	return HasPermission(role, ResourceVisitors, ActionManage)
}

func CanAssignBHVRoles(role Role) bool {
	return HasPermission(role, ResourceBHVRoles, ActionAssign)
}

func CanRevokeBHVRoles(role Role) bool {
	return HasPermission(role, ResourceBHVRoles, ActionRevoke)
}

func CanManageCustomers(role Role) bool {
	return HasPermission(role, ResourceCustomers, ActionManage)
}
