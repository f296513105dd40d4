// Package rbac holds the static role → permission table and its query helpers.
package rbac

import "strings"

// Role is an organizational role.
type Role string

const (
	RoleSuperAdmin     Role = "super_admin"
	RoleAdmin          Role = "admin"
	RoleBHVCoordinator Role = "bhv_coordinator"
	RolePloegleider    Role = "ploegleider"
	RoleBHVMember      Role = "bhv_member"
	RoleSecurity       Role = "security"
	RoleReceptionist   Role = "receptionist"
	RoleEmployee       Role = "employee"
	RoleContractor     Role = "contractor"
	RoleVisitor        Role = "visitor"
)

// Resource is a protected entity type.
type Resource string

const (
	ResourceCustomers   Resource = "customers"
	ResourceUsers       Resource = "users"
	ResourceBHVRoles    Resource = "bhv_roles"
	ResourceFacilities  Resource = "facilities"
	ResourceInspections Resource = "inspections"
	ResourceNFCTags     Resource = "nfc_tags"
	ResourceIncidents   Resource = "incidents"
	ResourceAlerts      Resource = "alerts"
	ResourcePresence    Resource = "presence"
	ResourceContractors Resource = "contractors"
	ResourceVisitors    Resource = "visitors"
	ResourceReports     Resource = "reports"
	ResourceSettings    Resource = "settings"
)

// Action is an operation on a resource.
type Action string

const (
	ActionCreate   Action = "create"
	ActionRead     Action = "read"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionManage   Action = "manage"
	ActionRegister Action = "register"
	ActionCheckIn  Action = "check_in"
	ActionCheckOut Action = "check_out"
	ActionAssign   Action = "assign"
	ActionRevoke   Action = "revoke"
)

var allRoles = []Role{
	RoleSuperAdmin, RoleAdmin, RoleBHVCoordinator, RolePloegleider, RoleBHVMember,
	RoleSecurity, RoleReceptionist, RoleEmployee, RoleContractor, RoleVisitor,
}

var allResources = []Resource{
	ResourceCustomers, ResourceUsers, ResourceBHVRoles, ResourceFacilities,
	ResourceInspections, ResourceNFCTags, ResourceIncidents, ResourceAlerts,
	ResourcePresence, ResourceContractors, ResourceVisitors, ResourceReports,
	ResourceSettings,
}

var allActions = []Action{
	ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionManage,
	ActionRegister, ActionCheckIn, ActionCheckOut, ActionAssign, ActionRevoke,
}

// BHVRoles are the roles that make up the emergency response team.
var BHVRoles = []Role{RoleBHVMember, RoleBHVCoordinator, RolePloegleider}

// BHVRoleNames returns BHVRoles as plain strings for store queries.
func BHVRoleNames() []string {
	out := make([]string, len(BHVRoles))
	for i, r := range BHVRoles {
		out[i] = string(r)
	}
	return out
}

// Roles returns every known role, most privileged first.
func Roles() []Role {
	out := make([]Role, len(allRoles))
	copy(out, allRoles)
	return out
}

// Resources returns every protected resource.
func Resources() []Resource {
	out := make([]Resource, len(allResources))
	copy(out, allResources)
	return out
}

// ParseRole normalizes s and reports whether it names a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range allRoles {
		if known == r {
			return r, true
		}
	}
	return "", false
}

// IsBHV reports whether the role belongs to the emergency response team.
func (r Role) IsBHV() bool {
	for _, b := range BHVRoles {
		if b == r {
			return true
		}
	}
	return false
}
