package rbac

// Permission grants a set of actions on one resource.
type Permission struct {
	Resource Resource `json:"resource" yaml:"resource"`
	Actions  []Action `json:"actions" yaml:"actions"`
}

func perm(resource Resource, actions ...Action) Permission {
	return Permission{Resource: resource, Actions: actions}
}

// coordinatorPermissions is shared by admin and bhv_coordinator: two titles,
// one level of authority. Keep both roles when editing this list.
var coordinatorPermissions = []Permission{
	perm(ResourceCustomers, ActionRead, ActionUpdate),
	perm(ResourceUsers, ActionCreate, ActionRead, ActionUpdate, ActionDelete),
	perm(ResourceBHVRoles, ActionRead, ActionAssign, ActionRevoke),
	perm(ResourceFacilities, ActionCreate, ActionRead, ActionUpdate, ActionDelete),
	perm(ResourceInspections, ActionCreate, ActionRead, ActionUpdate, ActionDelete),
	perm(ResourceNFCTags, ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionAssign),
	perm(ResourceIncidents, ActionCreate, ActionRead, ActionUpdate, ActionManage),
	perm(ResourceAlerts, ActionCreate, ActionRead, ActionUpdate, ActionManage),
	perm(ResourcePresence, ActionRead, ActionCheckIn, ActionCheckOut, ActionManage),
	perm(ResourceContractors, ActionRead, ActionManage, ActionRegister, ActionCheckIn, ActionCheckOut),
	perm(ResourceVisitors, ActionRead, ActionManage, ActionRegister, ActionCheckIn, ActionCheckOut),
	perm(ResourceReports, ActionCreate, ActionRead),
	perm(ResourceSettings, ActionRead, ActionUpdate),
}

// table is built once at package init and never written afterwards.
var table = map[Role][]Permission{
	RoleSuperAdmin:     superAdminPermissions(),
	RoleAdmin:          coordinatorPermissions,
	RoleBHVCoordinator: coordinatorPermissions,
	RolePloegleider: {
		perm(ResourceUsers, ActionRead),
		perm(ResourceBHVRoles, ActionRead),
		perm(ResourceFacilities, ActionRead, ActionUpdate),
		perm(ResourceInspections, ActionCreate, ActionRead, ActionUpdate),
		perm(ResourceNFCTags, ActionRead),
		perm(ResourceIncidents, ActionCreate, ActionRead, ActionUpdate),
		perm(ResourceAlerts, ActionCreate, ActionRead, ActionUpdate),
		perm(ResourcePresence, ActionRead, ActionCheckIn, ActionCheckOut),
		perm(ResourceReports, ActionRead),
	},
	RoleBHVMember: {
		perm(ResourceFacilities, ActionRead),
		perm(ResourceInspections, ActionCreate, ActionRead),
		perm(ResourceNFCTags, ActionRead),
		perm(ResourceIncidents, ActionCreate, ActionRead),
		perm(ResourceAlerts, ActionRead, ActionUpdate),
		perm(ResourcePresence, ActionRead, ActionCheckIn, ActionCheckOut),
	},
	RoleSecurity: {
		perm(ResourceIncidents, ActionCreate, ActionRead),
		perm(ResourceAlerts, ActionCreate, ActionRead),
		perm(ResourcePresence, ActionRead),
		perm(ResourceContractors, ActionRead, ActionRegister, ActionCheckIn, ActionCheckOut),
		perm(ResourceVisitors, ActionRead, ActionRegister, ActionCheckIn, ActionCheckOut),
	},
	RoleReceptionist: {
		perm(ResourceAlerts, ActionRead),
		perm(ResourcePresence, ActionRead, ActionCheckIn, ActionCheckOut),
		perm(ResourceContractors, ActionRead, ActionRegister, ActionCheckIn, ActionCheckOut),
		perm(ResourceVisitors, ActionRead, ActionManage, ActionRegister, ActionCheckIn, ActionCheckOut),
	},
	RoleEmployee: {
		perm(ResourceFacilities, ActionRead),
		perm(ResourceIncidents, ActionCreate),
		perm(ResourceAlerts, ActionRead),
		perm(ResourcePresence, ActionCheckIn, ActionCheckOut),
	},
	RoleContractor: {
		perm(ResourceAlerts, ActionRead),
		perm(ResourcePresence, ActionCheckIn, ActionCheckOut),
	},
	RoleVisitor: {
		perm(ResourceAlerts, ActionRead),
	},
}

func superAdminPermissions() []Permission {
	out := make([]Permission, 0, len(allResources))
	for _, res := range allResources {
		actions := make([]Action, len(allActions))
		copy(actions, allActions)
		out = append(out, Permission{Resource: res, Actions: actions})
	}
	return out
}
