package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhv-platform/bhv-go/internal/rbac"
)

func TestListRoles(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rec := s.do(t, http.MethodGet, "/api/v2/rbac/roles", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Roles []RoleSummary `json:"roles"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Roles, len(rbac.Roles()))
	assert.Equal(t, rbac.RoleSuperAdmin, body.Roles[0].Role)
	assert.True(t, body.Roles[0].CanManageCustomers)
}

func TestGetRole(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rec := s.do(t, http.MethodGet, "/api/v2/rbac/roles/ploegleider", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var summary RoleSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, rbac.RolePloegleider, summary.Role)
	assert.True(t, summary.IsBHV)
	assert.False(t, summary.CanAssignBHVRoles)
	assert.Equal(t, rbac.GetPermissions(rbac.RolePloegleider), summary.Permissions)

	rec = s.do(t, http.MethodGet, "/api/v2/rbac/roles/janitor", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckPermission(t *testing.T) {
	s := newTestServer(t, nil, nil)

	tests := []struct {
		query   string
		access  bool
		allowed any
	}{
		{"/api/v2/rbac/roles/bhv_member/check?resource=alerts&action=update", true, true},
		{"/api/v2/rbac/roles/employee/check?resource=alerts&action=create", true, false},
		{"/api/v2/rbac/roles/visitor/check?resource=reports", false, nil},
		{"/api/v2/rbac/roles/janitor/check?resource=alerts&action=read", false, false},
	}
	for _, tt := range tests {
		rec := s.do(t, http.MethodGet, tt.query, "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, tt.access, body["access"], tt.query)
		assert.Equal(t, tt.allowed, body["allowed"], tt.query)
	}
}
