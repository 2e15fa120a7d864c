package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursegate/internal/claims/models"
	id "coursegate/pkg/domain"
	dErrors "coursegate/pkg/domain-errors"
)

func allPermissions() []id.Permission {
	return id.DefaultPermissions(id.RoleAdmin).Slice()
}

// TestNilClaimsNeverGrant covers the totality rule: absent claims deny everything.
func TestNilClaimsNeverGrant(t *testing.T) {
	for _, p := range allPermissions() {
		assert.False(t, HasPermission(nil, p), "permission %s", p)
	}
	for _, r := range id.Roles() {
		assert.False(t, HasRole(nil, r), "role %s", r)
		assert.False(t, RoleAtLeast(nil, r), "role %s", r)
	}
	assert.False(t, HasAnyRole(nil, id.Roles()...))
	assert.False(t, HasAllPermissions(nil))
	assert.False(t, HasAnyPermission(nil, allPermissions()...))
	assert.False(t, IsProfileComplete(nil))
	assert.False(t, IsEmailVerified(nil))
	assert.False(t, HasPermission(nil, id.Permission("UNKNOWN")))
}

func TestPredicates(t *testing.T) {
	instructor := &models.Claims{
		Role:            id.RoleInstructor,
		Permissions:     id.DefaultPermissions(id.RoleInstructor),
		ProfileComplete: true,
	}

	assert.True(t, HasRole(instructor, id.RoleInstructor))
	assert.False(t, HasRole(instructor, id.RoleAdmin))
	assert.True(t, HasAnyRole(instructor, id.RoleAdmin, id.RoleInstructor))
	assert.False(t, HasAnyRole(instructor))
	assert.True(t, RoleAtLeast(instructor, id.RoleStudent))
	assert.False(t, RoleAtLeast(instructor, id.RoleAdmin))

	assert.True(t, HasPermission(instructor, id.PermCreateCourses))
	assert.False(t, HasPermission(instructor, id.PermManageRoles))
	assert.False(t, HasPermission(instructor, id.Permission("CREATE_COURSES ")))
	assert.True(t, HasAllPermissions(instructor, id.PermCreateCourses, id.PermEditCourses))
	assert.False(t, HasAllPermissions(instructor, id.PermCreateCourses, id.PermDeleteCourses))
	assert.True(t, HasAnyPermission(instructor, id.PermDeleteCourses, id.PermViewAnalytics))

	assert.True(t, IsProfileComplete(instructor))
	assert.False(t, IsEmailVerified(instructor))
}

func TestPredicatesOnZeroClaims(t *testing.T) {
	zero := &models.Claims{}
	assert.False(t, HasRole(zero, id.Role("")))
	assert.False(t, HasPermission(zero, id.PermViewCourses))
	assert.False(t, RoleAtLeast(zero, id.RoleStudent))
}

func TestRequireVariants(t *testing.T) {
	student := &models.Claims{Role: id.RoleStudent, Permissions: id.DefaultPermissions(id.RoleStudent)}

	err := RequireAnyRole(nil, id.RoleStudent)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	err = RequireAnyRole(student, id.RoleAdmin)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	assert.NoError(t, RequireAnyRole(student, id.RoleStudent))

	err = RequirePermissions(student, id.PermManageRoles)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	assert.NoError(t, RequirePermissions(student, id.PermViewCourses))
}
