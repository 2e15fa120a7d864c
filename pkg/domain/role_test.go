package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "coursegate/pkg/domain-errors"
)

func TestParseRole(t *testing.T) {
	for _, r := range Roles() {
		parsed, err := ParseRole(r.String())
		require.NoError(t, err)
		assert.Equal(t, r, parsed)
	}

	_, err := ParseRole("student")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput), "roles are case sensitive")

	_, err = ParseRole("")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestRoleAtLeast(t *testing.T) {
	assert.True(t, RoleAdmin.AtLeast(RoleInstructor))
	assert.True(t, RoleInstructor.AtLeast(RoleInstructor))
	assert.False(t, RoleStudent.AtLeast(RoleInstructor))
	assert.False(t, Role("GUEST").AtLeast(RoleStudent))
}

func TestRoleJSON(t *testing.T) {
	var holder struct {
		Role Role `json:"role"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"role":"ADMIN"}`), &holder))
	assert.Equal(t, RoleAdmin, holder.Role)

	require.NoError(t, json.Unmarshal([]byte(`{"role":""}`), &holder))
	assert.Equal(t, Role(""), holder.Role)

	assert.Error(t, json.Unmarshal([]byte(`{"role":"ROOT"}`), &holder))
}
