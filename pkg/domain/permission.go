package domain

import (
	"encoding/json"
	"slices"

	dErrors "coursegate/pkg/domain-errors"
)

// Permission is a single capability granted to a role.
type Permission string

const (
	PermViewCourses   Permission = "VIEW_COURSES"
	PermEnrollCourses Permission = "ENROLL_COURSES"
	PermCreateCourses Permission = "CREATE_COURSES"
	PermEditCourses   Permission = "EDIT_COURSES"
	PermDeleteCourses Permission = "DELETE_COURSES"
	PermViewAnalytics Permission = "VIEW_ANALYTICS"
	PermManageUsers   Permission = "MANAGE_USERS"
	PermManageRoles   Permission = "MANAGE_ROLES"
)

var validPermissions = map[Permission]bool{
	PermViewCourses:   true,
	PermEnrollCourses: true,
	PermCreateCourses: true,
	PermEditCourses:   true,
	PermDeleteCourses: true,
	PermViewAnalytics: true,
	PermManageUsers:   true,
	PermManageRoles:   true,
}

// ParsePermission constructs a Permission from external input.
func ParsePermission(s string) (Permission, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "permission cannot be empty")
	}
	p := Permission(s)
	if !p.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid permission")
	}
	return p, nil
}

func (p Permission) IsValid() bool {
	return validPermissions[p]
}

func (p Permission) String() string {
	return string(p)
}

// PermissionSet is an unordered set of permissions. The zero value is an
// empty set that is safe to read; use NewPermissionSet or Add to populate.
type PermissionSet map[Permission]struct{}

// NewPermissionSet builds a set from perms, dropping duplicates.
func NewPermissionSet(perms ...Permission) PermissionSet {
	set := make(PermissionSet, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// ParsePermissionSet validates every value; the first invalid one fails the whole set.
func ParsePermissionSet(values []string) (PermissionSet, error) {
	set := make(PermissionSet, len(values))
	for _, v := range values {
		p, err := ParsePermission(v)
		if err != nil {
			return nil, err
		}
		set[p] = struct{}{}
	}
	return set, nil
}

func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// HasAll reports whether every perm is present. An empty argument list is vacuously true.
func (s PermissionSet) HasAll(perms ...Permission) bool {
	for _, p := range perms {
		if !s.Has(p) {
			return false
		}
	}
	return true
}

// HasAny reports whether at least one perm is present.
func (s PermissionSet) HasAny(perms ...Permission) bool {
	return slices.ContainsFunc(perms, s.Has)
}

func (s PermissionSet) Add(perms ...Permission) {
	for _, p := range perms {
		s[p] = struct{}{}
	}
}

// Union returns a new set containing the members of s and other.
func (s PermissionSet) Union(other PermissionSet) PermissionSet {
	out := make(PermissionSet, len(s)+len(other))
	for p := range s {
		out[p] = struct{}{}
	}
	for p := range other {
		out[p] = struct{}{}
	}
	return out
}

// Slice returns the members sorted lexically.
func (s PermissionSet) Slice() []Permission {
	out := make([]Permission, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// Strings returns the members as sorted strings.
func (s PermissionSet) Strings() []string {
	perms := s.Slice()
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = string(p)
	}
	return out
}

func (s PermissionSet) Clone() PermissionSet {
	return s.Union(nil)
}

func (s PermissionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Strings())
}

func (s *PermissionSet) UnmarshalJSON(data []byte) error {
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	set, err := ParsePermissionSet(values)
	if err != nil {
		return err
	}
	*s = set
	return nil
}

// defaultPermissions is the server-side grant provisioned with each role.
var defaultPermissions = map[Role][]Permission{
	RoleStudent: {PermViewCourses, PermEnrollCourses},
	RoleInstructor: {
		PermViewCourses, PermEnrollCourses,
		PermCreateCourses, PermEditCourses, PermViewAnalytics,
	},
	RoleAdmin: {
		PermViewCourses, PermEnrollCourses,
		PermCreateCourses, PermEditCourses, PermDeleteCourses,
		PermViewAnalytics, PermManageUsers, PermManageRoles,
	},
}

// DefaultPermissions returns a fresh copy of the default grant for role.
// Unknown roles get an empty set.
func DefaultPermissions(role Role) PermissionSet {
	return NewPermissionSet(defaultPermissions[role]...)
}
