// Package authz holds the authorization predicates evaluated against resolved claims.
//
// Every predicate is total: a nil *models.Claims means "no claims" and yields
// false (or a forbidden error for the Require variants). Nothing here panics
// and nothing here performs I/O.
package authz

import (
	"slices"

	"coursegate/internal/claims/models"
	id "coursegate/pkg/domain"
	dErrors "coursegate/pkg/domain-errors"
)

// HasRole reports whether claims carry exactly role.
func HasRole(c *models.Claims, role id.Role) bool {
	if c == nil || !role.IsValid() {
		return false
	}
	return c.Role == role
}

// HasAnyRole reports whether claims carry one of roles.
func HasAnyRole(c *models.Claims, roles ...id.Role) bool {
	if c == nil {
		return false
	}
	return slices.ContainsFunc(roles, func(r id.Role) bool { return HasRole(c, r) })
}

// RoleAtLeast reports whether the claimed role ranks at or above floor.
func RoleAtLeast(c *models.Claims, floor id.Role) bool {
	if c == nil || !floor.IsValid() {
		return false
	}
	return c.Role.AtLeast(floor)
}

// HasPermission reports whether claims grant p.
func HasPermission(c *models.Claims, p id.Permission) bool {
	if c == nil || !p.IsValid() {
		return false
	}
	return c.Permissions.Has(p)
}

// HasAllPermissions reports whether claims grant every perm. Nil claims fail even with no perms.
func HasAllPermissions(c *models.Claims, perms ...id.Permission) bool {
	if c == nil {
		return false
	}
	return c.Permissions.HasAll(perms...)
}

// HasAnyPermission reports whether claims grant at least one of perms.
func HasAnyPermission(c *models.Claims, perms ...id.Permission) bool {
	if c == nil {
		return false
	}
	return c.Permissions.HasAny(perms...)
}

func IsProfileComplete(c *models.Claims) bool {
	return c != nil && c.ProfileComplete
}

func IsEmailVerified(c *models.Claims) bool {
	return c != nil && c.EmailVerified
}

// RequireAnyRole returns a forbidden error unless claims carry one of roles.
func RequireAnyRole(c *models.Claims, roles ...id.Role) error {
	if c == nil {
		return dErrors.New(dErrors.CodeUnauthorized, "claims not loaded")
	}
	if !HasAnyRole(c, roles...) {
		return dErrors.New(dErrors.CodeForbidden, "role not permitted")
	}
	return nil
}

// RequirePermissions returns a forbidden error unless claims grant every perm.
func RequirePermissions(c *models.Claims, perms ...id.Permission) error {
	if c == nil {
		return dErrors.New(dErrors.CodeUnauthorized, "claims not loaded")
	}
	if !HasAllPermissions(c, perms...) {
		return dErrors.New(dErrors.CodeForbidden, "missing permission")
	}
	return nil
}
