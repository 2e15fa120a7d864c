package models

import (
	"path"
	"sort"
	"strings"

	"coursegate/internal/claims/authz"
	claims "coursegate/internal/claims/models"
	id "coursegate/pkg/domain"
	dErrors "coursegate/pkg/domain-errors"
)

// RouteRule guards every route under Prefix. A caller passes when it holds
// any of Roles (if set) and all of Permissions (if set).
type RouteRule struct {
	Prefix      string
	Roles       []id.Role
	Permissions []id.Permission
}

// RoutePolicy matches routes against rules by longest prefix on path
// segment boundaries.
type RoutePolicy struct {
	rules []RouteRule
}

func NewRoutePolicy(rules ...RouteRule) *RoutePolicy {
	sorted := make([]RouteRule, 0, len(rules))
	for _, r := range rules {
		r.Prefix = cleanRoute(r.Prefix)
		sorted = append(sorted, r)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Prefix) > len(sorted[j].Prefix)
	})
	return &RoutePolicy{rules: sorted}
}

// DefaultRoutePolicy mirrors the navigation of the course platform.
func DefaultRoutePolicy() *RoutePolicy {
	return NewRoutePolicy(
		RouteRule{Prefix: "/"},
		RouteRule{Prefix: "/courses", Permissions: []id.Permission{id.PermViewCourses}},
		RouteRule{Prefix: "/courses/enroll", Roles: []id.Role{id.RoleStudent}, Permissions: []id.Permission{id.PermEnrollCourses}},
		RouteRule{Prefix: "/courses/new", Roles: []id.Role{id.RoleInstructor, id.RoleAdmin}, Permissions: []id.Permission{id.PermCreateCourses}},
		RouteRule{Prefix: "/instructor", Roles: []id.Role{id.RoleInstructor, id.RoleAdmin}},
		RouteRule{Prefix: "/analytics", Permissions: []id.Permission{id.PermViewAnalytics}},
		RouteRule{Prefix: "/admin", Roles: []id.Role{id.RoleAdmin}},
		RouteRule{Prefix: "/admin/users", Roles: []id.Role{id.RoleAdmin}, Permissions: []id.Permission{id.PermManageUsers}},
		RouteRule{Prefix: "/admin/roles", Roles: []id.Role{id.RoleAdmin}, Permissions: []id.Permission{id.PermManageRoles}},
	)
}

// ParseRoute validates and normalises a client-side route.
func ParseRoute(route string) (string, error) {
	if route == "" || !strings.HasPrefix(route, "/") {
		return "", dErrors.New(dErrors.CodeInvalidInput, "route must be an absolute path")
	}
	if i := strings.IndexAny(route, "?#"); i >= 0 {
		route = route[:i]
	}
	return cleanRoute(route), nil
}

func cleanRoute(route string) string {
	if route == "" {
		return "/"
	}
	return path.Clean("/" + strings.TrimPrefix(route, "/"))
}

// Match returns the most specific rule covering route.
func (p *RoutePolicy) Match(route string) (RouteRule, bool) {
	for _, r := range p.rules {
		if covers(r.Prefix, route) {
			return r, true
		}
	}
	return RouteRule{}, false
}

func covers(prefix, route string) bool {
	if prefix == "/" || prefix == route {
		return true
	}
	return strings.HasPrefix(route, prefix+"/")
}

// Decide evaluates c against the rule for route. Routes without a rule are
// denied.
func (p *RoutePolicy) Decide(route string, c *claims.Claims) claims.RouteAccessDecision {
	decision := claims.RouteAccessDecision{Route: route}
	rule, ok := p.Match(route)
	if !ok {
		decision.Reason = "no rule covers this route"
		return decision
	}
	decision.RequiredRoles = rule.Roles
	decision.RequiredPermissions = rule.Permissions

	switch {
	case len(rule.Roles) > 0 && !authz.HasAnyRole(c, rule.Roles...):
		decision.Reason = "role not permitted"
	case len(rule.Permissions) > 0 && !authz.HasAllPermissions(c, rule.Permissions...):
		decision.Reason = "missing permission"
	default:
		decision.Allowed = true
	}
	return decision
}
