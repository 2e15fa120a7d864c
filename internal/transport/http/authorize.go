package httptransport

import (
	"context"

	"coursegate/internal/claims/authz"
	"coursegate/internal/claims/models"
	id "coursegate/pkg/domain"
	dErrors "coursegate/pkg/domain-errors"
	"coursegate/pkg/requestcontext"
)

// ClaimsLookup loads the stored claims of a subject.
type ClaimsLookup interface {
	Claims(ctx context.Context, subject id.SubjectID) (*models.Claims, error)
}

// RequireRoleAdmin authorises callers holding ADMIN with MANAGE_ROLES.
func RequireRoleAdmin(lookup ClaimsLookup) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		subject := requestcontext.SubjectID(ctx)
		if subject.IsNil() {
			return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
		}
		claims, err := lookup.Claims(ctx, subject)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeForbidden, "caller has no role")
		}
		if err := authz.RequireAnyRole(claims, id.RoleAdmin); err != nil {
			return err
		}
		return authz.RequirePermissions(claims, id.PermManageRoles)
	}
}
