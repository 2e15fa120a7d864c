package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"coursegate/internal/claims/models"
	rolemodels "coursegate/internal/roles/models"
	id "coursegate/pkg/domain"
	"coursegate/pkg/platform/middleware/metadata"
	"coursegate/pkg/platform/strings"
	"coursegate/pkg/requestcontext"
)

//go:generate mockgen -source=handlers_admin.go -destination=mocks/admin-mocks.go -package=mocks RoleAdmin

// RoleAdmin changes server-side role assignments.
type RoleAdmin interface {
	AssignRole(ctx context.Context, subject id.SubjectID, assignment rolemodels.RoleAssignment) (*models.Profile, error)
}

type AdminHandler struct {
	roles  RoleAdmin
	logger *slog.Logger
}

func NewAdminHandler(roles RoleAdmin, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{roles: roles, logger: logger}
}

func (h *AdminHandler) Register(r chi.Router) {
	r.Put("/admin/roles/{subject}", h.HandleAssignRole)
}

type assignRoleRequest struct {
	Role        string   `json:"role"`
	Permissions []string `json:"permissions,omitempty"`
}

func (req assignRoleRequest) toAssignment() (rolemodels.RoleAssignment, error) {
	role, err := id.ParseRole(req.Role)
	if err != nil {
		return rolemodels.RoleAssignment{}, err
	}
	out := rolemodels.RoleAssignment{Role: role}
	if req.Permissions != nil {
		perms, err := id.ParsePermissionSet(strings.DedupeAndTrim(req.Permissions))
		if err != nil {
			return rolemodels.RoleAssignment{}, err
		}
		out.Permissions = perms
	}
	return out, nil
}

func (h *AdminHandler) HandleAssignRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subject, err := id.ParseSubjectID(chi.URLParam(r, "subject"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req assignRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	assignment, err := req.toAssignment()
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	profile, err := h.roles.AssignRole(ctx, subject, assignment)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.logger.InfoContext(ctx, "role assignment applied",
		"subject", subject.String(),
		"role", assignment.Role.String(),
		"actor", requestcontext.SubjectID(ctx).String(),
		"client_ip", metadata.GetClientIP(ctx),
	)
	writeJSON(w, http.StatusOK, profile)
}
