package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	"coursegate/internal/claims/models"
	id "coursegate/pkg/domain"
	dErrors "coursegate/pkg/domain-errors"
	"coursegate/pkg/platform/sentinel"
	"coursegate/pkg/requestcontext"
)

//go:generate mockgen -source=handlers_claims.go -destination=mocks/claims-mocks.go -package=mocks ClaimsService

// ClaimsService answers the endpoints the claims resolver consumes.
type ClaimsService interface {
	Claims(ctx context.Context, subject id.SubjectID) (*models.Claims, error)
	SyncProfile(ctx context.Context, subject id.SubjectID, req models.ProfileSyncRequest) (*models.ProfileSyncResult, error)
	Profile(ctx context.Context, subject id.SubjectID) (*models.Profile, error)
	CheckRouteAccess(ctx context.Context, subject id.SubjectID, route string) (*models.RouteAccessDecision, error)
}

// ClaimsHandler serves /auth/*. Every route requires an authenticated subject.
type ClaimsHandler struct {
	service       ClaimsService
	logger        *slog.Logger
	profileMaxAge time.Duration
}

func NewClaimsHandler(service ClaimsService, logger *slog.Logger, profileMaxAge time.Duration) *ClaimsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClaimsHandler{service: service, logger: logger, profileMaxAge: profileMaxAge}
}

func (h *ClaimsHandler) Register(r chi.Router) {
	r.Get("/auth/claims", h.HandleClaims)
	r.Post("/auth/profile/sync", h.HandleSyncProfile)
	r.Get("/auth/profile", h.HandleProfile)
	r.Post("/auth/route-access", h.HandleRouteAccess)
}

func (h *ClaimsHandler) HandleClaims(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims, err := h.service.Claims(ctx, requestcontext.SubjectID(ctx))
	if errors.Is(err, sentinel.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{
			Error:            errorCodeRoleNotAssigned,
			ErrorDescription: "no role assigned; sync the profile and retry",
		})
		return
	}
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, claims)
}

func (h *ClaimsHandler) HandleSyncProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.ProfileSyncRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	// The token is authoritative for email and verification.
	if tokenEmail := requestcontext.Email(ctx); tokenEmail != "" {
		req.Email = tokenEmail
	}
	req.EmailVerified = requestcontext.EmailVerified(ctx)
	if strings.TrimSpace(req.DisplayName) == "" {
		req.DisplayName = requestcontext.DisplayName(ctx)
	}
	if err := validateSyncRequest(req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := h.service.SyncProfile(ctx, requestcontext.SubjectID(ctx), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, res)
}

func (h *ClaimsHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profile, err := h.service.Profile(ctx, requestcontext.SubjectID(ctx))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if h.profileMaxAge > 0 {
		w.Header().Set("Cache-Control", fmt.Sprintf("private, max-age=%d", int(h.profileMaxAge.Seconds())))
	} else {
		w.Header().Set("Cache-Control", "no-store")
	}
	w.Header().Set("Vary", "Authorization")
	writeJSON(w, http.StatusOK, profile)
}

func (h *ClaimsHandler) HandleRouteAccess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.RouteAccessRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if !govalidator.StringLength(req.Route, "1", "2048") || !govalidator.IsRequestURI(req.Route) {
		writeError(w, r, h.logger, dErrors.New(dErrors.CodeInvalidInput, "invalid route"))
		return
	}

	decision, err := h.service.CheckRouteAccess(ctx, requestcontext.SubjectID(ctx), req.Route)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, decision)
}

func validateSyncRequest(req models.ProfileSyncRequest) error {
	if req.Email != "" && (!govalidator.StringLength(req.Email, "3", "254") || !govalidator.IsEmail(req.Email)) {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid email")
	}
	name := strings.TrimSpace(req.DisplayName)
	if !govalidator.StringLength(name, "0", "100") || strings.ContainsFunc(name, unicode.IsControl) {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid display name")
	}
	return nil
}

const maxRequestBody = 64 << 10

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request body")
	}
	return nil
}
