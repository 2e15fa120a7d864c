package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	claims "coursegate/internal/claims/models"
	"coursegate/internal/roles/metrics"
	"coursegate/internal/roles/models"
	"coursegate/internal/roles/store"
	id "coursegate/pkg/domain"
	dErrors "coursegate/pkg/domain-errors"
	audit "coursegate/pkg/platform/audit"
	"coursegate/pkg/platform/middleware/metadata"
	"coursegate/pkg/platform/sentinel"
	"coursegate/pkg/requestcontext"
)

// ErrRoleNotAssigned is the error code surfaced when a subject has no row in
// the role table. Clients react by syncing the profile.
const ErrRoleNotAssigned = "role_not_assigned"

//go:generate mockgen -source=service.go -destination=mocks/store-mocks.go -package=mocks RoleStore

type RoleStore interface {
	Find(ctx context.Context, subject id.SubjectID) (*models.Record, error)
	Insert(ctx context.Context, rec *models.Record) error
	Update(ctx context.Context, subject id.SubjectID, mutate store.Mutation) (*models.Record, error)
	RunInTx(ctx context.Context, fn store.TxFunc) error
}

// ComplianceAuditor records role changes. Emit runs inside the role store
// transaction; a failed write rolls the change back.
type ComplianceAuditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

// SecurityAuditor records access violations without blocking.
type SecurityAuditor interface {
	Emit(ctx context.Context, event audit.Event)
}

// Service answers the claims, profile and route-access endpoints.
type Service struct {
	store      RoleStore
	policy     *models.RoutePolicy
	logger     *slog.Logger
	metrics    *metrics.Metrics
	compliance ComplianceAuditor
	security   SecurityAuditor
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithRoutePolicy(p *models.RoutePolicy) Option {
	return func(s *Service) {
		if p != nil {
			s.policy = p
		}
	}
}

func WithComplianceAuditor(a ComplianceAuditor) Option {
	return func(s *Service) {
		s.compliance = a
	}
}

func WithSecurityAuditor(a SecurityAuditor) Option {
	return func(s *Service) {
		s.security = a
	}
}

func New(roles RoleStore, opts ...Option) *Service {
	s := &Service{
		store:  roles,
		policy: models.DefaultRoutePolicy(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Claims returns the role claims for subject.
//
// Errors: CodeNotFound wrapping sentinel.ErrNotFound when no role is assigned.
func (s *Service) Claims(ctx context.Context, subject id.SubjectID) (*claims.Claims, error) {
	defer s.metrics.ObserveClaims(time.Now())
	rec, err := s.find(ctx, subject)
	if err != nil {
		return nil, err
	}
	out := rec.Claims()
	// The verified flag in the token is fresher than the stored copy.
	if requestcontext.EmailVerified(ctx) {
		out.EmailVerified = true
	}
	return out, nil
}

// SyncProfile creates the subject's profile with the default role, or
// refreshes contact details on an existing one. The role is never changed.
func (s *Service) SyncProfile(ctx context.Context, subject id.SubjectID, req claims.ProfileSyncRequest) (*claims.ProfileSyncResult, error) {
	if subject.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "subject is required")
	}
	now := requestcontext.Now(ctx)
	email := strings.TrimSpace(req.Email)
	displayName := strings.TrimSpace(req.DisplayName)

	rec := models.NewStudent(subject, email, displayName, req.EmailVerified, now)
	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Insert(ctx, rec); err != nil {
			return err
		}
		return s.recordCompliance(ctx, audit.EventProfileProvisioned, subject, rec.Role)
	})
	if err == nil {
		s.metrics.IncrementProvisioned()
		s.logger.InfoContext(ctx, "profile provisioned",
			"subject", subject.String(),
			"role", rec.Role.String(),
		)
		return &claims.ProfileSyncResult{Profile: rec.Profile(), Created: true}, nil
	}
	if !errors.Is(err, sentinel.ErrConflict) {
		return nil, s.translate(err, "failed to provision profile")
	}

	updated, err := s.store.Update(ctx, subject, func(existing *models.Record) error {
		if email != "" {
			existing.Email = email
		}
		if displayName != "" {
			existing.DisplayName = displayName
		}
		existing.EmailVerified = existing.EmailVerified || req.EmailVerified
		existing.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, s.translate(err, "failed to sync profile")
	}
	return &claims.ProfileSyncResult{Profile: updated.Profile(), Created: false}, nil
}

func (s *Service) Profile(ctx context.Context, subject id.SubjectID) (*claims.Profile, error) {
	rec, err := s.find(ctx, subject)
	if err != nil {
		return nil, err
	}
	p := rec.Profile()
	return &p, nil
}

// CheckRouteAccess evaluates route against the policy with the subject's
// stored claims. A subject without a role is evaluated with no claims.
func (s *Service) CheckRouteAccess(ctx context.Context, subject id.SubjectID, route string) (*claims.RouteAccessDecision, error) {
	normalised, err := models.ParseRoute(route)
	if err != nil {
		return nil, err
	}
	var current *claims.Claims
	rec, err := s.find(ctx, subject)
	switch {
	case err == nil:
		current = rec.Claims()
	case !errors.Is(err, sentinel.ErrNotFound):
		return nil, err
	}

	decision := s.policy.Decide(normalised, current)
	s.metrics.RecordRouteDecision(decision.Allowed)
	if !decision.Allowed {
		s.logger.InfoContext(ctx, "route access denied",
			"subject", subject.String(),
			"route", normalised,
			"reason", decision.Reason,
		)
		if s.security != nil {
			s.security.Emit(ctx, audit.Event{
				Subject:   subject,
				Action:    audit.EventRouteDenied,
				Decision:  normalised,
				Reason:    decision.Reason,
				RequestID: requestcontext.RequestID(ctx),
				ClientIP:  metadata.GetClientIP(ctx),
				Device:    metadata.GetDevice(ctx).String(),
			})
		}
	}
	return &decision, nil
}

// AssignRole changes subject's role. Callers must have authorised the actor.
func (s *Service) AssignRole(ctx context.Context, subject id.SubjectID, assignment models.RoleAssignment) (*claims.Profile, error) {
	if !assignment.Role.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "role is invalid")
	}
	perms := assignment.Permissions
	if perms == nil {
		perms = id.DefaultPermissions(assignment.Role)
	}
	now := requestcontext.Now(ctx)

	var rec *models.Record
	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		rec, err = s.store.Update(ctx, subject, func(existing *models.Record) error {
			existing.Role = assignment.Role
			existing.Permissions = perms.Clone()
			existing.UpdatedAt = now
			return nil
		})
		if err != nil {
			return err
		}
		return s.recordCompliance(ctx, audit.EventRoleAssigned, subject, assignment.Role)
	})
	if err != nil {
		return nil, s.translate(err, "failed to assign role")
	}
	s.metrics.IncrementRoleAssignment(assignment.Role.String())
	s.logger.InfoContext(ctx, "role assigned",
		"subject", subject.String(),
		"role", assignment.Role.String(),
		"actor", requestcontext.SubjectID(ctx).String(),
	)
	p := rec.Profile()
	return &p, nil
}

func (s *Service) recordCompliance(ctx context.Context, action audit.AuditEvent, subject id.SubjectID, role id.Role) error {
	if s.compliance == nil {
		return nil
	}
	err := s.compliance.Emit(ctx, audit.Event{
		Timestamp: requestcontext.Now(ctx),
		Subject:   subject,
		Action:    action,
		Decision:  role.String(),
		RequestID: requestcontext.RequestID(ctx),
		ActorID:   requestcontext.SubjectID(ctx),
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
	}
	return nil
}

func (s *Service) find(ctx context.Context, subject id.SubjectID) (*models.Record, error) {
	if subject.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "subject is required")
	}
	rec, err := s.store.Find(ctx, subject)
	if err != nil {
		return nil, s.translate(err, "failed to load role")
	}
	return rec, nil
}

// translate maps store sentinels onto domain codes.
func (s *Service) translate(err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, ErrRoleNotAssigned)
	case isCoded(err):
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}

func isCoded(err error) bool {
	var de *dErrors.Error
	return errors.As(err, &de)
}
