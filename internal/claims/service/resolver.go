package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"coursegate/internal/claims/metrics"
	"coursegate/internal/claims/models"
	id "coursegate/pkg/domain"
	dErrors "coursegate/pkg/domain-errors"
	"coursegate/pkg/platform/sentinel"
)

//go:generate mockgen -source=resolver.go -destination=mocks/backend-mocks.go -package=mocks Backend,ClaimsCache

// Backend is the claims backend contract.
//
// FetchClaims returns an error matching sentinel.ErrNotFound when the subject
// has no server-assigned role; any other error is a resolution failure.
type Backend interface {
	FetchClaims(ctx context.Context, tok *oauth2.Token) (*models.Claims, error)
	SyncProfile(ctx context.Context, tok *oauth2.Token, req models.ProfileSyncRequest) (*models.ProfileSyncResult, error)
}

// ClaimsCache is the validity-window cache consulted before the backend.
type ClaimsCache interface {
	Fresh(ctx context.Context, subject id.SubjectID) (*models.Claims, bool)
	Put(ctx context.Context, subject id.SubjectID, claims *models.Claims) error
	Invalidate(ctx context.Context) error
}

// Resolver turns an authenticated session into claims.
type Resolver struct {
	backend      Backend
	cache        ClaimsCache
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       trace.Tracer
	group        singleflight.Group
	fallbackRole id.Role
}

// Option configures a Resolver.
type Option func(*Resolver)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(r *Resolver) {
		if tracer != nil {
			r.tracer = tracer
		}
	}
}

// WithFallbackRole grants role with its default permissions when resolution
// fails instead of returning claims_unavailable. Fallback claims are never
// cached. Leave unset unless a permissive default has been signed off.
func WithFallbackRole(role id.Role) Option {
	return func(r *Resolver) {
		if role.IsValid() {
			r.fallbackRole = role
		}
	}
}

// NewResolver constructs a Resolver.
func NewResolver(backend Backend, cache ClaimsCache, opts ...Option) *Resolver {
	r := &Resolver{
		backend: backend,
		cache:   cache,
		logger:  slog.Default(),
		tracer:  otel.Tracer("coursegate/internal/claims/service"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Cached returns claims for the session's subject when the cache holds a
// fresh entry for it. It never touches the network.
func (r *Resolver) Cached(ctx context.Context, session *models.Session) (*models.Claims, bool) {
	if session == nil || session.SubjectID.IsNil() {
		return nil, false
	}
	claims, ok := r.cache.Fresh(ctx, session.SubjectID)
	if !ok {
		return nil, false
	}
	return claims.Clone(), true
}

// Resolve returns claims for session, from cache when fresh and from the
// backend otherwise. A subject without a server role triggers one profile
// sync followed by one retry.
//
// Errors: CodeClaimsUnavailable for a missing session or any backend failure.
func (r *Resolver) Resolve(ctx context.Context, session *models.Session, tok *oauth2.Token) (*models.Claims, error) {
	start := time.Now()
	if err := validateSession(session); err != nil {
		return nil, err
	}
	if claims, ok := r.Cached(ctx, session); ok {
		r.metrics.ObserveResolve(metrics.OutcomeCached, start)
		return claims, nil
	}
	return r.load(ctx, session, tok, start)
}

// Refresh bypasses the cache and re-fetches claims, replacing the cached entry.
func (r *Resolver) Refresh(ctx context.Context, session *models.Session, tok *oauth2.Token) (*models.Claims, error) {
	start := time.Now()
	if err := validateSession(session); err != nil {
		return nil, err
	}
	return r.load(ctx, session, tok, start)
}

// Forget drops cached claims, used on sign-out.
func (r *Resolver) Forget(ctx context.Context) error {
	return r.cache.Invalidate(ctx)
}

func validateSession(session *models.Session) error {
	if session == nil || session.SubjectID.IsNil() {
		return dErrors.New(dErrors.CodeClaimsUnavailable, "no active session")
	}
	return nil
}

// load collapses concurrent backend resolutions for one subject. The shared
// fetch is detached from any single caller's cancellation and bounded by the
// backend client's timeout; each caller stops waiting when its own ctx ends.
func (r *Resolver) load(ctx context.Context, session *models.Session, tok *oauth2.Token, start time.Time) (*models.Claims, error) {
	shared := context.WithoutCancel(ctx)
	ch := r.group.DoChan(session.SubjectID.String(), func() (any, error) {
		return r.fetch(shared, session, tok, start)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.Claims).Clone(), nil
	case <-ctx.Done():
		return nil, dErrors.Wrap(ctx.Err(), dErrors.CodeClaimsUnavailable, "claims resolution cancelled")
	}
}

func (r *Resolver) fetch(ctx context.Context, session *models.Session, tok *oauth2.Token, start time.Time) (*models.Claims, error) {
	ctx, span := r.tracer.Start(ctx, "claims.resolve",
		trace.WithAttributes(attribute.String("subject", session.SubjectID.String())),
	)
	defer span.End()

	outcome := metrics.OutcomeFetched
	claims, err := r.backend.FetchClaims(ctx, tok)
	if errors.Is(err, sentinel.ErrNotFound) {
		outcome = metrics.OutcomeSynced
		claims, err = r.syncAndRetry(ctx, session, tok)
	}
	if err == nil && claims == nil {
		err = dErrors.New(dErrors.CodeClaimsUnavailable, "backend returned no claims")
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "claims unavailable")
		if fallback, ok := r.fallback(ctx, session, err); ok {
			span.SetAttributes(attribute.String("outcome", metrics.OutcomeFallback))
			r.metrics.ObserveResolve(metrics.OutcomeFallback, start)
			return fallback, nil
		}
		r.metrics.ObserveResolve(metrics.OutcomeFailed, start)
		r.logger.WarnContext(ctx, "claims resolution failed",
			"subject", session.SubjectID.String(),
			"error", err,
		)
		if dErrors.HasCode(err, dErrors.CodeClaimsUnavailable) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeClaimsUnavailable, "resolve claims")
	}

	if err := r.cache.Put(ctx, session.SubjectID, claims); err != nil {
		r.logger.WarnContext(ctx, "failed to cache claims",
			"subject", session.SubjectID.String(),
			"error", err,
		)
	}
	span.SetAttributes(attribute.String("outcome", outcome), attribute.String("role", claims.Role.String()))
	r.metrics.ObserveResolve(outcome, start)
	return claims, nil
}

// syncAndRetry provisions a profile for a role-less subject and fetches once more.
func (r *Resolver) syncAndRetry(ctx context.Context, session *models.Session, tok *oauth2.Token) (*models.Claims, error) {
	r.metrics.IncrementProfileSync()
	r.logger.InfoContext(ctx, "no role assigned, syncing profile", "subject", session.SubjectID.String())

	res, err := r.backend.SyncProfile(ctx, tok, models.ProfileSyncRequest{
		Email:         session.Email,
		DisplayName:   session.Name,
		EmailVerified: session.EmailVerified,
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeClaimsUnavailable, "profile sync failed")
	}
	if res != nil && res.Created {
		r.logger.InfoContext(ctx, "profile provisioned",
			"subject", session.SubjectID.String(),
			"role", res.Profile.Role.String(),
		)
	}

	claims, err := r.backend.FetchClaims(ctx, tok)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeClaimsUnavailable, "claims still unavailable after profile sync")
	}
	return claims, nil
}

func (r *Resolver) fallback(ctx context.Context, session *models.Session, cause error) (*models.Claims, bool) {
	if r.fallbackRole == "" {
		return nil, false
	}
	r.logger.WarnContext(ctx, "claims unavailable, granting fallback role",
		"subject", session.SubjectID.String(),
		"role", r.fallbackRole.String(),
		"error", cause,
	)
	return &models.Claims{
		Role:          r.fallbackRole,
		Permissions:   id.DefaultPermissions(r.fallbackRole),
		EmailVerified: session.EmailVerified,
	}, true
}
