package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	jwttoken "coursegate/internal/jwt_token"
	"coursegate/internal/platform/config"
	platformmetrics "coursegate/internal/platform/metrics"
	"coursegate/internal/platform/postgres"
	rolesmetrics "coursegate/internal/roles/metrics"
	rolesservice "coursegate/internal/roles/service"
	rolestore "coursegate/internal/roles/store"
	httptransport "coursegate/internal/transport/http"
	audit "coursegate/pkg/platform/audit"
	"coursegate/pkg/platform/audit/publishers/compliance"
	"coursegate/pkg/platform/audit/publishers/security"
	auditmemory "coursegate/pkg/platform/audit/store/memory"
	auditpostgres "coursegate/pkg/platform/audit/store/postgres"
	"coursegate/pkg/platform/audit/worker"
)

const securityAuditBuffer = 10000

type app struct {
	handler    http.Handler
	db         *sql.DB
	auditStore audit.Store
	denials    *security.RingBuffer
	// auditWorker persists buffered security events until close.
	auditWorker *worker.Worker
	stopAudit   context.CancelFunc
	auditDone   chan struct{}
}

// start runs the audit worker in the background.
func (a *app) start() {
	ctx, cancel := context.WithCancel(context.Background())
	a.stopAudit = cancel
	a.auditDone = make(chan struct{})
	go func() {
		defer close(a.auditDone)
		_ = a.auditWorker.Run(ctx)
	}()
}

// close stops the audit worker, which flushes what is still buffered, and
// then releases the database the flush writes to.
func (a *app) close() {
	if a.stopAudit != nil {
		a.stopAudit()
		<-a.auditDone
		a.stopAudit = nil
	}
	if a.db != nil {
		_ = a.db.Close()
		a.db = nil
	}
}

// build assembles the role backend from cfg.
func build(ctx context.Context, cfg *config.Config, log *slog.Logger) (*app, error) {
	a := &app{}

	registry := platformmetrics.NewRegistry()
	platformmetrics.New(registry).RecordStartup("server", version)

	roles, err := newRoleStore(ctx, cfg, a)
	if err != nil {
		return nil, err
	}
	if cfg.Auth.SigningKey == config.DevSigningKey {
		log.Warn("using the development signing key")
	}

	auditStore, err := newAuditStore(ctx, a)
	if err != nil {
		a.close()
		return nil, err
	}
	denials := security.NewRingBuffer(securityAuditBuffer)
	a.auditStore = auditStore
	a.denials = denials
	a.auditWorker = worker.NewWorker(auditStore, denials, worker.WithLogger(log))

	svc := rolesservice.New(roles,
		rolesservice.WithLogger(log),
		rolesservice.WithMetrics(rolesmetrics.New(registry)),
		rolesservice.WithComplianceAuditor(compliance.New(auditStore, compliance.WithLogger(log))),
		rolesservice.WithSecurityAuditor(security.New(denials)),
	)
	tokens := jwttoken.NewJWTService(cfg.Auth.SigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)

	a.handler = httptransport.NewRouter(httptransport.RouterConfig{
		Claims:         svc,
		Roles:          svc,
		TokenValidator: jwttoken.NewJWTServiceAdapter(tokens),
		Gatherer:       registry,
		Logger:         log,
		ProfileMaxAge:  cfg.Server.ProfileMaxAge,
		TrustProxy:     cfg.Server.TrustProxy,
	})
	return a, nil
}

func newRoleStore(ctx context.Context, cfg *config.Config, a *app) (rolesservice.RoleStore, error) {
	switch cfg.Roles.Store {
	case config.BackendPostgres:
		db, err := postgres.Open(ctx, cfg.Roles.PostgresDSN)
		if err != nil {
			return nil, err
		}
		a.db = db
		pg := rolestore.NewPostgres(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			a.close()
			return nil, fmt.Errorf("ensure role schema: %w", err)
		}
		return pg, nil
	default:
		return rolestore.NewInMemory(), nil
	}
}

// newAuditStore keeps the audit trail next to the role table.
func newAuditStore(ctx context.Context, a *app) (audit.Store, error) {
	if a.db == nil {
		return auditmemory.NewInMemoryStore(), nil
	}
	store := auditpostgres.New(a.db)
	if err := store.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return store, nil
}
