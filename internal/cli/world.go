package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"coursegate/internal/claims/cache"
	"coursegate/internal/claims/client"
	"coursegate/internal/claims/metrics"
	"coursegate/internal/claims/service"
	"coursegate/internal/claims/store"
	"coursegate/internal/identity"
	jwttoken "coursegate/internal/jwt_token"
	"coursegate/internal/platform/config"
	platformredis "coursegate/internal/platform/redis"
)

// world is the client side of a session: the identity provider, the
// backend client and the resolver over the configured claims cache.
type world struct {
	provider *identity.Provider
	backend  *client.Client
	resolver *service.Resolver
	closers  []func() error
}

func newProvider(cfg *config.Config, log *slog.Logger) *identity.Provider {
	tokens := jwttoken.NewJWTService(cfg.Auth.SigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
	return identity.NewProvider(tokens,
		identity.WithTokenTTL(cfg.Auth.TokenTTL),
		identity.WithLogger(log),
	)
}

func newWorld(ctx context.Context, cfg *config.Config, log *slog.Logger) (*world, error) {
	w := &world{provider: newProvider(cfg, log)}

	backend, err := client.New(cfg.Claims.BackendURL, client.WithLogger(log))
	if err != nil {
		return nil, err
	}
	w.backend = backend

	slot, err := w.openCacheStore(ctx, cfg)
	if err != nil {
		w.Close()
		return nil, err
	}
	m := metrics.New(prometheus.NewRegistry())
	claimsCache := cache.New(slot,
		cache.WithValidityWindow(cfg.Claims.ValidityWindow),
		cache.WithLogger(log),
		cache.WithMetrics(m),
	)
	w.resolver = service.NewResolver(backend, claimsCache,
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithFallbackRole(cfg.FallbackRole()),
	)
	return w, nil
}

func (w *world) openCacheStore(ctx context.Context, cfg *config.Config) (cache.Store, error) {
	switch cfg.Claims.CacheBackend {
	case config.BackendSQLite:
		db, err := store.OpenSQLite(ctx, cfg.Claims.SQLitePath)
		if err != nil {
			return nil, err
		}
		w.closers = append(w.closers, db.Close)
		return store.NewSQLite(ctx, db)
	case config.BackendRedis:
		rc, err := platformredis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		w.closers = append(w.closers, rc.Close)
		return store.NewRedis(rc.Client, store.WithRedisTTL(cfg.Claims.ValidityWindow)), nil
	default:
		return store.NewInMemory(), nil
	}
}

// Close releases cache connections in reverse order of opening.
func (w *world) Close() error {
	var errs []error
	for i := len(w.closers) - 1; i >= 0; i-- {
		errs = append(errs, w.closers[i]())
	}
	w.closers = nil
	return errors.Join(errs...)
}
