// Package cache applies the validity window and subject binding to a claims slot store.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"coursegate/internal/claims/metrics"
	"coursegate/internal/claims/models"
	id "coursegate/pkg/domain"
	"coursegate/pkg/platform/sentinel"
	"coursegate/pkg/requestcontext"
)

// DefaultValidityWindow is how long cached claims are trusted without re-fetching.
const DefaultValidityWindow = 5 * time.Minute

// Store persists the single cache slot. See internal/claims/store for backends.
type Store interface {
	Load(ctx context.Context) (*models.CacheEntry, error)
	Save(ctx context.Context, entry *models.CacheEntry) error
	Clear(ctx context.Context) error
}

// Cache is the claims cache. The zero value is not usable; construct with New.
type Cache struct {
	store   Store
	window  time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Cache.
type Option func(*Cache)

// WithValidityWindow overrides DefaultValidityWindow. Non-positive values are ignored.
func WithValidityWindow(window time.Duration) Option {
	return func(c *Cache) {
		if window > 0 {
			c.window = window
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// New constructs a Cache over store.
func New(store Store, opts ...Option) *Cache {
	c := &Cache{
		store:  store,
		window: DefaultValidityWindow,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Window returns the configured validity window.
func (c *Cache) Window() time.Duration {
	return c.window
}

// Fresh returns cached claims for subject when the stored entry belongs to
// subject and is younger than the validity window at requestcontext.Now(ctx).
//
// An entry stored for another subject is discarded. Store failures are logged
// and reported as a miss: a broken cache must never block resolution.
func (c *Cache) Fresh(ctx context.Context, subject id.SubjectID) (*models.Claims, bool) {
	if subject.IsNil() {
		c.metrics.RecordLookup(metrics.LookupMiss)
		return nil, false
	}
	entry, err := c.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			c.logger.WarnContext(ctx, "claims cache load failed", "error", err)
		}
		c.metrics.RecordLookup(metrics.LookupMiss)
		return nil, false
	}

	if entry.SubjectID != subject {
		c.metrics.RecordLookup(metrics.LookupMismatch)
		c.logger.InfoContext(ctx, "discarding claims cached for another subject",
			"cached_subject", entry.SubjectID.String(),
			"subject", subject.String(),
		)
		if err := c.store.Clear(ctx); err != nil {
			c.logger.WarnContext(ctx, "claims cache clear failed", "error", err)
		}
		return nil, false
	}

	now := requestcontext.Now(ctx)
	if !entry.FreshAt(subject, now, c.window) {
		c.metrics.RecordLookup(metrics.LookupStale)
		return nil, false
	}

	c.metrics.RecordLookup(metrics.LookupHit)
	return entry.Claims, true
}

// Put stores claims for subject stamped with requestcontext.Now(ctx).
// A stale write (an entry with an older stamp raced ahead) is not an error
// for the caller: the newer entry already in the slot wins.
func (c *Cache) Put(ctx context.Context, subject id.SubjectID, claims *models.Claims) error {
	entry := &models.CacheEntry{
		SubjectID: subject,
		Claims:    claims,
		Timestamp: requestcontext.Now(ctx),
	}
	err := c.store.Save(ctx, entry)
	if errors.Is(err, sentinel.ErrStaleWrite) {
		c.logger.DebugContext(ctx, "newer claims already cached", "subject", subject.String())
		return nil
	}
	return err
}

// Invalidate drops whatever the slot holds.
func (c *Cache) Invalidate(ctx context.Context) error {
	return c.store.Clear(ctx)
}
