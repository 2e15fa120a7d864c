// Package compliance provides a fail-closed audit publisher for role changes.
//
// Emit blocks until the event is persisted. When persistence fails the
// caller receives an error and must report its operation as failed.
package compliance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	audit "coursegate/pkg/platform/audit"
)

// Publisher emits compliance events with fail-closed semantics.
type Publisher struct {
	store  audit.Store
	logger *slog.Logger
	clock  func() time.Time
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for error reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithClock(clock func() time.Time) Option {
	return func(p *Publisher) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// New creates a compliance publisher over store.
func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, clock: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit synchronously writes event to the audit store.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Subject.IsNil() {
		return fmt.Errorf("compliance event requires a subject")
	}
	if event.Action == "" {
		return fmt.Errorf("compliance event requires an action")
	}
	event.Category = audit.CategoryCompliance
	if event.Timestamp.IsZero() {
		event.Timestamp = p.clock()
	}

	if err := p.store.Append(ctx, event); err != nil {
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "CRITICAL: compliance audit failed",
				"action", string(event.Action),
				"subject", event.Subject.String(),
				"error", err,
			)
		}
		return fmt.Errorf("compliance audit persistence failed: %w", err)
	}
	return nil
}
