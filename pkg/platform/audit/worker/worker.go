package worker

import (
	"context"
	"log/slog"
	"time"

	audit "coursegate/pkg/platform/audit"
)

const (
	defaultInterval  = time.Second
	defaultBatchSize = 100
)

// Source yields buffered events in batches.
type Source interface {
	DequeueBatch(n int) []audit.Event
}

// Worker drains a Source into the audit store on a fixed interval.
type Worker struct {
	store     audit.Store
	source    Source
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
}

type Option func(*Worker)

func WithInterval(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.interval = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func NewWorker(store audit.Store, source Source, opts ...Option) *Worker {
	w := &Worker{
		store:     store,
		source:    source,
		interval:  defaultInterval,
		batchSize: defaultBatchSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run flushes every interval until ctx is done, then flushes once more so
// events queued during shutdown are not lost.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.Flush(context.WithoutCancel(ctx))
			return ctx.Err()
		case <-ticker.C:
			w.Flush(ctx)
		}
	}
}

// Flush persists everything currently buffered and returns how many events
// were written. Events that fail to persist are logged and dropped.
func (w *Worker) Flush(ctx context.Context) int {
	written := 0
	for {
		batch := w.source.DequeueBatch(w.batchSize)
		if len(batch) == 0 {
			return written
		}
		for _, event := range batch {
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.WarnContext(ctx, "dropping audit event",
					"action", string(event.Action),
					"subject", event.Subject.String(),
					"error", err,
				)
				continue
			}
			written++
		}
	}
}
