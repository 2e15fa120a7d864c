// Package security buffers access-violation events for asynchronous
// persistence. Emit never blocks; a full buffer drops its oldest event.
package security

import (
	"context"
	"time"

	audit "coursegate/pkg/platform/audit"
)

type Publisher struct {
	buffer *RingBuffer
	clock  func() time.Time
}

func New(buffer *RingBuffer) *Publisher {
	return &Publisher{buffer: buffer, clock: time.Now}
}

// Emit queues event for the audit worker.
func (p *Publisher) Emit(_ context.Context, event audit.Event) {
	event.Category = audit.CategorySecurity
	if event.Timestamp.IsZero() {
		event.Timestamp = p.clock()
	}
	p.buffer.Enqueue(event)
}
