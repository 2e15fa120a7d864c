package security

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "coursegate/pkg/domain"
	audit "coursegate/pkg/platform/audit"
)

func event(subject string) audit.Event {
	return audit.Event{Subject: id.SubjectID(subject), Action: audit.EventRouteDenied}
}

func TestRingBufferDropsOldestWhenFull(t *testing.T) {
	b := NewRingBuffer(2)
	b.Enqueue(event("a"))
	b.Enqueue(event("b"))
	b.Enqueue(event("c"))

	assert.Equal(t, 2, b.Len())
	assert.Equal(t, int64(1), b.Dropped())

	batch := b.DequeueBatch(10)
	require.Len(t, batch, 2)
	assert.Equal(t, id.SubjectID("b"), batch[0].Subject)
	assert.Equal(t, id.SubjectID("c"), batch[1].Subject)
	assert.Nil(t, b.DequeueBatch(1))
}

func TestRingBufferBatchesInOrder(t *testing.T) {
	b := NewRingBuffer(0)
	for _, s := range []string{"a", "b", "c"} {
		b.Enqueue(event(s))
	}
	first := b.DequeueBatch(2)
	require.Len(t, first, 2)
	assert.Equal(t, id.SubjectID("a"), first[0].Subject)
	rest := b.DequeueBatch(2)
	require.Len(t, rest, 1)
	assert.Equal(t, id.SubjectID("c"), rest[0].Subject)
}

func TestPublisherStampsCategoryAndTime(t *testing.T) {
	b := NewRingBuffer(4)
	p := New(b)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p.clock = func() time.Time { return fixed }

	p.Emit(context.Background(), event("uid-1"))

	got := b.DequeueBatch(1)
	require.Len(t, got, 1)
	assert.Equal(t, audit.CategorySecurity, got[0].Category)
	assert.Equal(t, fixed, got[0].Timestamp)
}
