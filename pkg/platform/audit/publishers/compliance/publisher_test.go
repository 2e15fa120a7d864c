package compliance

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "coursegate/pkg/domain"
	audit "coursegate/pkg/platform/audit"
	"coursegate/pkg/platform/audit/store/memory"
)

type failingStore struct{}

func (failingStore) Append(context.Context, audit.Event) error { return errors.New("disk full") }
func (failingStore) ListBySubject(context.Context, id.SubjectID) ([]audit.Event, error) {
	return nil, nil
}

func TestEmitPersistsComplianceEvent(t *testing.T) {
	store := memory.NewInMemoryStore()
	p := New(store)

	err := p.Emit(context.Background(), audit.Event{
		Subject: "uid-1",
		Action:  audit.EventRoleAssigned,
		ActorID: "uid-admin",
	})
	require.NoError(t, err)

	events, err := store.ListBySubject(context.Background(), "uid-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.CategoryCompliance, events[0].Category)
	assert.False(t, events[0].Timestamp.IsZero())
	assert.Equal(t, id.SubjectID("uid-admin"), events[0].ActorID)
}

func TestEmitValidatesEvent(t *testing.T) {
	p := New(memory.NewInMemoryStore())
	assert.Error(t, p.Emit(context.Background(), audit.Event{Action: audit.EventRoleAssigned}))
	assert.Error(t, p.Emit(context.Background(), audit.Event{Subject: "uid-1"}))
}

func TestEmitFailsClosed(t *testing.T) {
	p := New(failingStore{})
	err := p.Emit(context.Background(), audit.Event{Subject: "uid-1", Action: audit.EventProfileProvisioned})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compliance audit persistence failed")
}
