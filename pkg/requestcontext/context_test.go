package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPrincipalRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.True(t, SubjectID(ctx).IsNil())
	assert.False(t, EmailVerified(ctx))

	ctx = WithPrincipal(ctx, "uid-1", "ada@example.com", true)
	assert.Equal(t, "uid-1", SubjectID(ctx).String())
	assert.Equal(t, "ada@example.com", Email(ctx))
	assert.True(t, EmailVerified(ctx))
}

func TestNowFallsBackToWallClock(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, fixed, Now(WithTime(context.Background(), fixed)))
	assert.WithinDuration(t, time.Now(), Now(context.Background()), time.Second)
}
