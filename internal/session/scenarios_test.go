package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"coursegate/internal/claims/cache"
	"coursegate/internal/claims/client"
	"coursegate/internal/claims/models"
	"coursegate/internal/claims/service"
	svcmocks "coursegate/internal/claims/service/mocks"
	"coursegate/internal/claims/store"
	"coursegate/internal/identity"
	jwttoken "coursegate/internal/jwt_token"
	id "coursegate/pkg/domain"
	"coursegate/pkg/requestcontext"
	"coursegate/pkg/testutil"
)

type world struct {
	clock    *fakeClock
	backend  *svcmocks.MockBackend
	cache    *cache.Cache
	provider *identity.Provider
	harness  *harness
}

func newWorld(t *testing.T, opts ...Option) *world {
	t.Helper()
	ctrl := gomock.NewController(t)
	w := &world{
		clock:   newFakeClock(t0),
		backend: svcmocks.NewMockBackend(ctrl),
		cache:   cache.New(store.NewInMemory()),
	}
	tokens := jwttoken.NewJWTService("scenario-key", "coursegate-dev", "coursegate", jwttoken.WithClock(w.clock.Now))
	w.provider = identity.NewProvider(tokens, identity.WithClock(w.clock.Now))

	events, unsubscribe := w.provider.Subscribe(8)
	t.Cleanup(unsubscribe)

	resolver := service.NewResolver(w.backend, w.cache)
	w.harness = newHarnessWithEvents(t, resolver, w.provider, w.clock, events, opts...)
	return w
}

var adaPrincipal = jwttoken.Principal{SubjectID: "uid-ada", Email: "ada@example.com", EmailVerified: true}

func TestSignInWithFreshCachedClaims(t *testing.T) {
	w := newWorld(t)

	testutil.Given(t, "claims cached for the subject two minutes ago", func(t *testing.T) {
		ctx := requestcontext.WithTime(context.Background(), w.clock.Now())
		require.NoError(t, w.cache.Put(ctx, "uid-ada", instructorClaims()))
		w.clock.Advance(2 * time.Minute)
	})

	testutil.When(t, "the same subject signs in", func(t *testing.T) {
		_, err := w.provider.SignIn(context.Background(), adaPrincipal)
		require.NoError(t, err)
	})

	testutil.Then(t, "claims are applied without a network call", func(t *testing.T) {
		st := w.harness.waitStatus(t, StatusReady)
		assert.Equal(t, id.RoleInstructor, st.Claims.Role)
		assert.Equal(t, []Status{StatusReady}, w.harness.log.all(), "state never passes through resolving")
	})
}

func TestSignInWithCachedClaimsForAnotherSubject(t *testing.T) {
	w := newWorld(t)

	testutil.Given(t, "claims cached for a different subject", func(t *testing.T) {
		ctx := requestcontext.WithTime(context.Background(), w.clock.Now())
		require.NoError(t, w.cache.Put(ctx, "uid-bob", &models.Claims{
			Role:        id.RoleAdmin,
			Permissions: id.DefaultPermissions(id.RoleAdmin),
		}))
	})

	testutil.When(t, "a subject signs in", func(t *testing.T) {
		w.backend.EXPECT().FetchClaims(gomock.Any(), gomock.Any()).Return(instructorClaims(), nil)
		_, err := w.provider.SignIn(context.Background(), adaPrincipal)
		require.NoError(t, err)
	})

	testutil.Then(t, "the other subject's claims are never used", func(t *testing.T) {
		st := w.harness.waitStatus(t, StatusReady)
		assert.Equal(t, id.RoleInstructor, st.Claims.Role)
		assert.False(t, w.harness.manager.HasRole(id.RoleAdmin))
	})
}

func TestSignInWithoutServerRole(t *testing.T) {
	w := newWorld(t)

	testutil.Given(t, "the backend has no role for the subject until its profile is synced", func(t *testing.T) {
		student := &models.Claims{Role: id.RoleStudent, Permissions: id.DefaultPermissions(id.RoleStudent), EmailVerified: true}
		gomock.InOrder(
			w.backend.EXPECT().FetchClaims(gomock.Any(), gomock.Any()).Return(nil, client.ErrNoRole).Times(1),
			w.backend.EXPECT().SyncProfile(gomock.Any(), gomock.Any(), models.ProfileSyncRequest{
				Email:         "ada@example.com",
				EmailVerified: true,
			}).Return(&models.ProfileSyncResult{Created: true}, nil).Times(1),
			w.backend.EXPECT().FetchClaims(gomock.Any(), gomock.Any()).Return(student, nil).Times(1),
		)
	})

	testutil.When(t, "the subject signs in", func(t *testing.T) {
		_, err := w.provider.SignIn(context.Background(), adaPrincipal)
		require.NoError(t, err)
	})

	testutil.Then(t, "one profile sync and one retry yield student claims", func(t *testing.T) {
		st := w.harness.waitStatus(t, StatusReady)
		assert.Equal(t, id.RoleStudent, st.Claims.Role)
		assert.True(t, w.harness.manager.HasPermission(id.PermEnrollCourses))

		_, ok := w.cache.Fresh(requestcontext.WithTime(context.Background(), w.clock.Now()), "uid-ada")
		assert.True(t, ok, "resolved claims are cached")
	})
}

func TestInactivityLogout(t *testing.T) {
	w := newWorld(t, WithInactivity(30*time.Minute, 2*time.Millisecond))

	testutil.Given(t, "a signed-in subject with cached claims", func(t *testing.T) {
		ctx := requestcontext.WithTime(context.Background(), w.clock.Now())
		require.NoError(t, w.cache.Put(ctx, "uid-ada", instructorClaims()))
		_, err := w.provider.SignIn(context.Background(), adaPrincipal)
		require.NoError(t, err)
		w.harness.waitStatus(t, StatusReady)
	})

	testutil.When(t, "no activity is recorded for longer than the threshold", func(t *testing.T) {
		w.clock.Advance(31 * time.Minute)
	})

	testutil.Then(t, "the subject is logged out of the app and the provider", func(t *testing.T) {
		st := w.harness.waitStatus(t, StatusSignedOut)
		assert.Equal(t, inactivityMessage, st.Message)
		assert.Nil(t, st.Claims)
		require.Eventually(t, func() bool { return w.provider.Current() == nil }, time.Second, time.Millisecond)

		_, ok := w.cache.Fresh(requestcontext.WithTime(context.Background(), w.clock.Now()), "uid-ada")
		assert.False(t, ok, "cache is invalidated on logout")
	})
}
