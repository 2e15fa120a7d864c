package httptransport

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	claims "coursegate/internal/claims/models"
	jwttoken "coursegate/internal/jwt_token"
	"coursegate/internal/roles/metrics"
	"coursegate/internal/roles/models"
	"coursegate/internal/roles/service"
	"coursegate/internal/roles/store"
	id "coursegate/pkg/domain"
	"coursegate/pkg/requestcontext"
	"coursegate/pkg/testutil"
)

type routerFixture struct {
	server *httptest.Server
	tokens *jwttoken.JWTService
	roles  *service.Service
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	reg := prometheus.NewRegistry()
	roles := service.New(store.NewInMemory(), service.WithMetrics(metrics.New(reg)))
	tokens := jwttoken.NewJWTService("router-key", "coursegate-dev", "coursegate")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	srv := httptest.NewServer(NewRouter(RouterConfig{
		Claims:         roles,
		Roles:          roles,
		TokenValidator: jwttoken.NewJWTServiceAdapter(tokens),
		Gatherer:       reg,
		Logger:         logger,
		ProfileMaxAge:  time.Minute,
	}))
	t.Cleanup(srv.Close)
	return &routerFixture{server: srv, tokens: tokens, roles: roles}
}

func (f *routerFixture) request(t *testing.T, method, path, subject, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, f.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if subject != "" {
		raw, _, err := f.tokens.GenerateIDToken(jwttoken.Principal{
			SubjectID:     id.SubjectID(subject),
			Email:         subject + "@example.com",
			EmailVerified: true,
		}, time.Hour)
		require.NoError(t, err)
		testutil.WithBearer(req, raw)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestRouterPublicEndpoints(t *testing.T) {
	f := newRouterFixture(t)

	resp := f.request(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp = f.request(t, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouterRequiresBearerToken(t *testing.T) {
	f := newRouterFixture(t)

	resp := f.request(t, http.MethodGet, "/auth/claims", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, f.server.URL+"/auth/claims", nil)
	require.NoError(t, err)
	bad, err := http.DefaultClient.Do(testutil.WithBearer(req, "not-a-jwt"))
	require.NoError(t, err)
	defer bad.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, bad.StatusCode)
}

func TestRouterClaimsLifecycle(t *testing.T) {
	f := newRouterFixture(t)

	resp := f.request(t, http.MethodGet, "/auth/claims", "uid-ada", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), errorCodeRoleNotAssigned)

	resp = f.request(t, http.MethodPost, "/auth/profile/sync", "uid-ada", `{"displayName":"Ada"}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = f.request(t, http.MethodGet, "/auth/claims", "uid-ada", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ = io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `"role":"STUDENT"`)
	assert.Contains(t, string(body), `"profileComplete":true`)
}

func TestRouterAdminGate(t *testing.T) {
	f := newRouterFixture(t)
	ctx := requestcontext.WithTime(t.Context(), time.Now())

	for _, subject := range []id.SubjectID{"uid-admin", "uid-student"} {
		_, err := f.roles.SyncProfile(ctx, subject, claims.ProfileSyncRequest{})
		require.NoError(t, err)
	}
	_, err := f.roles.AssignRole(ctx, "uid-admin", models.RoleAssignment{Role: id.RoleAdmin})
	require.NoError(t, err)

	resp := f.request(t, http.MethodPut, "/admin/roles/uid-student", "uid-student", `{"role":"ADMIN"}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "students cannot promote themselves")

	resp = f.request(t, http.MethodPut, "/admin/roles/uid-student", "uid-nobody", `{"role":"ADMIN"}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "subjects without a role are refused")

	resp = f.request(t, http.MethodPut, "/admin/roles/uid-student", "uid-admin", `{"role":"INSTRUCTOR"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	got, err := f.roles.Claims(ctx, "uid-student")
	require.NoError(t, err)
	assert.Equal(t, id.RoleInstructor, got.Role)
}
