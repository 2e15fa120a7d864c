package httptransport

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"coursegate/internal/claims/models"
	rolemodels "coursegate/internal/roles/models"
	"coursegate/internal/transport/http/mocks"
	id "coursegate/pkg/domain"
	dErrors "coursegate/pkg/domain-errors"
	"coursegate/pkg/platform/sentinel"
	"coursegate/pkg/requestcontext"
	"coursegate/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	ctrl   *gomock.Controller
	claims *mocks.MockClaimsService
	roles  *mocks.MockRoleAdmin
	router chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.claims = mocks.NewMockClaimsService(s.ctrl)
	s.roles = mocks.NewMockRoleAdmin(s.ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.router = chi.NewRouter()
	NewClaimsHandler(s.claims, logger, time.Minute).Register(s.router)
	NewAdminHandler(s.roles, logger).Register(s.router)
}

// do sends a request as the verified subject uid-ada.
func (s *HandlerSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var req *http.Request
	switch b := body.(type) {
	case nil:
		req = testutil.NewRequest(s.T(), method, path)
	case string:
		req = testutil.NewRequestWithBody(s.T(), method, path, b)
	default:
		req = testutil.NewJSONRequest(s.T(), method, path, b)
	}
	return testutil.DoRequest(s.router, testutil.WithPrincipal(req, "uid-ada", "ada@example.com", true))
}

func (s *HandlerSuite) decodeError(rec *httptest.ResponseRecorder) errorResponse {
	var out errorResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (s *HandlerSuite) TestClaims() {
	s.Run("200 with wire form", func() {
		s.claims.EXPECT().Claims(gomock.Any(), id.SubjectID("uid-ada")).Return(&models.Claims{
			Role:          id.RoleStudent,
			Permissions:   id.DefaultPermissions(id.RoleStudent),
			EmailVerified: true,
		}, nil)

		rec := s.do(http.MethodGet, "/auth/claims", nil)
		s.Equal(http.StatusOK, rec.Code)
		s.Equal("no-store", rec.Header().Get("Cache-Control"))
		s.JSONEq(`{"role":"STUDENT","permissions":["ENROLL_COURSES","VIEW_COURSES"],"profileComplete":false,"emailVerified":true}`, rec.Body.String())
	})

	s.Run("404 role_not_assigned when no row", func() {
		s.claims.EXPECT().Claims(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeNotFound, "role_not_assigned"))

		rec := s.do(http.MethodGet, "/auth/claims", nil)
		s.Equal(http.StatusNotFound, rec.Code)
		s.Equal(errorCodeRoleNotAssigned, s.decodeError(rec).Error)
	})

	s.Run("500 hides internals", func() {
		s.claims.EXPECT().Claims(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.Wrap(errors.New("pq: connection refused"), dErrors.CodeInternal, "failed to load role"))

		rec := s.do(http.MethodGet, "/auth/claims", nil)
		s.Equal(http.StatusInternalServerError, rec.Code)
		s.NotContains(rec.Body.String(), "pq:")
	})
}

func (s *HandlerSuite) TestSyncProfile() {
	s.Run("token email and verification win over the body", func() {
		s.claims.EXPECT().SyncProfile(gomock.Any(), id.SubjectID("uid-ada"), models.ProfileSyncRequest{
			Email:         "ada@example.com",
			DisplayName:   "Ada",
			EmailVerified: true,
		}).Return(&models.ProfileSyncResult{Created: true}, nil)

		rec := s.do(http.MethodPost, "/auth/profile/sync", map[string]any{
			"email":         "mallory@example.com",
			"displayName":   "Ada",
			"emailVerified": false,
		})
		s.Equal(http.StatusCreated, rec.Code)
	})

	s.Run("existing profile is 200", func() {
		s.claims.EXPECT().SyncProfile(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(&models.ProfileSyncResult{Created: false}, nil)
		rec := s.do(http.MethodPost, "/auth/profile/sync", map[string]any{})
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("token name fills a missing display name", func() {
		s.claims.EXPECT().SyncProfile(gomock.Any(), id.SubjectID("uid-ada"), models.ProfileSyncRequest{
			Email:         "ada@example.com",
			DisplayName:   "Ada Lovelace",
			EmailVerified: true,
		}).Return(&models.ProfileSyncResult{Created: true}, nil)

		req := testutil.WithPrincipal(testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/profile/sync", map[string]any{}),
			"uid-ada", "ada@example.com", true)
		req = req.WithContext(requestcontext.WithDisplayName(req.Context(), "Ada Lovelace"))
		rec := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusCreated, rec.Code)
	})

	s.Run("malformed body is 400", func() {
		rec := s.do(http.MethodPost, "/auth/profile/sync", "{not json")
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal(string(dErrors.CodeBadRequest), s.decodeError(rec).Error)
	})

	s.Run("unknown field is 400", func() {
		rec := s.do(http.MethodPost, "/auth/profile/sync", `{"role":"ADMIN"}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("control characters in display name are rejected", func() {
		rec := s.do(http.MethodPost, "/auth/profile/sync", map[string]any{"displayName": "Ada\x00"})
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal(string(dErrors.CodeInvalidInput), s.decodeError(rec).Error)
	})
}

func (s *HandlerSuite) TestProfileIsPrivatelyCacheable() {
	s.claims.EXPECT().Profile(gomock.Any(), id.SubjectID("uid-ada")).Return(&models.Profile{
		SubjectID: "uid-ada",
		Email:     "ada@example.com",
		Role:      id.RoleStudent,
	}, nil)

	rec := s.do(http.MethodGet, "/auth/profile", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("private, max-age=60", rec.Header().Get("Cache-Control"))
	s.Equal("Authorization", rec.Header().Get("Vary"))
}

func (s *HandlerSuite) TestRouteAccess() {
	s.Run("decision is returned", func() {
		s.claims.EXPECT().CheckRouteAccess(gomock.Any(), id.SubjectID("uid-ada"), "/courses/new").
			Return(&models.RouteAccessDecision{Route: "/courses/new", Allowed: false, Reason: "role not permitted"}, nil)

		rec := s.do(http.MethodPost, "/auth/route-access", models.RouteAccessRequest{Route: "/courses/new"})
		s.Equal(http.StatusOK, rec.Code)
		var got models.RouteAccessDecision
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &got))
		s.False(got.Allowed)
	})

	s.Run("invalid route is 400", func() {
		rec := s.do(http.MethodPost, "/auth/route-access", models.RouteAccessRequest{Route: ""})
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlerSuite) TestAssignRole() {
	s.Run("permissions are deduplicated and parsed", func() {
		s.roles.EXPECT().AssignRole(gomock.Any(), id.SubjectID("uid-bob"), rolemodels.RoleAssignment{
			Role:        id.RoleInstructor,
			Permissions: id.NewPermissionSet(id.PermViewCourses, id.PermCreateCourses),
		}).Return(&models.Profile{SubjectID: "uid-bob", Role: id.RoleInstructor}, nil)

		rec := s.do(http.MethodPut, "/admin/roles/uid-bob", map[string]any{
			"role":        "INSTRUCTOR",
			"permissions": []string{" VIEW_COURSES", "CREATE_COURSES", "VIEW_COURSES", ""},
		})
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("omitted permissions mean role defaults", func() {
		s.roles.EXPECT().AssignRole(gomock.Any(), id.SubjectID("uid-bob"), rolemodels.RoleAssignment{Role: id.RoleAdmin}).
			Return(&models.Profile{SubjectID: "uid-bob", Role: id.RoleAdmin}, nil)

		rec := s.do(http.MethodPut, "/admin/roles/uid-bob", map[string]any{"role": "ADMIN"})
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("unknown role is 400", func() {
		rec := s.do(http.MethodPut, "/admin/roles/uid-bob", map[string]any{"role": "OWNER"})
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("unknown permission is 400", func() {
		rec := s.do(http.MethodPut, "/admin/roles/uid-bob", map[string]any{"role": "ADMIN", "permissions": []string{"FLY"}})
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("unknown subject is 404", func() {
		s.roles.EXPECT().AssignRole(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeNotFound, "role_not_assigned"))
		rec := s.do(http.MethodPut, "/admin/roles/uid-x", map[string]any{"role": "ADMIN"})
		s.Equal(http.StatusNotFound, rec.Code)
	})
}
