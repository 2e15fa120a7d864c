package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"
	"golang.org/x/oauth2"

	"coursegate/internal/claims/models"
	id "coursegate/pkg/domain"
	dErrors "coursegate/pkg/domain-errors"
)

type ClientSuite struct {
	suite.Suite
	mux          *http.ServeMux
	server       *httptest.Server
	client       *Client
	tok          *oauth2.Token
	profileCalls atomic.Int32
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.mux = http.NewServeMux()
	s.server = httptest.NewServer(s.mux)
	s.profileCalls.Store(0)
	c, err := New(s.server.URL + "/")
	s.Require().NoError(err)
	s.client = c
	s.tok = &oauth2.Token{AccessToken: "id-token-1", TokenType: "Bearer"}
}

func (s *ClientSuite) TearDownTest() {
	s.server.Close()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *ClientSuite) TestFetchClaims() {
	s.mux.HandleFunc("GET /auth/claims", func(w http.ResponseWriter, r *http.Request) {
		s.Equal("Bearer id-token-1", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{
			"role":            "INSTRUCTOR",
			"permissions":     []string{"VIEW_COURSES", "CREATE_COURSES"},
			"profileComplete": true,
			"emailVerified":   true,
		})
	})

	claims, err := s.client.FetchClaims(context.Background(), s.tok)
	s.Require().NoError(err)
	s.Equal(id.RoleInstructor, claims.Role)
	s.True(claims.Permissions.Has(id.PermCreateCourses))
	s.True(claims.ProfileComplete)
}

func (s *ClientSuite) TestFetchClaimsNoRole() {
	s.Run("404 role_not_assigned", func() {
		s.mux.HandleFunc("GET /auth/claims", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "role_not_assigned"})
		})
		_, err := s.client.FetchClaims(context.Background(), s.tok)
		s.Require().Error(err)
		s.True(errors.Is(err, ErrNoRole))
	})
}

func (s *ClientSuite) TestFetchClaimsEmptyRole() {
	s.mux.HandleFunc("GET /auth/claims", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"role": "", "permissions": []string{}})
	})
	_, err := s.client.FetchClaims(context.Background(), s.tok)
	s.True(errors.Is(err, ErrNoRole))
}

func (s *ClientSuite) TestFetchClaimsUnknownRoleIsUnavailable() {
	s.mux.HandleFunc("GET /auth/claims", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"role": "ROOT"})
	})
	_, err := s.client.FetchClaims(context.Background(), s.tok)
	s.True(dErrors.HasCode(err, dErrors.CodeClaimsUnavailable))
}

func (s *ClientSuite) TestStatusMapping() {
	statuses := map[int]dErrors.Code{
		http.StatusUnauthorized:        dErrors.CodeUnauthorized,
		http.StatusForbidden:           dErrors.CodeForbidden,
		http.StatusNotFound:            dErrors.CodeNotFound,
		http.StatusBadRequest:          dErrors.CodeBadRequest,
		http.StatusInternalServerError: dErrors.CodeClaimsUnavailable,
		http.StatusBadGateway:          dErrors.CodeClaimsUnavailable,
	}
	var status atomic.Int32
	s.mux.HandleFunc("POST /auth/route-access", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, int(status.Load()), map[string]string{"error": "boom"})
	})
	for code, want := range statuses {
		status.Store(int32(code))
		_, err := s.client.CheckRouteAccess(context.Background(), s.tok, "/admin")
		s.True(dErrors.HasCode(err, want), "status %d", code)
		s.False(errors.Is(err, ErrNoRole))
	}
}

func (s *ClientSuite) TestNetworkFailureIsUnavailable() {
	s.server.Close()
	_, err := s.client.FetchClaims(context.Background(), s.tok)
	s.True(dErrors.HasCode(err, dErrors.CodeClaimsUnavailable))
}

func (s *ClientSuite) TestMissingToken() {
	_, err := s.client.FetchClaims(context.Background(), nil)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	_, err = s.client.FetchClaims(context.Background(), &oauth2.Token{})
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ClientSuite) TestSyncProfile() {
	s.mux.HandleFunc("POST /auth/profile/sync", func(w http.ResponseWriter, r *http.Request) {
		var req models.ProfileSyncRequest
		s.Require().NoError(json.NewDecoder(r.Body).Decode(&req))
		s.Equal("ada@example.com", req.Email)
		writeJSON(w, http.StatusOK, models.ProfileSyncResult{
			Profile: models.Profile{SubjectID: "uid-1", Email: req.Email, Role: id.RoleStudent},
			Created: true,
		})
	})
	res, err := s.client.SyncProfile(context.Background(), s.tok, models.ProfileSyncRequest{Email: "ada@example.com"})
	s.Require().NoError(err)
	s.True(res.Created)
	s.Equal(id.RoleStudent, res.Profile.Role)
}

func (s *ClientSuite) TestFetchProfileIsCachedPerToken() {
	s.mux.HandleFunc("GET /auth/profile", func(w http.ResponseWriter, r *http.Request) {
		s.profileCalls.Add(1)
		w.Header().Set("Cache-Control", "private, max-age=60")
		w.Header().Set("Vary", "Authorization")
		writeJSON(w, http.StatusOK, models.Profile{SubjectID: "uid-1", Email: "ada@example.com", Role: id.RoleStudent})
	})

	ctx := context.Background()
	for range 3 {
		p, err := s.client.FetchProfile(ctx, s.tok)
		s.Require().NoError(err)
		s.Equal(id.SubjectID("uid-1"), p.SubjectID)
	}
	s.Equal(int32(1), s.profileCalls.Load())

	other := &oauth2.Token{AccessToken: "id-token-2", TokenType: "Bearer"}
	_, err := s.client.FetchProfile(ctx, other)
	s.Require().NoError(err)
	s.Equal(int32(2), s.profileCalls.Load(), "a different Authorization must not reuse the cached profile")
}

func TestNewRejectsBadURL(t *testing.T) {
	for _, raw := range []string{"", "not a url", "/relative"} {
		if _, err := New(raw); err == nil {
			t.Errorf("expected error for %q", raw)
		}
	}
}
