// Package client talks to the backend endpoints behind claims resolution:
// claims fetch, profile sync, profile fetch and route-access checks.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gregjones/httpcache"
	"golang.org/x/oauth2"

	"coursegate/internal/claims/models"
	dErrors "coursegate/pkg/domain-errors"
	"coursegate/pkg/platform/sentinel"
)

// ErrNoRole is returned by FetchClaims when the backend has no role for the
// subject. It matches sentinel.ErrNotFound so callers need not import this package.
var ErrNoRole = fmt.Errorf("no role assigned: %w", sentinel.ErrNotFound)

// Backend error codes that carry meaning for the client.
const errorCodeRoleNotAssigned = "role_not_assigned"

const (
	pathClaims      = "/auth/claims"
	pathProfile     = "/auth/profile"
	pathProfileSync = "/auth/profile/sync"
	pathRouteAccess = "/auth/route-access"

	defaultTimeout  = 10 * time.Second
	maxResponseBody = 1 << 20
)

// Client is the HTTP client for the claims backend.
type Client struct {
	baseURL       *url.URL
	httpClient    *http.Client
	profileClient *http.Client
	profileCache  httpcache.Cache
	logger        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the client used for uncached calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithProfileCache backs profile fetches with cache. Responses are cached per
// Cache-Control and keyed on the Authorization header through Vary.
func WithProfileCache(cache httpcache.Cache) Option {
	return func(c *Client) {
		if cache != nil {
			c.profileCache = cache
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New constructs a Client for baseURL. Profile fetches use an in-memory
// httpcache transport unless WithProfileCache supplies another cache.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid backend base url")
	}
	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.profileCache == nil {
		c.profileCache = httpcache.NewMemoryCache()
	}
	t := httpcache.NewTransport(c.profileCache)
	if c.httpClient.Transport != nil {
		t.Transport = c.httpClient.Transport
	}
	c.profileClient = &http.Client{Transport: t, Timeout: c.httpClient.Timeout}
	return c, nil
}

// FetchClaims returns the subject's claims. A subject with no server-side
// role yields an error matching ErrNoRole.
func (c *Client) FetchClaims(ctx context.Context, tok *oauth2.Token) (*models.Claims, error) {
	var claims models.Claims
	if err := c.do(ctx, c.httpClient, http.MethodGet, pathClaims, tok, nil, &claims); err != nil {
		return nil, err
	}
	if claims.Role == "" {
		return nil, dErrors.Wrap(ErrNoRole, dErrors.CodeNotFound, "claims carry no role")
	}
	return &claims, nil
}

// SyncProfile provisions the backend profile and default role for the token's subject.
func (c *Client) SyncProfile(ctx context.Context, tok *oauth2.Token, req models.ProfileSyncRequest) (*models.ProfileSyncResult, error) {
	var res models.ProfileSyncResult
	if err := c.do(ctx, c.httpClient, http.MethodPost, pathProfileSync, tok, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// FetchProfile returns the subject's profile, served from the HTTP cache when fresh.
func (c *Client) FetchProfile(ctx context.Context, tok *oauth2.Token) (*models.Profile, error) {
	var profile models.Profile
	if err := c.do(ctx, c.profileClient, http.MethodGet, pathProfile, tok, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// CheckRouteAccess asks the backend whether the subject may open route.
func (c *Client) CheckRouteAccess(ctx context.Context, tok *oauth2.Token, route string) (*models.RouteAccessDecision, error) {
	var decision models.RouteAccessDecision
	req := models.RouteAccessRequest{Route: route}
	if err := c.do(ctx, c.httpClient, http.MethodPost, pathRouteAccess, tok, req, &decision); err != nil {
		return nil, err
	}
	return &decision, nil
}

type errorEnvelope struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, tok *oauth2.Token, body, out any) error {
	if tok == nil || tok.AccessToken == "" {
		return dErrors.New(dErrors.CodeUnauthorized, "identity token required")
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "encode request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.JoinPath(path).String(), reader)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	tok.SetAuthHeader(req)

	resp, err := hc.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "claims backend request failed", "path", path, "error", err)
		return dErrors.Wrap(err, dErrors.CodeClaimsUnavailable, "claims backend unreachable")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeClaimsUnavailable, "read backend response")
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return c.statusError(ctx, path, resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return dErrors.Wrap(err, dErrors.CodeClaimsUnavailable, "decode backend response")
	}
	return nil
}

func (c *Client) statusError(ctx context.Context, path string, status int, raw []byte) error {
	var env errorEnvelope
	_ = json.Unmarshal(raw, &env)

	switch {
	case status == http.StatusNotFound && env.Error == errorCodeRoleNotAssigned:
		return dErrors.Wrap(ErrNoRole, dErrors.CodeNotFound, "no role assigned")
	case status == http.StatusUnauthorized:
		return dErrors.New(dErrors.CodeUnauthorized, "identity token rejected")
	case status == http.StatusForbidden:
		return dErrors.New(dErrors.CodeForbidden, "access denied")
	case status == http.StatusNotFound:
		return dErrors.New(dErrors.CodeNotFound, "not found")
	case status < http.StatusInternalServerError:
		return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("backend rejected request: %d %s", status, env.Error))
	default:
		c.logger.WarnContext(ctx, "claims backend error", "path", path, "status", status, "error_code", env.Error)
		return dErrors.New(dErrors.CodeClaimsUnavailable, fmt.Sprintf("backend error: %d", status))
	}
}
