// Package admin gates administrative routes on the caller's claims.
package admin

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	dErrors "coursegate/pkg/domain-errors"
	request "coursegate/pkg/platform/middleware/request"
	"coursegate/pkg/requestcontext"
)

// Authorizer decides whether the authenticated caller in ctx may proceed.
type Authorizer interface {
	Authorize(ctx context.Context) error
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(ctx context.Context) error

func (f AuthorizerFunc) Authorize(ctx context.Context) error { return f(ctx) }

// RequireAuthorized rejects requests the authorizer refuses. It must run
// after the auth middleware has placed the subject in the context.
func RequireAuthorized(authz Authorizer, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			err := authz.Authorize(ctx)
			if err == nil {
				next.ServeHTTP(w, r)
				return
			}

			code := dErrors.CodeOf(err)
			status := dErrors.ToHTTPStatus(code)
			if status != http.StatusUnauthorized && status != http.StatusForbidden {
				code, status = dErrors.CodeForbidden, http.StatusForbidden
			}
			logger.WarnContext(ctx, "admin access denied",
				"subject", requestcontext.SubjectID(ctx).String(),
				"request_id", request.GetRequestID(ctx),
				"error", err,
			)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error":             string(code),
				"error_description": dErrors.UserMessage(dErrors.New(code, "")),
			})
		})
	}
}
