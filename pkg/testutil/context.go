package testutil

import (
	"net/http"

	id "coursegate/pkg/domain"
	"coursegate/pkg/requestcontext"
)

// WithPrincipal attaches an authenticated principal to req, as the auth
// middleware does after validating an ID token.
func WithPrincipal(req *http.Request, subject id.SubjectID, email string, verified bool) *http.Request {
	ctx := requestcontext.WithPrincipal(req.Context(), subject, email, verified)
	return req.WithContext(ctx)
}
