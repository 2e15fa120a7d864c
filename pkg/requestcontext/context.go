// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// This package defines context keys and getter/setter functions for values that are
// typically set by middleware but consumed by services. By keeping this package free
// of net/http dependencies, services can import only what they need without pulling
// in HTTP-related code.
//
// Usage in services (read values):
//
//	subject := requestcontext.SubjectID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	id "coursegate/pkg/domain"
)

type (
	subjectIDKey     struct{}
	emailKey         struct{}
	emailVerifiedKey struct{}
	displayNameKey   struct{}
	requestIDKey     struct{}
	requestTimeKey   struct{}
)

// -----------------------------------------------------------------------------
// Principal (subject, email)
// -----------------------------------------------------------------------------

// SubjectID retrieves the authenticated subject from the context.
// Returns the zero value if not set.
func SubjectID(ctx context.Context) id.SubjectID {
	if subject, ok := ctx.Value(subjectIDKey{}).(id.SubjectID); ok {
		return subject
	}
	return ""
}

// WithSubjectID injects a subject into the context.
func WithSubjectID(ctx context.Context, subject id.SubjectID) context.Context {
	return context.WithValue(ctx, subjectIDKey{}, subject)
}

// Email retrieves the authenticated principal's email from the context.
func Email(ctx context.Context) string {
	if email, ok := ctx.Value(emailKey{}).(string); ok {
		return email
	}
	return ""
}

// EmailVerified reports the provider's verification flag for the principal.
func EmailVerified(ctx context.Context) bool {
	verified, _ := ctx.Value(emailVerifiedKey{}).(bool)
	return verified
}

// WithPrincipal injects the subject, email and verification flag together,
// which is what the auth middleware does after validating an ID token.
func WithPrincipal(ctx context.Context, subject id.SubjectID, email string, verified bool) context.Context {
	ctx = WithSubjectID(ctx, subject)
	ctx = context.WithValue(ctx, emailKey{}, email)
	return context.WithValue(ctx, emailVerifiedKey{}, verified)
}

// DisplayName is the principal's name from the ID token, if it carried one.
func DisplayName(ctx context.Context) string {
	name, _ := ctx.Value(displayNameKey{}).(string)
	return name
}

func WithDisplayName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, displayNameKey{}, name)
}

// -----------------------------------------------------------------------------
// Request metadata
// -----------------------------------------------------------------------------

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// -----------------------------------------------------------------------------
// Request time
// -----------------------------------------------------------------------------

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (for non-HTTP contexts like the session
// manager, CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
