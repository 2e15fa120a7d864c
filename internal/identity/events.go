package identity

import (
	"time"

	"golang.org/x/oauth2"

	"coursegate/internal/claims/models"
)

// EventKind is an authentication state transition.
type EventKind string

const (
	EventSignedIn  EventKind = "signed_in"
	EventSignedOut EventKind = "signed_out"
)

// AuthEvent is published to subscribers on every sign-in and sign-out.
// Tokens is nil for sign-out events.
type AuthEvent struct {
	Kind    EventKind
	Session *models.Session
	Tokens  oauth2.TokenSource
	At      time.Time
}
