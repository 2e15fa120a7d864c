package session

import (
	"time"

	"coursegate/internal/claims/models"
)

// Status is the authorization state of the application.
type Status string

const (
	StatusSignedOut Status = "signed_out"
	StatusResolving Status = "resolving"
	StatusReady     Status = "ready"
	StatusLocked    Status = "locked"
)

// State is an immutable snapshot published by the manager. Session and
// Claims are shared between readers and must be treated as read-only.
type State struct {
	Status    Status
	Session   *models.Session
	Claims    *models.Claims
	Message   string
	UpdatedAt time.Time
}

// Authenticated reports whether a user is signed in, regardless of whether
// claims have been resolved.
func (s State) Authenticated() bool {
	return s.Session != nil
}

func signedOut(now time.Time, message string) State {
	return State{Status: StatusSignedOut, Message: message, UpdatedAt: now}
}
