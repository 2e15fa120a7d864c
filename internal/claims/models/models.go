package models

import (
	"time"

	id "coursegate/pkg/domain"
)

// Session is the identity-provider principal for the signed-in user.
// Created on a sign-in event and discarded on sign-out.
type Session struct {
	SubjectID     id.SubjectID `json:"subjectId"`
	Email         string       `json:"email"`
	EmailVerified bool         `json:"emailVerified"`
	Name          string       `json:"name,omitempty"`
	SignedInAt    time.Time    `json:"signedInAt"`
}

// Claims is the server-asserted role and permission payload for a subject.
type Claims struct {
	Role            id.Role          `json:"role"`
	Permissions     id.PermissionSet `json:"permissions"`
	ProfileComplete bool             `json:"profileComplete"`
	EmailVerified   bool             `json:"emailVerified"`
}

// Clone returns a deep copy so callers can hand claims across goroutines
// without sharing the permission map.
func (c *Claims) Clone() *Claims {
	if c == nil {
		return nil
	}
	out := *c
	out.Permissions = c.Permissions.Clone()
	return &out
}

// CacheEntry is the persisted claims snapshot for one subject.
// Invariant: Timestamp never moves backwards for the same SubjectID.
type CacheEntry struct {
	SubjectID id.SubjectID `json:"subjectId"`
	Claims    *Claims      `json:"claims"`
	Timestamp time.Time    `json:"timestamp"`
}

// Age reports how old the entry is at now. Negative when the timestamp is in the future.
func (e *CacheEntry) Age(now time.Time) time.Duration {
	return now.Sub(e.Timestamp)
}

// FreshAt reports whether the entry belongs to subject and is within window at now.
// Entries stamped in the future are never fresh.
func (e *CacheEntry) FreshAt(subject id.SubjectID, now time.Time, window time.Duration) bool {
	if e == nil || e.Claims == nil || e.SubjectID != subject {
		return false
	}
	age := e.Age(now)
	return age >= 0 && age < window
}
