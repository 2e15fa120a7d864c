package models

import (
	"time"

	id "coursegate/pkg/domain"
)

// Profile is the backend's database profile for a subject.
type Profile struct {
	SubjectID       id.SubjectID `json:"subjectId"`
	Email           string       `json:"email"`
	DisplayName     string       `json:"displayName,omitempty"`
	Role            id.Role      `json:"role"`
	EmailVerified   bool         `json:"emailVerified"`
	ProfileComplete bool         `json:"profileComplete"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

// ProfileSyncRequest asks the backend to provision a profile and default role
// for the token's subject. The subject itself comes from the token.
type ProfileSyncRequest struct {
	Email         string `json:"email"`
	DisplayName   string `json:"displayName,omitempty"`
	EmailVerified bool   `json:"emailVerified"`
}

// ProfileSyncResult reports whether the sync created the profile or found it.
type ProfileSyncResult struct {
	Profile Profile `json:"profile"`
	Created bool    `json:"created"`
}

// RouteAccessRequest asks whether the caller may open route.
type RouteAccessRequest struct {
	Route string `json:"route"`
}

// RouteAccessDecision is the backend's verdict on a route.
type RouteAccessDecision struct {
	Route               string          `json:"route"`
	Allowed             bool            `json:"allowed"`
	Reason              string          `json:"reason,omitempty"`
	RequiredRoles       []id.Role       `json:"requiredRoles,omitempty"`
	RequiredPermissions []id.Permission `json:"requiredPermissions,omitempty"`
}
