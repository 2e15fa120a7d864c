package models

import (
	"time"

	claims "coursegate/internal/claims/models"
	id "coursegate/pkg/domain"
)

// Record is one row of the server-side role table.
type Record struct {
	SubjectID     id.SubjectID
	Email         string
	DisplayName   string
	Role          id.Role
	Permissions   id.PermissionSet
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ProfileComplete reports whether registration collected everything the
// platform needs beyond the identity-provider account.
func (r *Record) ProfileComplete() bool {
	return r.DisplayName != "" && r.Email != ""
}

// Claims projects the record onto the claims wire form.
func (r *Record) Claims() *claims.Claims {
	return &claims.Claims{
		Role:            r.Role,
		Permissions:     r.Permissions.Clone(),
		ProfileComplete: r.ProfileComplete(),
		EmailVerified:   r.EmailVerified,
	}
}

func (r *Record) Profile() claims.Profile {
	return claims.Profile{
		SubjectID:       r.SubjectID,
		Email:           r.Email,
		DisplayName:     r.DisplayName,
		Role:            r.Role,
		EmailVerified:   r.EmailVerified,
		ProfileComplete: r.ProfileComplete(),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	out.Permissions = r.Permissions.Clone()
	return &out
}

// NewStudent provisions a record with the default role for new subjects.
func NewStudent(subject id.SubjectID, email, displayName string, emailVerified bool, now time.Time) *Record {
	return &Record{
		SubjectID:     subject,
		Email:         email,
		DisplayName:   displayName,
		Role:          id.RoleStudent,
		Permissions:   id.DefaultPermissions(id.RoleStudent),
		EmailVerified: emailVerified,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// RoleAssignment is an admin change to a subject's role. Nil Permissions
// means the role's defaults.
type RoleAssignment struct {
	Role        id.Role
	Permissions id.PermissionSet
}
