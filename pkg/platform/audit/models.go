package audit

import (
	"context"
	"time"

	id "coursegate/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategoryCompliance covers changes to who may do what. Writes are
	// synchronous and fail closed.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers access violations. Writes are buffered and may
	// be dropped under pressure.
	CategorySecurity EventCategory = "security"
)

// Event is emitted from domain logic to capture key actions.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	Subject   id.SubjectID
	Action    AuditEvent
	Decision  string
	Reason    string
	RequestID string
	// ActorID is the administrator acting on Subject, when different.
	ActorID id.SubjectID
	// ClientIP and Device describe where the request came from.
	ClientIP string
	Device   string
}

type AuditEvent string

const (
	EventProfileProvisioned AuditEvent = "profile_provisioned"
	EventRoleAssigned       AuditEvent = "role_assigned"
	EventRouteDenied        AuditEvent = "route_access_denied"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventProfileProvisioned: CategoryCompliance,
	EventRoleAssigned:       CategoryCompliance,
	EventRouteDenied:        CategorySecurity,
}

// Category returns the EventCategory for this audit event.
// Unknown events are treated as security events.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategorySecurity
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListBySubject(ctx context.Context, subject id.SubjectID) ([]Event, error)
}
