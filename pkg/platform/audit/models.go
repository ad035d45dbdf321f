package audit

import (
	"context"
	"time"
)

// Action names a domain event worth recording for operators and compliance.
type Action string

const (
	// Session / profile
	ActionProfileCreated       Action = "profile_created"
	ActionProfileCreateFailed  Action = "profile_create_failed"
	ActionRoleCorrected        Action = "privileged_role_corrected"
	ActionSessionResolved      Action = "session_resolved"
	ActionPendingRoleRequested Action = "pending_role_requested"

	// Listings
	ActionPropertyCreated       Action = "property_created"
	ActionPropertyUpdated       Action = "property_updated"
	ActionPropertyStatusChanged Action = "property_status_changed"
	ActionPropertyDeleted       Action = "property_deleted"
	ActionVoteRecorded          Action = "vote_recorded"

	// Messaging / notifications
	ActionMessageSent         Action = "message_sent"
	ActionNotificationCreated Action = "notification_created"
)

// Event is emitted from service code. Keep it transport-agnostic so the
// log and Kafka sinks can share it.
type Event struct {
	Action    Action            `json:"action"`
	Timestamp time.Time         `json:"timestamp"`
	UserID    string            `json:"user_id,omitempty"`
	Subject   string            `json:"subject,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	Device    string            `json:"device,omitempty"`
	Attrs     map[string]string `json:"attrs,omitempty"`
}

// Publisher accepts events. Implementations must be safe for concurrent use.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}
