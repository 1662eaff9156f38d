package membership

import "fmt"

// EventType names the domain event that triggered a queue message.
type EventType string

const (
	EventMemberJoined        EventType = "MEMBER_JOINED"
	EventMemberBlocked       EventType = "MEMBER_BLOCKED"
	EventMemberUnblocked     EventType = "MEMBER_UNBLOCKED"
	EventMemberOverdue       EventType = "MEMBER_OVERDUE"
	EventMemberProspect      EventType = "MEMBER_PROSPECT"
	EventCancellationCreated EventType = "CANCELLATION_CREATED"
	EventCancellationRevoked EventType = "CANCELLATION_REVOKED"
)

// EventKind selects the processing path for an event.
type EventKind int

const (
	KindMember EventKind = iota + 1
	KindProspect
)

// Kind maps every supported event type to its processing path. New event
// types must be added here before the processor will accept them.
func (t EventType) Kind() (EventKind, error) {
	switch t {
	case EventMemberJoined,
		EventMemberBlocked,
		EventMemberUnblocked,
		EventMemberOverdue,
		EventCancellationCreated,
		EventCancellationRevoked:
		return KindMember, nil
	case EventMemberProspect:
		return KindProspect, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedEventType, string(t))
	}
}

// WebhookType classifies a member notification for the receiver.
type WebhookType string

const (
	WebhookJoiner       WebhookType = "joiner"
	WebhookStatusUpdate WebhookType = "status-update"
)

// WebhookType returns joiner for new members and status-update otherwise.
func (t EventType) WebhookType() WebhookType {
	if t == EventMemberJoined {
		return WebhookJoiner
	}
	return WebhookStatusUpdate
}
