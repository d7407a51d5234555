package events

import (
	"time"

	"github.com/spec-kit/mvura-console/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketCommentAdded  EventType = "ticket_comment_added"
	EventClientUpdated       EventType = "client_updated"
)

// Event represents a domain event emitted by services.
// TicketID is zero for events that are not about a ticket.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  int64     `json:"ticket_id,omitempty"`
	Actor     string    `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title    string                `json:"title"`
	Category domain.TicketCategory `json:"category"`
	Priority domain.TicketPriority `json:"priority"`
	ClientID string                `json:"client_id"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus      domain.TicketStatus `json:"old_status"`
	NewStatus      domain.TicketStatus `json:"new_status"`
	ResolutionNote string              `json:"resolution_note,omitempty"`
}

// TicketAssignedPayload payload. Empty strings mean unassigned.
type TicketAssignedPayload struct {
	PreviousAssignee string `json:"previous_assignee"`
	Assignee         string `json:"assignee"`
}

// TicketCommentAddedPayload payload.
type TicketCommentAddedPayload struct {
	CommentID   int64  `json:"comment_id"`
	Author      string `json:"author"`
	BodyPreview string `json:"body_preview"`
}

// ClientUpdatedPayload payload.
type ClientUpdatedPayload struct {
	ClientID string              `json:"client_id"`
	Name     string              `json:"name"`
	Status   domain.ClientStatus `json:"status"`
}
