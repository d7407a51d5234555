package domain

import "time"

// TicketChangeType captures what changed in a history entry.
type TicketChangeType string

const (
	ChangeTypeCreated  TicketChangeType = "CREATED"
	ChangeTypeStatus   TicketChangeType = "STATUS_CHANGE"
	ChangeTypeAssignee TicketChangeType = "ASSIGNEE_CHANGE"
	ChangeTypeComment  TicketChangeType = "COMMENT_ADDED"
)

// TicketHistory is an immutable audit trail entry.
type TicketHistory struct {
	ID         string           `json:"id"`
	TicketID   int64            `json:"ticket_id"`
	Actor      string           `json:"actor"`
	ChangeType TicketChangeType `json:"change_type"`
	OldValue   map[string]any   `json:"old_value,omitempty"`
	NewValue   map[string]any   `json:"new_value,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}
