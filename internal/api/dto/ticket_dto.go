package dto

import (
	"github.com/spec-kit/mvura-console/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
	ClientID    string `json:"client_id"`
}

// AddCommentRequest payload. Author defaults to the signed-in operator.
type AddCommentRequest struct {
	Author string `json:"author"`
	Body   string `json:"body"`
}

// ChangeStatusRequest payload.
type ChangeStatusRequest struct {
	Status         string `json:"status"`
	ResolutionNote string `json:"resolution_note"`
}

// ReassignRequest payload. A null or empty agent unassigns the ticket.
type ReassignRequest struct {
	Agent *string `json:"agent"`
}

// TicketListResponse is one page of the ticket table.
type TicketListResponse struct {
	Items    []domain.TicketSnapshot `json:"items"`
	Total    int                     `json:"total"`
	Page     int                     `json:"page"`
	PageSize int                     `json:"page_size"`
}
