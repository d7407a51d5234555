package domain

import (
	"strings"

	apperrors "github.com/spec-kit/mvura-console/pkg/util/errorutil"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// TicketStatuses lists every status in display order.
var TicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusInProgress,
	TicketStatusResolved,
	TicketStatusClosed,
}

// allowedTransitions is the full transition table. Closed only reopens.
var allowedTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusOpen:       {TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed},
	TicketStatusInProgress: {TicketStatusOpen, TicketStatusResolved, TicketStatusClosed},
	TicketStatusResolved:   {TicketStatusOpen, TicketStatusInProgress, TicketStatusClosed},
	TicketStatusClosed:     {TicketStatusOpen},
}

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// CanTransitionTo reports whether moving from s to next is in the table.
func (s TicketStatus) CanTransitionTo(next TicketStatus) bool {
	for _, candidate := range allowedTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ParseTicketStatus accepts OPEN, open, in-progress, "in progress" and so on.
func ParseTicketStatus(raw string) (TicketStatus, error) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	status := TicketStatus(normalized)
	if !status.Valid() {
		return "", apperrors.NewValidationError("unknown ticket status", map[string]any{"status": raw})
	}
	return status, nil
}

// statusChange is the outcome of planning a transition. Nothing is applied
// until the plan is accepted, so a rejected command leaves the ticket as it was.
type statusChange struct {
	from           TicketStatus
	to             TicketStatus
	resolutionNote string
	closing        bool
	reopening      bool
}

// planStatusChange runs the status rules in order: no-op, legality, note.
func planStatusChange(current, next TicketStatus, resolutionNote string) (statusChange, error) {
	if !next.Valid() {
		return statusChange{}, apperrors.NewValidationError("unknown ticket status", map[string]any{"status": string(next)})
	}
	if current == next {
		return statusChange{}, apperrors.NewNoOp("ticket already has this status", map[string]any{"status": string(current)})
	}
	if !current.CanTransitionTo(next) {
		return statusChange{}, apperrors.NewIllegalTransition(string(current), string(next))
	}

	change := statusChange{
		from:      current,
		to:        next,
		closing:   next == TicketStatusClosed,
		reopening: current == TicketStatusClosed && next == TicketStatusOpen,
	}
	if next == TicketStatusResolved {
		note := strings.TrimSpace(resolutionNote)
		if note == "" {
			return statusChange{}, apperrors.NewValidationError("resolution note required to resolve a ticket", nil)
		}
		change.resolutionNote = note
	}
	return change, nil
}
