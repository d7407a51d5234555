package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/spec-kit/mvura-console/internal/domain"
	apperrors "github.com/spec-kit/mvura-console/pkg/util/errorutil"
)

// TicketFilter captures console search parameters.
type TicketFilter struct {
	Statuses   []domain.TicketStatus
	Categories []domain.TicketCategory
	Priorities []domain.TicketPriority
	Assignee   *string
	ClientID   *string
	SearchTerm *string
	Limit      int
	Offset     int
}

// TicketRepository is the directory of live ticket aggregates.
type TicketRepository interface {
	Register(ctx context.Context, ticket *domain.Ticket) (int64, error)
	Find(ctx context.Context, id int64) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]*domain.Ticket, int, error)
	CountByCategory(ctx context.Context) map[domain.TicketCategory]int
	CountByStatus(ctx context.Context) map[domain.TicketStatus]int
	CountByPriority(ctx context.Context) map[domain.TicketPriority]int
	CountByAssignee(ctx context.Context) map[string]int
}

type ticketRepository struct {
	lastID  atomic.Int64
	mu      sync.RWMutex
	tickets map[int64]*domain.Ticket
}

// NewTicketRepository instantiates an empty in-memory directory.
func NewTicketRepository() TicketRepository {
	return &ticketRepository{tickets: make(map[int64]*domain.Ticket)}
}

// Register issues the next id. Ids start at 1 and are never handed out twice,
// even when binding fails.
func (r *ticketRepository) Register(_ context.Context, ticket *domain.Ticket) (int64, error) {
	if ticket == nil {
		return 0, apperrors.NewValidationError("ticket required", nil)
	}
	id := r.lastID.Add(1)
	if err := ticket.AttachID(id); err != nil {
		return 0, err
	}

	r.mu.Lock()
	r.tickets[id] = ticket
	r.mu.Unlock()
	return id, nil
}

func (r *ticketRepository) Find(_ context.Context, id int64) (*domain.Ticket, error) {
	r.mu.RLock()
	ticket, ok := r.tickets[id]
	r.mu.RUnlock()
	if !ok {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
	}
	return ticket, nil
}

func (r *ticketRepository) ListWithFilter(_ context.Context, filter TicketFilter) ([]*domain.Ticket, int, error) {
	all := r.ordered()

	matched := make([]*domain.Ticket, 0, len(all))
	for _, ticket := range all {
		if matchesFilter(ticket, filter) {
			matched = append(matched, ticket)
		}
	}
	total := len(matched)

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return []*domain.Ticket{}, total, nil
	}
	end := len(matched)
	if limit < end-offset {
		end = offset + limit
	}
	return matched[offset:end], total, nil
}

func (r *ticketRepository) CountByCategory(_ context.Context) map[domain.TicketCategory]int {
	counts := make(map[domain.TicketCategory]int, len(domain.TicketCategories))
	for _, c := range domain.TicketCategories {
		counts[c] = 0
	}
	for _, ticket := range r.ordered() {
		counts[ticket.Category()]++
	}
	return counts
}

func (r *ticketRepository) CountByStatus(_ context.Context) map[domain.TicketStatus]int {
	counts := make(map[domain.TicketStatus]int, len(domain.TicketStatuses))
	for _, s := range domain.TicketStatuses {
		counts[s] = 0
	}
	for _, ticket := range r.ordered() {
		counts[ticket.Status()]++
	}
	return counts
}

func (r *ticketRepository) CountByPriority(_ context.Context) map[domain.TicketPriority]int {
	counts := make(map[domain.TicketPriority]int, len(domain.TicketPriorities))
	for _, p := range domain.TicketPriorities {
		counts[p] = 0
	}
	for _, ticket := range r.ordered() {
		counts[ticket.Priority()]++
	}
	return counts
}

// CountByAssignee counts tickets per agent; unassigned tickets are keyed by "".
func (r *ticketRepository) CountByAssignee(_ context.Context) map[string]int {
	counts := make(map[string]int)
	for _, ticket := range r.ordered() {
		counts[ticket.Assignee()]++
	}
	return counts
}

// ordered copies the live set sorted by id so callers never hold the map lock
// while taking a ticket lock.
func (r *ticketRepository) ordered() []*domain.Ticket {
	r.mu.RLock()
	out := make([]*domain.Ticket, 0, len(r.tickets))
	for _, ticket := range r.tickets {
		out = append(out, ticket)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].ID() < out[j].ID()
	})
	return out
}

func matchesFilter(ticket *domain.Ticket, filter TicketFilter) bool {
	if len(filter.Statuses) > 0 && !containsValue(filter.Statuses, ticket.Status()) {
		return false
	}
	if len(filter.Categories) > 0 && !containsValue(filter.Categories, ticket.Category()) {
		return false
	}
	if len(filter.Priorities) > 0 && !containsValue(filter.Priorities, ticket.Priority()) {
		return false
	}
	if filter.Assignee != nil && ticket.Assignee() != *filter.Assignee {
		return false
	}
	if filter.ClientID != nil && ticket.Client().ID() != *filter.ClientID {
		return false
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := strings.ToLower(strings.TrimSpace(*filter.SearchTerm))
		if !strings.Contains(strings.ToLower(ticket.Title()), search) {
			return false
		}
	}
	return true
}

func containsValue[T comparable](values []T, v T) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
