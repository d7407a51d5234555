package service

import (
	"context"
	"math"
	"sort"

	"github.com/spec-kit/mvura-console/internal/domain"
	"github.com/spec-kit/mvura-console/internal/repository"
)

// CategoryShare is one slice of the tickets-by-category chart.
type CategoryShare struct {
	Category   domain.TicketCategory `json:"category"`
	Label      string                `json:"label"`
	Count      int                   `json:"count"`
	Percentage float64               `json:"percentage"`
}

// StatusCount is one bar of the status breakdown.
type StatusCount struct {
	Status domain.TicketStatus `json:"status"`
	Count  int                 `json:"count"`
}

// PriorityCount is one bar of the priority breakdown.
type PriorityCount struct {
	Priority domain.TicketPriority `json:"priority"`
	Count    int                   `json:"count"`
}

// AgentWorkload summarizes the tickets held by one agent. The entry with an
// empty Agent counts unassigned tickets.
type AgentWorkload struct {
	Agent    string `json:"agent"`
	Initials string `json:"initials,omitempty"`
	Active   bool   `json:"active"`
	Open     int    `json:"open"`
	Total    int    `json:"total"`
}

// ReportService computes dashboard numbers from the live ticket set on every
// call.
type ReportService struct {
	tickets repository.TicketRepository
	agents  repository.AgentRepository
}

// NewReportService creates the service.
func NewReportService(tickets repository.TicketRepository, agents repository.AgentRepository) *ReportService {
	return &ReportService{tickets: tickets, agents: agents}
}

// CategoryBreakdown returns every category in report order with its share of
// all tickets, rounded to one decimal.
func (s *ReportService) CategoryBreakdown(ctx context.Context) ([]CategoryShare, int) {
	counts := s.tickets.CountByCategory(ctx)
	total := 0
	for _, n := range counts {
		total += n
	}

	out := make([]CategoryShare, 0, len(domain.TicketCategories))
	for _, category := range domain.TicketCategories {
		out = append(out, CategoryShare{
			Category:   category,
			Label:      category.Label(),
			Count:      counts[category],
			Percentage: percentage(counts[category], total),
		})
	}
	return out, total
}

// StatusBreakdown counts tickets per status.
func (s *ReportService) StatusBreakdown(ctx context.Context) []StatusCount {
	counts := s.tickets.CountByStatus(ctx)
	out := make([]StatusCount, 0, len(domain.TicketStatuses))
	for _, status := range domain.TicketStatuses {
		out = append(out, StatusCount{Status: status, Count: counts[status]})
	}
	return out
}

// PriorityBreakdown counts tickets per priority, lowest first.
func (s *ReportService) PriorityBreakdown(ctx context.Context) []PriorityCount {
	counts := s.tickets.CountByPriority(ctx)
	out := make([]PriorityCount, 0, len(domain.TicketPriorities))
	for _, priority := range domain.TicketPriorities {
		out = append(out, PriorityCount{Priority: priority, Count: counts[priority]})
	}
	return out
}

// Workload lists every known agent plus the unassigned bucket. Open counts
// tickets that are neither Resolved nor Closed.
func (s *ReportService) Workload(ctx context.Context) ([]AgentWorkload, error) {
	agents, err := s.agents.List(ctx, repository.AgentFilter{})
	if err != nil {
		return nil, err
	}
	totals := s.tickets.CountByAssignee(ctx)

	out := make([]AgentWorkload, 0, len(agents)+1)
	for _, agent := range agents {
		open, err := openTicketCount(ctx, s.tickets, agent.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, AgentWorkload{
			Agent:    agent.Name,
			Initials: agent.Initials,
			Active:   agent.Active,
			Open:     open,
			Total:    totals[agent.Name],
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Open > out[j].Open
	})

	unassignedOpen, err := openTicketCount(ctx, s.tickets, "")
	if err != nil {
		return nil, err
	}
	out = append(out, AgentWorkload{Open: unassignedOpen, Total: totals[""]})
	return out, nil
}

// openTicketCount counts Open and InProgress tickets held by assignee; ""
// selects unassigned tickets.
func openTicketCount(ctx context.Context, tickets repository.TicketRepository, assignee string) (int, error) {
	_, total, err := tickets.ListWithFilter(ctx, repository.TicketFilter{
		Statuses: []domain.TicketStatus{domain.TicketStatusOpen, domain.TicketStatusInProgress},
		Assignee: &assignee,
		Limit:    1,
	})
	return total, err
}

func percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(count)*1000/float64(total)) / 10
}
