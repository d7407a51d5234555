package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/spec-kit/mvura-console/internal/domain"
	apperrors "github.com/spec-kit/mvura-console/pkg/util/errorutil"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func testClient(t *testing.T, id, name string) *domain.Client {
	t.Helper()
	client, err := domain.NewClient(id, domain.ClientProfile{
		Name:         name,
		NIF:          "400123456",
		Address:      "Main St 12",
		Contact:      "+258 84 000 0000",
		ContractType: domain.ContractResidential,
		Status:       domain.ClientStatusActive,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func newTicket(t *testing.T, title string, category domain.TicketCategory, priority domain.TicketPriority, client *domain.Client) *domain.Ticket {
	t.Helper()
	ticket, err := domain.NewTicket(domain.NewTicketInput{
		Title:    title,
		Category: category,
		Priority: priority,
		Client:   client,
	}, nil)
	if err != nil {
		t.Fatalf("NewTicket: %v", err)
	}
	return ticket
}

// ---------------------------------------------------------------------------
// Register / Find
// ---------------------------------------------------------------------------

func TestRegister_IssuesSequentialIDs(t *testing.T) {
	repo := NewTicketRepository()
	client := testClient(t, "CLI-0001", "Mercado Central")
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		id, err := repo.Register(ctx, newTicket(t, "Leak", domain.CategoryVisibleLeak, domain.TicketPriorityHigh, client))
		if err != nil {
			t.Fatalf("Register: %v", err)
		}
		if id != want {
			t.Fatalf("id = %d, want %d", id, want)
		}
	}
}

func TestRegister_ConcurrentIDsAreUnique(t *testing.T) {
	repo := NewTicketRepository()
	client := testClient(t, "CLI-0001", "Mercado Central")
	ctx := context.Background()

	const n = 64
	tickets := make([]*domain.Ticket, n)
	for i := range tickets {
		tickets[i] = newTicket(t, "Outage", domain.CategoryWaterOutage, domain.TicketPriorityLow, client)
	}

	ids := make([]int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := repo.Register(ctx, tickets[i])
			if err != nil {
				t.Errorf("Register: %v", err)
				return
			}
			ids[i] = id
		}(i)
	}
	wg.Wait()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for i, id := range ids {
		if id != int64(i+1) {
			t.Fatalf("ids[%d] = %d, want %d", i, id, i+1)
		}
	}
}

func TestRegister_RejectsAlreadyRegisteredTicket(t *testing.T) {
	repo := NewTicketRepository()
	ticket := newTicket(t, "Leak", domain.CategoryVisibleLeak, domain.TicketPriorityHigh, testClient(t, "CLI-0001", "A"))
	ctx := context.Background()

	if _, err := repo.Register(ctx, ticket); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := repo.Register(ctx, ticket); !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("second Register err = %v, want VALIDATION_FAILED", err)
	}

	// The burned id is never reissued.
	id, err := repo.Register(ctx, newTicket(t, "Other", domain.CategoryMeterFault, domain.TicketPriorityLow, testClient(t, "CLI-0002", "B")))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if id != 3 {
		t.Fatalf("id = %d, want 3", id)
	}
}

func TestFind(t *testing.T) {
	repo := NewTicketRepository()
	ticket := newTicket(t, "Leak", domain.CategoryVisibleLeak, domain.TicketPriorityHigh, testClient(t, "CLI-0001", "A"))
	ctx := context.Background()
	id, _ := repo.Register(ctx, ticket)

	got, err := repo.Find(ctx, id)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got != ticket {
		t.Fatal("Find returned a different aggregate")
	}

	if _, err := repo.Find(ctx, 999); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("Find(999) err = %v, want NOT_FOUND", err)
	}
}

// ---------------------------------------------------------------------------
// Filtering
// ---------------------------------------------------------------------------

func TestListWithFilter(t *testing.T) {
	repo := NewTicketRepository()
	ctx := context.Background()
	agents := NewAgentRepository(DefaultAgents...)
	alpha := testClient(t, "CLI-0001", "Alpha")
	beta := testClient(t, "CLI-0002", "Beta")

	leak := newTicket(t, "Leak on Main St", domain.CategoryVisibleLeak, domain.TicketPriorityHigh, alpha)
	meter := newTicket(t, "Meter stuck", domain.CategoryMeterFault, domain.TicketPriorityLow, beta)
	outage := newTicket(t, "No water since morning", domain.CategoryWaterOutage, domain.TicketPriorityCritical, alpha)
	for _, tk := range []*domain.Ticket{leak, meter, outage} {
		if _, err := repo.Register(ctx, tk); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}
	if _, err := meter.ChangeStatus(domain.TicketStatusInProgress, ""); err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}
	if _, err := outage.Reassign("Maria Oliveira", agents); err != nil {
		t.Fatalf("Reassign: %v", err)
	}

	maria := "Maria Oliveira"
	alphaID := "CLI-0001"
	search := "main st"

	tests := []struct {
		name      string
		filter    TicketFilter
		wantIDs   []int64
		wantTotal int
	}{
		{name: "no filter", filter: TicketFilter{}, wantIDs: []int64{1, 2, 3}, wantTotal: 3},
		{name: "by status", filter: TicketFilter{Statuses: []domain.TicketStatus{domain.TicketStatusOpen}}, wantIDs: []int64{1, 3}, wantTotal: 2},
		{name: "by category", filter: TicketFilter{Categories: []domain.TicketCategory{domain.CategoryMeterFault}}, wantIDs: []int64{2}, wantTotal: 1},
		{name: "by priority", filter: TicketFilter{Priorities: []domain.TicketPriority{domain.TicketPriorityHigh, domain.TicketPriorityCritical}}, wantIDs: []int64{1, 3}, wantTotal: 2},
		{name: "by assignee", filter: TicketFilter{Assignee: &maria}, wantIDs: []int64{3}, wantTotal: 1},
		{name: "by client", filter: TicketFilter{ClientID: &alphaID}, wantIDs: []int64{1, 3}, wantTotal: 2},
		{name: "by title search", filter: TicketFilter{SearchTerm: &search}, wantIDs: []int64{1}, wantTotal: 1},
		{name: "paged", filter: TicketFilter{Limit: 1, Offset: 1}, wantIDs: []int64{2}, wantTotal: 3},
		{name: "offset past end", filter: TicketFilter{Offset: 10}, wantIDs: []int64{}, wantTotal: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := repo.ListWithFilter(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListWithFilter: %v", err)
			}
			if total != tt.wantTotal {
				t.Errorf("total = %d, want %d", total, tt.wantTotal)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("got %d tickets, want %d", len(got), len(tt.wantIDs))
			}
			for i, ticket := range got {
				if ticket.ID() != tt.wantIDs[i] {
					t.Errorf("got[%d].ID() = %d, want %d", i, ticket.ID(), tt.wantIDs[i])
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Aggregations
// ---------------------------------------------------------------------------

func TestCountByCategory_RecomputedLive(t *testing.T) {
	repo := NewTicketRepository()
	ctx := context.Background()
	client := testClient(t, "CLI-0001", "Alpha")

	counts := repo.CountByCategory(ctx)
	if len(counts) != len(domain.TicketCategories) {
		t.Fatalf("len(counts) = %d, want %d", len(counts), len(domain.TicketCategories))
	}
	for _, c := range domain.TicketCategories {
		if counts[c] != 0 {
			t.Fatalf("counts[%s] = %d on empty directory", c, counts[c])
		}
	}

	_, _ = repo.Register(ctx, newTicket(t, "Leak", domain.CategoryVisibleLeak, domain.TicketPriorityHigh, client))
	_, _ = repo.Register(ctx, newTicket(t, "Leak 2", domain.CategoryVisibleLeak, domain.TicketPriorityLow, client))

	counts = repo.CountByCategory(ctx)
	if counts[domain.CategoryVisibleLeak] != 2 {
		t.Fatalf("visible-leak = %d, want 2", counts[domain.CategoryVisibleLeak])
	}
}

func TestCountByStatus_FollowsTransitions(t *testing.T) {
	repo := NewTicketRepository()
	ctx := context.Background()
	ticket := newTicket(t, "Leak", domain.CategoryVisibleLeak, domain.TicketPriorityHigh, testClient(t, "CLI-0001", "A"))
	_, _ = repo.Register(ctx, ticket)

	if got := repo.CountByStatus(ctx)[domain.TicketStatusOpen]; got != 1 {
		t.Fatalf("open = %d, want 1", got)
	}
	if _, err := ticket.ChangeStatus(domain.TicketStatusResolved, "Pipe replaced"); err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}
	counts := repo.CountByStatus(ctx)
	if counts[domain.TicketStatusOpen] != 0 || counts[domain.TicketStatusResolved] != 1 {
		t.Fatalf("counts = %v", counts)
	}
}

func TestCountByPriorityAndAssignee(t *testing.T) {
	repo := NewTicketRepository()
	ctx := context.Background()
	agents := NewAgentRepository(DefaultAgents...)
	client := testClient(t, "CLI-0001", "A")

	first := newTicket(t, "One", domain.CategoryLowPressure, domain.TicketPriorityMedium, client)
	second := newTicket(t, "Two", domain.CategoryLowPressure, domain.TicketPriorityMedium, client)
	_, _ = repo.Register(ctx, first)
	_, _ = repo.Register(ctx, second)
	if _, err := first.Reassign("Pedro Lima", agents); err != nil {
		t.Fatalf("Reassign: %v", err)
	}

	if got := repo.CountByPriority(ctx)[domain.TicketPriorityMedium]; got != 2 {
		t.Fatalf("medium = %d, want 2", got)
	}
	byAgent := repo.CountByAssignee(ctx)
	if byAgent["Pedro Lima"] != 1 || byAgent[""] != 1 {
		t.Fatalf("byAgent = %v", byAgent)
	}
}
