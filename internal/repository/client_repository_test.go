package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/spec-kit/mvura-console/internal/domain"
	apperrors "github.com/spec-kit/mvura-console/pkg/util/errorutil"
)

func sampleProfile(name string) domain.ClientProfile {
	return domain.ClientProfile{
		Name:         name,
		NIF:          "500987654",
		Address:      "Av. Julius Nyerere 100",
		Contact:      "+258 82 111 2222",
		ContractType: domain.ContractCommercial,
		Status:       domain.ClientStatusActive,
	}
}

func TestClientRepository_CreateIssuesPaddedIDs(t *testing.T) {
	repo := NewClientRepository()
	ctx := context.Background()

	first, err := repo.Create(ctx, "op@mvura.test", sampleProfile("Alpha"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, err := repo.Create(ctx, "op@mvura.test", sampleProfile("Beta"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if first.ID() != "CLI-0001" || second.ID() != "CLI-0002" {
		t.Fatalf("ids = %s, %s", first.ID(), second.ID())
	}

	// A rejected create does not consume an id.
	if _, err := repo.Create(ctx, "op@mvura.test", sampleProfile("  ")); !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("blank name err = %v, want VALIDATION_FAILED", err)
	}
	third, _ := repo.Create(ctx, "op@mvura.test", sampleProfile("Gamma"))
	if third.ID() != "CLI-0003" {
		t.Fatalf("third id = %s, want CLI-0003", third.ID())
	}
}

func TestClientRepository_UpdateIsVisibleThroughTickets(t *testing.T) {
	repo := NewClientRepository()
	ctx := context.Background()
	client, _ := repo.Create(ctx, "op@mvura.test", sampleProfile("Alpha"))
	ticket := newTicket(t, "Leak", domain.CategoryVisibleLeak, domain.TicketPriorityHigh, client)

	profile := sampleProfile("Alpha Holdings")
	profile.Status = domain.ClientStatusInactive
	if _, err := repo.Update(ctx, "op@mvura.test", client.ID(), profile); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if got := ticket.Snapshot().Client.Name; got != "Alpha Holdings" {
		t.Fatalf("ticket sees client name %q, want Alpha Holdings", got)
	}

	activity, err := repo.Activity(ctx, client.ID())
	if err != nil {
		t.Fatalf("Activity: %v", err)
	}
	if len(activity) != 3 {
		t.Fatalf("len(activity) = %d, want 3", len(activity))
	}
	if activity[0].Type != ClientActivityEdited || activity[1].Type != ClientActivityStatus || activity[2].Type != ClientActivityCreated {
		t.Fatalf("activity order = %s, %s, %s", activity[0].Type, activity[1].Type, activity[2].Type)
	}
	if activity[0].Description != "updated name" {
		t.Errorf("description = %q", activity[0].Description)
	}
}

func TestClientRepository_UpdateIgnoresSurroundingWhitespace(t *testing.T) {
	repo := NewClientRepository()
	ctx := context.Background()
	client, _ := repo.Create(ctx, "op@mvura.test", sampleProfile("Alpha"))

	if _, err := repo.Update(ctx, "op@mvura.test", client.ID(), sampleProfile("  Alpha  ")); err != nil {
		t.Fatalf("Update: %v", err)
	}
	activity, err := repo.Activity(ctx, client.ID())
	if err != nil {
		t.Fatalf("Activity: %v", err)
	}
	if len(activity) != 1 || activity[0].Type != ClientActivityCreated {
		t.Fatalf("activity = %+v, want only the CREATED entry", activity)
	}

	if _, err := repo.Update(ctx, "op@mvura.test", client.ID(), sampleProfile(" Alpha Holdings ")); err != nil {
		t.Fatalf("Update: %v", err)
	}
	activity, _ = repo.Activity(ctx, client.ID())
	if activity[0].Type != ClientActivityEdited || activity[0].Description != "updated name" {
		t.Fatalf("latest activity = %+v", activity[0])
	}
}

func TestClientRepository_NotFound(t *testing.T) {
	repo := NewClientRepository()
	ctx := context.Background()

	if _, err := repo.GetByID(ctx, "CLI-9999"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("GetByID err = %v", err)
	}
	if _, err := repo.Update(ctx, "op", "CLI-9999", sampleProfile("X")); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("Update err = %v", err)
	}
	if _, err := repo.Activity(ctx, "CLI-9999"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("Activity err = %v", err)
	}
}

func TestClientRepository_ListFilters(t *testing.T) {
	repo := NewClientRepository()
	ctx := context.Background()
	_, _ = repo.Create(ctx, "op", sampleProfile("Alpha"))
	pending := sampleProfile("Beta")
	pending.Status = domain.ClientStatusPending
	_, _ = repo.Create(ctx, "op", pending)

	all, _ := repo.List(ctx, ClientFilter{})
	if len(all) != 2 || all[0].ID() != "CLI-0001" {
		t.Fatalf("List = %d clients", len(all))
	}

	status := domain.ClientStatusPending
	filtered, _ := repo.List(ctx, ClientFilter{Status: &status})
	if len(filtered) != 1 || filtered[0].Profile().Name != "Beta" {
		t.Fatalf("filtered = %v", filtered)
	}
}

func TestJoinFields(t *testing.T) {
	tests := []struct {
		in   []string
		want string
	}{
		{in: nil, want: ""},
		{in: []string{"name"}, want: "name"},
		{in: []string{"name", "email"}, want: "name and email"},
		{in: []string{"name", "nif", "email"}, want: "name, nif and email"},
	}
	for _, tt := range tests {
		if got := joinFields(tt.in); got != tt.want {
			t.Errorf("joinFields(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
