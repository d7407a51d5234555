package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/mvura-console/internal/domain"
)

const seedActor = "seed"

type seedTicket struct {
	client   int
	title    string
	category domain.TicketCategory
	priority domain.TicketPriority
	assignee string
	status   domain.TicketStatus
	note     string
}

var seedClients = []domain.ClientProfile{
	{
		Name: "Mercado Central de Maputo", NIF: "400123456", Address: "Av. 25 de Setembro 1200",
		Contact: "+258 84 100 2000", Email: "gerencia@mercadocentral.co.mz",
		ContractType: domain.ContractCommercial, Status: domain.ClientStatusActive,
		StartDate: time.Date(2022, 3, 15, 0, 0, 0, 0, time.UTC),
	},
	{
		Name: "Ana Machava", NIF: "100987654", Address: "Rua da Resistência 45",
		Contact: "+258 82 555 0101", Email: "ana.machava@example.com",
		ContractType: domain.ContractResidential, Status: domain.ClientStatusActive,
		StartDate: time.Date(2023, 1, 9, 0, 0, 0, 0, time.UTC),
	},
	{
		Name: "Fábrica Textil da Matola", NIF: "400555111", Address: "Parque Industrial da Matola, Lote 7",
		Contact: "+258 21 720 300",
		ContractType: domain.ContractIndustrial, Status: domain.ClientStatusPending,
		StartDate: time.Date(2023, 5, 30, 0, 0, 0, 0, time.UTC),
	},
}

var seedTickets = []seedTicket{
	{client: 0, title: "Sem água desde a manhã", category: domain.CategoryWaterOutage, priority: domain.TicketPriorityCritical, assignee: "Maria Oliveira", status: domain.TicketStatusInProgress},
	{client: 1, title: "Contador parado", category: domain.CategoryMeterFault, priority: domain.TicketPriorityMedium},
	{client: 1, title: "Água com cor turva", category: domain.CategoryWaterQuality, priority: domain.TicketPriorityHigh, assignee: "Carlos Santos", status: domain.TicketStatusResolved, note: "Rede lavada e amostra dentro dos parâmetros"},
	{client: 0, title: "Fuga visível na Rua Principal", category: domain.CategoryVisibleLeak, priority: domain.TicketPriorityHigh, assignee: "Pedro Lima"},
	{client: 2, title: "Pressão baixa no turno da noite", category: domain.CategoryLowPressure, priority: domain.TicketPriorityLow, status: domain.TicketStatusClosed},
}

// SeedDemoData loads a handful of clients and tickets so a fresh console has
// something to show. It goes through the regular services, so history and
// events are produced as for any operator action.
func SeedDemoData(ctx context.Context, clients *ClientService, tickets *TicketService, logger *zap.Logger) error {
	ids := make([]string, 0, len(seedClients))
	for _, profile := range seedClients {
		client, err := clients.CreateClient(ctx, seedActor, profile)
		if err != nil {
			return err
		}
		ids = append(ids, client.ID())
	}

	for _, st := range seedTickets {
		snap, err := tickets.CreateTicket(ctx, seedActor, TicketCreateInput{
			Title:    st.title,
			Category: string(st.category),
			Priority: string(st.priority),
			ClientID: ids[st.client],
		})
		if err != nil {
			return err
		}
		if st.assignee != "" {
			agent := st.assignee
			if _, err := tickets.Reassign(ctx, seedActor, snap.ID, &agent); err != nil {
				return err
			}
		}
		if st.status != "" && st.status != domain.TicketStatusOpen {
			if _, err := tickets.ChangeStatus(ctx, seedActor, snap.ID, st.status, st.note); err != nil {
				return err
			}
		}
	}

	logger.Info("demo data loaded", zap.Int("clients", len(seedClients)), zap.Int("tickets", len(seedTickets)))
	return nil
}
