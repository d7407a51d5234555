package service

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/mvura-console/internal/domain"
	"github.com/spec-kit/mvura-console/internal/events"
	"github.com/spec-kit/mvura-console/internal/repository"
	"github.com/spec-kit/mvura-console/pkg/util/validation"
)

// ClientService manages client records. Tickets point at the live record, so
// an update here shows up on every ticket of the client.
type ClientService struct {
	clients    repository.ClientRepository
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	validator  *validation.Validator
	logger     *zap.Logger
}

// NewClientService creates the service.
func NewClientService(clients repository.ClientRepository, tickets repository.TicketRepository, dispatcher events.Dispatcher, validator *validation.Validator, logger *zap.Logger) *ClientService {
	if validator == nil {
		validator = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClientService{
		clients:    clients,
		tickets:    tickets,
		dispatcher: dispatcher,
		validator:  validator,
		logger:     logger,
	}
}

// CreateClient registers a client.
func (s *ClientService) CreateClient(ctx context.Context, actor string, profile domain.ClientProfile) (*domain.Client, error) {
	if err := s.validator.Struct(profile); err != nil {
		return nil, err
	}
	client, err := s.clients.Create(ctx, actor, profile)
	if err != nil {
		return nil, err
	}
	s.logger.Info("client created", zap.String("client_id", client.ID()), zap.String("actor", actor))
	return client, nil
}

// GetClient fetches a client by id.
func (s *ClientService) GetClient(ctx context.Context, id string) (*domain.Client, error) {
	return s.clients.GetByID(ctx, id)
}

// ListClients lists clients ordered by id.
func (s *ClientService) ListClients(ctx context.Context, filter repository.ClientFilter) ([]*domain.Client, error) {
	return s.clients.List(ctx, filter)
}

// UpdateClient replaces the editable profile of a client.
func (s *ClientService) UpdateClient(ctx context.Context, actor, id string, profile domain.ClientProfile) (*domain.Client, error) {
	if err := s.validator.Struct(profile); err != nil {
		return nil, err
	}
	client, err := s.clients.Update(ctx, actor, id, profile)
	if err != nil {
		return nil, err
	}

	updated := client.Profile()
	if s.dispatcher != nil {
		event := events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventClientUpdated,
			Actor:     actor,
			Timestamp: time.Now(),
			Payload: events.ClientUpdatedPayload{
				ClientID: client.ID(),
				Name:     updated.Name,
				Status:   updated.Status,
			},
		}
		if err := s.dispatcher.Publish(ctx, event); err != nil {
			s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
		}
	}
	return client, nil
}

// ClientTickets returns every ticket of the client, ordered by id.
func (s *ClientService) ClientTickets(ctx context.Context, id string) ([]domain.TicketSnapshot, error) {
	if _, err := s.clients.GetByID(ctx, id); err != nil {
		return nil, err
	}
	tickets, _, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{ClientID: &id, Limit: math.MaxInt})
	if err != nil {
		return nil, err
	}
	out := make([]domain.TicketSnapshot, 0, len(tickets))
	for _, ticket := range tickets {
		out = append(out, ticket.Snapshot())
	}
	return out, nil
}

// ClientActivity returns the client's timeline, newest first.
func (s *ClientService) ClientActivity(ctx context.Context, id string) ([]repository.ClientActivity, error) {
	return s.clients.Activity(ctx, id)
}
