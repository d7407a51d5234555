package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/mvura-console/internal/domain"
	"github.com/spec-kit/mvura-console/internal/repository"
	apperrors "github.com/spec-kit/mvura-console/pkg/util/errorutil"
)

// AssignmentService picks agents for tickets. The move itself goes through
// TicketService.Reassign, so it is audited like a manual reassignment.
type AssignmentService struct {
	tickets       repository.TicketRepository
	agents        repository.AgentRepository
	ticketService *TicketService
	logger        *zap.Logger
}

// AssignmentDependencies bundles repositories.
type AssignmentDependencies struct {
	TicketRepo    repository.TicketRepository
	AgentRepo     repository.AgentRepository
	TicketService *TicketService
	Logger        *zap.Logger
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		tickets:       deps.TicketRepo,
		agents:        deps.AgentRepo,
		ticketService: deps.TicketService,
		logger:        logger,
	}
}

// AutoAssignTicket hands the ticket to the active agent holding the fewest
// open tickets. Ties go to the agent whose name sorts first. When that agent
// already holds the ticket the result is a NoOp error.
func (s *AssignmentService) AutoAssignTicket(ctx context.Context, actor string, ticketID int64) (domain.TicketSnapshot, error) {
	if _, err := s.tickets.Find(ctx, ticketID); err != nil {
		return domain.TicketSnapshot{}, err
	}
	agent, err := s.leastLoadedAgent(ctx)
	if err != nil {
		return domain.TicketSnapshot{}, err
	}
	snap, err := s.ticketService.Reassign(ctx, actor, ticketID, &agent)
	if err != nil {
		return domain.TicketSnapshot{}, err
	}
	s.logger.Info("ticket auto-assigned", zap.Int64("ticket_id", ticketID), zap.String("agent", agent))
	return snap, nil
}

func (s *AssignmentService) leastLoadedAgent(ctx context.Context) (string, error) {
	active := true
	agents, err := s.agents.List(ctx, repository.AgentFilter{Active: &active})
	if err != nil {
		return "", err
	}
	if len(agents) == 0 {
		return "", apperrors.NewConflict("no active agent available", nil)
	}

	best, bestLoad := "", -1
	for _, agent := range agents {
		load, err := openTicketCount(ctx, s.tickets, agent.Name)
		if err != nil {
			return "", err
		}
		if bestLoad < 0 || load < bestLoad {
			best, bestLoad = agent.Name, load
		}
	}
	return best, nil
}
