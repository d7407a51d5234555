package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/mvura-console/internal/domain"
	"github.com/spec-kit/mvura-console/internal/repository"
)

// AgentService exposes the agent directory to the console.
type AgentService struct {
	agents repository.AgentRepository
	logger *zap.Logger
}

// NewAgentService creates the service.
func NewAgentService(agents repository.AgentRepository, logger *zap.Logger) *AgentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AgentService{agents: agents, logger: logger}
}

// ListAgents returns agents ordered by name; activeOnly hides deactivated ones.
func (s *AgentService) ListAgents(ctx context.Context, activeOnly bool) ([]domain.Agent, error) {
	filter := repository.AgentFilter{}
	if activeOnly {
		active := true
		filter.Active = &active
	}
	return s.agents.List(ctx, filter)
}

// SetActive enables or disables an agent for new assignments. Tickets already
// assigned keep their assignee.
func (s *AgentService) SetActive(ctx context.Context, name string, active bool) error {
	if err := s.agents.SetActive(ctx, name, active); err != nil {
		return err
	}
	s.logger.Info("agent availability changed", zap.String("agent", name), zap.Bool("active", active))
	return nil
}

// EnsureAgents registers every name that is not yet known.
func (s *AgentService) EnsureAgents(ctx context.Context, names []string) error {
	for _, name := range names {
		if _, err := s.agents.GetByName(ctx, name); err == nil {
			continue
		}
		if err := s.agents.Create(ctx, domain.NewAgent(name)); err != nil {
			return err
		}
	}
	return nil
}
