package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/spec-kit/mvura-console/internal/domain"
	apperrors "github.com/spec-kit/mvura-console/pkg/util/errorutil"
)

// DefaultAgents are the attendants available in a fresh console.
var DefaultAgents = []string{
	"Maria Oliveira",
	"Carlos Santos",
	"Pedro Lima",
	"Luísa Fernandes",
	"Rafael Mendes",
}

// AgentRepository is the directory of assignable agents.
type AgentRepository interface {
	Create(ctx context.Context, agent domain.Agent) error
	GetByName(ctx context.Context, name string) (*domain.Agent, error)
	List(ctx context.Context, filter AgentFilter) ([]domain.Agent, error)
	SetActive(ctx context.Context, name string, active bool) error
	Exists(identity string) bool
}

// AgentFilter defines query params for agent listing.
type AgentFilter struct {
	Active *bool
}

type agentRepository struct {
	mu     sync.RWMutex
	agents map[string]domain.Agent
}

// NewAgentRepository instantiates the repository with the given names.
func NewAgentRepository(names ...string) AgentRepository {
	repo := &agentRepository{agents: make(map[string]domain.Agent, len(names))}
	for _, name := range names {
		agent := domain.NewAgent(name)
		if agent.Name != "" {
			repo.agents[agent.Name] = agent
		}
	}
	return repo
}

func (r *agentRepository) Create(_ context.Context, agent domain.Agent) error {
	agent.Name = strings.TrimSpace(agent.Name)
	if agent.Name == "" {
		return apperrors.NewValidationError("agent name required", nil)
	}
	if agent.Initials == "" {
		agent.Initials = domain.Initials(agent.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.agents[agent.Name]; exists {
		return apperrors.NewConflict("agent already exists", map[string]any{"agent": agent.Name})
	}
	r.agents[agent.Name] = agent
	return nil
}

func (r *agentRepository) GetByName(_ context.Context, name string) (*domain.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	agent, ok := r.agents[strings.TrimSpace(name)]
	if !ok {
		return nil, apperrors.NewNotFound("agent", map[string]any{"agent": name})
	}
	return &agent, nil
}

func (r *agentRepository) List(_ context.Context, filter AgentFilter) ([]domain.Agent, error) {
	r.mu.RLock()
	result := make([]domain.Agent, 0, len(r.agents))
	for _, agent := range r.agents {
		if filter.Active != nil && agent.Active != *filter.Active {
			continue
		}
		result = append(result, agent)
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

func (r *agentRepository) SetActive(_ context.Context, name string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	agent, ok := r.agents[name]
	if !ok {
		return apperrors.NewNotFound("agent", map[string]any{"agent": name})
	}
	agent.Active = active
	r.agents[name] = agent
	return nil
}

// Exists reports whether identity is a known, active agent.
func (r *agentRepository) Exists(identity string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	agent, ok := r.agents[identity]
	return ok && agent.Active
}
