package domain

import (
	"strings"
	"time"

	apperrors "github.com/spec-kit/mvura-console/pkg/util/errorutil"
)

// AgentDirectory answers whether an identity belongs to an assignable agent.
type AgentDirectory interface {
	Exists(identity string) bool
}

// AssignmentChange is one entry of a ticket's assignment trail.
// An empty From or To means unassigned.
type AssignmentChange struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	ChangedAt time.Time `json:"changed_at"`
}

// Assignment tracks the current agent of a ticket plus every change to it.
type Assignment struct {
	assignee string
	trail    []AssignmentChange
}

// Current returns the assignee, or "" when unassigned.
func (a *Assignment) Current() string {
	return a.assignee
}

// planAssign validates a move to agent without applying it.
func (a *Assignment) planAssign(agent string, agents AgentDirectory) (string, error) {
	agent = strings.TrimSpace(agent)
	if agent == "" {
		return "", apperrors.NewValidationError("agent identity required", nil)
	}
	if agents == nil || !agents.Exists(agent) {
		return "", apperrors.NewNotFound("agent", map[string]any{"agent": agent})
	}
	if agent == a.assignee {
		return "", apperrors.NewNoOp("ticket already assigned to this agent", map[string]any{"agent": agent})
	}
	return agent, nil
}

func (a *Assignment) planUnassign() error {
	if a.assignee == "" {
		return apperrors.NewNoOp("ticket is not assigned", nil)
	}
	return nil
}

func (a *Assignment) apply(agent string, at time.Time) AssignmentChange {
	change := AssignmentChange{From: a.assignee, To: agent, ChangedAt: at}
	a.assignee = agent
	a.trail = append(a.trail, change)
	return change
}

func (a *Assignment) copyTrail() []AssignmentChange {
	out := make([]AssignmentChange, len(a.trail))
	copy(out, a.trail)
	return out
}
