package ports

import (
	"context"

	"github.com/autodealer/dealership-api/internal/core/domain"
)

// CreateAgentInput carries the fields for provisioning an agent.
type CreateAgentInput struct {
	Email string
	Name  string
	Phone string
}

// AgentService covers admin-side agent management.
type AgentService interface {
	CreateAgent(ctx context.Context, input CreateAgentInput) (*domain.Agent, error)
	ListAgents(ctx context.Context) ([]*domain.Agent, error)
	SetAgentActive(ctx context.Context, id string, active bool) (*domain.Agent, error)
}
