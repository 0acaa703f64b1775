package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/autodealer/dealership-api/internal/core/domain"
	"github.com/autodealer/dealership-api/internal/core/ports"
)

// AgentService implements admin-side agent management.
type AgentService struct {
	repo ports.AgentRepository
	log  zerolog.Logger
}

func NewAgentService(repo ports.AgentRepository, log zerolog.Logger) *AgentService {
	return &AgentService{repo: repo, log: log}
}

// CreateAgent provisions an agent without a password. The agent binds one on
// first login.
func (s *AgentService) CreateAgent(ctx context.Context, input ports.CreateAgentInput) (*domain.Agent, error) {
	email := domain.NormalizeEmail(input.Email)
	name := strings.TrimSpace(input.Name)
	if email == "" || name == "" {
		return nil, domain.NewValidationError("email and name are required")
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.Agent{
		Email:     email,
		Name:      name,
		Phone:     strings.TrimSpace(input.Phone),
		Role:      "agent",
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("agent_id", created.ID).Str("email", created.Email).Msg("agent provisioned")
	return created, nil
}

func (s *AgentService) ListAgents(ctx context.Context) ([]*domain.Agent, error) {
	return s.repo.List(ctx)
}

// SetAgentActive toggles the isActive gate. The gateway rereads it on every
// request, so deactivation applies to tokens already issued.
func (s *AgentService) SetAgentActive(ctx context.Context, id string, active bool) (*domain.Agent, error) {
	agent, err := s.repo.SetActive(ctx, id, active)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("agent_id", id).Bool("active", active).Msg("agent status changed")
	return agent, nil
}
