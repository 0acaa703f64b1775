package ports

import (
	"context"

	"github.com/autodealer/dealership-api/internal/core/domain"
)

// AdminRepository persists admin principals. Emails are stored normalized.
type AdminRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Admin, error)
	FindByEmail(ctx context.Context, email string) (*domain.Admin, error)
	Create(ctx context.Context, admin *domain.Admin) (*domain.Admin, error)
}

// AgentRepository persists agent principals.
type AgentRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Agent, error)
	FindByEmail(ctx context.Context, email string) (*domain.Agent, error)
	Create(ctx context.Context, agent *domain.Agent) (*domain.Agent, error)
	List(ctx context.Context) ([]*domain.Agent, error)
	SetActive(ctx context.Context, id string, active bool) (*domain.Agent, error)
	// BindPassword stores hash only if the agent has no password yet.
	// Returns domain.ErrAlreadyProvisioned when another hash is already bound.
	BindPassword(ctx context.Context, id, hash string) error
}
