package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/autodealer/dealership-api/internal/core/domain"
	"github.com/autodealer/dealership-api/internal/core/ports"
)

const bearerPrefix = "Bearer "

// Gateway authenticates bearer requests for a single capability at a time.
// Checks run in a fixed order: presence, token validity, capability match,
// principal active status. Principal state is read on every call.
type Gateway struct {
	tokens *Tokens
	admins ports.AdminRepository
	agents ports.AgentRepository
	log    zerolog.Logger
}

func NewGateway(tokens *Tokens, admins ports.AdminRepository, agents ports.AgentRepository, log zerolog.Logger) *Gateway {
	return &Gateway{tokens: tokens, admins: admins, agents: agents, log: log}
}

func (g *Gateway) Authenticate(ctx context.Context, authorization string, capability domain.Capability) (*domain.PrincipalView, error) {
	if !capability.Valid() {
		return nil, domain.ErrUnknownCapability
	}

	if !strings.HasPrefix(authorization, bearerPrefix) {
		return nil, &domain.AuthError{Kind: domain.ErrUnauthenticated, Message: "No token provided"}
	}

	claims, err := g.tokens.Verify(strings.TrimPrefix(authorization, bearerPrefix))
	if err != nil {
		g.log.Debug().Err(err).Str("capability", string(capability)).Msg("token rejected")
		return nil, &domain.AuthError{Kind: domain.ErrUnauthenticated, Message: "Invalid or expired token"}
	}

	if claims.Type != capability {
		return nil, &domain.AuthError{
			Kind:    domain.ErrForbidden,
			Message: fmt.Sprintf("Access denied - %s access required", capability),
		}
	}

	view, err := g.loadPrincipal(ctx, capability, claims.SubjectID)
	if err != nil {
		return nil, err
	}
	if view == nil {
		return nil, &domain.AuthError{
			Kind:    domain.ErrUnauthenticated,
			Message: capability.Title() + " not found or inactive",
		}
	}
	return view, nil
}

// loadPrincipal returns nil, nil when the principal is missing or inactive.
func (g *Gateway) loadPrincipal(ctx context.Context, capability domain.Capability, id string) (*domain.PrincipalView, error) {
	switch capability {
	case domain.CapabilityAdmin:
		admin, err := g.admins.FindByID(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("load admin: %w", err)
		}
		if !admin.IsActive {
			return nil, nil
		}
		return domain.AdminView(admin), nil
	case domain.CapabilityAgent:
		agent, err := g.agents.FindByID(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("load agent: %w", err)
		}
		if !agent.IsActive {
			return nil, nil
		}
		return domain.AgentView(agent), nil
	default:
		return nil, domain.ErrUnknownCapability
	}
}
