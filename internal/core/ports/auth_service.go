package ports

import (
	"context"

	"github.com/autodealer/dealership-api/internal/core/domain"
)

// LoginResult is returned on a successful login.
type LoginResult struct {
	Token     string
	Principal *domain.PrincipalView
}

// AuthService authenticates admins and agents and issues bearer tokens.
type AuthService interface {
	LoginAdmin(ctx context.Context, email, password string) (*LoginResult, error)
	LoginAgent(ctx context.Context, email, password string) (*LoginResult, error)
}

// Gateway verifies a raw Authorization header for one capability.
type Gateway interface {
	Authenticate(ctx context.Context, authorization string, capability domain.Capability) (*domain.PrincipalView, error)
}
