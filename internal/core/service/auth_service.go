package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/autodealer/dealership-api/internal/core/domain"
	"github.com/autodealer/dealership-api/internal/core/ports"
)

// maxPasswordBytes is bcrypt's input limit. Longer passwords cannot be hashed
// or compared, so they are rejected before any lookup.
const maxPasswordBytes = 72

// AuthService implements admin and agent login.
type AuthService struct {
	admins ports.AdminRepository
	agents ports.AgentRepository
	tokens *Tokens
	log    zerolog.Logger
	cost   int

	dummyOnce sync.Once
	dummyHash []byte
}

// AuthOption customises an AuthService.
type AuthOption func(*AuthService)

// WithBcryptCost overrides the bcrypt cost used for new hashes.
func WithBcryptCost(cost int) AuthOption {
	return func(s *AuthService) { s.cost = cost }
}

func NewAuthService(admins ports.AdminRepository, agents ports.AgentRepository, tokens *Tokens, log zerolog.Logger, opts ...AuthOption) *AuthService {
	s := &AuthService{
		admins: admins,
		agents: agents,
		tokens: tokens,
		log:    log,
		cost:   bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cost < bcrypt.MinCost || s.cost > bcrypt.MaxCost {
		log.Warn().Int("cost", s.cost).Msg("bcrypt cost out of range, using default")
		s.cost = bcrypt.DefaultCost
	}
	return s
}

func (s *AuthService) LoginAdmin(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" || len(password) > maxPasswordBytes {
		return nil, s.reject(domain.CapabilityAdmin)
	}

	admin, err := s.admins.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		s.burnCompare(password)
		return nil, s.reject(domain.CapabilityAdmin)
	}
	if err != nil {
		return nil, err
	}
	if !admin.IsActive {
		s.burnCompare(password)
		return nil, s.reject(domain.CapabilityAdmin)
	}

	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) != nil {
		return nil, s.reject(domain.CapabilityAdmin)
	}

	return s.issue(admin.ID, domain.AdminView(admin))
}

// LoginAgent authenticates an agent. An agent without a password binds the
// first password presented; later logins must match it.
func (s *AuthService) LoginAgent(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" || len(password) > maxPasswordBytes {
		return nil, s.reject(domain.CapabilityAgent)
	}

	agent, err := s.agents.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		s.burnCompare(password)
		return nil, s.reject(domain.CapabilityAgent)
	}
	if err != nil {
		return nil, err
	}
	if !agent.IsActive {
		s.burnCompare(password)
		return nil, s.reject(domain.CapabilityAgent)
	}

	switch agent.ProvisionState() {
	case domain.Unprovisioned:
		ok, err := s.bindFirstPassword(ctx, agent, password)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, s.reject(domain.CapabilityAgent)
		}
	case domain.Provisioned:
		if bcrypt.CompareHashAndPassword([]byte(agent.PasswordHash), []byte(password)) != nil {
			return nil, s.reject(domain.CapabilityAgent)
		}
	}

	return s.issue(agent.ID, domain.AgentView(agent))
}

// bindFirstPassword moves an agent from Unprovisioned to Provisioned. If a
// concurrent login bound a password first, the supplied password is checked
// against the winner's hash instead.
func (s *AuthService) bindFirstPassword(ctx context.Context, agent *domain.Agent, password string) (bool, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}

	err = s.agents.BindPassword(ctx, agent.ID, string(hash))
	if err == nil {
		agent.PasswordHash = string(hash)
		s.log.Info().Str("agent_id", agent.ID).Msg("agent password bound on first login")
		return true, nil
	}
	if !errors.Is(err, domain.ErrAlreadyProvisioned) {
		return false, fmt.Errorf("bind password: %w", err)
	}

	current, err := s.agents.FindByID(ctx, agent.ID)
	if err != nil {
		return false, fmt.Errorf("reload agent: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(current.PasswordHash), []byte(password)) != nil {
		return false, nil
	}
	agent.PasswordHash = current.PasswordHash
	return true, nil
}

// BootstrapAdmin creates the first admin account if no admin with email exists.
func (s *AuthService) BootstrapAdmin(ctx context.Context, email, password, name string) error {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return domain.NewValidationError("bootstrap admin requires email and password")
	}
	if len(password) > maxPasswordBytes {
		return domain.NewValidationError("bootstrap admin password must be at most 72 bytes")
	}

	_, err := s.admins.FindByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if name == "" {
		name = "Administrator"
	}

	now := time.Now().UTC()
	_, err = s.admins.Create(ctx, &domain.Admin{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Role:         "superadmin",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if errors.Is(err, domain.ErrEmailTaken) {
		return nil
	}
	if err != nil {
		return err
	}
	s.log.Info().Str("email", email).Msg("bootstrap admin created")
	return nil
}

func (s *AuthService) issue(subjectID string, view *domain.PrincipalView) (*ports.LoginResult, error) {
	token, err := s.tokens.Issue(subjectID, view.Capability)
	if err != nil {
		return nil, err
	}
	return &ports.LoginResult{Token: token, Principal: view}, nil
}

// reject logs the failed attempt without recording which check failed.
func (s *AuthService) reject(capability domain.Capability) error {
	s.log.Warn().Str("capability", string(capability)).Msg("login rejected")
	return domain.ErrInvalidCredentials
}

// burnCompare spends roughly the same time as a real password check so that
// unknown accounts are not distinguishable by latency.
func (s *AuthService) burnCompare(password string) {
	s.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("dealership-placeholder"), s.cost)
		if err != nil {
			s.log.Error().Err(err).Int("cost", s.cost).Msg("placeholder hash failed, retrying at default cost")
			hash, err = bcrypt.GenerateFromPassword([]byte("dealership-placeholder"), bcrypt.DefaultCost)
		}
		if err != nil {
			s.log.Error().Err(err).Msg("placeholder hash unavailable, unknown accounts answer faster")
			return
		}
		s.dummyHash = hash
	})
	_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
}
