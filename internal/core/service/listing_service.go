package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/autodealer/dealership-api/internal/core/domain"
	"github.com/autodealer/dealership-api/internal/core/ports"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
	// maxSlugAttempts bounds retries when the slug unique index rejects a write.
	maxSlugAttempts = 5
)

// ListingService manages car listings. Agents only see and mutate their own
// listings; admins can act on any listing.
type ListingService struct {
	repo   ports.ListingRepository
	agents ports.AgentRepository
	slugs  ports.SlugAllocator
	logger zerolog.Logger
}

func NewListingService(repo ports.ListingRepository, agents ports.AgentRepository, slugs ports.SlugAllocator, logger zerolog.Logger) *ListingService {
	return &ListingService{repo: repo, agents: agents, slugs: slugs, logger: logger}
}

// Create stores a new listing. Agent-authored listings always start
// unpublished and unfeatured and are owned by the author.
func (s *ListingService) Create(ctx context.Context, actor *domain.PrincipalView, input ports.ListingInput) (*domain.Listing, error) {
	if actor == nil {
		return nil, domain.ErrUnauthenticated
	}
	if err := validateListingInput(input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	listing := &domain.Listing{CreatedAt: now, UpdatedAt: now}
	applyListingFields(listing, input)

	switch actor.Capability {
	case domain.CapabilityAgent:
		listing.OwnerAgentID = actor.ID
		listing.IsPublished = false
		listing.IsFeatured = false
	case domain.CapabilityAdmin:
		if err := s.requireAgent(ctx, input.OwnerAgentID); err != nil {
			return nil, err
		}
		listing.OwnerAgentID = input.OwnerAgentID
		listing.IsPublished = input.IsPublished
		listing.IsFeatured = input.IsFeatured
	default:
		return nil, domain.ErrUnknownCapability
	}

	created, err := s.writeWithSlug(ctx, listing, func(l *domain.Listing) (*domain.Listing, error) {
		return s.repo.Create(ctx, l)
	})
	if err != nil {
		s.logger.Error().Err(err).Str("title", input.Title).Msg("failed to create listing")
		return nil, err
	}

	s.logger.Info().
		Str("listing_id", created.ID).
		Str("slug", created.Slug).
		Str("owner_agent_id", created.OwnerAgentID).
		Str("actor", string(actor.Capability)).
		Msg("listing created")
	return created, nil
}

// writeWithSlug allocates a slug and runs write, allocating again whenever the
// store reports the slug as taken by a concurrent writer.
func (s *ListingService) writeWithSlug(ctx context.Context, l *domain.Listing, write func(*domain.Listing) (*domain.Listing, error)) (*domain.Listing, error) {
	for attempt := 1; attempt <= maxSlugAttempts; attempt++ {
		slug, err := s.slugs.Allocate(ctx, l.Title)
		if err != nil {
			return nil, err
		}
		l.Slug = slug

		saved, err := write(l)
		if errors.Is(err, domain.ErrSlugTaken) {
			s.logger.Warn().Str("slug", slug).Int("attempt", attempt).Msg("slug conflict, reallocating")
			continue
		}
		if err != nil {
			return nil, err
		}
		return saved, nil
	}
	return nil, domain.ErrSlugTaken
}

func (s *ListingService) Get(ctx context.Context, actor *domain.PrincipalView, id string) (*domain.Listing, error) {
	listing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(actor, listing) {
		return nil, domain.ErrListingNotFound
	}
	return listing, nil
}

// GetPublishedBySlug serves the public detail page.
func (s *ListingService) GetPublishedBySlug(ctx context.Context, slug string) (*domain.Listing, error) {
	listing, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !listing.IsPublished {
		return nil, domain.ErrListingNotFound
	}
	return listing, nil
}

// List applies visibility by actor: anonymous callers get published listings,
// agents get their own, admins get everything.
func (s *ListingService) List(ctx context.Context, actor *domain.PrincipalView, input ports.ListListingsInput) (*ports.ListListingsResult, error) {
	page, limit := normalizePage(input.Page, input.Limit)

	filter := ports.ListListingsFilter{
		Brand:        strings.TrimSpace(input.Brand),
		FeaturedOnly: input.FeaturedOnly,
		Search:       strings.TrimSpace(input.Search),
		Page:         page,
		Limit:        limit,
	}
	switch {
	case actor == nil:
		filter.PublishedOnly = true
	case actor.Capability == domain.CapabilityAgent:
		filter.OwnerAgentID = actor.ID
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &ports.ListListingsResult{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

// Update replaces the writable fields of a listing. A changed title gets a
// freshly allocated slug.
func (s *ListingService) Update(ctx context.Context, actor *domain.PrincipalView, id string, input ports.ListingInput) (*domain.Listing, error) {
	listing, err := s.loadForMutation(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := validateListingInput(input); err != nil {
		return nil, err
	}

	titleChanged := Slugify(input.Title) != Slugify(listing.Title)
	applyListingFields(listing, input)
	listing.UpdatedAt = time.Now().UTC()

	if actor.IsAdmin() {
		if input.OwnerAgentID != "" && input.OwnerAgentID != listing.OwnerAgentID {
			if err := s.requireAgent(ctx, input.OwnerAgentID); err != nil {
				return nil, err
			}
			listing.OwnerAgentID = input.OwnerAgentID
		}
		listing.IsPublished = input.IsPublished
		listing.IsFeatured = input.IsFeatured
	}

	var updated *domain.Listing
	if titleChanged {
		updated, err = s.writeWithSlug(ctx, listing, func(l *domain.Listing) (*domain.Listing, error) {
			return s.repo.Update(ctx, l)
		})
	} else {
		updated, err = s.repo.Update(ctx, listing)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("listing_id", id).Str("actor", string(actor.Capability)).Msg("listing updated")
	return updated, nil
}

func (s *ListingService) Delete(ctx context.Context, actor *domain.PrincipalView, id string) error {
	if _, err := s.loadForMutation(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("listing_id", id).Str("actor", string(actor.Capability)).Msg("listing deleted")
	return nil
}

func (s *ListingService) SetPublished(ctx context.Context, actor *domain.PrincipalView, id string, published bool) (*domain.Listing, error) {
	return s.toggle(ctx, actor, id, func(l *domain.Listing) { l.IsPublished = published })
}

func (s *ListingService) SetFeatured(ctx context.Context, actor *domain.PrincipalView, id string, featured bool) (*domain.Listing, error) {
	return s.toggle(ctx, actor, id, func(l *domain.Listing) { l.IsFeatured = featured })
}

func (s *ListingService) toggle(ctx context.Context, actor *domain.PrincipalView, id string, apply func(*domain.Listing)) (*domain.Listing, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	listing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	apply(listing)
	listing.UpdatedAt = time.Now().UTC()
	return s.repo.Update(ctx, listing)
}

// loadForMutation hides listings the actor does not own behind ErrListingNotFound.
func (s *ListingService) loadForMutation(ctx context.Context, actor *domain.PrincipalView, id string) (*domain.Listing, error) {
	if actor == nil {
		return nil, domain.ErrUnauthenticated
	}
	listing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch actor.Capability {
	case domain.CapabilityAdmin:
		return listing, nil
	case domain.CapabilityAgent:
		if !listing.OwnedBy(actor.ID) {
			return nil, domain.ErrListingNotFound
		}
		return listing, nil
	default:
		return nil, domain.ErrUnknownCapability
	}
}

func (s *ListingService) requireAgent(ctx context.Context, agentID string) error {
	if agentID == "" {
		return domain.NewValidationError("owner_agent_id is required")
	}
	if _, err := s.agents.FindByID(ctx, agentID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewValidationError("owner agent does not exist")
		}
		return err
	}
	return nil
}

func canView(actor *domain.PrincipalView, l *domain.Listing) bool {
	switch {
	case actor == nil:
		return l.IsPublished
	case actor.Capability == domain.CapabilityAdmin:
		return true
	default:
		return l.OwnedBy(actor.ID)
	}
}

func validateListingInput(in ports.ListingInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return domain.NewValidationError("title is required")
	}
	if in.Price < 0 {
		return domain.NewValidationError("price must not be negative")
	}
	if in.Mileage < 0 {
		return domain.NewValidationError("mileage must not be negative")
	}
	return nil
}

func applyListingFields(l *domain.Listing, in ports.ListingInput) {
	l.Title = strings.TrimSpace(in.Title)
	l.Brand = in.Brand
	l.Model = in.Model
	l.Year = in.Year
	l.Price = in.Price
	l.Mileage = in.Mileage
	l.FuelType = in.FuelType
	l.Transmission = in.Transmission
	l.Description = in.Description
	l.Images = append([]string(nil), in.Images...)
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}
