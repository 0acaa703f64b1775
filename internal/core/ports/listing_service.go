package ports

import (
	"context"

	"github.com/autodealer/dealership-api/internal/core/domain"
)

// ListingInput carries the writable listing fields.
type ListingInput struct {
	Title        string
	Brand        string
	Model        string
	Year         int
	Price        float64
	Mileage      int
	FuelType     string
	Transmission string
	Description  string
	Images       []string
	// Admin-only fields; ignored for agent actors.
	OwnerAgentID string
	IsPublished  bool
	IsFeatured   bool
}

// ListListingsInput carries list parameters coming from the transport layer.
type ListListingsInput struct {
	Brand        string
	FeaturedOnly bool
	Search       string
	Page         int
	Limit        int
}

// ListListingsResult is a page of listings.
type ListListingsResult struct {
	Items      []*domain.Listing
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// ListingService defines use-case operations for car listings. A nil actor
// means an anonymous public caller.
type ListingService interface {
	Create(ctx context.Context, actor *domain.PrincipalView, input ListingInput) (*domain.Listing, error)
	Get(ctx context.Context, actor *domain.PrincipalView, id string) (*domain.Listing, error)
	GetPublishedBySlug(ctx context.Context, slug string) (*domain.Listing, error)
	List(ctx context.Context, actor *domain.PrincipalView, input ListListingsInput) (*ListListingsResult, error)
	Update(ctx context.Context, actor *domain.PrincipalView, id string, input ListingInput) (*domain.Listing, error)
	Delete(ctx context.Context, actor *domain.PrincipalView, id string) error
	SetPublished(ctx context.Context, actor *domain.PrincipalView, id string, published bool) (*domain.Listing, error)
	SetFeatured(ctx context.Context, actor *domain.PrincipalView, id string, featured bool) (*domain.Listing, error)
}

// SlugAllocator produces a unique slug for a listing title.
type SlugAllocator interface {
	Allocate(ctx context.Context, title string) (string, error)
}
