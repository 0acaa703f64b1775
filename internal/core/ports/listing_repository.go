package ports

import (
	"context"

	"github.com/autodealer/dealership-api/internal/core/domain"
)

// ListListingsFilter carries the query parameters for listing cars.
type ListListingsFilter struct {
	OwnerAgentID  string // empty = any owner
	PublishedOnly bool
	Brand         string
	FeaturedOnly  bool
	Search        string // partial match on title
	Page          int    // 1-based
	Limit         int
}

// ListingRepository defines persistence operations for listings.
type ListingRepository interface {
	// Create returns domain.ErrSlugTaken when the slug unique index rejects the insert.
	Create(ctx context.Context, l *domain.Listing) (*domain.Listing, error)
	FindByID(ctx context.Context, id string) (*domain.Listing, error)
	FindBySlug(ctx context.Context, slug string) (*domain.Listing, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, filter ListListingsFilter) ([]*domain.Listing, int64, error)
	// Update replaces the mutable fields. Returns domain.ErrSlugTaken on slug conflict.
	Update(ctx context.Context, l *domain.Listing) (*domain.Listing, error)
	Delete(ctx context.Context, id string) error
}
