package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/autodealer/dealership-api/internal/core/domain"
	"github.com/autodealer/dealership-api/internal/core/ports"
)

// ListingRepository implements ports.ListingRepository using MongoDB. Slug
// uniqueness is enforced by a unique index, see EnsureIndexes.
type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{col: db.Collection(collectionListings)}
}

type mongoListing struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Slug         string             `bson:"slug"`
	Title        string             `bson:"title"`
	Brand        string             `bson:"brand"`
	Model        string             `bson:"model"`
	Year         int                `bson:"year"`
	Price        float64            `bson:"price"`
	Mileage      int                `bson:"mileage"`
	FuelType     string             `bson:"fuel_type,omitempty"`
	Transmission string             `bson:"transmission,omitempty"`
	Description  string             `bson:"description,omitempty"`
	Images       []string           `bson:"images"`
	OwnerAgentID string             `bson:"owner_agent_id"`
	IsPublished  bool               `bson:"is_published"`
	IsFeatured   bool               `bson:"is_featured"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

func fromListing(l *domain.Listing) mongoListing {
	images := l.Images
	if images == nil {
		images = []string{}
	}
	return mongoListing{
		Slug:         l.Slug,
		Title:        l.Title,
		Brand:        l.Brand,
		Model:        l.Model,
		Year:         l.Year,
		Price:        l.Price,
		Mileage:      l.Mileage,
		FuelType:     l.FuelType,
		Transmission: l.Transmission,
		Description:  l.Description,
		Images:       images,
		OwnerAgentID: l.OwnerAgentID,
		IsPublished:  l.IsPublished,
		IsFeatured:   l.IsFeatured,
		CreatedAt:    l.CreatedAt.UTC(),
		UpdatedAt:    l.UpdatedAt.UTC(),
	}
}

func (m *mongoListing) toDomain() *domain.Listing {
	return &domain.Listing{
		ID:           m.ID.Hex(),
		Slug:         m.Slug,
		Title:        m.Title,
		Brand:        m.Brand,
		Model:        m.Model,
		Year:         m.Year,
		Price:        m.Price,
		Mileage:      m.Mileage,
		FuelType:     m.FuelType,
		Transmission: m.Transmission,
		Description:  m.Description,
		Images:       m.Images,
		OwnerAgentID: m.OwnerAgentID,
		IsPublished:  m.IsPublished,
		IsFeatured:   m.IsFeatured,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func (r *ListingRepository) Create(ctx context.Context, l *domain.Listing) (*domain.Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := fromListing(l)
	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrSlugTaken
		}
		return nil, fmt.Errorf("insert listing: %w", err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toDomain(), nil
}

func (r *ListingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrListingNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *ListingRepository) FindBySlug(ctx context.Context, slug string) (*domain.Listing, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

func (r *ListingRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"slug": slug}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count slug: %w", err)
	}
	return n > 0, nil
}

// List returns one page of listings, newest first, plus the total match count.
func (r *ListingRepository) List(ctx context.Context, f ports.ListListingsFilter) ([]*domain.Listing, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := listingFilter(f)

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count listings: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "is_featured", Value: -1}, {Key: "created_at", Value: -1}}).
		SetSkip(int64((f.Page - 1) * f.Limit)).
		SetLimit(int64(f.Limit))

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find listings: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoListing
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode listings: %w", err)
	}

	items := make([]*domain.Listing, 0, len(docs))
	for i := range docs {
		items = append(items, docs[i].toDomain())
	}
	return items, total, nil
}

func listingFilter(f ports.ListListingsFilter) bson.M {
	filter := bson.M{}
	if f.OwnerAgentID != "" {
		filter["owner_agent_id"] = f.OwnerAgentID
	}
	if f.PublishedOnly {
		filter["is_published"] = true
	}
	if f.FeaturedOnly {
		filter["is_featured"] = true
	}
	if f.Brand != "" {
		filter["brand"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(f.Brand) + "$", Options: "i"}
	}
	if f.Search != "" {
		filter["title"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
	}
	return filter
}

func (r *ListingRepository) Update(ctx context.Context, l *domain.Listing) (*domain.Listing, error) {
	oid, ok := objectID(l.ID)
	if !ok {
		return nil, domain.ErrListingNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := fromListing(l)
	doc.ID = oid
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": oid}, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrSlugTaken
		}
		return nil, fmt.Errorf("update listing: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, domain.ErrListingNotFound
	}
	return doc.toDomain(), nil
}

func (r *ListingRepository) Delete(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrListingNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrListingNotFound
	}
	return nil
}

func (r *ListingRepository) findOne(ctx context.Context, filter bson.M) (*domain.Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var ml mongoListing
	if err := r.col.FindOne(ctx, filter).Decode(&ml); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrListingNotFound
		}
		return nil, fmt.Errorf("find listing: %w", err)
	}
	return ml.toDomain(), nil
}
