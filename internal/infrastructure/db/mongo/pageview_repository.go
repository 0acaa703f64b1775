package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/autodealer/dealership-api/internal/core/domain"
)

// PageViewRepository implements ports.PageViewRepository using MongoDB.
type PageViewRepository struct {
	col *mongo.Collection
}

func NewPageViewRepository(db *mongo.Database) *PageViewRepository {
	return &PageViewRepository{col: db.Collection(collectionPageViews)}
}

type mongoPageView struct {
	Path        string    `bson:"path"`
	VisitorHash string    `bson:"visitor_hash"`
	UserAgent   string    `bson:"user_agent,omitempty"`
	Referrer    string    `bson:"referrer,omitempty"`
	ViewedAt    time.Time `bson:"viewed_at"`
}

func (r *PageViewRepository) Insert(ctx context.Context, v *domain.PageView) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, mongoPageView{
		Path:        v.Path,
		VisitorHash: v.VisitorHash,
		UserAgent:   v.UserAgent,
		Referrer:    v.Referrer,
		ViewedAt:    v.ViewedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("insert page view: %w", err)
	}
	return nil
}

type bucketDoc struct {
	WindowStart    time.Time `bson:"_id"`
	Views          int64     `bson:"views"`
	UniqueVisitors int64     `bson:"unique_visitors"`
}

// Aggregate buckets views in [from, to) by UTC hour or day, oldest first.
func (r *PageViewRepository) Aggregate(ctx context.Context, window domain.TimeWindow, from, to time.Time) ([]domain.PageViewBucket, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cur, err := r.col.Aggregate(ctx, aggregatePipeline(window, from, to))
	if err != nil {
		return nil, fmt.Errorf("aggregate page views: %w", err)
	}
	defer cur.Close(ctx)

	var docs []bucketDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode page view buckets: %w", err)
	}

	out := make([]domain.PageViewBucket, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.PageViewBucket{
			WindowStart:    d.WindowStart.UTC(),
			Views:          d.Views,
			UniqueVisitors: d.UniqueVisitors,
		})
	}
	return out, nil
}

func aggregatePipeline(window domain.TimeWindow, from, to time.Time) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"viewed_at": bson.M{"$gte": from, "$lt": to}}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{"$dateTrunc": bson.M{
				"date":     "$viewed_at",
				"unit":     string(window),
				"timezone": "UTC",
			}},
			"views":    bson.M{"$sum": 1},
			"visitors": bson.M{"$addToSet": "$visitor_hash"},
		}}},
		{{Key: "$project", Value: bson.M{
			"views":           1,
			"unique_visitors": bson.M{"$size": "$visitors"},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}
}
