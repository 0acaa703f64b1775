package ports

import (
	"context"
	"time"

	"github.com/autodealer/dealership-api/internal/core/domain"
)

// PageViewInput is the DTO passed from the transport layer to the analytics service.
type PageViewInput struct {
	Path      string
	ClientIP  string
	UserAgent string
	Referrer  string
	ViewedAt  time.Time
}

// PageViewRepository persists and aggregates page views.
type PageViewRepository interface {
	Insert(ctx context.Context, view *domain.PageView) error
	Aggregate(ctx context.Context, window domain.TimeWindow, from, to time.Time) ([]domain.PageViewBucket, error)
}

// AnalyticsService records and summarises page views.
type AnalyticsService interface {
	Record(ctx context.Context, in PageViewInput) error
	Summary(ctx context.Context, window domain.TimeWindow, from, to time.Time) ([]domain.PageViewBucket, error)
}
