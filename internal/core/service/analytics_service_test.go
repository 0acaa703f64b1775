package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autodealer/dealership-api/internal/core/domain"
	"github.com/autodealer/dealership-api/internal/core/ports"
)

type stubPageViewRepo struct {
	inserted []*domain.PageView
	window   domain.TimeWindow
	from, to time.Time
}

func (r *stubPageViewRepo) Insert(_ context.Context, v *domain.PageView) error {
	r.inserted = append(r.inserted, v)
	return nil
}

func (r *stubPageViewRepo) Aggregate(_ context.Context, window domain.TimeWindow, from, to time.Time) ([]domain.PageViewBucket, error) {
	r.window, r.from, r.to = window, from, to
	return []domain.PageViewBucket{{WindowStart: from, Views: 3, UniqueVisitors: 2}}, nil
}

type stubDedup struct {
	seen map[string]bool
	err  error
}

func (d *stubDedup) IsDuplicate(_ context.Context, visitor, path string) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	key := visitor + "|" + path
	if d.seen[key] {
		return true, nil
	}
	d.seen[key] = true
	return false, nil
}

func newAnalyticsFixture(t *testing.T) (*analyticsService, *stubPageViewRepo, *stubDedup) {
	t.Helper()
	repo := &stubPageViewRepo{}
	dedup := &stubDedup{seen: map[string]bool{}}
	svc := NewAnalyticsService(repo, dedup, "pepper", discardLogger).(*analyticsService)
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	return svc, repo, dedup
}

func TestHashVisitor(t *testing.T) {
	h := HashVisitor("pepper", "203.0.113.7")
	assert.Len(t, h, 64)
	assert.Equal(t, h, HashVisitor("pepper", "203.0.113.7"))
	assert.NotEqual(t, h, HashVisitor("salt", "203.0.113.7"))
	assert.NotContains(t, h, "203.0.113.7")
}

func TestAnalyticsService_Record_DedupsRepeatViews(t *testing.T) {
	svc, repo, _ := newAnalyticsFixture(t)
	ctx := context.Background()
	in := ports.PageViewInput{Path: "/cars/porsche-911", ClientIP: "203.0.113.7", UserAgent: "test"}

	require.NoError(t, svc.Record(ctx, in))
	require.NoError(t, svc.Record(ctx, in))
	in.Path = "/cars/bmw-m3"
	require.NoError(t, svc.Record(ctx, in))

	require.Len(t, repo.inserted, 2)
	assert.Equal(t, HashVisitor("pepper", "203.0.113.7"), repo.inserted[0].VisitorHash)
	assert.Equal(t, svc.now(), repo.inserted[0].ViewedAt)
}

func TestAnalyticsService_Record_DedupFailureStillRecords(t *testing.T) {
	svc, repo, dedup := newAnalyticsFixture(t)
	dedup.err = errors.New("redis down")

	require.NoError(t, svc.Record(context.Background(), ports.PageViewInput{Path: "/", ClientIP: "1.1.1.1"}))
	assert.Len(t, repo.inserted, 1)
}

func TestAnalyticsService_Record_RejectsBadPath(t *testing.T) {
	svc, repo, _ := newAnalyticsFixture(t)

	for _, p := range []string{"", "cars", "https://evil.example/"} {
		err := svc.Record(context.Background(), ports.PageViewInput{Path: p})
		assert.ErrorIs(t, err, domain.ErrValidation, "path %q", p)
	}
	assert.Empty(t, repo.inserted)
}

func TestAnalyticsService_Summary(t *testing.T) {
	svc, repo, _ := newAnalyticsFixture(t)
	ctx := context.Background()

	buckets, err := svc.Summary(ctx, "", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	assert.Equal(t, domain.WindowDay, repo.window)
	assert.Equal(t, svc.now().Add(-7*24*time.Hour), repo.from)
	assert.Equal(t, svc.now(), repo.to)

	_, err = svc.Summary(ctx, "week", time.Time{}, time.Time{})
	assert.ErrorIs(t, err, domain.ErrValidation)

	now := svc.now()
	_, err = svc.Summary(ctx, domain.WindowHour, now, now.Add(-time.Hour))
	assert.ErrorIs(t, err, domain.ErrValidation)
}
