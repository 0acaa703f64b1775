package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/autodealer/dealership-api/internal/core/domain"
)

func TestAnalyticsHandler_Track_Enqueues(t *testing.T) {
	queue := &stubQueue{}
	handler := NewAnalyticsHandler(queue, &stubAnalyticsService{})
	fixed := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	handler.now = func() time.Time { return fixed }

	c, rec := newContext(http.MethodPost, "/api/analytics/pageview", `{"path":"/cars/porsche-911","referrer":"https://google.com"}`, nil)
	c.Request().Header.Set("X-Real-IP", "203.0.113.7")
	c.Request().Header.Set("User-Agent", "test-agent")

	if err := handler.Track(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if len(queue.views) != 1 {
		t.Fatalf("expected one queued view, got %d", len(queue.views))
	}
	v := queue.views[0]
	if v.Path != "/cars/porsche-911" || v.ClientIP != "203.0.113.7" || v.UserAgent != "test-agent" || !v.ViewedAt.Equal(fixed) {
		t.Fatalf("unexpected view: %+v", v)
	}
}

func TestAnalyticsHandler_Track_RejectsRelativePath(t *testing.T) {
	queue := &stubQueue{}
	handler := NewAnalyticsHandler(queue, &stubAnalyticsService{})

	c, _ := newContext(http.MethodPost, "/api/analytics/pageview", `{"path":"cars"}`, nil)
	if code := httpCode(handler.Track(c)); code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", code)
	}
	if len(queue.views) != 0 {
		t.Fatalf("invalid views must not be queued")
	}
}

func TestAnalyticsHandler_Summary(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	var gotWindow domain.TimeWindow
	var gotFrom, gotTo time.Time
	stub := &stubAnalyticsService{
		summaryFn: func(ctx context.Context, w domain.TimeWindow, f, to time.Time) ([]domain.PageViewBucket, error) {
			gotWindow, gotFrom, gotTo = w, f, to
			return []domain.PageViewBucket{{WindowStart: from, Views: 3, UniqueVisitors: 2}}, nil
		},
	}
	handler := NewAnalyticsHandler(&stubQueue{}, stub)

	c, rec := newContext(http.MethodGet, "/api/admin/analytics/pageviews?window=hour&from=2026-03-01T00:00:00Z", "", testAdmin)
	if err := handler.Summary(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if gotWindow != domain.WindowHour || !gotFrom.Equal(from) || !gotTo.IsZero() {
		t.Fatalf("unexpected args: %s %s %s", gotWindow, gotFrom, gotTo)
	}

	var resp pageViewSummaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Window != "hour" || len(resp.Buckets) != 1 || resp.Buckets[0].UniqueVisitors != 2 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestAnalyticsHandler_Summary_DefaultsAndBadTime(t *testing.T) {
	var gotWindow domain.TimeWindow
	stub := &stubAnalyticsService{
		summaryFn: func(ctx context.Context, w domain.TimeWindow, f, to time.Time) ([]domain.PageViewBucket, error) {
			gotWindow = w
			return nil, nil
		},
	}
	handler := NewAnalyticsHandler(&stubQueue{}, stub)

	c, rec := newContext(http.MethodGet, "/api/admin/analytics/pageviews", "", testAdmin)
	if err := handler.Summary(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if gotWindow != domain.WindowDay {
		t.Fatalf("expected default window day, got %q", gotWindow)
	}
	var resp map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if buckets, ok := resp["buckets"].([]any); !ok || len(buckets) != 0 {
		t.Fatalf("expected empty bucket array, got %v", resp["buckets"])
	}

	c, _ = newContext(http.MethodGet, "/api/admin/analytics/pageviews?from=yesterday", "", testAdmin)
	if code := httpCode(handler.Summary(c)); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}
