package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/autodealer/dealership-api/internal/core/domain"
	"github.com/autodealer/dealership-api/internal/core/ports"
)

// PageViewQueue is the interface the handler uses to enqueue page views.
type PageViewQueue interface {
	Enqueue(view ports.PageViewInput) bool
}

// AnalyticsHandler ingests and reports page views.
type AnalyticsHandler struct {
	queue   PageViewQueue
	service ports.AnalyticsService
	now     func() time.Time
}

func NewAnalyticsHandler(queue PageViewQueue, service ports.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{queue: queue, service: service, now: time.Now}
}

// Track handles POST /api/analytics/pageview. The view is queued and 202 returned at once.
// The client IP is hashed before storage and never persisted.
//
// @Summary      Record a page view
// @Tags         analytics
// @Accept       json
// @Produce      json
// @Param        body  body      pageViewRequest  true  "Page view"
// @Success      202   {object}  acceptedResponse
// @Failure      400   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/analytics/pageview [post]
func (h *AnalyticsHandler) Track(c echo.Context) error {
	var req pageViewRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	h.queue.Enqueue(ports.PageViewInput{
		Path:      req.Path,
		ClientIP:  c.RealIP(),
		UserAgent: c.Request().UserAgent(),
		Referrer:  req.Referrer,
		ViewedAt:  h.now().UTC(),
	})
	return c.JSON(http.StatusAccepted, acceptedResponse{Message: "page view accepted"})
}

// Summary handles GET /api/admin/analytics/pageviews.
//
// @Summary      Page views grouped by time window
// @Tags         analytics
// @Produce      json
// @Security     BearerAuth
// @Param        window  query     string  false  "hour or day (default day)"
// @Param        from    query     string  false  "RFC3339 start (default now-7d)"
// @Param        to      query     string  false  "RFC3339 end (default now)"
// @Success      200     {object}  pageViewSummaryResponse
// @Failure      400     {object}  errorResponse
// @Router       /api/admin/analytics/pageviews [get]
func (h *AnalyticsHandler) Summary(c echo.Context) error {
	var (
		window   string
		from, to time.Time
	)
	err := echo.QueryParamsBinder(c).
		String("window", &window).
		Time("from", &from, time.RFC3339).
		Time("to", &to, time.RFC3339).
		BindError()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query: from and to must be RFC3339 timestamps")
	}

	w := domain.TimeWindow(window)
	if w == "" {
		w = domain.WindowDay
	}

	buckets, err := h.service.Summary(c.Request().Context(), w, from, to)
	if err != nil {
		return err
	}
	if buckets == nil {
		buckets = []domain.PageViewBucket{}
	}
	return c.JSON(http.StatusOK, pageViewSummaryResponse{Window: string(w), Buckets: buckets})
}
