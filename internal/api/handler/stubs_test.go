package handler

import (
	"context"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/autodealer/dealership-api/internal/api/middleware"
	"github.com/autodealer/dealership-api/internal/core/domain"
	"github.com/autodealer/dealership-api/internal/core/ports"
)

var (
	testAdmin = &domain.PrincipalView{ID: "adm1", Email: "boss@dealer.com", Name: "Boss", Role: "superadmin", Capability: domain.CapabilityAdmin}
	testAgent = &domain.PrincipalView{ID: "agt1", Email: "sam@dealer.com", Name: "Sam", Role: "agent", Capability: domain.CapabilityAgent}
)

// newContext builds an echo context with the validator installed and, when
// principal is non-nil, the principal attached as the auth middleware would.
func newContext(method, target, body string, principal *domain.PrincipalView) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if principal != nil {
		c.Set(middleware.PrincipalKey, principal)
	}
	return c, rec
}

func httpCode(err error) int {
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return 0
}

type stubAuthService struct {
	loginAdminFn func(ctx context.Context, email, password string) (*ports.LoginResult, error)
	loginAgentFn func(ctx context.Context, email, password string) (*ports.LoginResult, error)
}

func (s *stubAuthService) LoginAdmin(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	return s.loginAdminFn(ctx, email, password)
}

func (s *stubAuthService) LoginAgent(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	return s.loginAgentFn(ctx, email, password)
}

type stubListingService struct {
	createFn       func(ctx context.Context, actor *domain.PrincipalView, in ports.ListingInput) (*domain.Listing, error)
	getFn          func(ctx context.Context, actor *domain.PrincipalView, id string) (*domain.Listing, error)
	getBySlugFn    func(ctx context.Context, slug string) (*domain.Listing, error)
	listFn         func(ctx context.Context, actor *domain.PrincipalView, in ports.ListListingsInput) (*ports.ListListingsResult, error)
	updateFn       func(ctx context.Context, actor *domain.PrincipalView, id string, in ports.ListingInput) (*domain.Listing, error)
	deleteFn       func(ctx context.Context, actor *domain.PrincipalView, id string) error
	setPublishedFn func(ctx context.Context, actor *domain.PrincipalView, id string, v bool) (*domain.Listing, error)
	setFeaturedFn  func(ctx context.Context, actor *domain.PrincipalView, id string, v bool) (*domain.Listing, error)
}

func (s *stubListingService) Create(ctx context.Context, actor *domain.PrincipalView, in ports.ListingInput) (*domain.Listing, error) {
	return s.createFn(ctx, actor, in)
}

func (s *stubListingService) Get(ctx context.Context, actor *domain.PrincipalView, id string) (*domain.Listing, error) {
	return s.getFn(ctx, actor, id)
}

func (s *stubListingService) GetPublishedBySlug(ctx context.Context, slug string) (*domain.Listing, error) {
	return s.getBySlugFn(ctx, slug)
}

func (s *stubListingService) List(ctx context.Context, actor *domain.PrincipalView, in ports.ListListingsInput) (*ports.ListListingsResult, error) {
	return s.listFn(ctx, actor, in)
}

func (s *stubListingService) Update(ctx context.Context, actor *domain.PrincipalView, id string, in ports.ListingInput) (*domain.Listing, error) {
	return s.updateFn(ctx, actor, id, in)
}

func (s *stubListingService) Delete(ctx context.Context, actor *domain.PrincipalView, id string) error {
	return s.deleteFn(ctx, actor, id)
}

func (s *stubListingService) SetPublished(ctx context.Context, actor *domain.PrincipalView, id string, v bool) (*domain.Listing, error) {
	return s.setPublishedFn(ctx, actor, id, v)
}

func (s *stubListingService) SetFeatured(ctx context.Context, actor *domain.PrincipalView, id string, v bool) (*domain.Listing, error) {
	return s.setFeaturedFn(ctx, actor, id, v)
}

type stubWatermarkService struct {
	oneFn     func(ctx context.Context, url string) ([]byte, error)
	archiveFn func(ctx context.Context, urls []string, base string, onProgress ports.ProgressFunc) ([]byte, error)
}

func (s *stubWatermarkService) WatermarkOne(ctx context.Context, url string) ([]byte, error) {
	return s.oneFn(ctx, url)
}

func (s *stubWatermarkService) BuildArchive(ctx context.Context, urls []string, base string, onProgress ports.ProgressFunc) ([]byte, error) {
	return s.archiveFn(ctx, urls, base, onProgress)
}

type stubQueue struct {
	views []ports.PageViewInput
}

func (q *stubQueue) Enqueue(v ports.PageViewInput) bool {
	q.views = append(q.views, v)
	return true
}

type stubAnalyticsService struct {
	summaryFn func(ctx context.Context, w domain.TimeWindow, from, to time.Time) ([]domain.PageViewBucket, error)
}

func (s *stubAnalyticsService) Record(context.Context, ports.PageViewInput) error { return nil }

func (s *stubAnalyticsService) Summary(ctx context.Context, w domain.TimeWindow, from, to time.Time) ([]domain.PageViewBucket, error) {
	return s.summaryFn(ctx, w, from, to)
}
