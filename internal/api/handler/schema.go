package handler

import (
	"time"

	"github.com/autodealer/dealership-api/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

type acceptedResponse struct {
	Message string `json:"message"`
}

// --- Auth ---

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
}

type loginResponse struct {
	Token string                `json:"token"`
	User  *domain.PrincipalView `json:"user"`
}

// --- Listings ---

type listingRequest struct {
	Title        string   `json:"title"          validate:"required,max=200"`
	Brand        string   `json:"brand"          validate:"required"`
	Model        string   `json:"model"          validate:"required"`
	Year         int      `json:"year"           validate:"required,gte=1900,lte=2100"`
	Price        float64  `json:"price"          validate:"gte=0"`
	Mileage      int      `json:"mileage"        validate:"gte=0"`
	FuelType     string   `json:"fuel_type"      validate:"omitempty,oneof=petrol diesel hybrid electric lpg"`
	Transmission string   `json:"transmission"   validate:"omitempty,oneof=manual automatic"`
	Description  string   `json:"description"    validate:"max=10000"`
	Images       []string `json:"images"         validate:"max=50,dive,url"`
	OwnerAgentID string   `json:"owner_agent_id"`
	IsPublished  bool     `json:"is_published"`
	IsFeatured   bool     `json:"is_featured"`
}

type listQuery struct {
	Brand    string `query:"brand"`
	Featured bool   `query:"featured"`
	Search   string `query:"search"`
	Page     int    `query:"page"  validate:"gte=0"`
	Limit    int    `query:"limit" validate:"gte=0"`
}

type listingListResponse struct {
	Items      []*domain.Listing `json:"items"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
}

type toggleRequest struct {
	Value *bool `json:"value" validate:"required"`
}

// --- Agents ---

type createAgentRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name"  validate:"required,max=120"`
	Phone string `json:"phone" validate:"max=40"`
}

type agentStatusRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// agentResponse is the admin-facing agent view. The password hash never
// leaves the service; Provisioned tells whether one is bound.
type agentResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone,omitempty"`
	Role        string    `json:"role"`
	IsActive    bool      `json:"is_active"`
	Provisioned bool      `json:"provisioned"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// --- Media ---

type watermarkQuery struct {
	URL      string `query:"url"      validate:"required,url"`
	Filename string `query:"filename" validate:"max=120"`
}

type archiveRequest struct {
	URLs []string `json:"urls" validate:"required,min=1,max=50,dive,required,url"`
	Name string   `json:"name" validate:"max=120"`
}

// --- Analytics ---

type pageViewRequest struct {
	Path     string `json:"path"     validate:"required,startswith=/,max=512"`
	Referrer string `json:"referrer" validate:"max=2048"`
}

type pageViewSummaryResponse struct {
	Window  string                  `json:"window"`
	Buckets []domain.PageViewBucket `json:"buckets"`
}
