package domain

import "time"

// Listing is a car offered on the site. Slug is globally unique.
type Listing struct {
	ID           string    `json:"id"`
	Slug         string    `json:"slug"`
	Title        string    `json:"title"`
	Brand        string    `json:"brand"`
	Model        string    `json:"model"`
	Year         int       `json:"year"`
	Price        float64   `json:"price"`
	Mileage      int       `json:"mileage"`
	FuelType     string    `json:"fuel_type"`
	Transmission string    `json:"transmission"`
	Description  string    `json:"description"`
	Images       []string  `json:"images"`
	OwnerAgentID string    `json:"owner_agent_id"`
	IsPublished  bool      `json:"is_published"`
	IsFeatured   bool      `json:"is_featured"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// OwnedBy reports whether agentID owns the listing.
func (l *Listing) OwnedBy(agentID string) bool {
	return agentID != "" && l.OwnerAgentID == agentID
}
