package handler

import (
	"github.com/autodealer/dealership-api/internal/core/domain"
	"github.com/autodealer/dealership-api/internal/core/ports"
)

// --- Request → Service input ---

func toListingInput(req listingRequest) ports.ListingInput {
	return ports.ListingInput{
		Title:        req.Title,
		Brand:        req.Brand,
		Model:        req.Model,
		Year:         req.Year,
		Price:        req.Price,
		Mileage:      req.Mileage,
		FuelType:     req.FuelType,
		Transmission: req.Transmission,
		Description:  req.Description,
		Images:       req.Images,
		OwnerAgentID: req.OwnerAgentID,
		IsPublished:  req.IsPublished,
		IsFeatured:   req.IsFeatured,
	}
}

func toListInput(q listQuery) ports.ListListingsInput {
	return ports.ListListingsInput{
		Brand:        q.Brand,
		FeaturedOnly: q.Featured,
		Search:       q.Search,
		Page:         q.Page,
		Limit:        q.Limit,
	}
}

// --- Domain → Response ---

func toListingListResponse(res *ports.ListListingsResult) listingListResponse {
	items := res.Items
	if items == nil {
		items = []*domain.Listing{}
	}
	return listingListResponse{
		Items:      items,
		Total:      res.Total,
		Page:       res.Page,
		Limit:      res.Limit,
		TotalPages: res.TotalPages,
	}
}

func toAgentResponse(a *domain.Agent) agentResponse {
	return agentResponse{
		ID:          a.ID,
		Email:       a.Email,
		Name:        a.Name,
		Phone:       a.Phone,
		Role:        a.Role,
		IsActive:    a.IsActive,
		Provisioned: a.ProvisionState() == domain.Provisioned,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}
