package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/autodealer/dealership-api/internal/api/metrics"
	"github.com/autodealer/dealership-api/internal/core/ports"
)

// ListingHandler handles HTTP requests for car listings. The same handler
// serves the public, agent and admin route groups; visibility follows the
// principal attached to the context.
type ListingHandler struct {
	service ports.ListingService
}

func NewListingHandler(service ports.ListingService) *ListingHandler {
	return &ListingHandler{service: service}
}

// ListPublic handles GET /api/cars.
//
// @Summary      List published cars
// @Tags         cars
// @Produce      json
// @Param        brand     query     string  false  "Brand (exact, case-insensitive)"
// @Param        featured  query     bool    false  "Only featured listings"
// @Param        search    query     string  false  "Title search"
// @Param        page      query     int     false  "Page (1-based)"
// @Param        limit     query     int     false  "Page size (max 100)"
// @Success      200       {object}  listingListResponse
// @Router       /api/cars [get]
func (h *ListingHandler) ListPublic(c echo.Context) error {
	var q listQuery
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}
	res, err := h.service.List(c.Request().Context(), nil, toListInput(q))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListingListResponse(res))
}

// GetPublic handles GET /api/cars/:slug.
//
// @Summary      Get a published car by slug
// @Tags         cars
// @Produce      json
// @Param        slug  path      string  true  "Listing slug"
// @Success      200   {object}  domain.Listing
// @Failure      404   {object}  errorResponse
// @Router       /api/cars/{slug} [get]
func (h *ListingHandler) GetPublic(c echo.Context) error {
	l, err := h.service.GetPublishedBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, l)
}

// List handles GET /api/{admin,agent}/cars.
//
// @Summary      List cars visible to the caller
// @Tags         cars
// @Produce      json
// @Security     BearerAuth
// @Param        brand     query     string  false  "Brand"
// @Param        featured  query     bool    false  "Only featured listings"
// @Param        search    query     string  false  "Title search"
// @Param        page      query     int     false  "Page (1-based)"
// @Param        limit     query     int     false  "Page size (max 100)"
// @Success      200       {object}  listingListResponse
// @Failure      401       {object}  errorResponse
// @Router       /api/admin/cars [get]
// @Router       /api/agent/cars [get]
func (h *ListingHandler) List(c echo.Context) error {
	actor, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	var q listQuery
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}
	res, err := h.service.List(c.Request().Context(), actor, toListInput(q))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListingListResponse(res))
}

// Create handles POST /api/{admin,agent}/cars.
//
// @Summary      Create a car listing
// @Description  Agent listings start unpublished and are owned by the agent.
// @Tags         cars
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      listingRequest  true  "Listing"
// @Success      201   {object}  domain.Listing
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/admin/cars [post]
// @Router       /api/agent/cars [post]
func (h *ListingHandler) Create(c echo.Context) error {
	actor, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	var req listingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	l, err := h.service.Create(c.Request().Context(), actor, toListingInput(req))
	if err != nil {
		return err
	}
	metrics.ListingsCreatedTotal.WithLabelValues(string(actor.Capability)).Inc()
	return c.JSON(http.StatusCreated, l)
}

// Get handles GET /api/{admin,agent}/cars/:id.
//
// @Summary      Get a car listing
// @Tags         cars
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Listing ID"
// @Success      200  {object}  domain.Listing
// @Failure      404  {object}  errorResponse
// @Router       /api/admin/cars/{id} [get]
// @Router       /api/agent/cars/{id} [get]
func (h *ListingHandler) Get(c echo.Context) error {
	actor, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	l, err := h.service.Get(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, l)
}

// Update handles PUT /api/{admin,agent}/cars/:id.
//
// @Summary      Update a car listing
// @Tags         cars
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string          true  "Listing ID"
// @Param        body  body      listingRequest  true  "Listing"
// @Success      200   {object}  domain.Listing
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/admin/cars/{id} [put]
// @Router       /api/agent/cars/{id} [put]
func (h *ListingHandler) Update(c echo.Context) error {
	actor, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	var req listingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	l, err := h.service.Update(c.Request().Context(), actor, c.Param("id"), toListingInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, l)
}

// Delete handles DELETE /api/{admin,agent}/cars/:id.
//
// @Summary      Delete a car listing
// @Tags         cars
// @Security     BearerAuth
// @Param        id   path  string  true  "Listing ID"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /api/admin/cars/{id} [delete]
// @Router       /api/agent/cars/{id} [delete]
func (h *ListingHandler) Delete(c echo.Context) error {
	actor, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Publish handles PATCH /api/admin/cars/:id/publish.
//
// @Summary      Publish or unpublish a listing
// @Tags         cars
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string         true  "Listing ID"
// @Param        body  body      toggleRequest  true  "Published flag"
// @Success      200   {object}  domain.Listing
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/admin/cars/{id}/publish [patch]
func (h *ListingHandler) Publish(c echo.Context) error {
	actor, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	var req toggleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	l, err := h.service.SetPublished(c.Request().Context(), actor, c.Param("id"), *req.Value)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, l)
}

// Feature handles PATCH /api/admin/cars/:id/feature.
//
// @Summary      Feature or unfeature a listing
// @Tags         cars
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string         true  "Listing ID"
// @Param        body  body      toggleRequest  true  "Featured flag"
// @Success      200   {object}  domain.Listing
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/admin/cars/{id}/feature [patch]
func (h *ListingHandler) Feature(c echo.Context) error {
	actor, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	var req toggleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	l, err := h.service.SetFeatured(c.Request().Context(), actor, c.Param("id"), *req.Value)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, l)
}
