package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/autodealer/dealership-api/internal/api/middleware"
	"github.com/autodealer/dealership-api/internal/core/domain"
)

// ctxPrincipal returns the principal attached by the capability middleware.
// Its absence means the route was registered without a guard, which is
// treated as unauthenticated rather than as a public call.
func ctxPrincipal(c echo.Context) (*domain.PrincipalView, error) {
	p := middleware.Principal(c)
	if p == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication")
	}
	return p, nil
}

// bindAndValidate binds the request into req and runs struct validation.
// Bind failures are 400, validation failures 422.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return nil
}
