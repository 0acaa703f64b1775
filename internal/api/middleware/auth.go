package middleware

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/autodealer/dealership-api/internal/api/metrics"
	"github.com/autodealer/dealership-api/internal/core/domain"
	"github.com/autodealer/dealership-api/internal/core/ports"
)

// PrincipalKey is the echo context key holding the *domain.PrincipalView of
// an authenticated request.
const PrincipalKey = "principal"

// RequireCapability authenticates the bearer token through gateway and only
// lets principals of the given capability through.
func RequireCapability(gateway ports.Gateway, capability domain.Capability) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, err := gateway.Authenticate(
				c.Request().Context(),
				c.Request().Header.Get(echo.HeaderAuthorization),
				capability,
			)
			if err != nil {
				var authErr *domain.AuthError
				if !errors.As(err, &authErr) {
					return err
				}
				status := http.StatusUnauthorized
				if errors.Is(authErr, domain.ErrForbidden) {
					status = http.StatusForbidden
				}
				metrics.AuthRejectionsTotal.WithLabelValues(string(capability), strconv.Itoa(status)).Inc()
				return c.JSON(status, map[string]string{"error": authErr.Message})
			}

			c.Set(PrincipalKey, principal)
			return next(c)
		}
	}
}

// Principal returns the principal attached by RequireCapability, or nil.
func Principal(c echo.Context) *domain.PrincipalView {
	p, _ := c.Get(PrincipalKey).(*domain.PrincipalView)
	return p
}
