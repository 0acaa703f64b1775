package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/autodealer/dealership-api/internal/api/metrics"
	"github.com/autodealer/dealership-api/internal/core/domain"
	"github.com/autodealer/dealership-api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// LoginAdmin authenticates an admin and returns a bearer token.
//
// @Summary      Admin login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /api/admin/login [post]
func (h *AuthHandler) LoginAdmin(c echo.Context) error {
	return h.login(c, domain.CapabilityAdmin, h.authService.LoginAdmin)
}

// LoginAgent authenticates an agent. The first password an unprovisioned
// agent presents becomes its permanent password.
//
// @Summary      Agent login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /api/agent/login [post]
func (h *AuthHandler) LoginAgent(c echo.Context) error {
	return h.login(c, domain.CapabilityAgent, h.authService.LoginAgent)
}

type loginFunc func(ctx context.Context, email, password string) (*ports.LoginResult, error)

func (h *AuthHandler) login(c echo.Context, capability domain.Capability, fn loginFunc) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := fn(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		result := "error"
		if errors.Is(err, domain.ErrInvalidCredentials) {
			result = "invalid_credentials"
		}
		metrics.LoginsTotal.WithLabelValues(string(capability), result).Inc()
		return err
	}

	metrics.LoginsTotal.WithLabelValues(string(capability), "success").Inc()
	return c.JSON(http.StatusOK, loginResponse{Token: res.Token, User: res.Principal})
}

// Me returns the authenticated principal.
//
// @Summary      Current principal
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.PrincipalView
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /api/admin/me [get]
// @Router       /api/agent/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}
