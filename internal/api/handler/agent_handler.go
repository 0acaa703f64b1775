package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/autodealer/dealership-api/internal/core/ports"
)

// AgentHandler serves admin-side agent management.
type AgentHandler struct {
	service ports.AgentService
}

func NewAgentHandler(service ports.AgentService) *AgentHandler {
	return &AgentHandler{service: service}
}

// Create handles POST /api/admin/agents.
//
// @Summary      Provision an agent
// @Description  The agent has no password until its first login.
// @Tags         agents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createAgentRequest  true  "Agent"
// @Success      201   {object}  agentResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/admin/agents [post]
func (h *AgentHandler) Create(c echo.Context) error {
	var req createAgentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	agent, err := h.service.CreateAgent(c.Request().Context(), ports.CreateAgentInput{
		Email: req.Email,
		Name:  req.Name,
		Phone: req.Phone,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toAgentResponse(agent))
}

// List handles GET /api/admin/agents.
//
// @Summary      List agents
// @Tags         agents
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  agentResponse
// @Router       /api/admin/agents [get]
func (h *AgentHandler) List(c echo.Context) error {
	agents, err := h.service.ListAgents(c.Request().Context())
	if err != nil {
		return err
	}
	out := make([]agentResponse, 0, len(agents))
	for _, a := range agents {
		out = append(out, toAgentResponse(a))
	}
	return c.JSON(http.StatusOK, out)
}

// SetStatus handles PATCH /api/admin/agents/:id/status.
//
// @Summary      Activate or deactivate an agent
// @Description  Deactivation applies to tokens that were already issued.
// @Tags         agents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string              true  "Agent ID"
// @Param        body  body      agentStatusRequest  true  "Status"
// @Success      200   {object}  agentResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/admin/agents/{id}/status [patch]
func (h *AgentHandler) SetStatus(c echo.Context) error {
	var req agentStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	agent, err := h.service.SetAgentActive(c.Request().Context(), c.Param("id"), *req.IsActive)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAgentResponse(agent))
}
