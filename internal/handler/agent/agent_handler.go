// Package agent provides agent HTTP handlers.
package agent

import (
	"github.com/gin-gonic/gin"

	"github.com/agentnetph/agent-network-backend/internal/common/handler"
	"github.com/agentnetph/agent-network-backend/internal/common/response"
	"github.com/agentnetph/agent-network-backend/internal/service/agent"
)

// Handler agent handler
type Handler struct {
	service *agent.Service
}

// NewHandler creates the agent handler
func NewHandler(service *agent.Service) *Handler {
	return &Handler{service: service}
}

// Register creates an agent with its wallet (admin).
// POST /api/v1/admin/agents
func (h *Handler) Register(c *gin.Context) {
	var input agent.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, "invalid agent")
		return
	}

	created, err := h.service.Register(c.Request.Context(), &input)
	handler.MustSucceed(c, err, created)
}

// GetByCode fetches an agent with its wallet.
// GET /api/v1/agents/:code
func (h *Handler) GetByCode(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		response.BadRequest(c, "agent code is required")
		return
	}

	found, err := h.service.GetByCode(c.Request.Context(), code)
	handler.MustSucceed(c, err, found)
}

// GetUpline returns the commission-earning ancestors of an agent.
// GET /api/v1/agents/:code/upline
func (h *Handler) GetUpline(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		response.BadRequest(c, "agent code is required")
		return
	}

	upline, err := h.service.Upline(c.Request.Context(), code)
	handler.MustSucceed(c, err, upline)
}

// List lists agents (admin).
// GET /api/v1/admin/agents
func (h *Handler) List(c *gin.Context) {
	page, pageSize := handler.ParsePagination(c)
	filters := map[string]interface{}{
		"status":        c.Query("status"),
		"referrer_code": c.Query("referrer_code"),
	}

	list, total, err := h.service.List(c.Request.Context(), (page-1)*pageSize, pageSize, filters)
	handler.MustSucceedPage(c, err, list, total, page, pageSize)
}

// Suspend suspends an agent (admin).
// POST /api/v1/admin/agents/:id/suspend
func (h *Handler) Suspend(c *gin.Context) {
	id, ok := handler.ParseIDParam(c, "id")
	if !ok {
		return
	}

	err := h.service.Suspend(c.Request.Context(), id)
	handler.MustSucceed(c, err, nil)
}

// Reactivate reactivates a suspended agent (admin).
// POST /api/v1/admin/agents/:id/reactivate
func (h *Handler) Reactivate(c *gin.Context) {
	id, ok := handler.ParseIDParam(c, "id")
	if !ok {
		return
	}

	err := h.service.Reactivate(c.Request.Context(), id)
	handler.MustSucceed(c, err, nil)
}

// Decommission terminates an agent after the downline, balance and
// withdrawal checks pass (admin).
// POST /api/v1/admin/agents/:id/decommission
func (h *Handler) Decommission(c *gin.Context) {
	adminID, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}
	id, ok := handler.ParseIDParam(c, "id")
	if !ok {
		return
	}

	err := h.service.Decommission(c.Request.Context(), id, adminID)
	handler.MustSucceed(c, err, nil)
}
