// Package auth provides authentication HTTP handlers.
package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/agentnetph/agent-network-backend/internal/common/handler"
	"github.com/agentnetph/agent-network-backend/internal/common/response"
	"github.com/agentnetph/agent-network-backend/internal/service/auth"
)

// Handler authentication handler
type Handler struct {
	service *auth.Service
}

// NewHandler creates the auth handler
func NewHandler(service *auth.Service) *Handler {
	return &Handler{service: service}
}

// LoginRequest admin login payload
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AdminLogin authenticates an admin.
// POST /api/v1/auth/admin/login
func (h *Handler) AdminLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "username and password are required")
		return
	}

	pair, admin, err := h.service.AdminLogin(c.Request.Context(), req.Username, req.Password)
	if handler.HandleError(c, err) {
		return
	}

	response.Success(c, gin.H{
		"token": pair,
		"admin": admin,
	})
}

// IssueAgentToken issues a portal token for an agent (admin).
// POST /api/v1/admin/agents/:id/token
func (h *Handler) IssueAgentToken(c *gin.Context) {
	id, ok := handler.ParseIDParam(c, "id")
	if !ok {
		return
	}

	pair, err := h.service.IssueAgentToken(c.Request.Context(), id)
	handler.MustSucceed(c, err, pair)
}

// RefreshRequest token refresh payload
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Refresh exchanges a refresh token for a new pair.
// POST /api/v1/auth/refresh
func (h *Handler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "refresh token is required")
		return
	}

	pair, err := h.service.Refresh(c.Request.Context(), req.RefreshToken)
	handler.MustSucceed(c, err, pair)
}
