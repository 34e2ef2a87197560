// Package withdrawal provides withdrawal HTTP handlers.
package withdrawal

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/agentnetph/agent-network-backend/internal/common/handler"
	"github.com/agentnetph/agent-network-backend/internal/common/response"
	"github.com/agentnetph/agent-network-backend/internal/service/withdrawal"
)

// Handler withdrawal handler
type Handler struct {
	workflow *withdrawal.Workflow
}

// NewHandler creates the withdrawal handler
func NewHandler(workflow *withdrawal.Workflow) *Handler {
	return &Handler{workflow: workflow}
}

// Request files a payout request for the authenticated agent.
// POST /api/v1/withdrawals
func (h *Handler) Request(c *gin.Context) {
	agentID, ok := handler.RequireAgentID(c)
	if !ok {
		return
	}

	var input withdrawal.RequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, "invalid withdrawal request")
		return
	}

	req, err := h.workflow.Request(c.Request.Context(), agentID, &input)
	handler.MustSucceed(c, err, req)
}

// ListMine lists the authenticated agent's withdrawal requests.
// GET /api/v1/withdrawals
func (h *Handler) ListMine(c *gin.Context) {
	agentID, ok := handler.RequireAgentID(c)
	if !ok {
		return
	}

	page, pageSize := handler.ParsePagination(c)
	filters := map[string]interface{}{"status": c.Query("status")}

	list, total, err := h.workflow.ListByAgent(c.Request.Context(), agentID, (page-1)*pageSize, pageSize, filters)
	handler.MustSucceedPage(c, err, list, total, page, pageSize)
}

// List lists withdrawal requests across agents (admin).
// GET /api/v1/admin/withdrawals
func (h *Handler) List(c *gin.Context) {
	page, pageSize := handler.ParsePagination(c)
	filters := map[string]interface{}{"status": c.Query("status")}

	list, total, err := h.workflow.List(c.Request.Context(), (page-1)*pageSize, pageSize, filters)
	handler.MustSucceedPage(c, err, list, total, page, pageSize)
}

// Lookup fetches one request by the reference number an agent quotes to
// support (admin).
// GET /api/v1/admin/withdrawals/lookup?request_no=WD...
func (h *Handler) Lookup(c *gin.Context) {
	requestNo := strings.TrimSpace(c.Query("request_no"))
	if requestNo == "" {
		response.BadRequest(c, "request_no is required")
		return
	}

	req, err := h.workflow.GetByRequestNo(c.Request.Context(), requestNo)
	handler.MustSucceed(c, err, req)
}

// ReviewRequest approval/rejection payload
type ReviewRequest struct {
	Notes string `json:"notes"`
}

// Approve approves a pending request (admin).
// POST /api/v1/admin/withdrawals/:id/approve
func (h *Handler) Approve(c *gin.Context) {
	adminID, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}
	id, ok := handler.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req ReviewRequest
	_ = c.ShouldBindJSON(&req)

	result, err := h.workflow.Approve(c.Request.Context(), id, adminID, req.Notes)
	handler.MustSucceed(c, err, result)
}

// Reject rejects a pending request with a mandatory note (admin).
// POST /api/v1/admin/withdrawals/:id/reject
func (h *Handler) Reject(c *gin.Context) {
	adminID, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}
	id, ok := handler.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req ReviewRequest
	_ = c.ShouldBindJSON(&req)

	result, err := h.workflow.Reject(c.Request.Context(), id, adminID, req.Notes)
	handler.MustSucceed(c, err, result)
}

// CompleteRequest completion payload
type CompleteRequest struct {
	ProofRef string `json:"proof_ref"`
}

// Complete finalizes an approved request and debits the wallet (admin).
// POST /api/v1/admin/withdrawals/:id/complete
func (h *Handler) Complete(c *gin.Context) {
	adminID, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}
	id, ok := handler.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req CompleteRequest
	_ = c.ShouldBindJSON(&req)

	result, err := h.workflow.Complete(c.Request.Context(), id, adminID, req.ProofRef)
	handler.MustSucceed(c, err, result)
}
