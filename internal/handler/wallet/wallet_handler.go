// Package wallet provides wallet HTTP handlers.
package wallet

import (
	"github.com/gin-gonic/gin"

	"github.com/agentnetph/agent-network-backend/internal/common/handler"
	"github.com/agentnetph/agent-network-backend/internal/common/response"
	"github.com/agentnetph/agent-network-backend/internal/service/wallet"
)

// Handler wallet handler
type Handler struct {
	ledger *wallet.Ledger
}

// NewHandler creates the wallet handler
func NewHandler(ledger *wallet.Ledger) *Handler {
	return &Handler{ledger: ledger}
}

// GetMine returns the authenticated agent's wallet.
// GET /api/v1/wallet
func (h *Handler) GetMine(c *gin.Context) {
	agentID, ok := handler.RequireAgentID(c)
	if !ok {
		return
	}

	w, err := h.ledger.GetByAgentID(c.Request.Context(), agentID)
	handler.MustSucceed(c, err, w)
}

// ListMyTransactions lists the authenticated agent's ledger entries.
// GET /api/v1/wallet/transactions
func (h *Handler) ListMyTransactions(c *gin.Context) {
	agentID, ok := handler.RequireAgentID(c)
	if !ok {
		return
	}

	page, pageSize := handler.ParsePagination(c)
	filters := map[string]interface{}{
		"type":   c.Query("type"),
		"status": c.Query("status"),
	}

	list, total, err := h.ledger.ListTransactions(c.Request.Context(), agentID, (page-1)*pageSize, pageSize, filters)
	handler.MustSucceedPage(c, err, list, total, page, pageSize)
}

// GetByAgent returns any agent's wallet (admin).
// GET /api/v1/admin/wallets/:agent_id
func (h *Handler) GetByAgent(c *gin.Context) {
	agentID, ok := handler.ParseIDParam(c, "agent_id")
	if !ok {
		return
	}

	w, err := h.ledger.GetByAgentID(c.Request.Context(), agentID)
	handler.MustSucceed(c, err, w)
}

// ListTransactionsByAgent lists any agent's ledger entries (admin).
// GET /api/v1/admin/wallets/:agent_id/transactions
func (h *Handler) ListTransactionsByAgent(c *gin.Context) {
	agentID, ok := handler.ParseIDParam(c, "agent_id")
	if !ok {
		return
	}

	page, pageSize := handler.ParsePagination(c)
	filters := map[string]interface{}{
		"type":   c.Query("type"),
		"status": c.Query("status"),
	}

	list, total, err := h.ledger.ListTransactions(c.Request.Context(), agentID, (page-1)*pageSize, pageSize, filters)
	handler.MustSucceedPage(c, err, list, total, page, pageSize)
}

// AdjustRequest manual balance correction payload
type AdjustRequest struct {
	Amount int64  `json:"amount" binding:"required"`
	Note   string `json:"note" binding:"required"`
}

// Adjust posts a signed manual correction against an agent's wallet (admin).
// POST /api/v1/admin/wallets/:agent_id/adjust
func (h *Handler) Adjust(c *gin.Context) {
	adminID, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}
	agentID, ok := handler.ParseIDParam(c, "agent_id")
	if !ok {
		return
	}

	var req AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid adjustment")
		return
	}

	tx, err := h.ledger.Adjust(c.Request.Context(), agentID, wallet.Entry{
		Amount:      req.Amount,
		Description: req.Note,
		AdminID:     &adminID,
	})
	handler.MustSucceed(c, err, tx)
}

// StatusRequest wallet status change payload
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetStatus changes a wallet's status (admin).
// PUT /api/v1/admin/wallets/:agent_id/status
func (h *Handler) SetStatus(c *gin.Context) {
	agentID, ok := handler.ParseIDParam(c, "agent_id")
	if !ok {
		return
	}

	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid status")
		return
	}

	err := h.ledger.SetStatus(c.Request.Context(), agentID, req.Status)
	handler.MustSucceed(c, err, nil)
}

// Audit recomputes an agent's balance from the ledger (admin).
// GET /api/v1/admin/wallets/:agent_id/audit
func (h *Handler) Audit(c *gin.Context) {
	agentID, ok := handler.ParseIDParam(c, "agent_id")
	if !ok {
		return
	}

	ok2, sum, err := h.ledger.Audit(c.Request.Context(), agentID)
	handler.MustSucceed(c, err, gin.H{
		"consistent": ok2,
		"ledger_sum": sum,
	})
}
