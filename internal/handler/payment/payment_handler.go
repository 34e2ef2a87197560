// Package payment provides the payment event HTTP handler.
package payment

import (
	"github.com/gin-gonic/gin"

	"github.com/agentnetph/agent-network-backend/internal/common/handler"
	"github.com/agentnetph/agent-network-backend/internal/common/response"
	"github.com/agentnetph/agent-network-backend/internal/service/commission"
)

// Handler payment event handler
type Handler struct {
	engine *commission.Engine
}

// NewHandler creates the payment handler
func NewHandler(engine *commission.Engine) *Handler {
	return &Handler{engine: engine}
}

// OnEvent ingests a payment-completed event from the billing side and
// runs commission payout for it.
// POST /api/v1/payments/events
func (h *Handler) OnEvent(c *gin.Context) {
	var event commission.PaymentEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		response.BadRequest(c, "invalid payment event")
		return
	}

	result, err := h.engine.OnPaymentCompleted(c.Request.Context(), &event)
	handler.MustSucceed(c, err, result)
}

// GetCommissions lists the commission rows created for one payment.
// GET /api/v1/payments/:ref/commissions
func (h *Handler) GetCommissions(c *gin.Context) {
	ref := c.Param("ref")
	if ref == "" {
		response.BadRequest(c, "payment reference is required")
		return
	}

	rows, err := h.engine.ListByPaymentReference(c.Request.Context(), ref)
	handler.MustSucceed(c, err, rows)
}
