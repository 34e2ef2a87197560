// Package commission provides commission and rule HTTP handlers.
package commission

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/agentnetph/agent-network-backend/internal/common/handler"
	"github.com/agentnetph/agent-network-backend/internal/common/response"
	"github.com/agentnetph/agent-network-backend/internal/service/commission"
)

// Handler commission handler
type Handler struct {
	engine *commission.Engine
	admin  *commission.Admin
}

// NewHandler creates the commission handler
func NewHandler(engine *commission.Engine, admin *commission.Admin) *Handler {
	return &Handler{
		engine: engine,
		admin:  admin,
	}
}

// ListMine lists the authenticated agent's earned commissions.
// GET /api/v1/commissions
func (h *Handler) ListMine(c *gin.Context) {
	agentID, ok := handler.RequireAgentID(c)
	if !ok {
		return
	}

	page, pageSize := handler.ParsePagination(c)
	filters := map[string]interface{}{"status": c.Query("status")}
	if planID, err := strconv.ParseInt(c.Query("plan_id"), 10, 64); err == nil {
		filters["plan_id"] = planID
	}

	list, total, err := h.engine.ListByEarner(c.Request.Context(), agentID, (page-1)*pageSize, pageSize, filters)
	handler.MustSucceedPage(c, err, list, total, page, pageSize)
}

// SyncPending runs the held-commission sync pass on demand (admin).
// An optional agent_id query parameter limits the pass to one earner,
// e.g. right after reactivating their wallet.
// POST /api/v1/admin/commissions/sync[?agent_id=N]
func (h *Handler) SyncPending(c *gin.Context) {
	var agentID *int64
	if raw := c.Query("agent_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			response.BadRequest(c, "invalid agent_id")
			return
		}
		agentID = &id
	}

	posted, err := h.engine.SyncPendingCommissions(c.Request.Context(), agentID)
	handler.MustSucceed(c, err, gin.H{"posted": posted})
}

// Summary returns the authenticated agent's posted and pending
// commission totals.
// GET /api/v1/commissions/summary
func (h *Handler) Summary(c *gin.Context) {
	agentID, ok := handler.RequireAgentID(c)
	if !ok {
		return
	}

	summary, err := h.engine.EarningsSummary(c.Request.Context(), agentID)
	handler.MustSucceed(c, err, summary)
}

// CreatePlan adds a plan to the catalog (admin).
// POST /api/v1/admin/plans
func (h *Handler) CreatePlan(c *gin.Context) {
	var input commission.PlanInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, "invalid plan")
		return
	}

	plan, err := h.admin.CreatePlan(c.Request.Context(), &input)
	handler.MustSucceed(c, err, plan)
}

// ListPlans lists the active plan catalog.
// GET /api/v1/plans
func (h *Handler) ListPlans(c *gin.Context) {
	plans, err := h.admin.ListPlans(c.Request.Context())
	handler.MustSucceed(c, err, plans)
}

// CreateRule creates a commission rule, replacing any active rule on the
// same key (admin).
// POST /api/v1/admin/rules
func (h *Handler) CreateRule(c *gin.Context) {
	var input commission.RuleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, "invalid rule")
		return
	}

	rule, err := h.admin.CreateRule(c.Request.Context(), &input)
	handler.MustSucceed(c, err, rule)
}

// DeactivateRule retires a rule (admin).
// POST /api/v1/admin/rules/:id/deactivate
func (h *Handler) DeactivateRule(c *gin.Context) {
	id, ok := handler.ParseIDParam(c, "id")
	if !ok {
		return
	}

	err := h.admin.DeactivateRule(c.Request.Context(), id)
	handler.MustSucceed(c, err, nil)
}

// ListRulesByPlan lists all rules of a plan (admin).
// GET /api/v1/admin/plans/:id/rules
func (h *Handler) ListRulesByPlan(c *gin.Context) {
	planID, ok := handler.ParseIDParam(c, "id")
	if !ok {
		return
	}

	rules, err := h.admin.ListRulesByPlan(c.Request.Context(), planID)
	handler.MustSucceed(c, err, rules)
}
