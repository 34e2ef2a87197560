package scheduler

import (
	"context"

	"github.com/agentnetph/agent-network-backend/internal/service/commission"
)

// TaskHandler holds the services the periodic tasks drive
type TaskHandler struct {
	engine *commission.Engine
}

// NewTaskHandler creates the task handler
func NewTaskHandler(engine *commission.Engine) *TaskHandler {
	return &TaskHandler{engine: engine}
}

// SyncPendingCommissions posts commissions held while wallets were
// suspended or frozen, once those wallets are active again.
func (h *TaskHandler) SyncPendingCommissions(ctx context.Context) error {
	_, err := h.engine.SyncPendingCommissions(ctx, nil)
	return err
}
