package commission

import (
	"context"
	stderrors "errors"

	"gorm.io/gorm"

	"github.com/agentnetph/agent-network-backend/internal/common/logger"
	"github.com/agentnetph/agent-network-backend/internal/common/metrics"
	"github.com/agentnetph/agent-network-backend/internal/models"
	"github.com/agentnetph/agent-network-backend/internal/service/wallet"
)

// SyncPendingCommissions posts held commissions whose wallets have come
// back to active. A non-nil agentID limits the pass to that earner, the
// nil form sweeps every earner with pending rows. Each commission moves
// in its own transaction so one bad row cannot block the rest of the
// pass. Returns the number actually posted.
func (e *Engine) SyncPendingCommissions(ctx context.Context, agentID *int64) (int, error) {
	var earnerIDs []int64
	if agentID != nil {
		earnerIDs = []int64{*agentID}
	} else {
		var err error
		earnerIDs, err = e.commissionRepo.ListPendingEarners(ctx)
		if err != nil {
			return 0, err
		}
	}

	var posted int
	for _, earnerID := range earnerIDs {
		w, err := e.walletRepo.GetByAgentID(ctx, earnerID)
		if err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				logger.Error("pending commission earner has no wallet", logger.AgentID(earnerID))
				continue
			}
			return posted, err
		}
		if !w.IsActive() {
			continue
		}

		pendings, err := e.commissionRepo.ListPendingByEarner(ctx, earnerID)
		if err != nil {
			return posted, err
		}

		var movedAny bool
		for _, row := range pendings {
			moved, err := e.postHeldRow(ctx, w.ID, row)
			if err != nil {
				logger.Error("failed to post held commission",
					logger.Err(err),
					logger.AgentID(earnerID),
					logger.PaymentRef(row.PaymentReference),
					logger.Tier(row.TierLevel),
				)
				continue
			}
			if moved {
				movedAny = true
				posted++
			}
		}
		if movedAny {
			e.ledger.InvalidateSnapshot(ctx, earnerID)
		}
	}

	if posted > 0 {
		metrics.Get().PendingCommissionsSynced(posted)
		logger.Info("pending commissions posted", logger.Int("count", posted))
	}
	return posted, nil
}

// postHeldRow moves one held commission to posted: the status flip, the
// wallet credit and the pending release commit together. Reports false
// when another pass already moved the row.
func (e *Engine) postHeldRow(ctx context.Context, walletID int64, row *models.CommissionTransaction) (bool, error) {
	var moved bool
	err := e.db.Transaction(func(tx *gorm.DB) error {
		if err := e.commissionRepo.MarkPosted(ctx, tx, row.ID); err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				// another sync pass got here first
				return nil
			}
			return err
		}

		if _, err := e.ledger.Apply(ctx, tx, walletID, wallet.Entry{
			Type:                    models.WalletTxTypeCredit,
			Amount:                  row.CommissionAmount,
			Description:             "tier commission (released)",
			Reference:               row.PaymentReference,
			CommissionTransactionID: &row.ID,
		}); err != nil {
			return err
		}

		if err := e.ledger.ReleasePending(ctx, tx, walletID, row.CommissionAmount); err != nil {
			return err
		}
		moved = true
		return nil
	})
	return moved, err
}
