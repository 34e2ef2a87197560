package agent

import (
	"context"
	stderrors "errors"

	"gorm.io/gorm"

	"github.com/agentnetph/agent-network-backend/internal/common/errors"
	"github.com/agentnetph/agent-network-backend/internal/common/logger"
	"github.com/agentnetph/agent-network-backend/internal/models"
)

// Decommission terminates an agent and freezes its wallet. The agent must
// have no non-terminated direct downline, a zero wallet balance and no
// withdrawal request still in flight; referral chains of remaining agents
// keep their terminated ancestors as positional placeholders.
func (s *Service) Decommission(ctx context.Context, id, adminID int64) error {
	agent, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if agent.Status == models.AgentStatusTerminated {
		return nil
	}

	downline, err := s.agentRepo.CountByReferrerCode(ctx, agent.AgentCode, []string{
		models.AgentStatusActive,
		models.AgentStatusInactive,
		models.AgentStatusSuspended,
	})
	if err != nil {
		return err
	}
	if downline > 0 {
		return errors.ErrAgentHasDownline
	}

	wal, err := s.walletRepo.GetByAgentID(ctx, id)
	if err != nil && !stderrors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if wal != nil && (wal.Balance > 0 || wal.PendingCommission > 0) {
		return errors.ErrAgentHasBalance
	}

	inFlight, err := s.withdrawalRepo.CountPendingByAgent(ctx, id)
	if err != nil {
		return err
	}
	if inFlight > 0 {
		return errors.ErrAgentHasBalance.WithMessage("agent has withdrawal requests in flight")
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.WithContext(ctx).Model(&models.Agent{}).
			Where("id = ? AND status != ?", id, models.AgentStatusTerminated).
			Update("status", models.AgentStatusTerminated)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		if wal != nil {
			return tx.WithContext(ctx).Model(&models.Wallet{}).
				Where("id = ?", wal.ID).
				Update("status", models.WalletStatusFrozen).Error
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("agent decommissioned",
		logger.AgentID(id),
		logger.AgentCode(agent.AgentCode),
		logger.AdminID(adminID),
	)
	return nil
}
