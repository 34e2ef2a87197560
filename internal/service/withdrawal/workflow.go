// Package withdrawal implements the payout request workflow.
package withdrawal

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agentnetph/agent-network-backend/internal/common/errors"
	"github.com/agentnetph/agent-network-backend/internal/common/logger"
	"github.com/agentnetph/agent-network-backend/internal/common/metrics"
	"github.com/agentnetph/agent-network-backend/internal/models"
	"github.com/agentnetph/agent-network-backend/internal/repository"
	"github.com/agentnetph/agent-network-backend/internal/service/wallet"
)

// DefaultMinAmount minimum payout in minor currency units (PHP 500.00)
const DefaultMinAmount = 50000

// RequestInput agent-facing payout request payload
type RequestInput struct {
	Amount        int64  `json:"amount" binding:"required"`
	BankName      string `json:"bank_name" binding:"required"`
	AccountName   string `json:"account_name" binding:"required"`
	AccountNumber string `json:"account_number" binding:"required"`
}

// Workflow drives withdrawal requests through
// pending -> approved -> completed, or pending -> rejected. The wallet is
// only debited on completion.
type Workflow struct {
	withdrawalRepo *repository.WithdrawalRepository
	walletRepo     *repository.WalletRepository
	ledger         *wallet.Ledger
	db             *gorm.DB
	minAmount      int64
}

// NewWorkflow creates the withdrawal workflow service
func NewWorkflow(
	withdrawalRepo *repository.WithdrawalRepository,
	walletRepo *repository.WalletRepository,
	ledger *wallet.Ledger,
	db *gorm.DB,
) *Workflow {
	return &Workflow{
		withdrawalRepo: withdrawalRepo,
		walletRepo:     walletRepo,
		ledger:         ledger,
		db:             db,
		minAmount:      DefaultMinAmount,
	}
}

// SetMinAmount overrides the minimum payout amount
func (w *Workflow) SetMinAmount(amount int64) {
	if amount > 0 {
		w.minAmount = amount
	}
}

// Request files a payout request. The balance check here is advisory; the
// binding check happens when the request is completed and the wallet is
// debited.
func (w *Workflow) Request(ctx context.Context, agentID int64, input *RequestInput) (*models.WithdrawalRequest, error) {
	if input.Amount < w.minAmount {
		return nil, errors.ErrWithdrawalBelowMin
	}

	wal, err := w.walletRepo.GetByAgentID(ctx, agentID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrWalletNotFound
		}
		return nil, err
	}
	if !wal.IsActive() {
		return nil, errors.ErrWalletNotActive
	}
	if wal.Balance < input.Amount {
		return nil, errors.ErrInsufficientFunds
	}

	req := &models.WithdrawalRequest{
		RequestNo:     newRequestNo(),
		AgentID:       agentID,
		Amount:        input.Amount,
		Status:        models.WithdrawalStatusPending,
		BankName:      input.BankName,
		AccountName:   input.AccountName,
		AccountNumber: input.AccountNumber,
	}
	if err := w.withdrawalRepo.Create(ctx, req); err != nil {
		return nil, err
	}

	metrics.Get().WithdrawalTransition(models.WithdrawalStatusPending)
	logger.Info("withdrawal requested",
		logger.AgentID(agentID),
		logger.String("request_no", req.RequestNo),
		logger.AmountCents(req.Amount),
	)
	return req, nil
}

// Approve moves a pending request to approved
func (w *Workflow) Approve(ctx context.Context, id, adminID int64, notes string) (*models.WithdrawalRequest, error) {
	updates := map[string]interface{}{
		"status":       models.WithdrawalStatusApproved,
		"processed_by": adminID,
		"processed_at": time.Now(),
	}
	if notes != "" {
		updates["admin_notes"] = notes
	}

	req, err := w.transition(ctx, id, models.WithdrawalStatusPending, updates, errors.ErrWithdrawalNotPending)
	if err != nil {
		return nil, err
	}

	metrics.Get().WithdrawalTransition(models.WithdrawalStatusApproved)
	logger.Info("withdrawal approved",
		logger.AdminID(adminID),
		logger.String("request_no", req.RequestNo),
	)
	return req, nil
}

// Reject moves a pending request to rejected. A note explaining the
// rejection is mandatory.
func (w *Workflow) Reject(ctx context.Context, id, adminID int64, note string) (*models.WithdrawalRequest, error) {
	if strings.TrimSpace(note) == "" {
		return nil, errors.ErrRejectNoteRequired
	}

	req, err := w.transition(ctx, id, models.WithdrawalStatusPending, map[string]interface{}{
		"status":       models.WithdrawalStatusRejected,
		"processed_by": adminID,
		"processed_at": time.Now(),
		"admin_notes":  note,
	}, errors.ErrWithdrawalNotPending)
	if err != nil {
		return nil, err
	}

	metrics.Get().WithdrawalTransition(models.WithdrawalStatusRejected)
	logger.Info("withdrawal rejected",
		logger.AdminID(adminID),
		logger.String("request_no", req.RequestNo),
	)
	return req, nil
}

// Complete finalizes an approved request: the status flip and the wallet
// debit commit in one transaction, so the balance moves exactly once.
// Completing an already completed request is a no-op.
func (w *Workflow) Complete(ctx context.Context, id, adminID int64, proofRef string) (*models.WithdrawalRequest, error) {
	req, err := w.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Status == models.WithdrawalStatusCompleted {
		return req, nil
	}
	if req.Status != models.WithdrawalStatusApproved {
		return nil, errors.ErrWithdrawalNotApproved
	}

	wal, err := w.walletRepo.GetByAgentID(ctx, req.AgentID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrWalletNotFound
		}
		return nil, err
	}

	now := time.Now()
	err = w.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":       models.WithdrawalStatusCompleted,
			"completed_at": now,
		}
		if proofRef != "" {
			updates["proof_ref"] = proofRef
		}

		result := tx.WithContext(ctx).Model(&models.WithdrawalRequest{}).
			Where("id = ? AND status = ?", id, models.WithdrawalStatusApproved).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// lost the race; treat as handled elsewhere
			return errors.ErrWithdrawalNotApproved
		}

		_, err := w.ledger.Apply(ctx, tx, wal.ID, wallet.Entry{
			Type:                models.WalletTxTypeWithdrawal,
			Amount:              req.Amount,
			Description:         "withdrawal payout",
			Reference:           req.RequestNo,
			WithdrawalRequestID: &req.ID,
			AdminID:             &adminID,
		})
		return err
	})
	if err != nil {
		// a concurrent completion already debited the wallet
		if stderrors.Is(err, errors.ErrWithdrawalNotApproved) {
			current, getErr := w.GetByID(ctx, id)
			if getErr == nil && current.Status == models.WithdrawalStatusCompleted {
				return current, nil
			}
		}
		return nil, err
	}

	req.Status = models.WithdrawalStatusCompleted
	req.CompletedAt = &now
	if proofRef != "" {
		req.ProofRef = &proofRef
	}

	w.ledger.InvalidateSnapshot(ctx, req.AgentID)
	metrics.Get().WithdrawalTransition(models.WithdrawalStatusCompleted)
	logger.Info("withdrawal completed",
		logger.AdminID(adminID),
		logger.String("request_no", req.RequestNo),
		logger.AmountCents(req.Amount),
	)
	return req, nil
}

// transition applies a guarded status change and returns the fresh row
func (w *Workflow) transition(ctx context.Context, id int64, fromStatus string, updates map[string]interface{}, stateErr *errors.AppError) (*models.WithdrawalRequest, error) {
	result := w.db.WithContext(ctx).Model(&models.WithdrawalRequest{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := w.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, stateErr
	}
	return w.GetByID(ctx, id)
}

// GetByID fetches a withdrawal request
func (w *Workflow) GetByID(ctx context.Context, id int64) (*models.WithdrawalRequest, error) {
	req, err := w.withdrawalRepo.GetByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrWithdrawalNotFound
		}
		return nil, err
	}
	return req, nil
}

// GetByRequestNo fetches a request by the reference number shown to agents
func (w *Workflow) GetByRequestNo(ctx context.Context, requestNo string) (*models.WithdrawalRequest, error) {
	req, err := w.withdrawalRepo.GetByRequestNo(ctx, requestNo)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrWithdrawalNotFound
		}
		return nil, err
	}
	return req, nil
}

// ListByAgent lists an agent's withdrawal requests
func (w *Workflow) ListByAgent(ctx context.Context, agentID int64, offset, limit int, filters map[string]interface{}) ([]*models.WithdrawalRequest, int64, error) {
	return w.withdrawalRepo.ListByAgent(ctx, agentID, offset, limit, filters)
}

// List lists withdrawal requests across agents
func (w *Workflow) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.WithdrawalRequest, int64, error) {
	return w.withdrawalRepo.List(ctx, offset, limit, filters)
}

func newRequestNo() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("WD%s%s", time.Now().Format("20060102150405"), suffix)
}
