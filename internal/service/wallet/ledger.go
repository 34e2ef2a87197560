// Package wallet implements the append-only wallet ledger.
package wallet

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/agentnetph/agent-network-backend/internal/common/errors"
	"github.com/agentnetph/agent-network-backend/internal/common/logger"
	"github.com/agentnetph/agent-network-backend/internal/common/metrics"
	"github.com/agentnetph/agent-network-backend/internal/models"
	"github.com/agentnetph/agent-network-backend/internal/repository"
)

// casRetries attempts before giving up on a concurrently modified wallet
const casRetries = 3

// snapshotTTL lifetime of a cached wallet snapshot
const snapshotTTL = time.Minute

// Entry one requested ledger posting. Amount is positive for every type
// except adjustment, which carries its sign.
type Entry struct {
	Type                    string
	Amount                  int64
	Description             string
	Reference               string
	CommissionTransactionID *int64
	WithdrawalRequestID     *int64
	AdminID                 *int64
}

// Ledger posts entries against wallets while keeping the running balance
// equal to the sum of signed completed entries.
type Ledger struct {
	walletRepo *repository.WalletRepository
	db         *gorm.DB
	redis      *redis.Client
}

// NewLedger creates the wallet ledger service
func NewLedger(walletRepo *repository.WalletRepository, db *gorm.DB) *Ledger {
	return &Ledger{
		walletRepo: walletRepo,
		db:         db,
	}
}

// SetCache enables the Redis wallet snapshot cache
func (l *Ledger) SetCache(client *redis.Client) {
	l.redis = client
}

func snapshotKey(agentID int64) string {
	return fmt.Sprintf("wallet:agent:%d", agentID)
}

// GetByAgentID fetches the wallet of an agent, serving a cached snapshot
// when one is fresh.
func (l *Ledger) GetByAgentID(ctx context.Context, agentID int64) (*models.Wallet, error) {
	if l.redis != nil {
		data, err := l.redis.Get(ctx, snapshotKey(agentID)).Bytes()
		if err == nil {
			var wallet models.Wallet
			if err := json.Unmarshal(data, &wallet); err == nil {
				return &wallet, nil
			}
		}
	}

	wallet, err := l.walletRepo.GetByAgentID(ctx, agentID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrWalletNotFound
		}
		return nil, err
	}

	if l.redis != nil {
		if data, err := json.Marshal(wallet); err == nil {
			// best effort, a failed write only costs the next read
			l.redis.Set(ctx, snapshotKey(agentID), data, snapshotTTL)
		}
	}
	return wallet, nil
}

// InvalidateSnapshot drops the cached snapshot of an agent's wallet.
// Callers applying entries inside their own transaction invoke this after
// commit.
func (l *Ledger) InvalidateSnapshot(ctx context.Context, agentID int64) {
	if l.redis == nil {
		return
	}
	if err := l.redis.Del(ctx, snapshotKey(agentID)).Err(); err != nil {
		logger.Warn("failed to invalidate wallet snapshot",
			logger.AgentID(agentID), logger.Err(err))
	}
}

// ListTransactions lists ledger entries of an agent's wallet
func (l *Ledger) ListTransactions(ctx context.Context, agentID int64, offset, limit int, filters map[string]interface{}) ([]*models.WalletTransaction, int64, error) {
	wallet, err := l.GetByAgentID(ctx, agentID)
	if err != nil {
		return nil, 0, err
	}
	return l.walletRepo.ListTransactions(ctx, wallet.ID, offset, limit, filters)
}

// Credit adds funds to an agent's wallet in its own transaction.
func (l *Ledger) Credit(ctx context.Context, agentID int64, entry Entry) (*models.WalletTransaction, error) {
	entry.Type = models.WalletTxTypeCredit
	return l.post(ctx, agentID, entry)
}

// Debit removes funds from an agent's wallet in its own transaction.
func (l *Ledger) Debit(ctx context.Context, agentID int64, entry Entry) (*models.WalletTransaction, error) {
	entry.Type = models.WalletTxTypeDebit
	return l.post(ctx, agentID, entry)
}

// Adjust posts a signed manual correction. The note and acting admin are
// mandatory.
func (l *Ledger) Adjust(ctx context.Context, agentID int64, entry Entry) (*models.WalletTransaction, error) {
	if entry.Description == "" {
		return nil, errors.ErrAdjustmentNoteRequired
	}
	if entry.AdminID == nil {
		return nil, errors.ErrPermissionDenied
	}
	entry.Type = models.WalletTxTypeAdjustment
	return l.post(ctx, agentID, entry)
}

func (l *Ledger) post(ctx context.Context, agentID int64, entry Entry) (*models.WalletTransaction, error) {
	wallet, err := l.GetByAgentID(ctx, agentID)
	if err != nil {
		return nil, err
	}

	var walletTx *models.WalletTransaction
	err = l.db.Transaction(func(tx *gorm.DB) error {
		walletTx, err = l.Apply(ctx, tx, wallet.ID, entry)
		return err
	})
	if err != nil {
		return nil, err
	}

	l.InvalidateSnapshot(ctx, agentID)
	return walletTx, nil
}

// Apply posts an entry against a wallet inside the caller's transaction.
// The balance update is guarded on the previously read balance; a stale read
// is retried a few times before returning ErrConcurrentUpdate.
func (l *Ledger) Apply(ctx context.Context, tx *gorm.DB, walletID int64, entry Entry) (*models.WalletTransaction, error) {
	if entry.Type != models.WalletTxTypeAdjustment && entry.Amount <= 0 {
		return nil, errors.ErrInvalidAmount
	}
	if entry.Type == models.WalletTxTypeAdjustment && entry.Amount == 0 {
		return nil, errors.ErrInvalidAmount
	}

	for attempt := 0; attempt < casRetries; attempt++ {
		var wallet models.Wallet
		if err := tx.WithContext(ctx).First(&wallet, walletID).Error; err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errors.ErrWalletNotFound
			}
			return nil, err
		}

		if !wallet.IsActive() {
			return nil, errors.ErrWalletNotActive
		}

		signed := signedDelta(entry)
		newBalance := wallet.Balance + signed
		if newBalance < 0 {
			return nil, errors.ErrInsufficientFunds
		}

		updates := map[string]interface{}{
			"balance": newBalance,
		}
		switch entry.Type {
		case models.WalletTxTypeCredit:
			updates["total_earned"] = gorm.Expr("total_earned + ?", entry.Amount)
		case models.WalletTxTypeWithdrawal:
			updates["total_withdrawn"] = gorm.Expr("total_withdrawn + ?", entry.Amount)
		}

		result := tx.WithContext(ctx).Model(&models.Wallet{}).
			Where("id = ? AND balance = ?", wallet.ID, wallet.Balance).
			Updates(updates)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			// another writer moved the balance, re-read and retry
			continue
		}

		walletTx := &models.WalletTransaction{
			WalletID:                wallet.ID,
			Type:                    entry.Type,
			Amount:                  entry.Amount,
			BalanceBefore:           wallet.Balance,
			BalanceAfter:            newBalance,
			Description:             entry.Description,
			Reference:               entry.Reference,
			CommissionTransactionID: entry.CommissionTransactionID,
			WithdrawalRequestID:     entry.WithdrawalRequestID,
			AdminID:                 entry.AdminID,
			Status:                  models.WalletTxStatusCompleted,
		}
		if err := tx.WithContext(ctx).Create(walletTx).Error; err != nil {
			return nil, err
		}

		metrics.Get().WalletTransaction(entry.Type)
		logger.Debug("ledger entry posted",
			logger.WalletID(wallet.ID),
			logger.String("type", entry.Type),
			logger.AmountCents(walletTx.SignedAmount()),
			logger.Int64("balance_after", newBalance),
		)
		return walletTx, nil
	}

	logger.Warn("wallet update lost the race repeatedly", logger.WalletID(walletID))
	return nil, errors.ErrConcurrentUpdate
}

// HoldPending parks a commission amount on the wallet without touching the
// balance. Used when the wallet cannot currently receive credits.
func (l *Ledger) HoldPending(ctx context.Context, tx *gorm.DB, walletID int64, amount int64) error {
	if amount <= 0 {
		return errors.ErrInvalidAmount
	}
	return tx.WithContext(ctx).Model(&models.Wallet{}).
		Where("id = ?", walletID).
		Update("pending_commission", gorm.Expr("pending_commission + ?", amount)).Error
}

// ReleasePending removes a previously held amount. The guard keeps the
// pending counter from going negative under concurrent syncs.
func (l *Ledger) ReleasePending(ctx context.Context, tx *gorm.DB, walletID int64, amount int64) error {
	if amount <= 0 {
		return errors.ErrInvalidAmount
	}
	result := tx.WithContext(ctx).Model(&models.Wallet{}).
		Where("id = ? AND pending_commission >= ?", walletID, amount).
		Update("pending_commission", gorm.Expr("pending_commission - ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.ErrConcurrentUpdate
	}
	return nil
}

// SetStatus changes a wallet's status. Held commissions on a reactivated
// wallet are picked up by the next sync pass.
func (l *Ledger) SetStatus(ctx context.Context, agentID int64, status string) error {
	switch status {
	case models.WalletStatusActive, models.WalletStatusSuspended, models.WalletStatusFrozen:
	default:
		return errors.ErrInvalidParams.WithMessage("unknown wallet status")
	}

	wallet, err := l.GetByAgentID(ctx, agentID)
	if err != nil {
		return err
	}
	if err := l.walletRepo.UpdateStatus(ctx, wallet.ID, status); err != nil {
		return err
	}
	l.InvalidateSnapshot(ctx, agentID)
	logger.Info("wallet status changed",
		logger.WalletID(wallet.ID),
		logger.AgentID(agentID),
		logger.String("status", status),
	)
	return nil
}

// Audit recomputes the balance from the ledger and compares it with the
// stored wallet balance. Always reads the database, never the snapshot.
func (l *Ledger) Audit(ctx context.Context, agentID int64) (bool, int64, error) {
	wallet, err := l.walletRepo.GetByAgentID(ctx, agentID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return false, 0, errors.ErrWalletNotFound
		}
		return false, 0, err
	}
	sum, err := l.walletRepo.SumSignedTransactions(ctx, wallet.ID)
	if err != nil {
		return false, 0, err
	}
	return sum == wallet.Balance, sum, nil
}

func signedDelta(entry Entry) int64 {
	switch entry.Type {
	case models.WalletTxTypeDebit, models.WalletTxTypeWithdrawal:
		return -entry.Amount
	default:
		return entry.Amount
	}
}
