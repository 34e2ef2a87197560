package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/agentnetph/agent-network-backend/internal/models"
)

// WalletRepository wallet and ledger persistence
type WalletRepository struct {
	db *gorm.DB
}

// NewWalletRepository creates the wallet repository
func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// Create creates a wallet
func (r *WalletRepository) Create(ctx context.Context, wallet *models.Wallet) error {
	return r.db.WithContext(ctx).Create(wallet).Error
}

// GetByID fetches a wallet by ID
func (r *WalletRepository) GetByID(ctx context.Context, id int64) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).First(&wallet, id).Error
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// GetByAgentID fetches the wallet of an agent
func (r *WalletRepository) GetByAgentID(ctx context.Context, agentID int64) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).Where("agent_id = ?", agentID).First(&wallet).Error
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// UpdateStatus updates the wallet status
func (r *WalletRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	return r.db.WithContext(ctx).Model(&models.Wallet{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// ListTransactions lists ledger entries of a wallet, newest first
func (r *WalletRepository) ListTransactions(ctx context.Context, walletID int64, offset, limit int, filters map[string]interface{}) ([]*models.WalletTransaction, int64, error) {
	var txs []*models.WalletTransaction
	var total int64

	query := r.db.WithContext(ctx).Model(&models.WalletTransaction{}).
		Where("wallet_id = ?", walletID)

	if txType, ok := filters["type"].(string); ok && txType != "" {
		query = query.Where("type = ?", txType)
	}
	if status, ok := filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&txs).Error; err != nil {
		return nil, 0, err
	}

	return txs, total, nil
}

// SumSignedTransactions sums completed ledger entries of a wallet with sign applied.
// Used to audit the running balance against the ledger.
func (r *WalletRepository) SumSignedTransactions(ctx context.Context, walletID int64) (int64, error) {
	var txs []*models.WalletTransaction
	err := r.db.WithContext(ctx).
		Where("wallet_id = ? AND status = ?", walletID, models.WalletTxStatusCompleted).
		Find(&txs).Error
	if err != nil {
		return 0, err
	}

	var sum int64
	for _, tx := range txs {
		sum += tx.SignedAmount()
	}
	return sum, nil
}
