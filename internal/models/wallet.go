package models

import "time"

// Wallet per-agent balance cache over the append-only transaction log.
// Balance always equals the sum of signed amounts of its completed transactions.
// All amounts are minor currency units (centavos).
type Wallet struct {
	ID                int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	AgentID           int64     `gorm:"uniqueIndex;not null" json:"agent_id"`
	Balance           int64     `gorm:"not null;default:0" json:"balance"`
	TotalEarned       int64     `gorm:"not null;default:0" json:"total_earned"`
	TotalWithdrawn    int64     `gorm:"not null;default:0" json:"total_withdrawn"`
	PendingCommission int64     `gorm:"not null;default:0" json:"pending_commission"`
	Status            string    `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName table name
func (Wallet) TableName() string {
	return "wallets"
}

// WalletStatus wallet states
const (
	WalletStatusActive    = "active"
	WalletStatusSuspended = "suspended"
	WalletStatusFrozen    = "frozen"
)

// IsActive reports whether the wallet may receive credits and debits.
func (w *Wallet) IsActive() bool {
	return w.Status == WalletStatusActive
}

// WalletTransaction append-only ledger row. Rows are never edited or deleted;
// corrections are new offsetting rows.
type WalletTransaction struct {
	ID                      int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	WalletID                int64     `gorm:"index;not null" json:"wallet_id"`
	Type                    string    `gorm:"type:varchar(20);not null" json:"type"`
	Amount                  int64     `gorm:"not null" json:"amount"`
	BalanceBefore           int64     `gorm:"not null" json:"balance_before"`
	BalanceAfter            int64     `gorm:"not null" json:"balance_after"`
	Description             string    `gorm:"type:varchar(255);not null" json:"description"`
	Reference               string    `gorm:"type:varchar(64);index" json:"reference"`
	CommissionTransactionID *int64    `gorm:"index" json:"commission_transaction_id,omitempty"`
	WithdrawalRequestID     *int64    `gorm:"index" json:"withdrawal_request_id,omitempty"`
	AdminID                 *int64    `json:"admin_id,omitempty"`
	Status                  string    `gorm:"type:varchar(20);not null;default:'completed'" json:"status"`
	CreatedAt               time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName table name
func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}

// WalletTxType transaction types
const (
	WalletTxTypeCredit     = "credit"
	WalletTxTypeDebit      = "debit"
	WalletTxTypeAdjustment = "adjustment"
	WalletTxTypeWithdrawal = "withdrawal"
	WalletTxTypeRefund     = "refund"
)

// WalletTxStatus transaction states
const (
	WalletTxStatusPending   = "pending"
	WalletTxStatusCompleted = "completed"
	WalletTxStatusCancelled = "cancelled"
	WalletTxStatusFailed    = "failed"
)

// SignedAmount returns the amount with the sign implied by the transaction
// type. Adjustments store a signed amount directly.
func (t *WalletTransaction) SignedAmount() int64 {
	switch t.Type {
	case WalletTxTypeDebit, WalletTxTypeWithdrawal:
		return -t.Amount
	default:
		return t.Amount
	}
}
