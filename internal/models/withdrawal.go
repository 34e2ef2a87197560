package models

import "time"

// WithdrawalRequest agent payout request. The ledger is only touched on the
// approved -> completed transition.
type WithdrawalRequest struct {
	ID            int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	RequestNo     string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"request_no"`
	AgentID       int64      `gorm:"index;not null" json:"agent_id"`
	Amount        int64      `gorm:"not null" json:"amount"`
	Status        string     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	BankName      string     `gorm:"type:varchar(100)" json:"bank_name"`
	AccountName   string     `gorm:"type:varchar(100)" json:"account_name"`
	AccountNumber string     `gorm:"type:varchar(64)" json:"account_number"`
	AdminNotes    *string    `gorm:"type:varchar(255)" json:"admin_notes,omitempty"`
	ProofRef      *string    `gorm:"type:varchar(255)" json:"proof_ref,omitempty"`
	ProcessedBy   *int64     `json:"processed_by,omitempty"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Agent     *Agent `gorm:"foreignKey:AgentID" json:"agent,omitempty"`
	Processor *Admin `gorm:"foreignKey:ProcessedBy" json:"processor,omitempty"`
}

// TableName table name
func (WithdrawalRequest) TableName() string {
	return "withdrawal_requests"
}

// WithdrawalStatus request states
const (
	WithdrawalStatusPending   = "pending"
	WithdrawalStatusApproved  = "approved"
	WithdrawalStatusRejected  = "rejected"
	WithdrawalStatusCompleted = "completed"
)
