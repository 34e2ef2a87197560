package models

import "time"

// CommissionRule per-tier commission configuration, keyed by
// (plan_id, payment_frequency, tier_level). At most one active rule per key.
// Value is basis points for percentage rules (1111 = 11.11%) and
// minor currency units for fixed-amount rules.
type CommissionRule struct {
	ID               int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PlanID           int64     `gorm:"index:idx_rule_key;not null" json:"plan_id"`
	PaymentFrequency string    `gorm:"type:varchar(20);index:idx_rule_key;not null" json:"payment_frequency"`
	TierLevel        int       `gorm:"index:idx_rule_key;not null" json:"tier_level"`
	Type             string    `gorm:"type:varchar(20);not null" json:"type"`
	Value            int64     `gorm:"not null" json:"value"`
	IsActive         bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Plan *Plan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
}

// TableName table name
func (CommissionRule) TableName() string {
	return "commission_rules"
}

// CommissionRuleType rule value interpretation
const (
	CommissionTypePercentage  = "percentage"
	CommissionTypeFixedAmount = "fixed_amount"
)

// CommissionTransaction one earned commission for one tier of one payment event.
// Immutable once posted except for the transition to reversed.
// The unique index on (payment_reference, tier_level) is the idempotency guard.
type CommissionTransaction struct {
	ID               int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	EarnerAgentID    int64      `gorm:"index;not null" json:"earner_agent_id"`
	SourceAgentID    int64      `gorm:"index;not null" json:"source_agent_id"`
	PlanID           int64      `gorm:"not null" json:"plan_id"`
	PaymentReference string     `gorm:"type:varchar(64);uniqueIndex:idx_payment_tier;not null" json:"payment_reference"`
	TierLevel        int        `gorm:"uniqueIndex:idx_payment_tier;not null" json:"tier_level"`
	BasisAmount      int64      `gorm:"not null" json:"basis_amount"`
	CommissionAmount int64      `gorm:"not null" json:"commission_amount"`
	Status           string     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	PostedAt         *time.Time `json:"posted_at,omitempty"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Earner *Agent `gorm:"foreignKey:EarnerAgentID" json:"earner,omitempty"`
	Source *Agent `gorm:"foreignKey:SourceAgentID" json:"source,omitempty"`
	Plan   *Plan  `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
}

// TableName table name
func (CommissionTransaction) TableName() string {
	return "commission_transactions"
}

// CommissionStatus commission transaction states
const (
	CommissionStatusPending  = "pending"
	CommissionStatusPosted   = "posted"
	CommissionStatusReversed = "reversed"
)
