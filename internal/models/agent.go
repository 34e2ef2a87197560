// Package models defines the persisted data models.
package models

import (
	"time"
)

// Agent network member able to earn commissions.
type Agent struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	AgentCode    string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"agent_code"`
	FullName     string    `gorm:"type:varchar(100);not null" json:"full_name"`
	ReferrerCode *string   `gorm:"type:varchar(20);index" json:"referrer_code,omitempty"`
	TierLevel    int       `gorm:"not null;default:1" json:"tier_level"`
	Status       string    `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Wallet *Wallet `gorm:"foreignKey:AgentID" json:"wallet,omitempty"`
}

// TableName table name
func (Agent) TableName() string {
	return "agents"
}

// AgentStatus agent account states
const (
	AgentStatusActive     = "active"
	AgentStatusInactive   = "inactive"
	AgentStatusSuspended  = "suspended"
	AgentStatusTerminated = "terminated"
)

// MaxCommissionTiers commission payout considers the first 5 ancestors only.
const MaxCommissionTiers = 5

// ReferralEdge derived child -> parent link in the referral chain.
type ReferralEdge struct {
	AgentCode    string `json:"agent_code"`
	ReferrerCode string `json:"referrer_code"`
}
