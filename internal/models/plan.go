package models

import "time"

// Plan insurance plan sold through the agent network.
// Catalog management lives outside this service; the row exists as the
// foreign-key target for commission rules and transactions.
type Plan struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Code      string    `gorm:"type:varchar(30);uniqueIndex;not null" json:"code"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName table name
func (Plan) TableName() string {
	return "plans"
}

// PaymentFrequency premium payment frequencies
const (
	FrequencyMonthly    = "monthly"
	FrequencyQuarterly  = "quarterly"
	FrequencySemiAnnual = "semi_annual"
	FrequencyAnnual     = "annual"
	FrequencyOneTime    = "one_time"
)

// IsValidFrequency reports whether f is a known payment frequency.
func IsValidFrequency(f string) bool {
	switch f {
	case FrequencyMonthly, FrequencyQuarterly, FrequencySemiAnnual, FrequencyAnnual, FrequencyOneTime:
		return true
	}
	return false
}
