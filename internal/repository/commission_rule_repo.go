package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/agentnetph/agent-network-backend/internal/models"
)

// CommissionRuleRepository commission rule persistence
type CommissionRuleRepository struct {
	db *gorm.DB
}

// NewCommissionRuleRepository creates the commission rule repository
func NewCommissionRuleRepository(db *gorm.DB) *CommissionRuleRepository {
	return &CommissionRuleRepository{db: db}
}

// Create creates a commission rule
func (r *CommissionRuleRepository) Create(ctx context.Context, rule *models.CommissionRule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

// GetByID fetches a rule by ID
func (r *CommissionRuleRepository) GetByID(ctx context.Context, id int64) (*models.CommissionRule, error) {
	var rule models.CommissionRule
	err := r.db.WithContext(ctx).First(&rule, id).Error
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

// FindActive fetches all active rules matching the plan, frequency and tier.
// Callers decide how to treat zero or multiple matches.
func (r *CommissionRuleRepository) FindActive(ctx context.Context, planID int64, frequency string, tierLevel int) ([]*models.CommissionRule, error) {
	var rules []*models.CommissionRule
	err := r.db.WithContext(ctx).
		Where("plan_id = ? AND payment_frequency = ? AND tier_level = ? AND is_active = ?",
			planID, frequency, tierLevel, true).
		Order("id ASC").
		Find(&rules).Error
	return rules, err
}

// ListByPlan lists all rules for a plan
func (r *CommissionRuleRepository) ListByPlan(ctx context.Context, planID int64) ([]*models.CommissionRule, error) {
	var rules []*models.CommissionRule
	err := r.db.WithContext(ctx).
		Where("plan_id = ?", planID).
		Order("payment_frequency ASC, tier_level ASC").
		Find(&rules).Error
	return rules, err
}

// SetActive activates or deactivates a rule
func (r *CommissionRuleRepository) SetActive(ctx context.Context, id int64, active bool) error {
	return r.db.WithContext(ctx).Model(&models.CommissionRule{}).
		Where("id = ?", id).
		Update("is_active", active).Error
}
