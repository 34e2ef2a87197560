package commission

import (
	"context"
	stderrors "errors"

	"gorm.io/gorm"

	"github.com/agentnetph/agent-network-backend/internal/common/errors"
	"github.com/agentnetph/agent-network-backend/internal/common/logger"
	"github.com/agentnetph/agent-network-backend/internal/models"
	"github.com/agentnetph/agent-network-backend/internal/repository"
)

// RuleInput new commission rule payload
type RuleInput struct {
	PlanID           int64  `json:"plan_id" binding:"required"`
	PaymentFrequency string `json:"payment_frequency" binding:"required"`
	TierLevel        int    `json:"tier_level" binding:"required"`
	Type             string `json:"type" binding:"required"`
	Value            int64  `json:"value" binding:"required"`
}

// PlanInput new plan payload
type PlanInput struct {
	Code string `json:"code" binding:"required"`
	Name string `json:"name" binding:"required"`
}

// Admin manages the plan catalog and the commission rule table.
type Admin struct {
	ruleRepo *repository.CommissionRuleRepository
	planRepo *repository.PlanRepository
	db       *gorm.DB
}

// NewAdmin creates the rule administration service
func NewAdmin(ruleRepo *repository.CommissionRuleRepository, planRepo *repository.PlanRepository, db *gorm.DB) *Admin {
	return &Admin{
		ruleRepo: ruleRepo,
		planRepo: planRepo,
		db:       db,
	}
}

// CreatePlan adds a plan to the catalog
func (a *Admin) CreatePlan(ctx context.Context, input *PlanInput) (*models.Plan, error) {
	if _, err := a.planRepo.GetByCode(ctx, input.Code); err == nil {
		return nil, errors.ErrAlreadyExists
	} else if !stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	plan := &models.Plan{
		Code:     input.Code,
		Name:     input.Name,
		IsActive: true,
	}
	if err := a.planRepo.Create(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// ListPlans lists the active plan catalog
func (a *Admin) ListPlans(ctx context.Context) ([]*models.Plan, error) {
	return a.planRepo.ListActive(ctx)
}

// CreateRule creates a rule and retires any previously active rule on the
// same key in the same transaction, keeping at most one active rule per
// (plan, frequency, tier).
func (a *Admin) CreateRule(ctx context.Context, input *RuleInput) (*models.CommissionRule, error) {
	if err := validateRuleInput(input); err != nil {
		return nil, err
	}

	if _, err := a.planRepo.GetByID(ctx, input.PlanID); err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrPlanNotFound
		}
		return nil, err
	}

	rule := &models.CommissionRule{
		PlanID:           input.PlanID,
		PaymentFrequency: input.PaymentFrequency,
		TierLevel:        input.TierLevel,
		Type:             input.Type,
		Value:            input.Value,
		IsActive:         true,
	}

	err := a.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).Model(&models.CommissionRule{}).
			Where("plan_id = ? AND payment_frequency = ? AND tier_level = ? AND is_active = ?",
				input.PlanID, input.PaymentFrequency, input.TierLevel, true).
			Update("is_active", false).Error; err != nil {
			return err
		}
		return tx.WithContext(ctx).Create(rule).Error
	})
	if err != nil {
		return nil, err
	}

	logger.Info("commission rule created",
		logger.Int64("rule_id", rule.ID),
		logger.Int64("plan_id", rule.PlanID),
		logger.String("frequency", rule.PaymentFrequency),
		logger.Tier(rule.TierLevel),
	)
	return rule, nil
}

// DeactivateRule retires a rule
func (a *Admin) DeactivateRule(ctx context.Context, id int64) error {
	if _, err := a.ruleRepo.GetByID(ctx, id); err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.ErrRuleNotFound
		}
		return err
	}
	return a.ruleRepo.SetActive(ctx, id, false)
}

// ListRulesByPlan lists all rules of a plan, retired ones included
func (a *Admin) ListRulesByPlan(ctx context.Context, planID int64) ([]*models.CommissionRule, error) {
	return a.ruleRepo.ListByPlan(ctx, planID)
}

func validateRuleInput(input *RuleInput) error {
	if !models.IsValidFrequency(input.PaymentFrequency) {
		return errors.ErrInvalidFrequency
	}
	if input.TierLevel < 1 || input.TierLevel > models.MaxCommissionTiers {
		return errors.ErrInvalidParams.WithMessage("tier level out of range")
	}
	switch input.Type {
	case models.CommissionTypePercentage:
		if input.Value <= 0 || input.Value > bpsDenominator {
			return errors.ErrInvalidRuleValue
		}
	case models.CommissionTypeFixedAmount:
		if input.Value <= 0 {
			return errors.ErrInvalidRuleValue
		}
	default:
		return errors.ErrInvalidRuleValue
	}
	return nil
}
