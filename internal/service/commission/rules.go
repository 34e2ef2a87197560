// Package commission computes and posts multi-tier commissions.
package commission

import (
	"context"

	"github.com/agentnetph/agent-network-backend/internal/common/errors"
	"github.com/agentnetph/agent-network-backend/internal/models"
	"github.com/agentnetph/agent-network-backend/internal/repository"
)

// bpsDenominator percentage rule values are basis points (1111 = 11.11%)
const bpsDenominator = 10000

// RuleResolver picks the single active rule for a rule key.
type RuleResolver struct {
	ruleRepo *repository.CommissionRuleRepository
}

// NewRuleResolver creates the rule resolver
func NewRuleResolver(ruleRepo *repository.CommissionRuleRepository) *RuleResolver {
	return &RuleResolver{ruleRepo: ruleRepo}
}

// Resolve returns the active rule for (plan, frequency, tier).
// No active rule yields ErrNoActiveRule; more than one is a configuration
// defect and yields ErrMultipleActiveRules rather than an arbitrary pick.
func (r *RuleResolver) Resolve(ctx context.Context, planID int64, frequency string, tierLevel int) (*models.CommissionRule, error) {
	if !models.IsValidFrequency(frequency) {
		return nil, errors.ErrInvalidFrequency
	}

	rules, err := r.ruleRepo.FindActive(ctx, planID, frequency, tierLevel)
	if err != nil {
		return nil, err
	}

	switch len(rules) {
	case 0:
		return nil, errors.ErrNoActiveRule
	case 1:
		return rules[0], nil
	default:
		return nil, errors.ErrMultipleActiveRules
	}
}

// ComputeAmount applies a rule to a basis amount in minor currency units.
// Percentage rules round half up on the last centavo; fixed rules ignore
// the basis.
func ComputeAmount(rule *models.CommissionRule, basisAmount int64) (int64, error) {
	if basisAmount <= 0 {
		return 0, errors.ErrInvalidBasisAmount
	}

	switch rule.Type {
	case models.CommissionTypePercentage:
		if rule.Value < 0 || rule.Value > bpsDenominator {
			return 0, errors.ErrInvalidRuleValue
		}
		return (basisAmount*rule.Value + bpsDenominator/2) / bpsDenominator, nil
	case models.CommissionTypeFixedAmount:
		if rule.Value < 0 {
			return 0, errors.ErrInvalidRuleValue
		}
		return rule.Value, nil
	default:
		return 0, errors.ErrInvalidRuleValue
	}
}
