// Package referral resolves the agent referral graph.
package referral

import (
	"context"
	stderrors "errors"

	"gorm.io/gorm"

	"github.com/agentnetph/agent-network-backend/internal/common/errors"
	"github.com/agentnetph/agent-network-backend/internal/common/logger"
	"github.com/agentnetph/agent-network-backend/internal/models"
	"github.com/agentnetph/agent-network-backend/internal/repository"
)

// Graph walks referrer links upward from an agent.
type Graph struct {
	agentRepo *repository.AgentRepository
	maxTiers  int
}

// NewGraph creates the referral graph service
func NewGraph(agentRepo *repository.AgentRepository) *Graph {
	return &Graph{
		agentRepo: agentRepo,
		maxTiers:  models.MaxCommissionTiers,
	}
}

// SetMaxTiers overrides the upline depth
func (g *Graph) SetMaxTiers(n int) {
	if n > 0 {
		g.maxTiers = n
	}
}

// ResolveUpline returns the ancestors of an agent ordered nearest first, so
// index 0 is the direct referrer (tier 1). The walk stops at the configured
// depth, at the root of the network, or at a referrer code with no agent
// behind it. A repeated agent code means the stored chain loops and the
// whole resolution fails with ErrCyclicReferral.
func (g *Graph) ResolveUpline(ctx context.Context, agentCode string) ([]*models.Agent, error) {
	start, err := g.agentRepo.GetByCode(ctx, agentCode)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrAgentNotFound
		}
		return nil, err
	}

	visited := map[string]struct{}{start.AgentCode: {}}
	upline := make([]*models.Agent, 0, g.maxTiers)

	current := start
	for len(upline) < g.maxTiers {
		if current.ReferrerCode == nil || *current.ReferrerCode == "" {
			break
		}
		referrerCode := *current.ReferrerCode

		if _, seen := visited[referrerCode]; seen {
			logger.Error("referral chain loops",
				logger.AgentCode(agentCode),
				logger.String("repeated_code", referrerCode),
			)
			return nil, errors.ErrCyclicReferral
		}

		referrer, err := g.agentRepo.GetByCode(ctx, referrerCode)
		if err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				// dangling referrer code ends the chain
				logger.Warn("referrer code has no agent",
					logger.AgentCode(current.AgentCode),
					logger.String("referrer_code", referrerCode),
				)
				break
			}
			return nil, err
		}

		visited[referrerCode] = struct{}{}
		upline = append(upline, referrer)
		current = referrer
	}

	return upline, nil
}

// ResolveDownlineCount counts direct referrals of an agent that are not
// terminated.
func (g *Graph) ResolveDownlineCount(ctx context.Context, agentCode string) (int64, error) {
	return g.agentRepo.CountByReferrerCode(ctx, agentCode, []string{
		models.AgentStatusActive,
		models.AgentStatusInactive,
		models.AgentStatusSuspended,
	})
}
