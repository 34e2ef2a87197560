// Package agent manages agent accounts and their lifecycle.
package agent

import (
	"context"
	stderrors "errors"

	"gorm.io/gorm"

	"github.com/agentnetph/agent-network-backend/internal/common/errors"
	"github.com/agentnetph/agent-network-backend/internal/common/logger"
	"github.com/agentnetph/agent-network-backend/internal/models"
	"github.com/agentnetph/agent-network-backend/internal/repository"
	"github.com/agentnetph/agent-network-backend/internal/service/referral"
)

// RegisterInput new agent payload
type RegisterInput struct {
	AgentCode    string  `json:"agent_code" binding:"required"`
	FullName     string  `json:"full_name" binding:"required"`
	ReferrerCode *string `json:"referrer_code,omitempty"`
}

// Service agent account management
type Service struct {
	agentRepo      *repository.AgentRepository
	walletRepo     *repository.WalletRepository
	withdrawalRepo *repository.WithdrawalRepository
	graph          *referral.Graph
	db             *gorm.DB
}

// NewService creates the agent service
func NewService(
	agentRepo *repository.AgentRepository,
	walletRepo *repository.WalletRepository,
	withdrawalRepo *repository.WithdrawalRepository,
	graph *referral.Graph,
	db *gorm.DB,
) *Service {
	return &Service{
		agentRepo:      agentRepo,
		walletRepo:     walletRepo,
		withdrawalRepo: withdrawalRepo,
		graph:          graph,
		db:             db,
	}
}

// Register creates an agent and its wallet together. The tier level is one
// below the referrer; agents without a referrer start at level 1.
func (s *Service) Register(ctx context.Context, input *RegisterInput) (*models.Agent, error) {
	if _, err := s.agentRepo.GetByCode(ctx, input.AgentCode); err == nil {
		return nil, errors.ErrAgentCodeExists
	} else if !stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	tierLevel := 1
	if input.ReferrerCode != nil && *input.ReferrerCode != "" {
		referrer, err := s.agentRepo.GetByCode(ctx, *input.ReferrerCode)
		if err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errors.ErrAgentNotFound.WithMessage("referrer not found")
			}
			return nil, err
		}
		if referrer.Status == models.AgentStatusTerminated {
			return nil, errors.ErrAgentNotActive.WithMessage("referrer is terminated")
		}
		tierLevel = referrer.TierLevel + 1
	}

	agent := &models.Agent{
		AgentCode:    input.AgentCode,
		FullName:     input.FullName,
		ReferrerCode: input.ReferrerCode,
		TierLevel:    tierLevel,
		Status:       models.AgentStatusActive,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).Create(agent).Error; err != nil {
			return err
		}
		return tx.WithContext(ctx).Create(&models.Wallet{
			AgentID: agent.ID,
			Status:  models.WalletStatusActive,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	logger.Info("agent registered",
		logger.AgentID(agent.ID),
		logger.AgentCode(agent.AgentCode),
		logger.Int("tier_level", agent.TierLevel),
	)
	return agent, nil
}

// GetByCode fetches an agent with its wallet
func (s *Service) GetByCode(ctx context.Context, code string) (*models.Agent, error) {
	agent, err := s.agentRepo.GetByCodeWithWallet(ctx, code)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrAgentNotFound
		}
		return nil, err
	}
	return agent, nil
}

// GetByID fetches an agent by ID
func (s *Service) GetByID(ctx context.Context, id int64) (*models.Agent, error) {
	agent, err := s.agentRepo.GetByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrAgentNotFound
		}
		return nil, err
	}
	return agent, nil
}

// List lists agents
func (s *Service) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Agent, int64, error) {
	return s.agentRepo.List(ctx, offset, limit, filters)
}

// Upline returns the commission-earning ancestors of an agent
func (s *Service) Upline(ctx context.Context, code string) ([]*models.Agent, error) {
	return s.graph.ResolveUpline(ctx, code)
}

// Suspend marks an agent suspended
func (s *Service) Suspend(ctx context.Context, id int64) error {
	return s.setStatus(ctx, id, models.AgentStatusSuspended)
}

// Reactivate marks a suspended or inactive agent active again. Terminated
// agents stay terminated.
func (s *Service) Reactivate(ctx context.Context, id int64) error {
	agent, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if agent.Status == models.AgentStatusTerminated {
		return errors.ErrAgentNotActive.WithMessage("terminated agents cannot be reactivated")
	}
	return s.setStatus(ctx, id, models.AgentStatusActive)
}

func (s *Service) setStatus(ctx context.Context, id int64, status string) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.agentRepo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	logger.Info("agent status changed", logger.AgentID(id), logger.String("status", status))
	return nil
}
