// Package auth issues and refreshes API tokens.
package auth

import (
	"context"
	stderrors "errors"

	"gorm.io/gorm"

	"github.com/agentnetph/agent-network-backend/internal/common/errors"
	"github.com/agentnetph/agent-network-backend/internal/common/jwt"
	"github.com/agentnetph/agent-network-backend/internal/common/logger"
	"github.com/agentnetph/agent-network-backend/internal/models"
	"github.com/agentnetph/agent-network-backend/internal/repository"
)

// Service authentication service
type Service struct {
	adminRepo  *repository.AdminRepository
	agentRepo  *repository.AgentRepository
	jwtManager *jwt.Manager
}

// NewService creates the auth service
func NewService(adminRepo *repository.AdminRepository, agentRepo *repository.AgentRepository, jwtManager *jwt.Manager) *Service {
	return &Service{
		adminRepo:  adminRepo,
		agentRepo:  agentRepo,
		jwtManager: jwtManager,
	}
}

// AdminLogin verifies admin credentials and issues a token pair
func (s *Service) AdminLogin(ctx context.Context, username, password string) (*jwt.TokenPair, *models.Admin, error) {
	admin, err := s.adminRepo.GetByUsername(ctx, username)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, errors.ErrPasswordError
		}
		return nil, nil, err
	}

	if admin.Status != models.AdminStatusActive {
		return nil, nil, errors.ErrAccountDisabled
	}
	if !admin.CheckPassword(password) {
		return nil, nil, errors.ErrPasswordError
	}

	pair, err := s.jwtManager.GenerateTokenPair(admin.ID, jwt.UserTypeAdmin, admin.Role)
	if err != nil {
		return nil, nil, err
	}

	if err := s.adminRepo.TouchLogin(ctx, admin.ID); err != nil {
		logger.Warn("failed to record admin login", logger.Err(err), logger.AdminID(admin.ID))
	}

	logger.Info("admin logged in", logger.AdminID(admin.ID), logger.String("role", admin.Role))
	return pair, admin, nil
}

// IssueAgentToken issues a portal token for an agent. Terminated and
// suspended agents get no token.
func (s *Service) IssueAgentToken(ctx context.Context, agentID int64) (*jwt.TokenPair, error) {
	agent, err := s.agentRepo.GetByID(ctx, agentID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrAgentNotFound
		}
		return nil, err
	}

	if agent.Status != models.AgentStatusActive && agent.Status != models.AgentStatusInactive {
		return nil, errors.ErrAgentNotActive
	}

	return s.jwtManager.GenerateTokenPair(agent.ID, jwt.UserTypeAgent, "")
}

// Refresh exchanges a valid refresh token for a new pair
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*jwt.TokenPair, error) {
	claims, err := s.jwtManager.ParseToken(refreshToken)
	if err != nil {
		return nil, errors.ErrTokenInvalid
	}

	switch claims.UserType {
	case jwt.UserTypeAdmin:
		admin, err := s.adminRepo.GetByID(ctx, claims.UserID)
		if err != nil || admin.Status != models.AdminStatusActive {
			return nil, errors.ErrAccountDisabled
		}
	case jwt.UserTypeAgent:
		agent, err := s.agentRepo.GetByID(ctx, claims.UserID)
		if err != nil || agent.Status == models.AgentStatusTerminated {
			return nil, errors.ErrAccountDisabled
		}
	default:
		return nil, errors.ErrTokenInvalid
	}

	return s.jwtManager.GenerateTokenPair(claims.UserID, claims.UserType, claims.Role)
}
