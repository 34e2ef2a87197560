// Package repository provides the data access layer.
package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/agentnetph/agent-network-backend/internal/models"
)

// AgentRepository agent persistence
type AgentRepository struct {
	db *gorm.DB
}

// NewAgentRepository creates the agent repository
func NewAgentRepository(db *gorm.DB) *AgentRepository {
	return &AgentRepository{db: db}
}

// Create creates an agent
func (r *AgentRepository) Create(ctx context.Context, agent *models.Agent) error {
	return r.db.WithContext(ctx).Create(agent).Error
}

// GetByID fetches an agent by ID
func (r *AgentRepository) GetByID(ctx context.Context, id int64) (*models.Agent, error) {
	var agent models.Agent
	err := r.db.WithContext(ctx).First(&agent, id).Error
	if err != nil {
		return nil, err
	}
	return &agent, nil
}

// GetByCode fetches an agent by agent code
func (r *AgentRepository) GetByCode(ctx context.Context, code string) (*models.Agent, error) {
	var agent models.Agent
	err := r.db.WithContext(ctx).Where("agent_code = ?", code).First(&agent).Error
	if err != nil {
		return nil, err
	}
	return &agent, nil
}

// GetByCodeWithWallet fetches an agent and its wallet
func (r *AgentRepository) GetByCodeWithWallet(ctx context.Context, code string) (*models.Agent, error) {
	var agent models.Agent
	err := r.db.WithContext(ctx).
		Preload("Wallet").
		Where("agent_code = ?", code).
		First(&agent).Error
	if err != nil {
		return nil, err
	}
	return &agent, nil
}

// CountByReferrerCode counts direct downline members in the given statuses
func (r *AgentRepository) CountByReferrerCode(ctx context.Context, referrerCode string, statuses []string) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Agent{}).Where("referrer_code = ?", referrerCode)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	err := query.Count(&count).Error
	return count, err
}

// UpdateStatus updates the agent status
func (r *AgentRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	return r.db.WithContext(ctx).Model(&models.Agent{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// List lists agents with optional filters
func (r *AgentRepository) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Agent, int64, error) {
	var agents []*models.Agent
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Agent{})

	if status, ok := filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if referrerCode, ok := filters["referrer_code"].(string); ok && referrerCode != "" {
		query = query.Where("referrer_code = ?", referrerCode)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&agents).Error; err != nil {
		return nil, 0, err
	}

	return agents, total, nil
}
