package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/agentnetph/agent-network-backend/internal/models"
)

// PlanRepository plan persistence
type PlanRepository struct {
	db *gorm.DB
}

// NewPlanRepository creates the plan repository
func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// Create creates a plan
func (r *PlanRepository) Create(ctx context.Context, plan *models.Plan) error {
	return r.db.WithContext(ctx).Create(plan).Error
}

// GetByID fetches a plan by ID
func (r *PlanRepository) GetByID(ctx context.Context, id int64) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.WithContext(ctx).First(&plan, id).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// GetByCode fetches a plan by code
func (r *PlanRepository) GetByCode(ctx context.Context, code string) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// ListActive lists active plans
func (r *PlanRepository) ListActive(ctx context.Context) ([]*models.Plan, error) {
	var plans []*models.Plan
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id ASC").
		Find(&plans).Error
	return plans, err
}
