package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/agentnetph/agent-network-backend/internal/models"
)

// WithdrawalRepository withdrawal request persistence
type WithdrawalRepository struct {
	db *gorm.DB
}

// NewWithdrawalRepository creates the withdrawal repository
func NewWithdrawalRepository(db *gorm.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

// Create creates a withdrawal request
func (r *WithdrawalRepository) Create(ctx context.Context, req *models.WithdrawalRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

// GetByID fetches a withdrawal request by ID
func (r *WithdrawalRepository) GetByID(ctx context.Context, id int64) (*models.WithdrawalRequest, error) {
	var req models.WithdrawalRequest
	err := r.db.WithContext(ctx).First(&req, id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// GetByRequestNo fetches a withdrawal request by request number
func (r *WithdrawalRepository) GetByRequestNo(ctx context.Context, requestNo string) (*models.WithdrawalRequest, error) {
	var req models.WithdrawalRequest
	err := r.db.WithContext(ctx).Where("request_no = ?", requestNo).First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// ListByAgent lists withdrawal requests of an agent, newest first
func (r *WithdrawalRepository) ListByAgent(ctx context.Context, agentID int64, offset, limit int, filters map[string]interface{}) ([]*models.WithdrawalRequest, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.WithdrawalRequest{}).
		Where("agent_id = ?", agentID)
	return r.list(query, offset, limit, filters)
}

// List lists withdrawal requests across agents, newest first
func (r *WithdrawalRepository) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.WithdrawalRequest, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.WithdrawalRequest{})
	return r.list(query, offset, limit, filters)
}

func (r *WithdrawalRepository) list(query *gorm.DB, offset, limit int, filters map[string]interface{}) ([]*models.WithdrawalRequest, int64, error) {
	var reqs []*models.WithdrawalRequest
	var total int64

	if status, ok := filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&reqs).Error; err != nil {
		return nil, 0, err
	}

	return reqs, total, nil
}

// CountPendingByAgent counts withdrawal requests of an agent still awaiting review
func (r *WithdrawalRepository) CountPendingByAgent(ctx context.Context, agentID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.WithdrawalRequest{}).
		Where("agent_id = ? AND status IN ?", agentID,
			[]string{models.WithdrawalStatusPending, models.WithdrawalStatusApproved}).
		Count(&count).Error
	return count, err
}
