package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/agentnetph/agent-network-backend/internal/models"
)

// CommissionRepository commission transaction persistence
type CommissionRepository struct {
	db *gorm.DB
}

// NewCommissionRepository creates the commission transaction repository
func NewCommissionRepository(db *gorm.DB) *CommissionRepository {
	return &CommissionRepository{db: db}
}

// Create creates a commission transaction
func (r *CommissionRepository) Create(ctx context.Context, tx *models.CommissionTransaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

// GetByID fetches a commission transaction by ID
func (r *CommissionRepository) GetByID(ctx context.Context, id int64) (*models.CommissionTransaction, error) {
	var tx models.CommissionTransaction
	err := r.db.WithContext(ctx).First(&tx, id).Error
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// ExistsByPaymentReference reports whether any commission rows exist for a payment reference
func (r *CommissionRepository) ExistsByPaymentReference(ctx context.Context, paymentRef string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CommissionTransaction{}).
		Where("payment_reference = ?", paymentRef).
		Count(&count).Error
	return count > 0, err
}

// ListByPaymentReference lists all commission rows created for a payment reference
func (r *CommissionRepository) ListByPaymentReference(ctx context.Context, paymentRef string) ([]*models.CommissionTransaction, error) {
	var txs []*models.CommissionTransaction
	err := r.db.WithContext(ctx).
		Where("payment_reference = ?", paymentRef).
		Order("tier_level ASC").
		Find(&txs).Error
	return txs, err
}

// ListByEarner lists commissions earned by an agent
func (r *CommissionRepository) ListByEarner(ctx context.Context, agentID int64, offset, limit int, filters map[string]interface{}) ([]*models.CommissionTransaction, int64, error) {
	var txs []*models.CommissionTransaction
	var total int64

	query := r.db.WithContext(ctx).Model(&models.CommissionTransaction{}).
		Where("earner_agent_id = ?", agentID)

	if status, ok := filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if planID, ok := filters["plan_id"].(int64); ok && planID > 0 {
		query = query.Where("plan_id = ?", planID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&txs).Error; err != nil {
		return nil, 0, err
	}

	return txs, total, nil
}

// ListPendingByEarner lists pending commissions for an agent, oldest first
func (r *CommissionRepository) ListPendingByEarner(ctx context.Context, agentID int64) ([]*models.CommissionTransaction, error) {
	var txs []*models.CommissionTransaction
	err := r.db.WithContext(ctx).
		Where("earner_agent_id = ? AND status = ?", agentID, models.CommissionStatusPending).
		Order("id ASC").
		Find(&txs).Error
	return txs, err
}

// ListPendingEarners lists distinct agent IDs that have pending commissions
func (r *CommissionRepository) ListPendingEarners(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&models.CommissionTransaction{}).
		Where("status = ?", models.CommissionStatusPending).
		Distinct("earner_agent_id").
		Order("earner_agent_id ASC").
		Pluck("earner_agent_id", &ids).Error
	return ids, err
}

// MarkPosted transitions a pending commission to posted inside the
// caller's transaction.
// Returns gorm.ErrRecordNotFound if the row is not pending anymore.
func (r *CommissionRepository) MarkPosted(ctx context.Context, tx *gorm.DB, id int64) error {
	result := tx.WithContext(ctx).Model(&models.CommissionTransaction{}).
		Where("id = ? AND status = ?", id, models.CommissionStatusPending).
		Updates(map[string]interface{}{
			"status":    models.CommissionStatusPosted,
			"posted_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SumByEarnerAndStatus sums commission amounts for an agent in a status
func (r *CommissionRepository) SumByEarnerAndStatus(ctx context.Context, agentID int64, status string) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).Model(&models.CommissionTransaction{}).
		Where("earner_agent_id = ? AND status = ?", agentID, status).
		Select("COALESCE(SUM(commission_amount), 0)").
		Scan(&sum).Error
	return sum, err
}
