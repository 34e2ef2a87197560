package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/agentnetph/agent-network-backend/internal/models"
)

// AdminRepository admin account persistence
type AdminRepository struct {
	db *gorm.DB
}

// NewAdminRepository creates the admin repository
func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// Create creates an admin account
func (r *AdminRepository) Create(ctx context.Context, admin *models.Admin) error {
	return r.db.WithContext(ctx).Create(admin).Error
}

// GetByID fetches an admin by ID
func (r *AdminRepository) GetByID(ctx context.Context, id int64) (*models.Admin, error) {
	var admin models.Admin
	err := r.db.WithContext(ctx).First(&admin, id).Error
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

// GetByUsername fetches an admin by username
func (r *AdminRepository) GetByUsername(ctx context.Context, username string) (*models.Admin, error) {
	var admin models.Admin
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&admin).Error
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

// TouchLogin records a successful login
func (r *AdminRepository) TouchLogin(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Model(&models.Admin{}).
		Where("id = ?", id).
		Update("last_login_at", time.Now()).Error
}
