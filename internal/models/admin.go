package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Admin back-office operator. Audit fields on ledger rows reference this table.
type Admin struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string     `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	PasswordHash string     `gorm:"type:varchar(100);not null" json:"-"`
	FullName     string     `gorm:"type:varchar(100)" json:"full_name"`
	Role         string     `gorm:"type:varchar(20);not null;default:'operator'" json:"role"`
	Status       int8       `gorm:"type:smallint;not null;default:1" json:"status"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName table name
func (Admin) TableName() string {
	return "admins"
}

// AdminStatus admin states
const (
	AdminStatusDisabled = 0
	AdminStatusActive   = 1
)

// AdminRole admin roles
const (
	AdminRoleOperator = "operator"
	AdminRoleFinance  = "finance"
	AdminRoleSuper    = "super"
)

// SetPassword hashes and stores the password.
func (a *Admin) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = string(hash)
	return nil
}

// CheckPassword verifies the password against the stored hash.
func (a *Admin) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) == nil
}
