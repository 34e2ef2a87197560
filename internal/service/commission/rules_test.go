package commission

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/agentnetph/agent-network-backend/internal/common/errors"
	"github.com/agentnetph/agent-network-backend/internal/models"
	"github.com/agentnetph/agent-network-backend/internal/repository"
)

func setupRulesTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	require.NoError(t, db.AutoMigrate(&models.CommissionRule{}, &models.Plan{}))
	return db
}

func TestRuleResolver_Resolve(t *testing.T) {
	t.Run("single active rule", func(t *testing.T) {
		db := setupRulesTestDB(t)
		resolver := NewRuleResolver(repository.NewCommissionRuleRepository(db))

		db.Create(&models.CommissionRule{
			PlanID: 1, PaymentFrequency: models.FrequencyMonthly, TierLevel: 1,
			Type: models.CommissionTypePercentage, Value: 1111, IsActive: true,
		})

		rule, err := resolver.Resolve(context.Background(), 1, models.FrequencyMonthly, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1111), rule.Value)
	})

	t.Run("no active rule", func(t *testing.T) {
		db := setupRulesTestDB(t)
		resolver := NewRuleResolver(repository.NewCommissionRuleRepository(db))

		db.Create(&models.CommissionRule{
			PlanID: 1, PaymentFrequency: models.FrequencyMonthly, TierLevel: 1,
			Type: models.CommissionTypePercentage, Value: 1111, IsActive: false,
		})

		_, err := resolver.Resolve(context.Background(), 1, models.FrequencyMonthly, 1)
		assert.ErrorIs(t, err, errors.ErrNoActiveRule)
	})

	t.Run("multiple active rules is a configuration defect", func(t *testing.T) {
		db := setupRulesTestDB(t)
		resolver := NewRuleResolver(repository.NewCommissionRuleRepository(db))

		db.Create(&models.CommissionRule{
			PlanID: 1, PaymentFrequency: models.FrequencyMonthly, TierLevel: 1,
			Type: models.CommissionTypePercentage, Value: 1111, IsActive: true,
		})
		db.Create(&models.CommissionRule{
			PlanID: 1, PaymentFrequency: models.FrequencyMonthly, TierLevel: 1,
			Type: models.CommissionTypeFixedAmount, Value: 2000, IsActive: true,
		})

		_, err := resolver.Resolve(context.Background(), 1, models.FrequencyMonthly, 1)
		assert.ErrorIs(t, err, errors.ErrMultipleActiveRules)
	})

	t.Run("invalid frequency", func(t *testing.T) {
		db := setupRulesTestDB(t)
		resolver := NewRuleResolver(repository.NewCommissionRuleRepository(db))

		_, err := resolver.Resolve(context.Background(), 1, "weekly", 1)
		assert.ErrorIs(t, err, errors.ErrInvalidFrequency)
	})
}

func TestComputeAmount(t *testing.T) {
	t.Run("percentage rounds half up", func(t *testing.T) {
		rule := &models.CommissionRule{Type: models.CommissionTypePercentage, Value: 1111}

		// 11.11% of 90.00 = 9.9990 -> 10.00
		amount, err := ComputeAmount(rule, 9000)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), amount)
	})

	t.Run("percentage exact", func(t *testing.T) {
		rule := &models.CommissionRule{Type: models.CommissionTypePercentage, Value: 500}

		amount, err := ComputeAmount(rule, 10000)
		require.NoError(t, err)
		assert.Equal(t, int64(500), amount)
	})

	t.Run("percentage rounds down below half a centavo", func(t *testing.T) {
		rule := &models.CommissionRule{Type: models.CommissionTypePercentage, Value: 333}

		// 3.33% of 1.00 = 0.00333 -> 0.00
		amount, err := ComputeAmount(rule, 100)
		require.NoError(t, err)
		assert.Equal(t, int64(0), amount)
	})

	t.Run("fixed amount ignores basis", func(t *testing.T) {
		rule := &models.CommissionRule{Type: models.CommissionTypeFixedAmount, Value: 2500}

		amount, err := ComputeAmount(rule, 999999)
		require.NoError(t, err)
		assert.Equal(t, int64(2500), amount)
	})

	t.Run("non-positive basis", func(t *testing.T) {
		rule := &models.CommissionRule{Type: models.CommissionTypePercentage, Value: 1000}

		_, err := ComputeAmount(rule, 0)
		assert.ErrorIs(t, err, errors.ErrInvalidBasisAmount)
	})

	t.Run("unknown rule type", func(t *testing.T) {
		rule := &models.CommissionRule{Type: "bonus", Value: 1000}

		_, err := ComputeAmount(rule, 1000)
		assert.ErrorIs(t, err, errors.ErrInvalidRuleValue)
	})
}
