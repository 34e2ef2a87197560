package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/agentnetph/agent-network-backend/internal/models"
)

func setupCommissionTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.CommissionTransaction{}, &models.CommissionRule{}, &models.Plan{})
	require.NoError(t, err)

	return db
}

func TestCommissionRepository_Create(t *testing.T) {
	db := setupCommissionTestDB(t)
	repo := NewCommissionRepository(db)
	ctx := context.Background()

	tx := &models.CommissionTransaction{
		EarnerAgentID:    2,
		SourceAgentID:    1,
		PlanID:           1,
		PaymentReference: "PAY-001",
		TierLevel:        1,
		BasisAmount:      9000,
		CommissionAmount: 1000,
		Status:           models.CommissionStatusPending,
	}

	err := repo.Create(ctx, tx)
	require.NoError(t, err)
	assert.NotZero(t, tx.ID)
}

func TestCommissionRepository_Create_DuplicatePaymentTier(t *testing.T) {
	db := setupCommissionTestDB(t)
	repo := NewCommissionRepository(db)
	ctx := context.Background()

	first := &models.CommissionTransaction{
		EarnerAgentID: 2, SourceAgentID: 1, PlanID: 1,
		PaymentReference: "PAY-001", TierLevel: 1,
		BasisAmount: 9000, CommissionAmount: 1000,
		Status: models.CommissionStatusPending,
	}
	require.NoError(t, repo.Create(ctx, first))

	dup := &models.CommissionTransaction{
		EarnerAgentID: 3, SourceAgentID: 1, PlanID: 1,
		PaymentReference: "PAY-001", TierLevel: 1,
		BasisAmount: 9000, CommissionAmount: 500,
		Status: models.CommissionStatusPending,
	}
	assert.Error(t, repo.Create(ctx, dup))
}

func TestCommissionRepository_ExistsByPaymentReference(t *testing.T) {
	db := setupCommissionTestDB(t)
	repo := NewCommissionRepository(db)
	ctx := context.Background()

	exists, err := repo.ExistsByPaymentReference(ctx, "PAY-001")
	require.NoError(t, err)
	assert.False(t, exists)

	db.Create(&models.CommissionTransaction{
		EarnerAgentID: 2, SourceAgentID: 1, PlanID: 1,
		PaymentReference: "PAY-001", TierLevel: 1,
		BasisAmount: 9000, CommissionAmount: 1000,
		Status: models.CommissionStatusPosted,
	})

	exists, err = repo.ExistsByPaymentReference(ctx, "PAY-001")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCommissionRepository_MarkPosted(t *testing.T) {
	db := setupCommissionTestDB(t)
	repo := NewCommissionRepository(db)
	ctx := context.Background()

	tx := &models.CommissionTransaction{
		EarnerAgentID: 2, SourceAgentID: 1, PlanID: 1,
		PaymentReference: "PAY-001", TierLevel: 1,
		BasisAmount: 9000, CommissionAmount: 1000,
		Status: models.CommissionStatusPending,
	}
	require.NoError(t, repo.Create(ctx, tx))

	err := repo.MarkPosted(ctx, db, tx.ID)
	require.NoError(t, err)

	found, err := repo.GetByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CommissionStatusPosted, found.Status)
	assert.NotNil(t, found.PostedAt)

	// second attempt hits no pending row
	err = repo.MarkPosted(ctx, db, tx.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCommissionRepository_ListPendingEarners(t *testing.T) {
	db := setupCommissionTestDB(t)
	repo := NewCommissionRepository(db)
	ctx := context.Background()

	db.Create(&models.CommissionTransaction{
		EarnerAgentID: 5, SourceAgentID: 1, PlanID: 1,
		PaymentReference: "PAY-001", TierLevel: 1,
		BasisAmount: 9000, CommissionAmount: 1000, Status: models.CommissionStatusPending,
	})
	db.Create(&models.CommissionTransaction{
		EarnerAgentID: 3, SourceAgentID: 1, PlanID: 1,
		PaymentReference: "PAY-001", TierLevel: 2,
		BasisAmount: 9000, CommissionAmount: 500, Status: models.CommissionStatusPending,
	})
	db.Create(&models.CommissionTransaction{
		EarnerAgentID: 9, SourceAgentID: 1, PlanID: 1,
		PaymentReference: "PAY-002", TierLevel: 1,
		BasisAmount: 9000, CommissionAmount: 1000, Status: models.CommissionStatusPosted,
	})

	ids, err := repo.ListPendingEarners(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 5}, ids)
}

func TestCommissionRepository_SumByEarnerAndStatus(t *testing.T) {
	db := setupCommissionTestDB(t)
	repo := NewCommissionRepository(db)
	ctx := context.Background()

	db.Create(&models.CommissionTransaction{
		EarnerAgentID: 2, SourceAgentID: 1, PlanID: 1,
		PaymentReference: "PAY-001", TierLevel: 1,
		BasisAmount: 9000, CommissionAmount: 1000, Status: models.CommissionStatusPending,
	})
	db.Create(&models.CommissionTransaction{
		EarnerAgentID: 2, SourceAgentID: 1, PlanID: 1,
		PaymentReference: "PAY-002", TierLevel: 1,
		BasisAmount: 9000, CommissionAmount: 1000, Status: models.CommissionStatusPending,
	})

	sum, err := repo.SumByEarnerAndStatus(ctx, 2, models.CommissionStatusPending)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), sum)

	sum, err = repo.SumByEarnerAndStatus(ctx, 2, models.CommissionStatusPosted)
	require.NoError(t, err)
	assert.Equal(t, int64(0), sum)
}

func TestCommissionRuleRepository_FindActive(t *testing.T) {
	db := setupCommissionTestDB(t)
	repo := NewCommissionRuleRepository(db)
	ctx := context.Background()

	db.Create(&models.CommissionRule{
		PlanID: 1, PaymentFrequency: models.FrequencyMonthly, TierLevel: 1,
		Type: models.CommissionTypePercentage, Value: 1111, IsActive: true,
	})
	db.Create(&models.CommissionRule{
		PlanID: 1, PaymentFrequency: models.FrequencyMonthly, TierLevel: 2,
		Type: models.CommissionTypePercentage, Value: 500, IsActive: false,
	})

	rules, err := repo.FindActive(ctx, 1, models.FrequencyMonthly, 1)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, int64(1111), rules[0].Value)

	// inactive rules are excluded
	rules, err = repo.FindActive(ctx, 1, models.FrequencyMonthly, 2)
	require.NoError(t, err)
	assert.Empty(t, rules)
}
