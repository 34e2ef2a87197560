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
	"github.com/agentnetph/agent-network-backend/internal/service/referral"
	"github.com/agentnetph/agent-network-backend/internal/service/wallet"
)

func setupEngineTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	err = db.AutoMigrate(
		&models.Agent{},
		&models.Plan{},
		&models.CommissionRule{},
		&models.CommissionTransaction{},
		&models.Wallet{},
		&models.WalletTransaction{},
	)
	require.NoError(t, err)
	return db
}

func newTestEngine(t *testing.T) (*Engine, *wallet.Ledger, *gorm.DB) {
	db := setupEngineTestDB(t)
	walletRepo := repository.NewWalletRepository(db)
	ledger := wallet.NewLedger(walletRepo, db)
	engine := NewEngine(
		repository.NewAgentRepository(db),
		repository.NewPlanRepository(db),
		repository.NewCommissionRepository(db),
		walletRepo,
		NewRuleResolver(repository.NewCommissionRuleRepository(db)),
		referral.NewGraph(repository.NewAgentRepository(db)),
		ledger,
		db,
	)
	return engine, ledger, db
}

func createEngineAgent(t *testing.T, db *gorm.DB, code string, referrerCode *string, agentStatus, walletStatus string) *models.Agent {
	agent := &models.Agent{
		AgentCode:    code,
		FullName:     "Agent " + code,
		ReferrerCode: referrerCode,
		Status:       agentStatus,
	}
	require.NoError(t, db.Create(agent).Error)
	require.NoError(t, db.Create(&models.Wallet{AgentID: agent.ID, Status: walletStatus}).Error)
	return agent
}

func createEnginePlan(t *testing.T, db *gorm.DB) *models.Plan {
	plan := &models.Plan{Code: "LIFE01", Name: "Term Life", IsActive: true}
	require.NoError(t, db.Create(plan).Error)
	return plan
}

func createEngineRule(t *testing.T, db *gorm.DB, planID int64, tier int, ruleType string, value int64) {
	require.NoError(t, db.Create(&models.CommissionRule{
		PlanID:           planID,
		PaymentFrequency: models.FrequencyMonthly,
		TierLevel:        tier,
		Type:             ruleType,
		Value:            value,
		IsActive:         true,
	}).Error)
}

func ref(s string) *string {
	return &s
}

func walletIDOf(t *testing.T, db *gorm.DB, agentID int64) int64 {
	t.Helper()
	var w models.Wallet
	require.NoError(t, db.Where("agent_id = ?", agentID).First(&w).Error)
	return w.ID
}

func TestEngine_OnPaymentCompleted(t *testing.T) {
	t.Run("credits every tier with a rule", func(t *testing.T) {
		engine, ledger, db := newTestEngine(t)
		ctx := context.Background()

		a1 := createEngineAgent(t, db, "A1", nil, models.AgentStatusActive, models.WalletStatusActive)
		a2 := createEngineAgent(t, db, "A2", ref("A1"), models.AgentStatusActive, models.WalletStatusActive)
		createEngineAgent(t, db, "A3", ref("A2"), models.AgentStatusActive, models.WalletStatusActive)

		plan := createEnginePlan(t, db)
		createEngineRule(t, db, plan.ID, 1, models.CommissionTypePercentage, 1111)
		createEngineRule(t, db, plan.ID, 2, models.CommissionTypePercentage, 500)

		result, err := engine.OnPaymentCompleted(ctx, &PaymentEvent{
			PaymentReference: "PAY-001",
			AgentCode:        "A3",
			PlanID:           plan.ID,
			PaymentFrequency: models.FrequencyMonthly,
			Amount:           9000,
		})
		require.NoError(t, err)
		assert.False(t, result.AlreadyProcessed)
		require.Len(t, result.Commissions, 2)
		assert.Equal(t, 2, result.PostedCount)
		assert.Equal(t, 0, result.HeldCount)

		// 11.11% of 90.00 rounds half up to 10.00
		w2, err := ledger.GetByAgentID(ctx, a2.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), w2.Balance)

		// 5% of 90.00
		w1, err := ledger.GetByAgentID(ctx, a1.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(450), w1.Balance)

		for _, agentID := range []int64{a1.ID, a2.ID} {
			ok, _, err := ledger.Audit(ctx, agentID)
			require.NoError(t, err)
			assert.True(t, ok)
		}

		rows, err := engine.ListByPaymentReference(ctx, "PAY-001")
		require.NoError(t, err)
		for _, row := range rows {
			assert.Equal(t, models.CommissionStatusPosted, row.Status)
			assert.NotNil(t, row.PostedAt)
		}
	})

	t.Run("redelivery is a no-op", func(t *testing.T) {
		engine, ledger, db := newTestEngine(t)
		ctx := context.Background()

		a1 := createEngineAgent(t, db, "A1", nil, models.AgentStatusActive, models.WalletStatusActive)
		createEngineAgent(t, db, "A2", ref("A1"), models.AgentStatusActive, models.WalletStatusActive)

		plan := createEnginePlan(t, db)
		createEngineRule(t, db, plan.ID, 1, models.CommissionTypeFixedAmount, 2000)

		event := &PaymentEvent{
			PaymentReference: "PAY-001",
			AgentCode:        "A2",
			PlanID:           plan.ID,
			PaymentFrequency: models.FrequencyMonthly,
			Amount:           9000,
		}

		first, err := engine.OnPaymentCompleted(ctx, event)
		require.NoError(t, err)
		require.Len(t, first.Commissions, 1)

		second, err := engine.OnPaymentCompleted(ctx, event)
		require.NoError(t, err)
		assert.True(t, second.AlreadyProcessed)
		require.Len(t, second.Commissions, 1)

		w1, err := ledger.GetByAgentID(ctx, a1.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2000), w1.Balance)

		var count int64
		db.Model(&models.CommissionTransaction{}).Where("payment_reference = ?", "PAY-001").Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("chain deeper than five tiers stops at five", func(t *testing.T) {
		engine, _, db := newTestEngine(t)
		ctx := context.Background()

		createEngineAgent(t, db, "A1", nil, models.AgentStatusActive, models.WalletStatusActive)
		for i := 2; i <= 8; i++ {
			createEngineAgent(t, db, fmt.Sprintf("A%d", i), ref(fmt.Sprintf("A%d", i-1)),
				models.AgentStatusActive, models.WalletStatusActive)
		}

		plan := createEnginePlan(t, db)
		for tier := 1; tier <= models.MaxCommissionTiers; tier++ {
			createEngineRule(t, db, plan.ID, tier, models.CommissionTypeFixedAmount, 100)
		}

		result, err := engine.OnPaymentCompleted(ctx, &PaymentEvent{
			PaymentReference: "PAY-001",
			AgentCode:        "A8",
			PlanID:           plan.ID,
			PaymentFrequency: models.FrequencyMonthly,
			Amount:           9000,
		})
		require.NoError(t, err)
		assert.Len(t, result.Commissions, models.MaxCommissionTiers)
		assert.Equal(t, int64(500), result.TotalAmount)
	})

	t.Run("inactive wallet holds the commission", func(t *testing.T) {
		engine, ledger, db := newTestEngine(t)
		ctx := context.Background()

		a1 := createEngineAgent(t, db, "A1", nil, models.AgentStatusActive, models.WalletStatusSuspended)
		createEngineAgent(t, db, "A2", ref("A1"), models.AgentStatusActive, models.WalletStatusActive)

		plan := createEnginePlan(t, db)
		createEngineRule(t, db, plan.ID, 1, models.CommissionTypeFixedAmount, 1500)

		result, err := engine.OnPaymentCompleted(ctx, &PaymentEvent{
			PaymentReference: "PAY-001",
			AgentCode:        "A2",
			PlanID:           plan.ID,
			PaymentFrequency: models.FrequencyMonthly,
			Amount:           9000,
		})
		require.NoError(t, err)
		assert.Equal(t, 0, result.PostedCount)
		assert.Equal(t, 1, result.HeldCount)

		w1, err := ledger.GetByAgentID(ctx, a1.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), w1.Balance)
		assert.Equal(t, int64(1500), w1.PendingCommission)
		assert.Equal(t, models.CommissionStatusPending, result.Commissions[0].Status)

		// wallet comes back, the sync pass posts the held commission
		require.NoError(t, db.Model(&models.Wallet{}).Where("agent_id = ?", a1.ID).
			Update("status", models.WalletStatusActive).Error)

		posted, err := engine.SyncPendingCommissions(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, posted)

		w1, err = ledger.GetByAgentID(ctx, a1.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1500), w1.Balance)
		assert.Equal(t, int64(0), w1.PendingCommission)

		ok, _, err := ledger.Audit(ctx, a1.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		// a second pass finds nothing
		posted, err = engine.SyncPendingCommissions(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, posted)
	})

	t.Run("sync scoped to one agent leaves other earners held", func(t *testing.T) {
		engine, ledger, db := newTestEngine(t)
		ctx := context.Background()

		a1 := createEngineAgent(t, db, "A1", nil, models.AgentStatusActive, models.WalletStatusSuspended)
		a2 := createEngineAgent(t, db, "A2", ref("A1"), models.AgentStatusActive, models.WalletStatusFrozen)
		createEngineAgent(t, db, "A3", ref("A2"), models.AgentStatusActive, models.WalletStatusActive)

		plan := createEnginePlan(t, db)
		createEngineRule(t, db, plan.ID, 1, models.CommissionTypeFixedAmount, 1000)
		createEngineRule(t, db, plan.ID, 2, models.CommissionTypeFixedAmount, 500)

		_, err := engine.OnPaymentCompleted(ctx, &PaymentEvent{
			PaymentReference: "PAY-001",
			AgentCode:        "A3",
			PlanID:           plan.ID,
			PaymentFrequency: models.FrequencyMonthly,
			Amount:           9000,
		})
		require.NoError(t, err)

		// both wallets come back, but only A2 is reconciled
		require.NoError(t, db.Model(&models.Wallet{}).Where("agent_id IN ?", []int64{a1.ID, a2.ID}).
			Update("status", models.WalletStatusActive).Error)

		posted, err := engine.SyncPendingCommissions(ctx, &a2.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, posted)

		w2, err := ledger.GetByAgentID(ctx, a2.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), w2.Balance)
		assert.Equal(t, int64(0), w2.PendingCommission)

		w1, err := ledger.GetByAgentID(ctx, a1.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), w1.Balance)
		assert.Equal(t, int64(500), w1.PendingCommission)

		// the global pass picks up the rest
		posted, err = engine.SyncPendingCommissions(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, posted)
	})

	t.Run("sync does not count rows another pass already moved", func(t *testing.T) {
		engine, _, db := newTestEngine(t)
		ctx := context.Background()

		a1 := createEngineAgent(t, db, "A1", nil, models.AgentStatusActive, models.WalletStatusSuspended)
		createEngineAgent(t, db, "A2", ref("A1"), models.AgentStatusActive, models.WalletStatusActive)

		plan := createEnginePlan(t, db)
		createEngineRule(t, db, plan.ID, 1, models.CommissionTypeFixedAmount, 1500)

		_, err := engine.OnPaymentCompleted(ctx, &PaymentEvent{
			PaymentReference: "PAY-001",
			AgentCode:        "A2",
			PlanID:           plan.ID,
			PaymentFrequency: models.FrequencyMonthly,
			Amount:           9000,
		})
		require.NoError(t, err)

		require.NoError(t, db.Model(&models.Wallet{}).Where("agent_id = ?", a1.ID).
			Update("status", models.WalletStatusActive).Error)

		// the row flips to posted between the listing and the guarded
		// update, as a concurrent pass would do
		var held models.CommissionTransaction
		require.NoError(t, db.Where("earner_agent_id = ?", a1.ID).First(&held).Error)
		require.NoError(t, db.Model(&models.CommissionTransaction{}).
			Where("id = ?", held.ID).
			Update("status", models.CommissionStatusPosted).Error)

		moved, err := engine.postHeldRow(ctx, walletIDOf(t, db, a1.ID), &held)
		require.NoError(t, err)
		assert.False(t, moved)

		posted, err := engine.SyncPendingCommissions(ctx, &a1.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, posted)
	})

	t.Run("tiers without a rule are skipped", func(t *testing.T) {
		engine, _, db := newTestEngine(t)
		ctx := context.Background()

		createEngineAgent(t, db, "A1", nil, models.AgentStatusActive, models.WalletStatusActive)
		createEngineAgent(t, db, "A2", ref("A1"), models.AgentStatusActive, models.WalletStatusActive)
		createEngineAgent(t, db, "A3", ref("A2"), models.AgentStatusActive, models.WalletStatusActive)

		plan := createEnginePlan(t, db)
		createEngineRule(t, db, plan.ID, 2, models.CommissionTypeFixedAmount, 800)

		result, err := engine.OnPaymentCompleted(ctx, &PaymentEvent{
			PaymentReference: "PAY-001",
			AgentCode:        "A3",
			PlanID:           plan.ID,
			PaymentFrequency: models.FrequencyMonthly,
			Amount:           9000,
		})
		require.NoError(t, err)
		require.Len(t, result.Commissions, 1)
		assert.Equal(t, 2, result.Commissions[0].TierLevel)
	})

	t.Run("misconfigured key with two active rules skips the tier", func(t *testing.T) {
		engine, _, db := newTestEngine(t)
		ctx := context.Background()

		createEngineAgent(t, db, "A1", nil, models.AgentStatusActive, models.WalletStatusActive)
		createEngineAgent(t, db, "A2", ref("A1"), models.AgentStatusActive, models.WalletStatusActive)

		plan := createEnginePlan(t, db)
		createEngineRule(t, db, plan.ID, 1, models.CommissionTypeFixedAmount, 800)
		createEngineRule(t, db, plan.ID, 1, models.CommissionTypePercentage, 1000)

		result, err := engine.OnPaymentCompleted(ctx, &PaymentEvent{
			PaymentReference: "PAY-001",
			AgentCode:        "A2",
			PlanID:           plan.ID,
			PaymentFrequency: models.FrequencyMonthly,
			Amount:           9000,
		})
		require.NoError(t, err)
		assert.Empty(t, result.Commissions)
	})

	t.Run("terminated ancestor keeps its slot but earns nothing", func(t *testing.T) {
		engine, ledger, db := newTestEngine(t)
		ctx := context.Background()

		a1 := createEngineAgent(t, db, "A1", nil, models.AgentStatusActive, models.WalletStatusActive)
		createEngineAgent(t, db, "A2", ref("A1"), models.AgentStatusTerminated, models.WalletStatusFrozen)
		createEngineAgent(t, db, "A3", ref("A2"), models.AgentStatusActive, models.WalletStatusActive)

		plan := createEnginePlan(t, db)
		createEngineRule(t, db, plan.ID, 1, models.CommissionTypeFixedAmount, 1000)
		createEngineRule(t, db, plan.ID, 2, models.CommissionTypeFixedAmount, 500)

		result, err := engine.OnPaymentCompleted(ctx, &PaymentEvent{
			PaymentReference: "PAY-001",
			AgentCode:        "A3",
			PlanID:           plan.ID,
			PaymentFrequency: models.FrequencyMonthly,
			Amount:           9000,
		})
		require.NoError(t, err)
		require.Len(t, result.Commissions, 1)
		// A1 sits at tier 2 and earns the tier-2 amount
		assert.Equal(t, 2, result.Commissions[0].TierLevel)
		assert.Equal(t, a1.ID, result.Commissions[0].EarnerAgentID)
		assert.Equal(t, int64(500), result.Commissions[0].CommissionAmount)

		w1, err := ledger.GetByAgentID(ctx, a1.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(500), w1.Balance)
	})

	t.Run("looping chain fails the whole event", func(t *testing.T) {
		engine, _, db := newTestEngine(t)
		ctx := context.Background()

		createEngineAgent(t, db, "A1", ref("A2"), models.AgentStatusActive, models.WalletStatusActive)
		createEngineAgent(t, db, "A2", ref("A1"), models.AgentStatusActive, models.WalletStatusActive)

		plan := createEnginePlan(t, db)
		createEngineRule(t, db, plan.ID, 1, models.CommissionTypeFixedAmount, 1000)

		_, err := engine.OnPaymentCompleted(ctx, &PaymentEvent{
			PaymentReference: "PAY-001",
			AgentCode:        "A1",
			PlanID:           plan.ID,
			PaymentFrequency: models.FrequencyMonthly,
			Amount:           9000,
		})
		assert.ErrorIs(t, err, errors.ErrCyclicReferral)

		var count int64
		db.Model(&models.CommissionTransaction{}).Count(&count)
		assert.Equal(t, int64(0), count)
	})

	t.Run("rejects bad events", func(t *testing.T) {
		engine, _, db := newTestEngine(t)
		ctx := context.Background()

		createEngineAgent(t, db, "A1", nil, models.AgentStatusActive, models.WalletStatusActive)
		plan := createEnginePlan(t, db)

		_, err := engine.OnPaymentCompleted(ctx, &PaymentEvent{
			PaymentReference: "PAY-001", AgentCode: "A1", PlanID: plan.ID,
			PaymentFrequency: "weekly", Amount: 9000,
		})
		assert.ErrorIs(t, err, errors.ErrInvalidFrequency)

		_, err = engine.OnPaymentCompleted(ctx, &PaymentEvent{
			PaymentReference: "PAY-002", AgentCode: "A1", PlanID: plan.ID,
			PaymentFrequency: models.FrequencyMonthly, Amount: 0,
		})
		assert.ErrorIs(t, err, errors.ErrInvalidBasisAmount)

		_, err = engine.OnPaymentCompleted(ctx, &PaymentEvent{
			PaymentReference: "PAY-003", AgentCode: "A1", PlanID: 999,
			PaymentFrequency: models.FrequencyMonthly, Amount: 9000,
		})
		assert.ErrorIs(t, err, errors.ErrPlanNotFound)

		_, err = engine.OnPaymentCompleted(ctx, &PaymentEvent{
			PaymentReference: "PAY-004", AgentCode: "NOBODY", PlanID: plan.ID,
			PaymentFrequency: models.FrequencyMonthly, Amount: 9000,
		})
		assert.ErrorIs(t, err, errors.ErrAgentNotFound)
	})

	t.Run("agent with no upline yields nothing", func(t *testing.T) {
		engine, _, db := newTestEngine(t)
		ctx := context.Background()

		createEngineAgent(t, db, "A1", nil, models.AgentStatusActive, models.WalletStatusActive)
		plan := createEnginePlan(t, db)
		createEngineRule(t, db, plan.ID, 1, models.CommissionTypeFixedAmount, 1000)

		result, err := engine.OnPaymentCompleted(ctx, &PaymentEvent{
			PaymentReference: "PAY-001",
			AgentCode:        "A1",
			PlanID:           plan.ID,
			PaymentFrequency: models.FrequencyMonthly,
			Amount:           9000,
		})
		require.NoError(t, err)
		assert.Empty(t, result.Commissions)
		assert.Equal(t, int64(0), result.TotalAmount)
	})
}

func TestEngine_EarningsSummary(t *testing.T) {
	engine, _, db := newTestEngine(t)
	ctx := context.Background()

	a1 := createEngineAgent(t, db, "A1", nil, models.AgentStatusActive, models.WalletStatusSuspended)
	a2 := createEngineAgent(t, db, "A2", ref("A1"), models.AgentStatusActive, models.WalletStatusActive)
	createEngineAgent(t, db, "A3", ref("A2"), models.AgentStatusActive, models.WalletStatusActive)

	plan := createEnginePlan(t, db)
	createEngineRule(t, db, plan.ID, 1, models.CommissionTypeFixedAmount, 1000)
	createEngineRule(t, db, plan.ID, 2, models.CommissionTypeFixedAmount, 500)

	_, err := engine.OnPaymentCompleted(ctx, &PaymentEvent{
		PaymentReference: "PAY-001",
		AgentCode:        "A3",
		PlanID:           plan.ID,
		PaymentFrequency: models.FrequencyMonthly,
		Amount:           9000,
	})
	require.NoError(t, err)

	// tier 1 (A2, active wallet) posted; tier 2 (A1, suspended) held
	s2, err := engine.EarningsSummary(ctx, a2.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), s2.PostedAmount)
	assert.Equal(t, int64(0), s2.PendingAmount)

	s1, err := engine.EarningsSummary(ctx, a1.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), s1.PostedAmount)
	assert.Equal(t, int64(500), s1.PendingAmount)

	// an earner with no rows sums to zero
	empty, err := engine.EarningsSummary(ctx, 999)
	require.NoError(t, err)
	assert.Equal(t, int64(0), empty.PostedAmount)
	assert.Equal(t, int64(0), empty.PendingAmount)
}
