package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/agentnetph/agent-network-backend/internal/common/config"
	"github.com/agentnetph/agent-network-backend/internal/common/jwt"
	"github.com/agentnetph/agent-network-backend/internal/common/metrics"
	agentHandler "github.com/agentnetph/agent-network-backend/internal/handler/agent"
	authHandler "github.com/agentnetph/agent-network-backend/internal/handler/auth"
	commissionHandler "github.com/agentnetph/agent-network-backend/internal/handler/commission"
	paymentHandler "github.com/agentnetph/agent-network-backend/internal/handler/payment"
	walletHandler "github.com/agentnetph/agent-network-backend/internal/handler/wallet"
	withdrawalHandler "github.com/agentnetph/agent-network-backend/internal/handler/withdrawal"
	"github.com/agentnetph/agent-network-backend/internal/middleware"
	"github.com/agentnetph/agent-network-backend/internal/repository"
	"github.com/agentnetph/agent-network-backend/internal/scheduler"
	agentService "github.com/agentnetph/agent-network-backend/internal/service/agent"
	authService "github.com/agentnetph/agent-network-backend/internal/service/auth"
	commissionService "github.com/agentnetph/agent-network-backend/internal/service/commission"
	"github.com/agentnetph/agent-network-backend/internal/service/referral"
	walletService "github.com/agentnetph/agent-network-backend/internal/service/wallet"
	withdrawalService "github.com/agentnetph/agent-network-backend/internal/service/withdrawal"
)

// setupRouter wires repositories, services, handlers and routes, and
// returns the background scheduler ready to start.
func setupRouter(
	r *gin.Engine,
	cfg *config.Config,
	log *zap.Logger,
	db *gorm.DB,
	redisClient *redis.Client,
) *scheduler.Scheduler {
	jwtManager := jwt.NewManager(&jwt.Config{
		Secret:            cfg.JWT.Secret,
		AccessExpireTime:  cfg.JWT.AccessTokenDuration(),
		RefreshExpireTime: cfg.JWT.RefreshTokenDuration(),
		Issuer:            cfg.JWT.Issuer,
	})

	// repositories
	agentRepo := repository.NewAgentRepository(db)
	planRepo := repository.NewPlanRepository(db)
	ruleRepo := repository.NewCommissionRuleRepository(db)
	commissionRepo := repository.NewCommissionRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	withdrawalRepo := repository.NewWithdrawalRepository(db)
	adminRepo := repository.NewAdminRepository(db)

	// services
	graph := referral.NewGraph(agentRepo)
	if cfg.Business.Commission.MaxTiers > 0 {
		graph.SetMaxTiers(cfg.Business.Commission.MaxTiers)
	}
	ledger := walletService.NewLedger(walletRepo, db)
	ledger.SetCache(redisClient)
	resolver := commissionService.NewRuleResolver(ruleRepo)
	engine := commissionService.NewEngine(agentRepo, planRepo, commissionRepo, walletRepo, resolver, graph, ledger, db)
	ruleAdmin := commissionService.NewAdmin(ruleRepo, planRepo, db)
	agentSvc := agentService.NewService(agentRepo, walletRepo, withdrawalRepo, graph, db)
	workflow := withdrawalService.NewWorkflow(withdrawalRepo, walletRepo, ledger, db)
	if cfg.Business.Withdrawal.MinAmount > 0 {
		workflow.SetMinAmount(cfg.Business.Withdrawal.MinAmount)
	}
	authSvc := authService.NewService(adminRepo, agentRepo, jwtManager)

	// handlers
	authH := authHandler.NewHandler(authSvc)
	agentH := agentHandler.NewHandler(agentSvc)
	paymentH := paymentHandler.NewHandler(engine)
	commissionH := commissionHandler.NewHandler(engine, ruleAdmin)
	walletH := walletHandler.NewHandler(ledger)
	withdrawalH := withdrawalHandler.NewHandler(workflow)

	m := metrics.Init("agent_network")

	// global middleware
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS(&cfg.CORS))
	r.Use(middleware.Logging(middleware.DefaultLoggingConfig(log)))
	if cfg.Metrics.Enabled {
		r.Use(m.GinMiddleware())
		r.GET(cfg.Metrics.Path, m.Handler())
	}
	if cfg.RateLimit.Enabled {
		limitCfg := middleware.DefaultRateLimitConfig(redisClient)
		limitCfg.Limit = cfg.RateLimit.RequestsPerMinute
		r.Use(middleware.RateLimit(limitCfg))
	}

	// health checks, no auth
	r.GET("/health", healthHandler)
	r.GET("/ready", readyHandler(db, redisClient))

	v1 := r.Group("/api/v1")
	{
		// public
		v1.POST("/auth/admin/login", authH.AdminLogin)
		v1.POST("/auth/refresh", authH.Refresh)
		v1.GET("/plans", commissionH.ListPlans)
		v1.GET("/agents/:code", agentH.GetByCode)
		v1.GET("/agents/:code/upline", agentH.GetUpline)

		// agent portal
		agent := v1.Group("")
		agent.Use(middleware.AgentAuth(jwtManager))
		{
			agent.GET("/wallet", walletH.GetMine)
			agent.GET("/wallet/transactions", walletH.ListMyTransactions)
			agent.GET("/commissions", commissionH.ListMine)
			agent.GET("/commissions/summary", commissionH.Summary)
			agent.POST("/withdrawals", withdrawalH.Request)
			agent.GET("/withdrawals", withdrawalH.ListMine)
		}

		// back office
		admin := v1.Group("/admin")
		admin.Use(middleware.AdminAuth(jwtManager))
		{
			// billing-side payment events
			admin.POST("/payments/events", paymentH.OnEvent)
			admin.GET("/payments/:ref/commissions", paymentH.GetCommissions)

			// agent management
			admin.POST("/agents", agentH.Register)
			admin.GET("/agents", agentH.List)
			admin.POST("/agents/:id/token", authH.IssueAgentToken)
			admin.POST("/agents/:id/suspend", agentH.Suspend)
			admin.POST("/agents/:id/reactivate", agentH.Reactivate)
			admin.POST("/agents/:id/decommission", agentH.Decommission)

			// plan catalog and commission rules
			admin.POST("/plans", commissionH.CreatePlan)
			admin.GET("/plans/:id/rules", commissionH.ListRulesByPlan)
			admin.POST("/rules", commissionH.CreateRule)
			admin.POST("/rules/:id/deactivate", commissionH.DeactivateRule)
			admin.POST("/commissions/sync", commissionH.SyncPending)

			// wallets
			admin.GET("/wallets/:agent_id", walletH.GetByAgent)
			admin.GET("/wallets/:agent_id/transactions", walletH.ListTransactionsByAgent)
			admin.POST("/wallets/:agent_id/adjust", walletH.Adjust)
			admin.PUT("/wallets/:agent_id/status", walletH.SetStatus)
			admin.GET("/wallets/:agent_id/audit", walletH.Audit)

			// withdrawals
			admin.GET("/withdrawals", withdrawalH.List)
			admin.GET("/withdrawals/lookup", withdrawalH.Lookup)
			admin.POST("/withdrawals/:id/approve", withdrawalH.Approve)
			admin.POST("/withdrawals/:id/reject", withdrawalH.Reject)
			admin.POST("/withdrawals/:id/complete", withdrawalH.Complete)
		}
	}

	// background tasks
	sched := scheduler.NewScheduler()
	tasks := scheduler.NewTaskHandler(engine)
	syncInterval := time.Duration(cfg.Business.Commission.SyncIntervalMins) * time.Minute
	if syncInterval <= 0 {
		syncInterval = 15 * time.Minute
	}
	sched.AddTask("sync-pending-commissions", syncInterval, tasks.SyncPendingCommissions)

	return sched
}
