package commission

import (
	"context"
	stderrors "errors"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/agentnetph/agent-network-backend/internal/common/errors"
	"github.com/agentnetph/agent-network-backend/internal/common/logger"
	"github.com/agentnetph/agent-network-backend/internal/common/metrics"
	"github.com/agentnetph/agent-network-backend/internal/models"
	"github.com/agentnetph/agent-network-backend/internal/repository"
	"github.com/agentnetph/agent-network-backend/internal/service/referral"
	"github.com/agentnetph/agent-network-backend/internal/service/wallet"
)

// PaymentEvent a completed premium payment reported by the billing side.
// Amount is the paid premium in minor currency units.
type PaymentEvent struct {
	PaymentReference string `json:"payment_reference" binding:"required"`
	AgentCode        string `json:"agent_code" binding:"required"`
	PlanID           int64  `json:"plan_id" binding:"required"`
	PaymentFrequency string `json:"payment_frequency" binding:"required"`
	Amount           int64  `json:"amount" binding:"required"`
}

// PaymentResult outcome of processing one payment event
type PaymentResult struct {
	PaymentReference string                          `json:"payment_reference"`
	AlreadyProcessed bool                            `json:"already_processed"`
	Commissions      []*models.CommissionTransaction `json:"commissions"`
	TotalAmount      int64                           `json:"total_amount"`
	PostedCount      int                             `json:"posted_count"`
	HeldCount        int                             `json:"held_count"`
}

// plannedCredit one tier's commission before it is written
type plannedCredit struct {
	tier   int
	earner *models.Agent
	rule   *models.CommissionRule
	amount int64
}

// Engine turns payment events into commission transactions and wallet
// credits, at most once per (payment reference, tier).
type Engine struct {
	agentRepo      *repository.AgentRepository
	planRepo       *repository.PlanRepository
	commissionRepo *repository.CommissionRepository
	walletRepo     *repository.WalletRepository
	resolver       *RuleResolver
	graph          *referral.Graph
	ledger         *wallet.Ledger
	db             *gorm.DB
}

// NewEngine creates the commission engine
func NewEngine(
	agentRepo *repository.AgentRepository,
	planRepo *repository.PlanRepository,
	commissionRepo *repository.CommissionRepository,
	walletRepo *repository.WalletRepository,
	resolver *RuleResolver,
	graph *referral.Graph,
	ledger *wallet.Ledger,
	db *gorm.DB,
) *Engine {
	return &Engine{
		agentRepo:      agentRepo,
		planRepo:       planRepo,
		commissionRepo: commissionRepo,
		walletRepo:     walletRepo,
		resolver:       resolver,
		graph:          graph,
		ledger:         ledger,
		db:             db,
	}
}

// OnPaymentCompleted processes one payment event. All commission rows and
// wallet credits for the event land in a single transaction; a failure on
// any tier rolls back the whole event. Re-delivery of an already processed
// reference is a no-op.
func (e *Engine) OnPaymentCompleted(ctx context.Context, event *PaymentEvent) (*PaymentResult, error) {
	start := time.Now()
	result, err := e.process(ctx, event)

	switch {
	case err != nil:
		metrics.Get().ObservePaymentEvent("failed", time.Since(start))
	case result.AlreadyProcessed:
		metrics.Get().ObservePaymentEvent("duplicate", time.Since(start))
	default:
		metrics.Get().ObservePaymentEvent("processed", time.Since(start))
	}
	return result, err
}

func (e *Engine) process(ctx context.Context, event *PaymentEvent) (*PaymentResult, error) {
	if event.PaymentReference == "" {
		return nil, errors.ErrInvalidParams.WithMessage("payment reference is required")
	}
	if event.Amount <= 0 {
		return nil, errors.ErrInvalidBasisAmount
	}
	if !models.IsValidFrequency(event.PaymentFrequency) {
		return nil, errors.ErrInvalidFrequency
	}

	if _, err := e.planRepo.GetByID(ctx, event.PlanID); err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrPlanNotFound
		}
		return nil, err
	}

	processed, err := e.commissionRepo.ExistsByPaymentReference(ctx, event.PaymentReference)
	if err != nil {
		return nil, err
	}
	if processed {
		logger.Info("payment event already processed", logger.PaymentRef(event.PaymentReference))
		existing, err := e.commissionRepo.ListByPaymentReference(ctx, event.PaymentReference)
		if err != nil {
			return nil, err
		}
		return &PaymentResult{
			PaymentReference: event.PaymentReference,
			AlreadyProcessed: true,
			Commissions:      existing,
		}, nil
	}

	source, err := e.agentRepo.GetByCode(ctx, event.AgentCode)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrAgentNotFound
		}
		return nil, err
	}

	upline, err := e.graph.ResolveUpline(ctx, source.AgentCode)
	if err != nil {
		return nil, err
	}

	planned, err := e.planTiers(ctx, event, upline)
	if err != nil {
		return nil, err
	}

	result := &PaymentResult{PaymentReference: event.PaymentReference}
	if len(planned) == 0 {
		logger.Info("payment event yields no commissions",
			logger.PaymentRef(event.PaymentReference),
			logger.AgentCode(event.AgentCode),
		)
		return result, nil
	}

	err = e.db.Transaction(func(tx *gorm.DB) error {
		for _, p := range planned {
			row := &models.CommissionTransaction{
				EarnerAgentID:    p.earner.ID,
				SourceAgentID:    source.ID,
				PlanID:           event.PlanID,
				PaymentReference: event.PaymentReference,
				TierLevel:        p.tier,
				BasisAmount:      event.Amount,
				CommissionAmount: p.amount,
				Status:           models.CommissionStatusPending,
			}
			if err := tx.WithContext(ctx).Create(row).Error; err != nil {
				return err
			}
			result.Commissions = append(result.Commissions, row)
			result.TotalAmount += p.amount
		}

		// wallets are touched in ascending agent ID order so concurrent
		// events cannot deadlock on each other
		credits := make([]*models.CommissionTransaction, len(result.Commissions))
		copy(credits, result.Commissions)
		sort.Slice(credits, func(i, j int) bool {
			return credits[i].EarnerAgentID < credits[j].EarnerAgentID
		})

		for _, row := range credits {
			posted, err := e.settleRow(ctx, tx, row)
			if err != nil {
				return err
			}
			if posted {
				result.PostedCount++
			} else {
				result.HeldCount++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, row := range result.Commissions {
		metrics.Get().CommissionCreated(row.Status, row.CommissionAmount)
		e.ledger.InvalidateSnapshot(ctx, row.EarnerAgentID)
	}
	logger.Info("payment event processed",
		logger.PaymentRef(event.PaymentReference),
		logger.AgentCode(event.AgentCode),
		logger.Int("tiers", len(result.Commissions)),
		logger.Int("posted", result.PostedCount),
		logger.Int("held", result.HeldCount),
		logger.AmountCents(result.TotalAmount),
	)
	return result, nil
}

// planTiers resolves rules for every upline tier. Tiers without a usable
// rule are skipped without failing the event; a misconfigured key with
// multiple active rules is reported loudly and skipped.
func (e *Engine) planTiers(ctx context.Context, event *PaymentEvent, upline []*models.Agent) ([]*plannedCredit, error) {
	planned := make([]*plannedCredit, 0, len(upline))

	for i, earner := range upline {
		tier := i + 1

		if earner.Status == models.AgentStatusTerminated {
			logger.Debug("terminated agent skipped",
				logger.PaymentRef(event.PaymentReference),
				logger.AgentCode(earner.AgentCode),
				logger.Tier(tier),
			)
			continue
		}

		rule, err := e.resolver.Resolve(ctx, event.PlanID, event.PaymentFrequency, tier)
		if err != nil {
			if stderrors.Is(err, errors.ErrNoActiveRule) {
				logger.Debug("no rule for tier",
					logger.PaymentRef(event.PaymentReference),
					logger.Tier(tier),
				)
				continue
			}
			if stderrors.Is(err, errors.ErrMultipleActiveRules) {
				logger.Error("multiple active rules for one key",
					logger.PaymentRef(event.PaymentReference),
					logger.Int64("plan_id", event.PlanID),
					logger.String("frequency", event.PaymentFrequency),
					logger.Tier(tier),
				)
				continue
			}
			return nil, err
		}

		amount, err := ComputeAmount(rule, event.Amount)
		if err != nil {
			return nil, err
		}
		if amount == 0 {
			continue
		}

		planned = append(planned, &plannedCredit{
			tier:   tier,
			earner: earner,
			rule:   rule,
			amount: amount,
		})
	}
	return planned, nil
}

// settleRow credits the earner's wallet for one commission row, or parks
// the amount as pending when the wallet cannot receive funds. Returns
// whether the row was posted.
func (e *Engine) settleRow(ctx context.Context, tx *gorm.DB, row *models.CommissionTransaction) (bool, error) {
	var w models.Wallet
	if err := tx.WithContext(ctx).Where("agent_id = ?", row.EarnerAgentID).First(&w).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return false, errors.ErrWalletNotFound.WithMessage("earner has no wallet")
		}
		return false, err
	}

	if !w.IsActive() {
		if err := e.ledger.HoldPending(ctx, tx, w.ID, row.CommissionAmount); err != nil {
			return false, err
		}
		logger.Info("commission held on inactive wallet",
			logger.PaymentRef(row.PaymentReference),
			logger.WalletID(w.ID),
			logger.Tier(row.TierLevel),
			logger.AmountCents(row.CommissionAmount),
		)
		return false, nil
	}

	if _, err := e.ledger.Apply(ctx, tx, w.ID, wallet.Entry{
		Amount:                  row.CommissionAmount,
		Type:                    models.WalletTxTypeCredit,
		Description:             "tier commission",
		Reference:               row.PaymentReference,
		CommissionTransactionID: &row.ID,
	}); err != nil {
		return false, err
	}

	now := time.Now()
	if err := tx.WithContext(ctx).Model(&models.CommissionTransaction{}).
		Where("id = ?", row.ID).
		Updates(map[string]interface{}{
			"status":    models.CommissionStatusPosted,
			"posted_at": now,
		}).Error; err != nil {
		return false, err
	}
	row.Status = models.CommissionStatusPosted
	row.PostedAt = &now
	return true, nil
}

// ListByEarner lists commissions earned by an agent
func (e *Engine) ListByEarner(ctx context.Context, agentID int64, offset, limit int, filters map[string]interface{}) ([]*models.CommissionTransaction, int64, error) {
	return e.commissionRepo.ListByEarner(ctx, agentID, offset, limit, filters)
}

// ListByPaymentReference lists the commissions of one payment event
func (e *Engine) ListByPaymentReference(ctx context.Context, paymentRef string) ([]*models.CommissionTransaction, error) {
	return e.commissionRepo.ListByPaymentReference(ctx, paymentRef)
}

// EarningsSummary aggregated commission totals of one earner
type EarningsSummary struct {
	PostedAmount  int64 `json:"posted_amount"`
	PendingAmount int64 `json:"pending_amount"`
}

// EarningsSummary sums an agent's posted and pending commissions
func (e *Engine) EarningsSummary(ctx context.Context, agentID int64) (*EarningsSummary, error) {
	posted, err := e.commissionRepo.SumByEarnerAndStatus(ctx, agentID, models.CommissionStatusPosted)
	if err != nil {
		return nil, err
	}
	pending, err := e.commissionRepo.SumByEarnerAndStatus(ctx, agentID, models.CommissionStatusPending)
	if err != nil {
		return nil, err
	}
	return &EarningsSummary{PostedAmount: posted, PendingAmount: pending}, nil
}
