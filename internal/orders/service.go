package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/openpantry/vouchers-backend/internal/accounts"
	"github.com/openpantry/vouchers-backend/internal/balance"
	"github.com/openpantry/vouchers-backend/internal/failures"
	"github.com/openpantry/vouchers-backend/internal/ledger"
	"github.com/openpantry/vouchers-backend/internal/submission"
	"github.com/openpantry/vouchers-backend/pkg/db/models"
	"github.com/openpantry/vouchers-backend/pkg/enums"
	pkgerrors "github.com/openpantry/vouchers-backend/pkg/errors"
	"github.com/openpantry/vouchers-backend/pkg/logger"
)

type throttleGate interface {
	Check(ctx context.Context, participantID uuid.UUID) error
	Penalize(ctx context.Context, participantID uuid.UUID)
	Reset(ctx context.Context, participantID uuid.UUID)
}

type dedupGuard interface {
	Fingerprint(participantID uuid.UUID, lines []submission.CartLine) string
	Reserve(ctx context.Context, fingerprint string) error
	Release(ctx context.Context, fingerprint string)
}

type submissionLock interface {
	Acquire(ctx context.Context, participantID uuid.UUID) (submission.Lease, error)
	Release(ctx context.Context, lease submission.Lease)
}

type accountLoader interface {
	LoadSnapshot(ctx context.Context, participantID uuid.UUID) (*accounts.Snapshot, error)
}

type productLoader interface {
	LoadProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

type orderStore interface {
	CreateTx(tx *gorm.DB, order *models.Order) error
}

type failureSink interface {
	Save(ctx context.Context, rec failures.Record) (uuid.UUID, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type auditSink interface {
	EmitTx(tx *gorm.DB, eventType enums.OutboxEventType, aggregateType enums.OutboxAggregateType, aggregateID uuid.UUID, data interface{}) error
	Emit(ctx context.Context, eventType enums.OutboxEventType, aggregateType enums.OutboxAggregateType, aggregateID uuid.UUID, data interface{}) error
}

// Service coordinates a submission through throttle, dedup, lock, validation,
// and the atomic commit. An Order row exists only when every validation step
// passed.
type Service struct {
	throttle throttleGate
	guard    dedupGuard
	lock     submissionLock
	accounts accountLoader
	catalog  productLoader
	orders   orderStore
	recorder failureSink
	tx       txRunner
	audit    auditSink
	logg     *logger.Logger
	now      func() time.Time
}

type ServiceParams struct {
	Throttle throttleGate
	Guard    dedupGuard
	Lock     submissionLock
	Accounts accountLoader
	Catalog  productLoader
	Orders   orderStore
	Recorder failureSink
	Tx       txRunner
	Audit    auditSink
	Logger   *logger.Logger
}

func NewService(p ServiceParams) (*Service, error) {
	if p.Throttle == nil {
		return nil, fmt.Errorf("throttle is required")
	}
	if p.Guard == nil {
		return nil, fmt.Errorf("guard is required")
	}
	if p.Lock == nil {
		return nil, fmt.Errorf("lock is required")
	}
	if p.Accounts == nil {
		return nil, fmt.Errorf("account loader is required")
	}
	if p.Catalog == nil {
		return nil, fmt.Errorf("catalog loader is required")
	}
	if p.Orders == nil {
		return nil, fmt.Errorf("order store is required")
	}
	if p.Recorder == nil {
		return nil, fmt.Errorf("failure recorder is required")
	}
	if p.Tx == nil {
		return nil, fmt.Errorf("tx runner is required")
	}
	if p.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Service{
		throttle: p.Throttle,
		guard:    p.Guard,
		lock:     p.Lock,
		accounts: p.Accounts,
		catalog:  p.Catalog,
		orders:   p.Orders,
		recorder: p.Recorder,
		tx:       p.Tx,
		audit:    p.Audit,
		logg:     p.Logger,
		now:      time.Now,
	}, nil
}

type pricedLine struct {
	product   models.Product
	quantity  int
	lineTotal decimal.Decimal
}

type attemptRejectedEvent struct {
	AttemptID     uuid.UUID             `json:"attempt_id"`
	ParticipantID uuid.UUID             `json:"participant_id"`
	PrimaryReason enums.RejectionReason `json:"primary_reason"`
}

type orderCommittedEvent struct {
	OrderID       uuid.UUID       `json:"order_id"`
	OrderNumber   int64           `json:"order_number"`
	ParticipantID uuid.UUID       `json:"participant_id"`
	Total         decimal.Decimal `json:"total"`
	VoucherCount  int             `json:"voucher_count"`
}

// Submit runs the full validate-before-write protocol for one order attempt.
func (s *Service) Submit(ctx context.Context, input CreateOrderInput) (*OrderResponse, error) {
	ctx = s.logg.WithParticipantID(ctx, input.ParticipantID.String())

	if err := s.throttle.Check(ctx, input.ParticipantID); err != nil {
		return nil, err
	}

	lines := make([]submission.CartLine, 0, len(input.Items))
	for _, item := range input.Items {
		lines = append(lines, submission.CartLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	fingerprint := s.guard.Fingerprint(input.ParticipantID, lines)
	if err := s.guard.Reserve(ctx, fingerprint); err != nil {
		return nil, err
	}

	lease, err := s.lock.Acquire(ctx, input.ParticipantID)
	if err != nil {
		// contention is transient; free the reservation so the retry
		// is not mistaken for a replay
		s.guard.Release(ctx, fingerprint)
		return nil, err
	}
	defer s.lock.Release(ctx, lease)

	resp, err := s.validateAndCommit(ctx, input, fingerprint)
	if err != nil {
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			// system errors free the reservation; validation failures
			// keep it so the identical cart stays deduplicated
			s.guard.Release(ctx, fingerprint)
		}
		return nil, err
	}

	s.throttle.Reset(ctx, input.ParticipantID)
	return resp, nil
}

func (s *Service) validateAndCommit(ctx context.Context, input CreateOrderInput, fingerprint string) (*OrderResponse, error) {
	snap, err := s.accounts.LoadSnapshot(ctx, input.ParticipantID)
	if err != nil {
		return nil, err
	}

	computed := balance.Compute(balance.Inputs{
		Account:     snap.Account,
		Vouchers:    snap.Vouchers,
		Policy:      snap.Policy,
		Pauses:      snap.Pauses,
		FreshPolicy: snap.FreshPolicy,
		Now:         s.now().UTC(),
	})

	priced, issues, err := s.priceCart(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	hygieneSubtotal := decimal.Zero
	freshSubtotal := decimal.Zero
	for _, line := range priced {
		total = total.Add(line.lineTotal)
		if line.product.Hygiene {
			hygieneSubtotal = hygieneSubtotal.Add(line.lineTotal)
		}
		if line.product.FreshFood {
			freshSubtotal = freshSubtotal.Add(line.lineTotal)
		}
	}

	issues = append(issues, capIssues(total, hygieneSubtotal, freshSubtotal, computed)...)

	if len(issues) > 0 {
		s.recordFailure(ctx, input, fingerprint, computed, issues)
		s.throttle.Penalize(ctx, input.ParticipantID)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order was rejected").
			WithDetails(ValidationDetails{Issues: issues, Balances: balanceContext(computed)})
	}

	plan, err := ledger.Plan(computed.Candidates, total)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		AccountID:       snap.Account.ID,
		Status:          enums.OrderStatusConfirmed,
		Total:           total,
		HygieneSubtotal: hygieneSubtotal,
		FreshSubtotal:   freshSubtotal,
		Items:           buildItems(priced),
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.orders.CreateTx(tx, order); err != nil {
			return err
		}
		apps, err := ledger.Apply(tx, order.ID, plan)
		if err != nil {
			return err
		}
		if s.audit == nil {
			return nil
		}
		return s.audit.EmitTx(tx, enums.EventOrderCommitted, enums.AggregateOrder, order.ID, orderCommittedEvent{
			OrderID:       order.ID,
			OrderNumber:   order.OrderNumber,
			ParticipantID: input.ParticipantID,
			Total:         total,
			VoucherCount:  len(apps),
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "committing order")
	}

	s.logg.Info(ctx, "order committed")

	return &OrderResponse{
		ID:           order.ID,
		OrderNumber:  order.OrderNumber,
		Status:       order.Status,
		Total:        order.Total,
		Items:        buildItemResponses(order.Items),
		GoFreshTotal: freshSubtotal,
	}, nil
}

// priceCart resolves products and computes line totals. Unknown or inactive
// products and an empty cart are cart-level rejections; a catalog read error
// is fatal and never counted against the participant.
func (s *Service) priceCart(ctx context.Context, items []ItemInput) ([]pricedLine, []failures.Issue, error) {
	if len(items) == 0 {
		return nil, []failures.Issue{{
			Reason:  enums.RejectionEmptyCart,
			Message: "cart has no items",
		}}, nil
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	products, err := s.catalog.LoadProducts(ctx, ids)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "catalog lookup failed")
	}

	var issues []failures.Issue
	priced := make([]pricedLine, 0, len(items))
	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok {
			issues = append(issues, failures.Issue{
				Reason:  enums.RejectionUnknownProduct,
				Message: fmt.Sprintf("product %s is unknown or inactive", item.ProductID),
			})
			continue
		}
		qty := decimal.NewFromInt(int64(item.Quantity))
		priced = append(priced, pricedLine{
			product:   product,
			quantity:  item.Quantity,
			lineTotal: product.UnitPrice.Mul(qty),
		})
	}

	return priced, issues, nil
}

// capIssues checks the three independent spending caps. All are evaluated so
// the forensic record lists every violated rule, not just the first.
func capIssues(total, hygiene, fresh decimal.Decimal, computed balance.Snapshot) []failures.Issue {
	var issues []failures.Issue
	if total.GreaterThan(computed.Available) {
		issues = append(issues, failures.Issue{
			Reason:  enums.RejectionInsufficientBalance,
			Message: "cart total exceeds available balance",
			Needed:  total,
			Have:    computed.Available,
		})
	}
	if hygiene.GreaterThan(computed.Hygiene) {
		issues = append(issues, failures.Issue{
			Reason:  enums.RejectionHygieneCapExceeded,
			Message: "hygiene subtotal exceeds hygiene balance",
			Needed:  hygiene,
			Have:    computed.Hygiene,
		})
	}
	if fresh.GreaterThan(computed.FreshFood) {
		issues = append(issues, failures.Issue{
			Reason:  enums.RejectionFreshFoodCap,
			Message: "fresh food subtotal exceeds fresh food budget",
			Needed:  fresh,
			Have:    computed.FreshFood,
		})
	}
	return issues
}

// recordFailure writes the forensic snapshot. Recorder errors are logged and
// swallowed: the caller still gets the validation rejection either way.
func (s *Service) recordFailure(ctx context.Context, input CreateOrderInput, fingerprint string, computed balance.Snapshot, issues []failures.Issue) {
	summaries := make([]failures.VoucherSummary, 0, len(computed.Candidates))
	for _, v := range computed.Candidates {
		summaries = append(summaries, failures.VoucherSummary{
			ID:         v.ID,
			Remaining:  v.RemainingAmount,
			Multiplier: v.Multiplier,
			CreatedAt:  v.CreatedAt,
		})
	}

	attemptID, err := s.recorder.Save(ctx, failures.Record{
		ParticipantID:  input.ParticipantID,
		Cart:           input.Items,
		Balances:       balanceContext(computed),
		Vouchers:       summaries,
		Issues:         issues,
		IdempotencyKey: fingerprint,
		CartHash:       fingerprint,
		ClientAddr:     input.ClientMeta.Address,
		ClientAgent:    input.ClientMeta.AgentString,
	})
	if err != nil {
		s.logg.Error(ctx, "failed to record rejected attempt", err)
		return
	}

	if s.audit == nil {
		return
	}
	err = s.audit.Emit(ctx, enums.EventAttemptRejected, enums.AggregateFailedAttempt, attemptID, attemptRejectedEvent{
		AttemptID:     attemptID,
		ParticipantID: input.ParticipantID,
		PrimaryReason: issues[0].Reason,
	})
	if err != nil {
		s.logg.Error(ctx, "failed to emit attempt rejected event", err)
	}
}

func balanceContext(computed balance.Snapshot) failures.BalanceContext {
	return failures.BalanceContext{
		Base:             computed.Base,
		Available:        computed.Available,
		Hygiene:          computed.Hygiene,
		FreshFood:        computed.FreshFood,
		GatedPauseActive: computed.GatedPauseActive,
	}
}

func buildItems(priced []pricedLine) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(priced))
	for _, line := range priced {
		items = append(items, models.OrderItem{
			ProductID: line.product.ID,
			Name:      line.product.Name,
			Quantity:  line.quantity,
			UnitPrice: line.product.UnitPrice,
			LineTotal: line.lineTotal,
		})
	}
	return items
}

func buildItemResponses(items []models.OrderItem) []ItemResponse {
	out := make([]ItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, ItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal,
		})
	}
	return out
}
