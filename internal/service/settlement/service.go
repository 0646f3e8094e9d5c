package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/carlostcba/GustadosPOS-sub000/internal/config"
	"github.com/carlostcba/GustadosPOS-sub000/internal/deposit"
	"github.com/carlostcba/GustadosPOS-sub000/internal/entity"
	"github.com/carlostcba/GustadosPOS-sub000/internal/messaging"
	"github.com/carlostcba/GustadosPOS-sub000/internal/money"
	"github.com/carlostcba/GustadosPOS-sub000/internal/realtime"
	orderrepo "github.com/carlostcba/GustadosPOS-sub000/internal/repository/order"
	registerrepo "github.com/carlostcba/GustadosPOS-sub000/internal/repository/register"
	repo "github.com/carlostcba/GustadosPOS-sub000/internal/repository/settlement"
	couponsvc "github.com/carlostcba/GustadosPOS-sub000/internal/service/coupon"
	"github.com/carlostcba/GustadosPOS-sub000/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/carlostcba/GustadosPOS-sub000/service/settlement")

// Fulfillment priorities: pre-orders jump the queue ahead of walk-ins.
const (
	PriorityNormal = 0
	PriorityHigh   = 1
)

// FulfillmentQueuedEvent is handed off to the external fulfillment
// collaborator when an order becomes fully paid.
type FulfillmentQueuedEvent struct {
	OrderID      int64      `json:"order_id"`
	Number       string     `json:"number"`
	Kind         string     `json:"kind"`
	Priority     int        `json:"priority"`
	DeliveryDate *time.Time `json:"delivery_date,omitempty"`
	QueuedAt     time.Time  `json:"queued_at"`
}

// OrderStore is the order lookup surface the engine consumes.
type OrderStore interface {
	GetByID(ctx context.Context, id int64) (*entity.Order, error)
}

// RegisterStore resolves the cashier's active register.
type RegisterStore interface {
	OpenByCashier(ctx context.Context, cashierID int64) (*entity.CashRegister, error)
}

// Store persists settlements atomically and answers idempotency and
// prior-cash questions.
type Store interface {
	FindByIdempotencyKey(ctx context.Context, key string) (*entity.Payment, error)
	PriorCashPaid(ctx context.Context, orderID int64) (decimal.Decimal, error)
	Apply(ctx context.Context, commit *repo.Commit) error
}

// CouponValidator validates a discount code for a cash-eligible payment.
type CouponValidator interface {
	Validate(ctx context.Context, code string, orderTotal decimal.Decimal, method entity.PaymentMethod) (*entity.Coupon, error)
}

// Input describes one settlement attempt.
type Input struct {
	OrderID int64
	Method  entity.PaymentMethod
	// DepositAmount is the operator-adjusted deposit for a pending
	// pre-order; ignored otherwise.
	DepositAmount *decimal.Decimal
	CouponCode    string
	// IdempotencyKey dedupes retries of the same attempt; generated when
	// empty.
	IdempotencyKey string
}

// Result is the outcome of a settlement.
type Result struct {
	Order          *entity.Order
	Payment        *entity.Payment
	BaseAmount     decimal.Decimal
	DiscountAmount decimal.Decimal
	FinalAmount    decimal.Decimal
	// Replayed marks a retry that matched an already-committed attempt.
	Replayed bool
}

// Service is the payment settlement engine: it computes the amount due,
// applies at most one cash discount, and commits payment, order mutation,
// and register increments as one transaction.
type Service struct {
	orders    OrderStore
	registers RegisterStore
	store     Store
	coupons   CouponValidator
	publisher messaging.Client
	hub       realtime.Hub
	logger    *zap.Logger

	messaging struct {
		enabled bool
		topic   string
	}
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Orders    *orderrepo.Repository
	Registers *registerrepo.Repository
	Store     *repo.Repository
	Coupons   *couponsvc.Service
	Publisher messaging.Client
	Hub       realtime.Hub
	Config    config.Config
	Logger    *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	svc := New(p.Orders, p.Registers, p.Store, p.Coupons, p.Logger)
	svc.publisher = p.Publisher
	svc.hub = p.Hub
	svc.messaging.enabled = p.Config.Messaging.Enabled
	svc.messaging.topic = p.Config.Messaging.Kafka.Topic
	return svc
}

// New builds the engine around any store implementations.
func New(orders OrderStore, registers RegisterStore, store Store, coupons CouponValidator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		orders:    orders,
		registers: registers,
		store:     store,
		coupons:   coupons,
		logger:    logger,
	}
}

// Settle executes one settlement for the cashier's open register. Any
// failing step aborts the whole settlement; the operator may retry with
// the same idempotency key without double-counting.
func (s *Service) Settle(ctx context.Context, cashierID int64, in Input) (*Result, error) {
	ctx, span := serviceTracer.Start(ctx, "SettlementService.Settle",
		trace.WithAttributes(
			attribute.Int64("order.id", in.OrderID),
			attribute.String("payment.method", string(in.Method)),
		))
	defer span.End()

	order, err := s.loadOrder(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status.Terminal() {
		return nil, errorbank.InvalidState(fmt.Sprintf("order %s is %s and cannot receive payments", order.Number, order.Status))
	}

	register, err := s.registers.OpenByCashier(ctx, cashierID)
	if err != nil {
		if errors.Is(err, registerrepo.ErrNotFound) {
			return nil, errorbank.InvalidState("open a register before collecting payments")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Transient("could not load the active register", errorbank.WithCause(err))
	}

	key := in.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	} else {
		prior, err := s.store.FindByIdempotencyKey(ctx, key)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "repository error")
			return nil, errorbank.Transient("could not check for a prior attempt", errorbank.WithCause(err))
		}
		if prior != nil {
			span.SetAttributes(attribute.Bool("settlement.replayed", true))
			return &Result{
				Order:          order,
				Payment:        prior,
				BaseAmount:     prior.Amount.Add(prior.DiscountAmount),
				DiscountAmount: prior.DiscountAmount,
				FinalAmount:    prior.Amount,
				Replayed:       true,
			}, nil
		}
	}

	base, plan, isDeposit, err := s.baseAmount(order, in)
	if err != nil {
		return nil, err
	}

	eligible, err := s.discountEligible(ctx, order, in.Method, base, isDeposit)
	if err != nil {
		return nil, err
	}

	var (
		coupon   *entity.Coupon
		discount = decimal.Zero
	)
	if in.CouponCode != "" {
		// Step 1 of the settlement sequence: discounts require cash
		// eligibility before anything is written.
		if !eligible.IsPositive() {
			return nil, errorbank.BusinessRule("discount codes apply to cash payments only",
				errorbank.WithDetail("reason", couponsvc.ReasonNotCashPayment))
		}
		coupon, err = s.coupons.Validate(ctx, in.CouponCode, order.TotalAmount, entity.MethodCash)
		if err != nil {
			return nil, err
		}
		discount = money.Percent(eligible, coupon.DiscountPercentage)
	}
	final := money.ClampZero(money.Round2(base.Sub(discount)))

	previousStatus := order.Status
	now := time.Now().UTC()

	if isDeposit && plan != nil {
		order.DepositAmount = plan.Deposit
		order.RemainingAmount = plan.Remaining
	}
	order.Status = s.nextStatus(order)
	order.PaymentMethod = string(in.Method)
	order.LastPaymentAt = &now
	order.UpdatedAt = now
	if coupon != nil {
		order.DiscountPercentage = coupon.DiscountPercentage
		order.DiscountTotal = money.Round2(order.DiscountTotal.Add(discount))
		order.TotalWithDiscount = money.Round2(order.TotalAmount.Sub(order.DiscountTotal))
	}
	if order.Status == entity.OrderStatusPaid {
		order.RemainingAmount = decimal.Zero
	}

	payment := &entity.Payment{
		OrderID:        order.ID,
		RegisterID:     register.ID,
		Amount:         final,
		Method:         in.Method,
		IsDeposit:      isDeposit,
		IdempotencyKey: key,
		CreatedAt:      now,
	}
	if coupon != nil {
		payment.DiscountPercentage = coupon.DiscountPercentage
		payment.DiscountAmount = discount
	}
	if in.Method.IsCash() {
		payment.PayCash = final
	} else {
		payment.PayNonCash = final
	}

	commit := &repo.Commit{
		Order:          order,
		PreviousStatus: previousStatus,
		Payment:        payment,
		IsDeposit:      isDeposit,
	}
	if coupon != nil {
		commit.Usage = &entity.CouponUsage{
			CouponID:       coupon.ID,
			DiscountAmount: discount,
			CreatedAt:      now,
		}
	}

	if err := s.store.Apply(ctx, commit); err != nil {
		if errors.Is(err, repo.ErrOrderConflict) {
			return nil, errorbank.InvalidState("the order was settled elsewhere; reload and retry")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "commit failed")
		return nil, errorbank.Transient("settlement could not be committed; retry the whole payment",
			errorbank.WithCause(err))
	}

	s.logger.Info("payment settled",
		zap.Int64("order_id", order.ID),
		zap.Int64("register_id", register.ID),
		zap.String("method", string(in.Method)),
		zap.String("amount", final.StringFixed(2)),
		zap.Bool("deposit", isDeposit),
	)

	s.notify(ctx, order)
	if order.Status == entity.OrderStatusPaid {
		s.enqueueFulfillment(ctx, order)
	}

	return &Result{
		Order:          order,
		Payment:        payment,
		BaseAmount:     base,
		DiscountAmount: discount,
		FinalAmount:    final,
	}, nil
}

func (s *Service) loadOrder(ctx context.Context, id int64) (*entity.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, orderrepo.ErrNotFound) {
			return nil, errorbank.NotFound("order not found")
		}
		return nil, errorbank.Transient("could not load the order", errorbank.WithCause(err))
	}
	return order, nil
}

// baseAmount resolves the amount owed for this payment along with the
// deposit plan when the operator is settling a pre-order deposit.
func (s *Service) baseAmount(order *entity.Order, in Input) (decimal.Decimal, *deposit.Plan, bool, error) {
	switch {
	case !order.IsPreorder && order.Status == entity.OrderStatusPending:
		return order.TotalAmount, nil, false, nil

	case order.IsPreorder && order.Status == entity.OrderStatusPending:
		if in.DepositAmount == nil {
			return decimal.Zero, nil, false, errorbank.Validation("a deposit amount is required for pre-orders")
		}
		plan, err := deposit.Build(order.TotalAmount, *in.DepositAmount)
		if err != nil {
			return decimal.Zero, nil, false, err
		}
		return plan.Deposit, &plan, true, nil

	case order.IsPreorder && order.Status == entity.OrderStatusProcessing:
		if !order.RemainingAmount.IsPositive() {
			return decimal.Zero, nil, false, errorbank.InvalidState("order has no remaining balance")
		}
		return order.RemainingAmount, nil, false, nil

	default:
		return decimal.Zero, nil, false, errorbank.InvalidState(
			fmt.Sprintf("order in status %s cannot be settled", order.Status))
	}
}

// discountEligible computes the cash amount a discount may apply to. The
// current tender contributes when it is cash; settling a pre-order's
// remaining balance extends the base with cash already paid.
func (s *Service) discountEligible(ctx context.Context, order *entity.Order, method entity.PaymentMethod, base decimal.Decimal, isDeposit bool) (decimal.Decimal, error) {
	eligible := decimal.Zero
	if method.IsCash() {
		eligible = base
	}
	if order.IsPreorder && order.Status == entity.OrderStatusProcessing && !isDeposit {
		priorCash, err := s.store.PriorCashPaid(ctx, order.ID)
		if err != nil {
			return decimal.Zero, errorbank.Transient("could not load prior payments", errorbank.WithCause(err))
		}
		eligible = eligible.Add(priorCash)
	}
	return eligible, nil
}

func (s *Service) nextStatus(order *entity.Order) entity.OrderStatus {
	if order.IsPreorder && order.Status == entity.OrderStatusPending {
		return entity.OrderStatusProcessing
	}
	return entity.OrderStatusPaid
}

func (s *Service) notify(ctx context.Context, order *entity.Order) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(ctx, realtime.Change{
		Kind:   realtime.KindOrders,
		ID:     order.ID,
		Action: "settled",
		At:     time.Now().UTC(),
	})
}

func (s *Service) enqueueFulfillment(ctx context.Context, order *entity.Order) {
	if !s.messaging.enabled || s.publisher == nil {
		return
	}
	priority := PriorityNormal
	if order.IsPreorder {
		priority = PriorityHigh
	}
	event := FulfillmentQueuedEvent{
		OrderID:      order.ID,
		Number:       order.Number,
		Kind:         string(order.Kind),
		Priority:     priority,
		DeliveryDate: order.DeliveryDate,
		QueuedAt:     time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal fulfillment event", zap.Error(err))
		return
	}
	if err := s.publisher.Publish(ctx, []byte(fmt.Sprintf("order-%d", order.ID)), payload); err != nil {
		s.logger.Error("publish fulfillment event", zap.Error(err))
	}
}
