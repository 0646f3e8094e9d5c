package register

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/carlostcba/GustadosPOS-sub000/internal/entity"
	"github.com/carlostcba/GustadosPOS-sub000/internal/money"
	repo "github.com/carlostcba/GustadosPOS-sub000/internal/repository/register"
	"github.com/carlostcba/GustadosPOS-sub000/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/carlostcba/GustadosPOS-sub000/service/register")

// Classification labels a declared-vs-expected difference. All three allow
// closing; the review step exists to surface the discrepancy to a human.
const (
	ClassificationBalanced = "balanced"
	ClassificationSurplus  = "surplus"
	ClassificationShortage = "shortage"
)

// CloseReview is the dry-run result of a close request; nothing is
// persisted until the operator confirms.
type CloseReview struct {
	RegisterID     int64
	ExpectedCash   decimal.Decimal
	DeclaredAmount decimal.Decimal
	Difference     decimal.Decimal
	Classification string
}

// Store is the persistence surface the state machine drives.
type Store interface {
	Create(ctx context.Context, reg *entity.CashRegister) error
	GetByID(ctx context.Context, id int64) (*entity.CashRegister, error)
	OpenByCashier(ctx context.Context, cashierID int64) (*entity.CashRegister, error)
	AddExpense(ctx context.Context, exp *entity.RegisterExpense) error
	Close(ctx context.Context, registerID int64, closingAmount decimal.Decimal, closedAt time.Time) (bool, error)
}

// Service runs the cash-register lifecycle: open, operate, review, close.
// The CLOSING stage lives here as a per-cashier pending review; the row
// itself only ever transitions open -> closed.
type Service struct {
	store  Store
	logger *zap.Logger

	mu      sync.Mutex
	pending map[int64]int64 // cashier id -> register id under review
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Store  *repo.Repository
	Logger *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return New(p.Store, p.Logger)
}

// New builds the service around any Store implementation.
func New(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:   store,
		logger:  logger,
		pending: make(map[int64]int64),
	}
}

// Open starts a shift for the cashier with the counted opening float.
// Fails when the amount is not positive or a register is already open.
func (s *Service) Open(ctx context.Context, cashierID int64, openingAmount decimal.Decimal) (*entity.CashRegister, error) {
	ctx, span := serviceTracer.Start(ctx, "RegisterService.Open",
		trace.WithAttributes(attribute.Int64("register.cashier_id", cashierID)))
	defer span.End()

	if !money.IsPositive(openingAmount) {
		return nil, errorbank.Validation("opening amount must be greater than zero")
	}

	if existing, err := s.store.OpenByCashier(ctx, cashierID); err == nil {
		return nil, errorbank.InvalidState("a register is already open for this cashier",
			errorbank.WithDetail("register_id", existing.ID))
	} else if !errors.Is(err, repo.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Transient("could not check for an open register", errorbank.WithCause(err))
	}

	reg := &entity.CashRegister{
		CashierID:        cashierID,
		OpeningAmount:    money.Round2(openingAmount),
		CashSales:        decimal.Zero,
		CardSales:        decimal.Zero,
		TransferSales:    decimal.Zero,
		DepositsReceived: decimal.Zero,
		ExpensesTotal:    decimal.Zero,
		StartedAt:        time.Now().UTC(),
	}
	if err := s.store.Create(ctx, reg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Transient("could not open the register", errorbank.WithCause(err))
	}

	s.logger.Info("register opened",
		zap.Int64("register_id", reg.ID),
		zap.Int64("cashier_id", cashierID),
		zap.String("opening_amount", reg.OpeningAmount.StringFixed(2)),
	)
	return reg, nil
}

// Current returns the cashier's open register.
func (s *Service) Current(ctx context.Context, cashierID int64) (*entity.CashRegister, error) {
	reg, err := s.store.OpenByCashier(ctx, cashierID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, errorbank.NotFound("no open register for this cashier")
	}
	if err != nil {
		return nil, errorbank.Transient("could not load the register", errorbank.WithCause(err))
	}
	return reg, nil
}

// RecordExpense registers a drawer outflow during an open shift.
func (s *Service) RecordExpense(ctx context.Context, cashierID int64, amount decimal.Decimal, expType entity.ExpenseType, description, party string) (*entity.RegisterExpense, error) {
	ctx, span := serviceTracer.Start(ctx, "RegisterService.RecordExpense",
		trace.WithAttributes(attribute.Int64("register.cashier_id", cashierID)))
	defer span.End()

	if !money.IsPositive(amount) {
		return nil, errorbank.Validation("expense amount must be greater than zero")
	}
	if !expType.Valid() {
		return nil, errorbank.Validation("unknown expense type",
			errorbank.WithDetail("type", string(expType)))
	}
	if description == "" {
		return nil, errorbank.Validation("expense description is required")
	}

	reg, err := s.Current(ctx, cashierID)
	if err != nil {
		if errorbank.IsKind(err, errorbank.KindNotFound) {
			return nil, errorbank.InvalidState("expenses require an open register")
		}
		return nil, err
	}

	exp := &entity.RegisterExpense{
		RegisterID:  reg.ID,
		Amount:      money.Round2(amount),
		Type:        expType,
		Description: description,
		Party:       party,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.AddExpense(ctx, exp); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.InvalidState("the register was closed while recording the expense")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Transient("could not record the expense", errorbank.WithCause(err))
	}

	s.logger.Info("expense recorded",
		zap.Int64("register_id", reg.ID),
		zap.String("type", string(expType)),
		zap.String("amount", exp.Amount.StringFixed(2)),
	)
	return exp, nil
}

// ExpectedCash recomputes the drawer baseline for the cashier's open shift.
func (s *Service) ExpectedCash(ctx context.Context, cashierID int64) (decimal.Decimal, error) {
	reg, err := s.Current(ctx, cashierID)
	if err != nil {
		return decimal.Zero, err
	}
	return reg.ExpectedCash(), nil
}

// RequestClose computes the reconciliation review without mutating the
// register and marks the shift as pending confirmation.
func (s *Service) RequestClose(ctx context.Context, cashierID int64, declared decimal.Decimal) (*CloseReview, error) {
	ctx, span := serviceTracer.Start(ctx, "RegisterService.RequestClose",
		trace.WithAttributes(attribute.Int64("register.cashier_id", cashierID)))
	defer span.End()

	if declared.IsNegative() {
		return nil, errorbank.Validation("declared amount cannot be negative")
	}

	reg, err := s.Current(ctx, cashierID)
	if err != nil {
		if errorbank.IsKind(err, errorbank.KindNotFound) {
			return nil, errorbank.InvalidState("no open register to close")
		}
		return nil, err
	}

	expected := reg.ExpectedCash()
	difference := money.Round2(declared.Sub(expected))

	s.mu.Lock()
	s.pending[cashierID] = reg.ID
	s.mu.Unlock()

	return &CloseReview{
		RegisterID:     reg.ID,
		ExpectedCash:   expected,
		DeclaredAmount: money.Round2(declared),
		Difference:     difference,
		Classification: Classify(difference),
	}, nil
}

// ConfirmClose finalises the register with the declared amount. Requires a
// prior RequestClose for the same register; a concurrent close elsewhere
// surfaces as InvalidState and the first close's amounts stand.
func (s *Service) ConfirmClose(ctx context.Context, cashierID int64, declared decimal.Decimal) (*entity.CashRegister, error) {
	ctx, span := serviceTracer.Start(ctx, "RegisterService.ConfirmClose",
		trace.WithAttributes(attribute.Int64("register.cashier_id", cashierID)))
	defer span.End()

	if declared.IsNegative() {
		return nil, errorbank.Validation("declared amount cannot be negative")
	}

	s.mu.Lock()
	registerID, ok := s.pending[cashierID]
	s.mu.Unlock()
	if !ok {
		return nil, errorbank.InvalidState("no close review in progress; request a close first")
	}

	closed, err := s.store.Close(ctx, registerID, money.Round2(declared), time.Now().UTC())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Transient("could not close the register", errorbank.WithCause(err))
	}
	if !closed {
		s.clearPending(cashierID)
		return nil, errorbank.InvalidState("the register is already closed")
	}

	s.clearPending(cashierID)

	reg, err := s.store.GetByID(ctx, registerID)
	if err != nil {
		return nil, errorbank.Transient("register closed but could not be reloaded", errorbank.WithCause(err))
	}

	s.logger.Info("register closed",
		zap.Int64("register_id", reg.ID),
		zap.String("declared", declared.StringFixed(2)),
		zap.String("expected", reg.ExpectedCash().StringFixed(2)),
	)
	return reg, nil
}

// CancelClose abandons a pending close review, returning the shift to
// normal operation.
func (s *Service) CancelClose(cashierID int64) {
	s.clearPending(cashierID)
}

func (s *Service) clearPending(cashierID int64) {
	s.mu.Lock()
	delete(s.pending, cashierID)
	s.mu.Unlock()
}

// Classify labels a cash difference: zero is balanced, positive surplus,
// negative shortage.
func Classify(difference decimal.Decimal) string {
	switch {
	case difference.IsZero():
		return ClassificationBalanced
	case difference.IsPositive():
		return ClassificationSurplus
	default:
		return ClassificationShortage
	}
}
