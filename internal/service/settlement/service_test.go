package settlement

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/carlostcba/GustadosPOS-sub000/internal/entity"
	orderrepo "github.com/carlostcba/GustadosPOS-sub000/internal/repository/order"
	registerrepo "github.com/carlostcba/GustadosPOS-sub000/internal/repository/register"
	repo "github.com/carlostcba/GustadosPOS-sub000/internal/repository/settlement"
	"github.com/carlostcba/GustadosPOS-sub000/pkg/errorbank"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

type fakeOrders struct {
	orders map[int64]*entity.Order
}

func (f *fakeOrders) GetByID(_ context.Context, id int64) (*entity.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, orderrepo.ErrNotFound
	}
	return order, nil
}

type fakeRegisters struct {
	register *entity.CashRegister
}

func (f *fakeRegisters) OpenByCashier(_ context.Context, cashierID int64) (*entity.CashRegister, error) {
	if f.register == nil || f.register.CashierID != cashierID {
		return nil, registerrepo.ErrNotFound
	}
	return f.register, nil
}

type fakeStore struct {
	byKey     map[string]*entity.Payment
	priorCash decimal.Decimal
	applied   []*repo.Commit
	applyErr  error
}

func (f *fakeStore) FindByIdempotencyKey(_ context.Context, key string) (*entity.Payment, error) {
	return f.byKey[key], nil
}

func (f *fakeStore) PriorCashPaid(_ context.Context, _ int64) (decimal.Decimal, error) {
	return f.priorCash, nil
}

func (f *fakeStore) Apply(_ context.Context, commit *repo.Commit) error {
	if f.applyErr != nil {
		return f.applyErr
	}
	f.applied = append(f.applied, commit)
	return nil
}

type fakeCoupons struct {
	coupon *entity.Coupon
	err    error
}

func (f *fakeCoupons) Validate(_ context.Context, _ string, _ decimal.Decimal, _ entity.PaymentMethod) (*entity.Coupon, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.coupon, nil
}

func regularOrder(total string) *entity.Order {
	return &entity.Order{
		ID:              1,
		Number:          "ORD-000001",
		Kind:            entity.OrderKindRegular,
		Status:          entity.OrderStatusPending,
		TotalAmount:     dec(total),
		RemainingAmount: dec(total),
	}
}

func preorder(total string) *entity.Order {
	order := regularOrder(total)
	order.Number = "PRE-000001"
	order.Kind = entity.OrderKindPreorder
	order.IsPreorder = true
	return order
}

func newEngine(order *entity.Order, store *fakeStore, coupons CouponValidator) *Service {
	orders := &fakeOrders{orders: map[int64]*entity.Order{}}
	if order != nil {
		orders.orders[order.ID] = order
	}
	registers := &fakeRegisters{register: &entity.CashRegister{ID: 5, CashierID: 9}}
	if store.byKey == nil {
		store.byKey = make(map[string]*entity.Payment)
	}
	return New(orders, registers, store, coupons, nil)
}

func TestSettleRegularCash(t *testing.T) {
	order := regularOrder("80")
	store := &fakeStore{}
	svc := newEngine(order, store, &fakeCoupons{})

	result, err := svc.Settle(context.Background(), 9, Input{OrderID: 1, Method: entity.MethodCash})
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}

	if !result.FinalAmount.Equal(dec("80")) {
		t.Errorf("final = %s, want 80", result.FinalAmount)
	}
	if result.Order.Status != entity.OrderStatusPaid {
		t.Errorf("status = %s, want paid", result.Order.Status)
	}
	if !result.Order.RemainingAmount.IsZero() {
		t.Errorf("remaining = %s, want 0", result.Order.RemainingAmount)
	}
	if len(store.applied) != 1 {
		t.Fatalf("applied %d commits, want 1", len(store.applied))
	}
	commit := store.applied[0]
	if commit.PreviousStatus != entity.OrderStatusPending {
		t.Errorf("previous status = %s, want pending", commit.PreviousStatus)
	}
	if !commit.Payment.PayCash.Equal(dec("80")) || !commit.Payment.PayNonCash.IsZero() {
		t.Errorf("cash split = %s/%s, want 80/0", commit.Payment.PayCash, commit.Payment.PayNonCash)
	}
	if commit.Payment.IdempotencyKey == "" {
		t.Error("a generated idempotency key is expected")
	}
	if commit.IsDeposit {
		t.Error("regular payment must not be a deposit")
	}
}

func TestSettleCardSplit(t *testing.T) {
	order := regularOrder("45.50")
	store := &fakeStore{}
	svc := newEngine(order, store, &fakeCoupons{})

	_, err := svc.Settle(context.Background(), 9, Input{OrderID: 1, Method: entity.MethodCard})
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	payment := store.applied[0].Payment
	if !payment.PayNonCash.Equal(dec("45.50")) || !payment.PayCash.IsZero() {
		t.Errorf("cash split = %s/%s, want 0/45.50", payment.PayCash, payment.PayNonCash)
	}
}

func TestSettlePreorderDepositWithCoupon(t *testing.T) {
	order := preorder("100")
	store := &fakeStore{}
	coupon := &entity.Coupon{ID: 3, Code: "WELCOME10", DiscountPercentage: dec("10")}
	svc := newEngine(order, store, &fakeCoupons{coupon: coupon})

	amount := dec("40")
	result, err := svc.Settle(context.Background(), 9, Input{
		OrderID:       1,
		Method:        entity.MethodCash,
		DepositAmount: &amount,
		CouponCode:    "WELCOME10",
	})
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}

	if !result.BaseAmount.Equal(dec("40")) {
		t.Errorf("base = %s, want 40", result.BaseAmount)
	}
	if !result.DiscountAmount.Equal(dec("4")) {
		t.Errorf("discount = %s, want 4", result.DiscountAmount)
	}
	if !result.FinalAmount.Equal(dec("36")) {
		t.Errorf("final = %s, want 36", result.FinalAmount)
	}
	if result.Order.Status != entity.OrderStatusProcessing {
		t.Errorf("status = %s, want processing", result.Order.Status)
	}
	// the deposit credit keeps its face value; the discount reduces what
	// was collected, not what the customer has paid off
	if !result.Order.DepositAmount.Equal(dec("40")) {
		t.Errorf("deposit = %s, want 40", result.Order.DepositAmount)
	}
	if !result.Order.RemainingAmount.Equal(dec("60")) {
		t.Errorf("remaining = %s, want 60", result.Order.RemainingAmount)
	}

	commit := store.applied[0]
	if !commit.IsDeposit {
		t.Error("deposit settlement should be flagged")
	}
	if commit.Usage == nil || commit.Usage.CouponID != 3 {
		t.Errorf("usage = %+v, want coupon id 3", commit.Usage)
	}
	if !commit.Usage.DiscountAmount.Equal(dec("4")) {
		t.Errorf("usage discount = %s, want 4", commit.Usage.DiscountAmount)
	}
}

func TestSettlePreorderDepositRequiresAmount(t *testing.T) {
	svc := newEngine(preorder("100"), &fakeStore{}, &fakeCoupons{})
	_, err := svc.Settle(context.Background(), 9, Input{OrderID: 1, Method: entity.MethodCash})
	if !errorbank.IsKind(err, errorbank.KindValidation) {
		t.Fatalf("got %v, want validation error", err)
	}
}

func TestSettleRemainingWithPriorCashExtension(t *testing.T) {
	order := preorder("100")
	order.Status = entity.OrderStatusProcessing
	order.DepositAmount = dec("40")
	order.RemainingAmount = dec("60")

	store := &fakeStore{priorCash: dec("40")}
	coupon := &entity.Coupon{ID: 3, Code: "WELCOME10", DiscountPercentage: dec("10")}
	svc := newEngine(order, store, &fakeCoupons{coupon: coupon})

	// tender is card, but the cash already paid keeps the discount alive
	result, err := svc.Settle(context.Background(), 9, Input{
		OrderID:    1,
		Method:     entity.MethodCard,
		CouponCode: "WELCOME10",
	})
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}

	if !result.BaseAmount.Equal(dec("60")) {
		t.Errorf("base = %s, want 60", result.BaseAmount)
	}
	// eligible = 0 (card) + 40 prior cash
	if !result.DiscountAmount.Equal(dec("4")) {
		t.Errorf("discount = %s, want 4", result.DiscountAmount)
	}
	if !result.FinalAmount.Equal(dec("56")) {
		t.Errorf("final = %s, want 56", result.FinalAmount)
	}
	if result.Order.Status != entity.OrderStatusPaid {
		t.Errorf("status = %s, want paid", result.Order.Status)
	}
	if !result.Order.RemainingAmount.IsZero() {
		t.Errorf("remaining = %s, want 0", result.Order.RemainingAmount)
	}
}

func TestSettleCouponRejectedWithoutCashEligibility(t *testing.T) {
	order := regularOrder("80")
	store := &fakeStore{}
	svc := newEngine(order, store, &fakeCoupons{coupon: &entity.Coupon{ID: 1, DiscountPercentage: dec("10")}})

	_, err := svc.Settle(context.Background(), 9, Input{
		OrderID:    1,
		Method:     entity.MethodCard,
		CouponCode: "WELCOME10",
	})
	if !errorbank.IsKind(err, errorbank.KindBusinessRule) {
		t.Fatalf("got %v, want business_rule error", err)
	}
	if len(store.applied) != 0 {
		t.Error("nothing should be committed on rejection")
	}
}

func TestSettleTerminalOrder(t *testing.T) {
	for _, status := range []entity.OrderStatus{entity.OrderStatusPaid, entity.OrderStatusCancelled} {
		order := regularOrder("80")
		order.Status = status
		svc := newEngine(order, &fakeStore{}, &fakeCoupons{})
		_, err := svc.Settle(context.Background(), 9, Input{OrderID: 1, Method: entity.MethodCash})
		if !errorbank.IsKind(err, errorbank.KindInvalidState) {
			t.Errorf("status %s: got %v, want invalid_state error", status, err)
		}
	}
}

func TestSettleRequiresOpenRegister(t *testing.T) {
	svc := newEngine(regularOrder("80"), &fakeStore{}, &fakeCoupons{})
	_, err := svc.Settle(context.Background(), 4, Input{OrderID: 1, Method: entity.MethodCash}) // cashier 4 has no register
	if !errorbank.IsKind(err, errorbank.KindInvalidState) {
		t.Fatalf("got %v, want invalid_state error", err)
	}
}

func TestSettleOrderNotFound(t *testing.T) {
	svc := newEngine(nil, &fakeStore{}, &fakeCoupons{})
	_, err := svc.Settle(context.Background(), 9, Input{OrderID: 42, Method: entity.MethodCash})
	if !errorbank.IsKind(err, errorbank.KindNotFound) {
		t.Fatalf("got %v, want not_found error", err)
	}
}

func TestSettleIdempotentReplay(t *testing.T) {
	order := regularOrder("80")
	prior := &entity.Payment{
		ID:             11,
		OrderID:        1,
		Amount:         dec("80"),
		Method:         entity.MethodCash,
		PayCash:        dec("80"),
		IdempotencyKey: "attempt-1",
		CreatedAt:      time.Now().UTC(),
	}
	store := &fakeStore{byKey: map[string]*entity.Payment{"attempt-1": prior}}
	svc := newEngine(order, store, &fakeCoupons{})

	result, err := svc.Settle(context.Background(), 9, Input{
		OrderID:        1,
		Method:         entity.MethodCash,
		IdempotencyKey: "attempt-1",
	})
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if !result.Replayed {
		t.Error("replay should be flagged")
	}
	if result.Payment.ID != 11 {
		t.Errorf("payment id = %d, want the recorded attempt", result.Payment.ID)
	}
	if len(store.applied) != 0 {
		t.Error("a replay must not commit anything")
	}
}

func TestSettleConflictAborts(t *testing.T) {
	order := regularOrder("80")
	store := &fakeStore{applyErr: repo.ErrOrderConflict}
	svc := newEngine(order, store, &fakeCoupons{})

	_, err := svc.Settle(context.Background(), 9, Input{OrderID: 1, Method: entity.MethodCash})
	if !errorbank.IsKind(err, errorbank.KindInvalidState) {
		t.Fatalf("got %v, want invalid_state error", err)
	}
}

func TestSettleCouponValidationErrorPropagates(t *testing.T) {
	order := regularOrder("80")
	couponErr := errorbank.BusinessRule("discount code has expired")
	store := &fakeStore{}
	svc := newEngine(order, store, &fakeCoupons{err: couponErr})

	_, err := svc.Settle(context.Background(), 9, Input{
		OrderID:    1,
		Method:     entity.MethodCash,
		CouponCode: "GONE",
	})
	if !errorbank.IsKind(err, errorbank.KindBusinessRule) {
		t.Fatalf("got %v, want business_rule error", err)
	}
	if len(store.applied) != 0 {
		t.Error("nothing should be committed when the coupon is rejected")
	}
}

func TestSettleDiscountSummaryOnOrder(t *testing.T) {
	order := regularOrder("100")
	store := &fakeStore{}
	coupon := &entity.Coupon{ID: 3, DiscountPercentage: dec("10")}
	svc := newEngine(order, store, &fakeCoupons{coupon: coupon})

	result, err := svc.Settle(context.Background(), 9, Input{
		OrderID:    1,
		Method:     entity.MethodCash,
		CouponCode: "WELCOME10",
	})
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if !result.Order.DiscountTotal.Equal(dec("10")) {
		t.Errorf("discount total = %s, want 10", result.Order.DiscountTotal)
	}
	if !result.Order.TotalWithDiscount.Equal(dec("90")) {
		t.Errorf("total with discount = %s, want 90", result.Order.TotalWithDiscount)
	}
	if !result.Order.DiscountPercentage.Equal(dec("10")) {
		t.Errorf("discount percentage = %s, want 10", result.Order.DiscountPercentage)
	}
}
