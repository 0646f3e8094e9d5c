package coupon

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/carlostcba/GustadosPOS-sub000/internal/entity"
	repo "github.com/carlostcba/GustadosPOS-sub000/internal/repository/coupon"
	"github.com/carlostcba/GustadosPOS-sub000/pkg/errorbank"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

type fakeStore struct {
	coupons map[string]*entity.Coupon
	usages  map[int64]int
}

func (f *fakeStore) GetByCode(_ context.Context, code string) (*entity.Coupon, error) {
	coupon, ok := f.coupons[code]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return coupon, nil
}

func (f *fakeStore) CountUsages(_ context.Context, couponID int64) (int, error) {
	return f.usages[couponID], nil
}

func newService(coupons ...*entity.Coupon) (*Service, *fakeStore) {
	store := &fakeStore{coupons: make(map[string]*entity.Coupon), usages: make(map[int64]int)}
	for _, c := range coupons {
		store.coupons[c.Code] = c
	}
	svc := New(store, nil).WithClock(func() time.Time { return testNow })
	return svc, store
}

func reason(t *testing.T, err error) string {
	t.Helper()
	appErr := errorbank.From(err)
	if appErr == nil {
		t.Fatal("expected an error")
	}
	r, _ := appErr.Details()["reason"].(string)
	return r
}

func TestValidateHappyPath(t *testing.T) {
	svc, _ := newService(&entity.Coupon{
		ID: 7, Code: "WELCOME10", DiscountPercentage: dec("10"), IsActive: true,
	})

	coupon, err := svc.Validate(context.Background(), "WELCOME10", dec("100"), entity.MethodCash)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if coupon.ID != 7 {
		t.Errorf("coupon id = %d, want 7", coupon.ID)
	}
	if !coupon.DiscountPercentage.Equal(dec("10")) {
		t.Errorf("discount = %s, want 10", coupon.DiscountPercentage)
	}
}

func TestValidateRejectsNonCash(t *testing.T) {
	svc, _ := newService(&entity.Coupon{ID: 1, Code: "X", DiscountPercentage: dec("10"), IsActive: true})

	for _, method := range []entity.PaymentMethod{entity.MethodCard, entity.MethodTransfer} {
		_, err := svc.Validate(context.Background(), "X", dec("100"), method)
		if !errorbank.IsKind(err, errorbank.KindBusinessRule) {
			t.Fatalf("method %s: got %v, want business_rule error", method, err)
		}
		if got := reason(t, err); got != ReasonNotCashPayment {
			t.Errorf("method %s: reason = %s, want %s", method, got, ReasonNotCashPayment)
		}
	}
}

func TestValidateEmptyCode(t *testing.T) {
	svc, _ := newService()
	_, err := svc.Validate(context.Background(), "  ", dec("100"), entity.MethodCash)
	if !errorbank.IsKind(err, errorbank.KindValidation) {
		t.Fatalf("got %v, want validation error", err)
	}
	if got := reason(t, err); got != ReasonEmptyCode {
		t.Errorf("reason = %s, want %s", got, ReasonEmptyCode)
	}
}

func TestValidateUnknownCode(t *testing.T) {
	svc, _ := newService()
	_, err := svc.Validate(context.Background(), "NOPE", dec("100"), entity.MethodCash)
	if !errorbank.IsKind(err, errorbank.KindNotFound) {
		t.Fatalf("got %v, want not_found error", err)
	}
	if got := reason(t, err); got != ReasonNotFound {
		t.Errorf("reason = %s, want %s", got, ReasonNotFound)
	}
}

func TestValidateInactive(t *testing.T) {
	svc, _ := newService(&entity.Coupon{ID: 1, Code: "OLD", DiscountPercentage: dec("10")})
	_, err := svc.Validate(context.Background(), "OLD", dec("100"), entity.MethodCash)
	if got := reason(t, err); got != ReasonInactive {
		t.Errorf("reason = %s, want %s", got, ReasonInactive)
	}
}

func TestValidateWindow(t *testing.T) {
	future := testNow.Add(24 * time.Hour)
	past := testNow.Add(-24 * time.Hour)

	svc, _ := newService(
		&entity.Coupon{ID: 1, Code: "SOON", DiscountPercentage: dec("10"), IsActive: true, ValidFrom: &future},
		&entity.Coupon{ID: 2, Code: "GONE", DiscountPercentage: dec("10"), IsActive: true, ValidUntil: &past},
		&entity.Coupon{ID: 3, Code: "NOW", DiscountPercentage: dec("10"), IsActive: true, ValidFrom: &past, ValidUntil: &future},
	)

	if _, err := svc.Validate(context.Background(), "SOON", dec("100"), entity.MethodCash); reason(t, err) != ReasonNotYetValid {
		t.Errorf("SOON: got %v, want %s", err, ReasonNotYetValid)
	}
	if _, err := svc.Validate(context.Background(), "GONE", dec("100"), entity.MethodCash); reason(t, err) != ReasonExpired {
		t.Errorf("GONE: got %v, want %s", err, ReasonExpired)
	}
	if _, err := svc.Validate(context.Background(), "NOW", dec("100"), entity.MethodCash); err != nil {
		t.Errorf("NOW: unexpected error %v", err)
	}
}

func TestValidateMinimumOrder(t *testing.T) {
	svc, _ := newService(&entity.Coupon{
		ID: 1, Code: "BIG", DiscountPercentage: dec("15"), MinOrderAmount: dec("100"), IsActive: true,
	})

	_, err := svc.Validate(context.Background(), "BIG", dec("99.99"), entity.MethodCash)
	if got := reason(t, err); got != ReasonBelowMinimumOrder {
		t.Errorf("reason = %s, want %s", got, ReasonBelowMinimumOrder)
	}

	if _, err := svc.Validate(context.Background(), "BIG", dec("100"), entity.MethodCash); err != nil {
		t.Errorf("exact minimum should pass, got %v", err)
	}
}

func TestValidateUsageLimit(t *testing.T) {
	svc, store := newService(&entity.Coupon{
		ID: 1, Code: "LTD", DiscountPercentage: dec("10"), UsageLimit: 2, IsActive: true,
	})

	store.usages[1] = 1
	if _, err := svc.Validate(context.Background(), "LTD", dec("50"), entity.MethodCash); err != nil {
		t.Fatalf("below limit should pass, got %v", err)
	}

	store.usages[1] = 2
	_, err := svc.Validate(context.Background(), "LTD", dec("50"), entity.MethodCash)
	if got := reason(t, err); got != ReasonUsageLimitReached {
		t.Errorf("reason = %s, want %s", got, ReasonUsageLimitReached)
	}
}

func TestValidateUnlimitedUsage(t *testing.T) {
	svc, store := newService(&entity.Coupon{
		ID: 1, Code: "FREE", DiscountPercentage: dec("10"), UsageLimit: 0, IsActive: true,
	})
	store.usages[1] = 10000
	if _, err := svc.Validate(context.Background(), "FREE", dec("50"), entity.MethodCash); err != nil {
		t.Errorf("zero usage limit means unlimited, got %v", err)
	}
}
