package register

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/carlostcba/GustadosPOS-sub000/internal/entity"
	repo "github.com/carlostcba/GustadosPOS-sub000/internal/repository/register"
	"github.com/carlostcba/GustadosPOS-sub000/pkg/errorbank"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// fakeStore keeps registers in memory, mimicking the repository contract.
type fakeStore struct {
	nextID    int64
	registers map[int64]*entity.CashRegister
	expenses  []*entity.RegisterExpense
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 1, registers: make(map[int64]*entity.CashRegister)}
}

func (f *fakeStore) Create(_ context.Context, reg *entity.CashRegister) error {
	reg.ID = f.nextID
	f.nextID++
	f.registers[reg.ID] = reg
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (*entity.CashRegister, error) {
	reg, ok := f.registers[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return reg, nil
}

func (f *fakeStore) OpenByCashier(_ context.Context, cashierID int64) (*entity.CashRegister, error) {
	for _, reg := range f.registers {
		if reg.CashierID == cashierID && reg.ClosedAt == nil {
			return reg, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeStore) AddExpense(_ context.Context, exp *entity.RegisterExpense) error {
	reg, ok := f.registers[exp.RegisterID]
	if !ok || reg.ClosedAt != nil {
		return repo.ErrNotFound
	}
	f.expenses = append(f.expenses, exp)
	reg.ExpensesTotal = reg.ExpensesTotal.Add(exp.Amount)
	return nil
}

func (f *fakeStore) Close(_ context.Context, registerID int64, closingAmount decimal.Decimal, closedAt time.Time) (bool, error) {
	reg, ok := f.registers[registerID]
	if !ok {
		return false, repo.ErrNotFound
	}
	if reg.ClosedAt != nil {
		return false, nil
	}
	reg.ClosedAt = &closedAt
	reg.ClosingAmount = &closingAmount
	return true, nil
}

func TestOpenRejectsNonPositiveAmount(t *testing.T) {
	svc := New(newFakeStore(), nil)
	for _, amount := range []string{"0", "-10"} {
		if _, err := svc.Open(context.Background(), 1, dec(amount)); !errorbank.IsKind(err, errorbank.KindValidation) {
			t.Errorf("Open with %s: got %v, want validation error", amount, err)
		}
	}
}

func TestOpenRejectsSecondRegister(t *testing.T) {
	svc := New(newFakeStore(), nil)
	if _, err := svc.Open(context.Background(), 1, dec("100")); err != nil {
		t.Fatalf("first open: %v", err)
	}
	if _, err := svc.Open(context.Background(), 1, dec("50")); !errorbank.IsKind(err, errorbank.KindInvalidState) {
		t.Fatalf("second open: got %v, want invalid_state error", err)
	}
	// another cashier is unaffected
	if _, err := svc.Open(context.Background(), 2, dec("50")); err != nil {
		t.Fatalf("open for other cashier: %v", err)
	}
}

func TestRecordExpenseRequiresOpenRegister(t *testing.T) {
	svc := New(newFakeStore(), nil)
	_, err := svc.RecordExpense(context.Background(), 1, dec("20"), entity.ExpenseSupplierPayment, "flour delivery", "Mill Co")
	if !errorbank.IsKind(err, errorbank.KindInvalidState) {
		t.Fatalf("got %v, want invalid_state error", err)
	}
}

func TestRecordExpenseValidation(t *testing.T) {
	store := newFakeStore()
	svc := New(store, nil)
	if _, err := svc.Open(context.Background(), 1, dec("100")); err != nil {
		t.Fatalf("open: %v", err)
	}

	cases := []struct {
		name        string
		amount      string
		expType     entity.ExpenseType
		description string
	}{
		{"zero amount", "0", entity.ExpenseSupplierPayment, "x"},
		{"unknown type", "10", entity.ExpenseType("travel"), "x"},
		{"empty description", "10", entity.ExpenseEmployeeAdvance, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.RecordExpense(context.Background(), 1, dec(tc.amount), tc.expType, tc.description, "")
			if !errorbank.IsKind(err, errorbank.KindValidation) {
				t.Errorf("got %v, want validation error", err)
			}
		})
	}
}

func TestExpectedCashFormula(t *testing.T) {
	store := newFakeStore()
	svc := New(store, nil)
	reg, err := svc.Open(context.Background(), 1, dec("100"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	// simulate settled sales: cash and card; only cash counts toward the drawer
	reg.CashSales = dec("250")
	reg.CardSales = dec("400")

	if _, err := svc.RecordExpense(context.Background(), 1, dec("30"), entity.ExpenseSupplierPayment, "flour delivery", "Mill Co"); err != nil {
		t.Fatalf("expense: %v", err)
	}

	expected, err := svc.ExpectedCash(context.Background(), 1)
	if err != nil {
		t.Fatalf("expected cash: %v", err)
	}
	if !expected.Equal(dec("320")) { // 100 + 250 - 30
		t.Errorf("expected cash = %s, want 320", expected)
	}
}

func TestCloseFlow(t *testing.T) {
	store := newFakeStore()
	svc := New(store, nil)
	reg, err := svc.Open(context.Background(), 1, dec("100"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	reg.CashSales = dec("200")

	review, err := svc.RequestClose(context.Background(), 1, dec("290"))
	if err != nil {
		t.Fatalf("request close: %v", err)
	}
	if !review.ExpectedCash.Equal(dec("300")) {
		t.Errorf("expected cash = %s, want 300", review.ExpectedCash)
	}
	if !review.Difference.Equal(dec("-10")) {
		t.Errorf("difference = %s, want -10", review.Difference)
	}
	if review.Classification != ClassificationShortage {
		t.Errorf("classification = %s, want %s", review.Classification, ClassificationShortage)
	}

	closed, err := svc.ConfirmClose(context.Background(), 1, dec("290"))
	if err != nil {
		t.Fatalf("confirm close: %v", err)
	}
	if closed.ClosedAt == nil {
		t.Fatal("register should be closed")
	}
	if closed.ClosingAmount == nil || !closed.ClosingAmount.Equal(dec("290")) {
		t.Errorf("closing amount = %v, want 290", closed.ClosingAmount)
	}
}

func TestConfirmCloseWithoutReview(t *testing.T) {
	store := newFakeStore()
	svc := New(store, nil)
	if _, err := svc.Open(context.Background(), 1, dec("100")); err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := svc.ConfirmClose(context.Background(), 1, dec("100")); !errorbank.IsKind(err, errorbank.KindInvalidState) {
		t.Fatalf("got %v, want invalid_state error", err)
	}
}

func TestCancelCloseAbandonsReview(t *testing.T) {
	store := newFakeStore()
	svc := New(store, nil)
	if _, err := svc.Open(context.Background(), 1, dec("100")); err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := svc.RequestClose(context.Background(), 1, dec("100")); err != nil {
		t.Fatalf("request close: %v", err)
	}
	svc.CancelClose(1)
	if _, err := svc.ConfirmClose(context.Background(), 1, dec("100")); !errorbank.IsKind(err, errorbank.KindInvalidState) {
		t.Fatalf("got %v, want invalid_state error after cancel", err)
	}
}

func TestConfirmCloseConcurrentlyClosed(t *testing.T) {
	store := newFakeStore()
	svc := New(store, nil)
	reg, err := svc.Open(context.Background(), 1, dec("100"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := svc.RequestClose(context.Background(), 1, dec("100")); err != nil {
		t.Fatalf("request close: %v", err)
	}

	// someone else closes the row first
	now := time.Now().UTC()
	if ok, _ := store.Close(context.Background(), reg.ID, dec("100"), now); !ok {
		t.Fatal("setup close failed")
	}

	if _, err := svc.ConfirmClose(context.Background(), 1, dec("100")); !errorbank.IsKind(err, errorbank.KindInvalidState) {
		t.Fatalf("got %v, want invalid_state error", err)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		diff string
		want string
	}{
		{"0", ClassificationBalanced},
		{"5", ClassificationSurplus},
		{"-5", ClassificationShortage},
	}
	for _, tc := range cases {
		if got := Classify(dec(tc.diff)); got != tc.want {
			t.Errorf("Classify(%s) = %s, want %s", tc.diff, got, tc.want)
		}
	}
}
