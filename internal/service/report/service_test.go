package report

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/carlostcba/GustadosPOS-sub000/internal/entity"
	registerrepo "github.com/carlostcba/GustadosPOS-sub000/internal/repository/register"
	repo "github.com/carlostcba/GustadosPOS-sub000/internal/repository/report"
	"github.com/carlostcba/GustadosPOS-sub000/pkg/errorbank"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

type fakeItems struct {
	byLine  []repo.ItemRow
	byPaid  []repo.ItemRow
	byOrder []repo.ItemRow
}

func (f *fakeItems) ItemsByLineWindow(context.Context, time.Time, time.Time) ([]repo.ItemRow, error) {
	return f.byLine, nil
}

func (f *fakeItems) ItemsByPaidOrders(context.Context, time.Time, time.Time) ([]repo.ItemRow, error) {
	return f.byPaid, nil
}

func (f *fakeItems) ItemsByOrderWindow(context.Context, time.Time, time.Time) ([]repo.ItemRow, error) {
	return f.byOrder, nil
}

type fakeRegisters struct {
	register *entity.CashRegister
}

func (f *fakeRegisters) GetByID(_ context.Context, id int64) (*entity.CashRegister, error) {
	if f.register == nil || f.register.ID != id {
		return nil, registerrepo.ErrNotFound
	}
	return f.register, nil
}

func closedRegister() *entity.CashRegister {
	closedAt := time.Date(2025, 6, 15, 20, 0, 0, 0, time.UTC)
	declared := dec("310")
	return &entity.CashRegister{
		ID:            1,
		CashierID:     9,
		OpeningAmount: dec("100"),
		CashSales:     dec("250"),
		ExpensesTotal: dec("30"),
		StartedAt:     closedAt.Add(-8 * time.Hour),
		ClosedAt:      &closedAt,
		ClosingAmount: &declared,
	}
}

func row(productID int64, name string, qty, price string) repo.ItemRow {
	return repo.ItemRow{
		OrderID:     1,
		TotalAmount: dec("100"),
		ProductID:   productID,
		ProductName: name,
		Quantity:    dec(qty),
		UnitPrice:   dec(price),
	}
}

func TestForRegisterSummary(t *testing.T) {
	svc := New(&fakeItems{}, &fakeRegisters{register: closedRegister()}, nil)

	report, err := svc.ForRegister(context.Background(), 1, "")
	if err != nil {
		t.Fatalf("ForRegister: %v", err)
	}
	if !report.ExpectedCash.Equal(dec("320")) { // 100 + 250 - 30
		t.Errorf("expected cash = %s, want 320", report.ExpectedCash)
	}
	if !report.Difference.Equal(dec("-10")) { // declared 310
		t.Errorf("difference = %s, want -10", report.Difference)
	}
	if len(report.Lines) != 0 {
		t.Errorf("lines = %d, want empty report", len(report.Lines))
	}
}

func TestForRegisterNotFound(t *testing.T) {
	svc := New(&fakeItems{}, &fakeRegisters{}, nil)
	_, err := svc.ForRegister(context.Background(), 42, "")
	if !errorbank.IsKind(err, errorbank.KindNotFound) {
		t.Fatalf("got %v, want not_found error", err)
	}
}

func TestAggregatePerProduct(t *testing.T) {
	items := &fakeItems{byLine: []repo.ItemRow{
		row(1, "Croissant", "2", "2.25"),
		row(1, "Croissant", "3", "2.25"),
		row(2, "Ham", "0.500", "18.90"),
	}}
	svc := New(items, &fakeRegisters{register: closedRegister()}, nil)

	report, err := svc.ForRegister(context.Background(), 1, "")
	if err != nil {
		t.Fatalf("ForRegister: %v", err)
	}
	if len(report.Lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(report.Lines))
	}

	croissant := report.Lines[0]
	if croissant.ProductName != "Croissant" {
		t.Fatalf("lines should sort by product name, got %s first", croissant.ProductName)
	}
	if !croissant.Quantity.Equal(dec("5")) {
		t.Errorf("croissant quantity = %s, want 5", croissant.Quantity)
	}
	if !croissant.GrossTotal.Equal(dec("11.25")) {
		t.Errorf("croissant gross = %s, want 11.25", croissant.GrossTotal)
	}

	ham := report.Lines[1]
	if !ham.GrossTotal.Equal(dec("9.45")) {
		t.Errorf("ham gross = %s, want 9.45", ham.GrossTotal)
	}
}

func TestAggregateAppliesDiscountRatio(t *testing.T) {
	discounted := row(1, "Cake", "1", "100")
	discounted.DiscountTotal = dec("10")
	discounted.TotalWithDiscount = dec("90")

	items := &fakeItems{byLine: []repo.ItemRow{discounted}}
	svc := New(items, &fakeRegisters{register: closedRegister()}, nil)

	report, err := svc.ForRegister(context.Background(), 1, "")
	if err != nil {
		t.Fatalf("ForRegister: %v", err)
	}
	line := report.Lines[0]
	if !line.GrossTotal.Equal(dec("100")) {
		t.Errorf("gross = %s, want 100", line.GrossTotal)
	}
	if !line.DiscountedTotal.Equal(dec("90")) {
		t.Errorf("discounted = %s, want 90", line.DiscountedTotal)
	}
}

func TestCollectFallsBack(t *testing.T) {
	primary := []repo.ItemRow{row(1, "Croissant", "1", "2.25")}
	secondary := []repo.ItemRow{row(2, "Ham", "1", "18.90")}

	cases := []struct {
		name  string
		items *fakeItems
		want  string
	}{
		{"primary", &fakeItems{byLine: primary, byPaid: secondary}, "Croissant"},
		{"paid fallback", &fakeItems{byPaid: primary}, "Croissant"},
		{"order-window fallback", &fakeItems{byOrder: secondary}, "Ham"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := New(tc.items, &fakeRegisters{register: closedRegister()}, nil)
			report, err := svc.ForRegister(context.Background(), 1, "")
			if err != nil {
				t.Fatalf("ForRegister: %v", err)
			}
			if len(report.Lines) != 1 || report.Lines[0].ProductName != tc.want {
				t.Errorf("lines = %+v, want single %s line", report.Lines, tc.want)
			}
		})
	}
}

func TestSearchFilter(t *testing.T) {
	items := &fakeItems{byLine: []repo.ItemRow{
		row(1, "Sourdough loaf", "1", "5.50"),
		row(2, "Aged cheese", "1", "24.00"),
	}}
	svc := New(items, &fakeRegisters{register: closedRegister()}, nil)

	report, err := svc.ForRegister(context.Background(), 1, "cheese")
	if err != nil {
		t.Fatalf("ForRegister: %v", err)
	}
	if len(report.Lines) != 1 || report.Lines[0].ProductName != "Aged cheese" {
		t.Errorf("lines = %+v, want only the cheese line", report.Lines)
	}
}

func TestOpenRegisterUsesClock(t *testing.T) {
	reg := closedRegister()
	reg.ClosedAt = nil
	reg.ClosingAmount = nil

	now := time.Date(2025, 6, 15, 18, 0, 0, 0, time.UTC)
	svc := New(&fakeItems{}, &fakeRegisters{register: reg}, nil).
		WithClock(func() time.Time { return now })

	report, err := svc.ForRegister(context.Background(), 1, "")
	if err != nil {
		t.Fatalf("ForRegister: %v", err)
	}
	if !report.Difference.IsZero() {
		t.Errorf("difference = %s, want 0 while open", report.Difference)
	}
}
