package order

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/carlostcba/GustadosPOS-sub000/internal/entity"
	"github.com/carlostcba/GustadosPOS-sub000/pkg/errorbank"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func validInput() CreateInput {
	return CreateInput{
		Kind:         entity.OrderKindRegular,
		CustomerName: "Walk-in",
		Items: []ItemInput{
			{ProductID: 1, Quantity: dec("2"), UnitPrice: dec("2.25")},
			{ProductID: 2, Quantity: dec("0.500"), UnitPrice: dec("18.90")},
		},
	}
}

func TestBuildOrderTotals(t *testing.T) {
	order, err := buildOrder(7, validInput())
	if err != nil {
		t.Fatalf("buildOrder: %v", err)
	}
	if !order.TotalAmount.Equal(dec("13.95")) { // 4.50 + 9.45
		t.Errorf("total = %s, want 13.95", order.TotalAmount)
	}
	if !order.RemainingAmount.Equal(order.TotalAmount) {
		t.Errorf("remaining = %s, want the full total", order.RemainingAmount)
	}
	if order.Status != entity.OrderStatusPending {
		t.Errorf("status = %s, want pending", order.Status)
	}
	if order.SellerID != 7 {
		t.Errorf("seller = %d, want 7", order.SellerID)
	}
	if len(order.Items) != 2 {
		t.Errorf("items = %d, want 2", len(order.Items))
	}
}

func TestBuildOrderDefaultsToRegular(t *testing.T) {
	in := validInput()
	in.Kind = ""
	order, err := buildOrder(7, in)
	if err != nil {
		t.Fatalf("buildOrder: %v", err)
	}
	if order.Kind != entity.OrderKindRegular {
		t.Errorf("kind = %s, want regular", order.Kind)
	}
	if order.IsPreorder {
		t.Error("regular order must not be a pre-order")
	}
}

func TestBuildOrderPreorderNeedsDeliveryDate(t *testing.T) {
	in := validInput()
	in.Kind = entity.OrderKindPreorder
	if _, err := buildOrder(7, in); !errorbank.IsKind(err, errorbank.KindValidation) {
		t.Fatalf("got %v, want validation error", err)
	}

	delivery := time.Now().UTC().AddDate(0, 0, 3)
	in.DeliveryDate = &delivery
	order, err := buildOrder(7, in)
	if err != nil {
		t.Fatalf("buildOrder with date: %v", err)
	}
	if !order.IsPreorder {
		t.Error("pre-order flag should be set")
	}
}

func TestBuildOrderRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*CreateInput)
	}{
		{"unknown kind", func(in *CreateInput) { in.Kind = "wholesale" }},
		{"empty customer", func(in *CreateInput) { in.CustomerName = "  " }},
		{"no items", func(in *CreateInput) { in.Items = nil }},
		{"missing product", func(in *CreateInput) { in.Items[0].ProductID = 0 }},
		{"zero quantity", func(in *CreateInput) { in.Items[0].Quantity = decimal.Zero }},
		{"negative price", func(in *CreateInput) { in.Items[0].UnitPrice = dec("-1") }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			if _, err := buildOrder(7, in); !errorbank.IsKind(err, errorbank.KindValidation) {
				t.Errorf("got %v, want validation error", err)
			}
		})
	}
}

func TestFormatNumberPrefixes(t *testing.T) {
	cases := []struct {
		kind entity.OrderKind
		id   int64
		want string
	}{
		{entity.OrderKindRegular, 17, "ORD-000017"},
		{entity.OrderKindPreorder, 3, "PRE-000003"},
		{entity.OrderKindDelivery, 1200, "DLV-001200"},
	}
	for _, tc := range cases {
		if got := entity.FormatNumber(tc.kind, tc.id); got != tc.want {
			t.Errorf("FormatNumber(%s, %d) = %s, want %s", tc.kind, tc.id, got, tc.want)
		}
	}
}
