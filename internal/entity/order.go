package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// OrderKind distinguishes how an order was taken; it drives the number
// prefix and, for pre-orders, the deposit flow.
type OrderKind string

const (
	OrderKindRegular  OrderKind = "regular"
	OrderKindPreorder OrderKind = "preorder"
	OrderKindDelivery OrderKind = "delivery"
)

// NumberPrefix returns the human-readable sequence prefix for the kind.
func (k OrderKind) NumberPrefix() string {
	switch k {
	case OrderKindPreorder:
		return "PRE"
	case OrderKindDelivery:
		return "DLV"
	default:
		return "ORD"
	}
}

// OrderStatus models the order lifecycle. paid and cancelled are terminal.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusPaid       OrderStatus = "paid"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Terminal reports whether the status admits no further payments.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusPaid || s == OrderStatusCancelled
}

// PaymentMethod is the tender used for a settlement.
type PaymentMethod string

const (
	MethodCash     PaymentMethod = "cash"
	MethodCard     PaymentMethod = "card"
	MethodTransfer PaymentMethod = "transfer"
)

// ParsePaymentMethod normalises tender names; card-network aliases
// (credit, debit) collapse into card.
func ParsePaymentMethod(raw string) (PaymentMethod, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "cash", "efectivo":
		return MethodCash, true
	case "card", "credit", "debit":
		return MethodCard, true
	case "transfer", "wire":
		return MethodTransfer, true
	default:
		return "", false
	}
}

// IsCash reports whether the tender touches the physical drawer.
func (m PaymentMethod) IsCash() bool { return m == MethodCash }

// Order is one of the two root aggregates. Settlements mutate its status
// and balance fields; the deposit/remaining split always sums to the total
// while a pre-order is partially paid.
type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID              int64       `bun:",pk,autoincrement"`
	Number          string      `bun:"number"`
	Kind            OrderKind   `bun:"kind"`
	CustomerName    string      `bun:"customer_name"`
	CustomerContact string      `bun:"customer_contact"`
	SellerID        int64       `bun:"seller_id"`
	IsPreorder      bool        `bun:"is_preorder"`
	DeliveryDate    *time.Time  `bun:"delivery_date,nullzero"`
	Status          OrderStatus `bun:"status"`

	TotalAmount        decimal.Decimal `bun:"total_amount,type:decimal(12,2)"`
	DepositAmount      decimal.Decimal `bun:"deposit_amount,type:decimal(12,2)"`
	RemainingAmount    decimal.Decimal `bun:"remaining_amount,type:decimal(12,2)"`
	PaymentMethod      string          `bun:"payment_method"`
	DiscountPercentage decimal.Decimal `bun:"discount_percentage,type:decimal(5,2)"`
	DiscountTotal      decimal.Decimal `bun:"discount_total,type:decimal(12,2)"`
	TotalWithDiscount  decimal.Decimal `bun:"total_amount_with_discount,type:decimal(12,2)"`

	LastPaymentAt *time.Time `bun:"last_payment_at,nullzero"`
	CreatedAt     time.Time  `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time  `bun:"updated_at,nullzero"`

	Items []*OrderItem `bun:"rel:has-many,join:id=order_id"`
}

// FormatNumber composes the type-prefixed sequence number for an order id.
func FormatNumber(kind OrderKind, id int64) string {
	return fmt.Sprintf("%s-%06d", kind.NumberPrefix(), id)
}

// DiscountRatio is the discounted-total/total ratio recorded at settlement
// time; 1 when no discount was applied. Reports reuse it per line item.
func (o *Order) DiscountRatio() decimal.Decimal {
	if o.TotalAmount.IsZero() || o.DiscountTotal.IsZero() || o.TotalWithDiscount.IsZero() {
		return decimal.NewFromInt(1)
	}
	return o.TotalWithDiscount.Div(o.TotalAmount)
}

// OrderItem is a sold line owned by an order; its creation timestamp is
// what register reports match against a shift window.
type OrderItem struct {
	bun.BaseModel `bun:"table:order_items,alias:oi"`

	ID        int64           `bun:",pk,autoincrement"`
	OrderID   int64           `bun:"order_id"`
	ProductID int64           `bun:"product_id"`
	Quantity  decimal.Decimal `bun:"quantity,type:decimal(12,3)"`
	UnitPrice decimal.Decimal `bun:"unit_price,type:decimal(12,2)"`
	CreatedAt time.Time       `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
}
