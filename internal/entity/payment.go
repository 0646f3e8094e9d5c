package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Payment is the append-only audit record of one settlement action. It is
// created exactly once, never mutated: reconciliation depends on it.
type Payment struct {
	bun.BaseModel `bun:"table:payments,alias:p"`

	ID         int64 `bun:",pk,autoincrement"`
	OrderID    int64 `bun:"order_id"`
	RegisterID int64 `bun:"register_id"`

	Amount    decimal.Decimal `bun:"amount,type:decimal(12,2)"`
	Method    PaymentMethod   `bun:"payment_method"`
	IsDeposit bool            `bun:"is_deposit"`

	DiscountPercentage decimal.Decimal `bun:"discount_percentage,type:decimal(5,2)"`
	DiscountAmount     decimal.Decimal `bun:"discount_amount,type:decimal(12,2)"`

	// Cash/non-cash split of the amount; exactly one side is non-zero.
	PayCash    decimal.Decimal `bun:"pay_cash,type:decimal(12,2)"`
	PayNonCash decimal.Decimal `bun:"pay_non_cash,type:decimal(12,2)"`

	// IdempotencyKey dedupes retried settlement attempts (unique index).
	IdempotencyKey string `bun:"idempotency_key"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
}
