package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Coupon is a cash-only discount code. Read-only from the settlement
// engine's perspective; managers maintain the table out of band.
type Coupon struct {
	bun.BaseModel `bun:"table:coupons,alias:c"`

	ID                 int64           `bun:",pk,autoincrement"`
	Code               string          `bun:"code"`
	DiscountPercentage decimal.Decimal `bun:"discount_percentage,type:decimal(5,2)"`
	MinOrderAmount     decimal.Decimal `bun:"min_order_amount,type:decimal(12,2)"`
	// UsageLimit caps recorded usages; zero means unlimited.
	UsageLimit int        `bun:"usage_limit"`
	ValidFrom  *time.Time `bun:"valid_from,nullzero"`
	ValidUntil *time.Time `bun:"valid_until,nullzero"`
	IsActive   bool       `bun:"is_active"`
	CreatedAt  time.Time  `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
}

// CouponUsage links a coupon to the order and payment it discounted.
// Append-only audit record; the usage count enforces UsageLimit.
type CouponUsage struct {
	bun.BaseModel `bun:"table:coupon_usages,alias:cu"`

	ID             int64           `bun:",pk,autoincrement"`
	CouponID       int64           `bun:"coupon_id"`
	OrderID        int64           `bun:"order_id"`
	PaymentID      int64           `bun:"payment_id"`
	DiscountAmount decimal.Decimal `bun:"discount_amount,type:decimal(12,2)"`
	CreatedAt      time.Time       `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
}
