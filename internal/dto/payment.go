package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/carlostcba/GustadosPOS-sub000/internal/entity"
)

// PaymentResponse represents a settled payment record.
type PaymentResponse struct {
	ID                 int64           `json:"id"`
	OrderID            int64           `json:"order_id"`
	RegisterID         int64           `json:"register_id"`
	Amount             decimal.Decimal `json:"amount"`
	Method             string          `json:"payment_method"`
	IsDeposit          bool            `json:"is_deposit"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	DiscountAmount     decimal.Decimal `json:"discount_amount"`
	PayCash            decimal.Decimal `json:"pay_cash"`
	PayNonCash         decimal.Decimal `json:"pay_non_cash"`
	CreatedAt          time.Time       `json:"created_at"`
}

// SettlementResponse is the outcome of one settlement action.
type SettlementResponse struct {
	Payment        PaymentResponse `json:"payment"`
	Order          OrderResponse   `json:"order"`
	BaseAmount     decimal.Decimal `json:"base_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FinalAmount    decimal.Decimal `json:"final_amount"`
	Replayed       bool            `json:"replayed"`
}

// NewPaymentResponse maps a payment entity onto its transport shape.
func NewPaymentResponse(p *entity.Payment) PaymentResponse {
	return PaymentResponse{
		ID:                 p.ID,
		OrderID:            p.OrderID,
		RegisterID:         p.RegisterID,
		Amount:             p.Amount,
		Method:             string(p.Method),
		IsDeposit:          p.IsDeposit,
		DiscountPercentage: p.DiscountPercentage,
		DiscountAmount:     p.DiscountAmount,
		PayCash:            p.PayCash,
		PayNonCash:         p.PayNonCash,
		CreatedAt:          p.CreatedAt,
	}
}

// DepositPlanResponse exposes the deposit manager's computation.
type DepositPlanResponse struct {
	Total          decimal.Decimal   `json:"total"`
	Deposit        decimal.Decimal   `json:"deposit"`
	Remaining      decimal.Decimal   `json:"remaining"`
	Minimum        decimal.Decimal   `json:"minimum"`
	Percentage     decimal.Decimal   `json:"percentage"`
	Classification string            `json:"classification"`
	Presets        []decimal.Decimal `json:"presets"`
}

// CouponResponse is a validated coupon as returned to the operator.
type CouponResponse struct {
	ID                 int64           `json:"id"`
	Code               string          `json:"code"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
}
