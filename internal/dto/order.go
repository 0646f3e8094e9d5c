package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/carlostcba/GustadosPOS-sub000/internal/entity"
)

// OrderResponse represents an order as exposed via transport layers.
type OrderResponse struct {
	ID                 int64               `json:"id"`
	Number             string              `json:"number"`
	Kind               string              `json:"kind"`
	CustomerName       string              `json:"customer_name"`
	CustomerContact    string              `json:"customer_contact,omitempty"`
	SellerID           int64               `json:"seller_id"`
	IsPreorder         bool                `json:"is_preorder"`
	DeliveryDate       *time.Time          `json:"delivery_date,omitempty"`
	Status             string              `json:"status"`
	TotalAmount        decimal.Decimal     `json:"total_amount"`
	DepositAmount      decimal.Decimal     `json:"deposit_amount"`
	RemainingAmount    decimal.Decimal     `json:"remaining_amount"`
	PaymentMethod      string              `json:"payment_method,omitempty"`
	DiscountPercentage decimal.Decimal     `json:"discount_percentage"`
	DiscountTotal      decimal.Decimal     `json:"discount_total"`
	TotalWithDiscount  decimal.Decimal     `json:"total_amount_with_discount"`
	LastPaymentAt      *time.Time          `json:"last_payment_at,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
	Items              []OrderItemResponse `json:"items,omitempty"`
}

// OrderItemResponse is one sold line of an order.
type OrderItemResponse struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// NewOrderResponse maps an order entity onto its transport shape.
func NewOrderResponse(order *entity.Order) OrderResponse {
	resp := OrderResponse{
		ID:                 order.ID,
		Number:             order.Number,
		Kind:               string(order.Kind),
		CustomerName:       order.CustomerName,
		CustomerContact:    order.CustomerContact,
		SellerID:           order.SellerID,
		IsPreorder:         order.IsPreorder,
		DeliveryDate:       order.DeliveryDate,
		Status:             string(order.Status),
		TotalAmount:        order.TotalAmount,
		DepositAmount:      order.DepositAmount,
		RemainingAmount:    order.RemainingAmount,
		PaymentMethod:      order.PaymentMethod,
		DiscountPercentage: order.DiscountPercentage,
		DiscountTotal:      order.DiscountTotal,
		TotalWithDiscount:  order.TotalWithDiscount,
		LastPaymentAt:      order.LastPaymentAt,
		CreatedAt:          order.CreatedAt,
		UpdatedAt:          order.UpdatedAt,
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return resp
}
