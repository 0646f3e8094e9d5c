package settlement

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/carlostcba/GustadosPOS-sub000/internal/deposit"
	"github.com/carlostcba/GustadosPOS-sub000/internal/dto"
	"github.com/carlostcba/GustadosPOS-sub000/internal/entity"
	"github.com/carlostcba/GustadosPOS-sub000/internal/identity"
	"github.com/carlostcba/GustadosPOS-sub000/internal/presentation/http/response"
	ordersvc "github.com/carlostcba/GustadosPOS-sub000/internal/service/order"
	service "github.com/carlostcba/GustadosPOS-sub000/internal/service/settlement"
	"github.com/carlostcba/GustadosPOS-sub000/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/carlostcba/GustadosPOS-sub000/transport/http/settlement")

// Handler exposes payment settlement over HTTP.
type Handler struct {
	svc    *service.Service
	orders *ordersvc.Service
}

// NewHandler constructs a settlement Handler.
func NewHandler(svc *service.Service, orders *ordersvc.Service) *Handler {
	return &Handler{svc: svc, orders: orders}
}

// Register routes with provided Echo group.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/payments")
	g.POST("", h.settle)
	g.GET("/deposit-plan", h.depositPlan)
}

type settlePayload struct {
	OrderID        int64            `json:"order_id"`
	Method         string           `json:"payment_method"`
	DepositAmount  *decimal.Decimal `json:"deposit_amount"`
	CouponCode     string           `json:"coupon_code"`
	IdempotencyKey string           `json:"idempotency_key"`
}

func (h *Handler) settle(c echo.Context) error {
	b := response.New(c)

	var payload settlePayload
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.Validation("invalid payload", errorbank.WithCause(err))).Build()
	}
	if payload.OrderID <= 0 {
		return b.WithError(errorbank.Validation("order_id is required")).Build()
	}
	method, ok := entity.ParsePaymentMethod(payload.Method)
	if !ok {
		return b.WithError(errorbank.Validation("unknown payment method",
			errorbank.WithDetail("payment_method", payload.Method))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "payments.settle",
		trace.WithAttributes(
			attribute.Int64("order.id", payload.OrderID),
			attribute.String("payment.method", string(method)),
		))
	defer span.End()

	actor, err := identity.RequireRole(ctx, identity.RoleCashier, identity.RoleManager)
	if err != nil {
		return b.WithError(err).Build()
	}

	result, err := h.svc.Settle(ctx, actor.UserID, service.Input{
		OrderID:        payload.OrderID,
		Method:         method,
		DepositAmount:  payload.DepositAmount,
		CouponCode:     payload.CouponCode,
		IdempotencyKey: payload.IdempotencyKey,
	})
	if err != nil {
		return b.WithError(err).Build()
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	return b.WithStatus(status).WithData(dto.SettlementResponse{
		Payment:        dto.NewPaymentResponse(result.Payment),
		Order:          dto.NewOrderResponse(result.Order),
		BaseAmount:     result.BaseAmount,
		DiscountAmount: result.DiscountAmount,
		FinalAmount:    result.FinalAmount,
		Replayed:       result.Replayed,
	}).Build()
}

// depositPlan previews the deposit split for a pre-order before any money
// changes hands. With no amount it reports the minimum and the presets.
func (h *Handler) depositPlan(c echo.Context) error {
	b := response.New(c)

	orderID, err := strconv.ParseInt(c.QueryParam("order_id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.Validation("invalid order_id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "payments.depositPlan",
		trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	order, err := h.orders.Get(ctx, orderID)
	if err != nil {
		return b.WithError(err).Build()
	}
	if !order.IsPreorder {
		return b.WithError(errorbank.BusinessRule("deposits apply to pre-orders only")).Build()
	}

	resp := dto.DepositPlanResponse{
		Total:   order.TotalAmount,
		Minimum: deposit.Minimum(order.TotalAmount),
		Presets: deposit.Presets(order.TotalAmount),
	}
	if raw := c.QueryParam("amount"); raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return b.WithError(errorbank.Validation("invalid amount", errorbank.WithCause(err))).Build()
		}
		plan, err := deposit.Build(order.TotalAmount, amount)
		if err != nil {
			return b.WithError(err).Build()
		}
		resp.Deposit = plan.Deposit
		resp.Remaining = plan.Remaining
		resp.Percentage = plan.Percentage
		resp.Classification = string(plan.Classification)
	}

	return b.WithData(resp).Build()
}
