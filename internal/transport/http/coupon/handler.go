package coupon

import (
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/carlostcba/GustadosPOS-sub000/internal/dto"
	"github.com/carlostcba/GustadosPOS-sub000/internal/entity"
	"github.com/carlostcba/GustadosPOS-sub000/internal/presentation/http/response"
	service "github.com/carlostcba/GustadosPOS-sub000/internal/service/coupon"
	"github.com/carlostcba/GustadosPOS-sub000/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/carlostcba/GustadosPOS-sub000/transport/http/coupon")

// Handler exposes coupon validation over HTTP so the counter can check a
// code before committing the settlement.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a coupon Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo group.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/coupons")
	g.GET("/validate", h.validate)
}

func (h *Handler) validate(c echo.Context) error {
	b := response.New(c)

	code := c.QueryParam("code")
	method, ok := entity.ParsePaymentMethod(c.QueryParam("payment_method"))
	if !ok {
		return b.WithError(errorbank.Validation("unknown payment method",
			errorbank.WithDetail("payment_method", c.QueryParam("payment_method")))).Build()
	}
	total, err := decimal.NewFromString(c.QueryParam("order_total"))
	if err != nil {
		return b.WithError(errorbank.Validation("invalid order_total", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "coupons.validate",
		trace.WithAttributes(attribute.String("coupon.code", code)))
	defer span.End()

	coupon, err := h.svc.Validate(ctx, code, total, method)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.CouponResponse{
		ID:                 coupon.ID,
		Code:               coupon.Code,
		DiscountPercentage: coupon.DiscountPercentage,
	}).Build()
}
