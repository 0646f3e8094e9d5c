package order

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/carlostcba/GustadosPOS-sub000/internal/dto"
	"github.com/carlostcba/GustadosPOS-sub000/internal/entity"
	"github.com/carlostcba/GustadosPOS-sub000/internal/identity"
	"github.com/carlostcba/GustadosPOS-sub000/internal/presentation/http/response"
	orderrepo "github.com/carlostcba/GustadosPOS-sub000/internal/repository/order"
	service "github.com/carlostcba/GustadosPOS-sub000/internal/service/order"
	"github.com/carlostcba/GustadosPOS-sub000/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/carlostcba/GustadosPOS-sub000/transport/http/order")

// Handler exposes order endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs an order Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo group.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/orders")
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.getByID)
	g.POST("/:id/cancel", h.cancel)
}

type itemPayload struct {
	ProductID int64           `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type createPayload struct {
	Kind            string        `json:"kind"`
	CustomerName    string        `json:"customer_name"`
	CustomerContact string        `json:"customer_contact"`
	DeliveryDate    *time.Time    `json:"delivery_date"`
	Items           []itemPayload `json:"items"`
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var payload createPayload
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.Validation("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.create",
		trace.WithAttributes(attribute.String("order.kind", payload.Kind)))
	defer span.End()

	actor, err := identity.Require(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}

	in := service.CreateInput{
		Kind:            entity.OrderKind(payload.Kind),
		CustomerName:    payload.CustomerName,
		CustomerContact: payload.CustomerContact,
		DeliveryDate:    payload.DeliveryDate,
	}
	for _, item := range payload.Items {
		in.Items = append(in.Items, service.ItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	order, err := h.svc.Create(ctx, actor.UserID, in)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(dto.NewOrderResponse(order)).Build()
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.list")
	defer span.End()

	filter := orderrepo.ListFilter{
		Status: entity.OrderStatus(c.QueryParam("status")),
	}
	if raw := c.QueryParam("seller_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return b.WithError(errorbank.Validation("invalid seller_id", errorbank.WithCause(err))).Build()
		}
		filter.SellerID = id
	}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return b.WithError(errorbank.Validation("invalid limit", errorbank.WithCause(err))).Build()
		}
		filter.Limit = limit
	}

	orders, err := h.svc.List(ctx, filter)
	if err != nil {
		return b.WithError(err).Build()
	}

	out := make([]dto.OrderResponse, 0, len(orders))
	for _, order := range orders {
		out = append(out, dto.NewOrderResponse(order))
	}
	return b.WithData(out).WithMeta("count", len(out)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.Validation("invalid id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.getByID",
		trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewOrderResponse(order)).Build()
}

func (h *Handler) cancel(c echo.Context) error {
	b := response.New(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.Validation("invalid id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.cancel",
		trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	if _, err := identity.Require(ctx); err != nil {
		return b.WithError(err).Build()
	}

	order, err := h.svc.Cancel(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewOrderResponse(order)).Build()
}
