package register

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"

	"github.com/carlostcba/GustadosPOS-sub000/internal/dto"
	"github.com/carlostcba/GustadosPOS-sub000/internal/entity"
	"github.com/carlostcba/GustadosPOS-sub000/internal/identity"
	"github.com/carlostcba/GustadosPOS-sub000/internal/presentation/http/response"
	service "github.com/carlostcba/GustadosPOS-sub000/internal/service/register"
	"github.com/carlostcba/GustadosPOS-sub000/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/carlostcba/GustadosPOS-sub000/transport/http/register")

// Handler exposes the cash-register lifecycle over HTTP. Every route acts
// on the authenticated cashier's own register.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a register Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo group.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/register")
	g.POST("/open", h.open)
	g.GET("/current", h.current)
	g.POST("/expenses", h.recordExpense)
	g.POST("/close/review", h.reviewClose)
	g.POST("/close/confirm", h.confirmClose)
	g.POST("/close/cancel", h.cancelClose)
}

func (h *Handler) open(c echo.Context) error {
	b := response.New(c)

	var payload struct {
		OpeningAmount decimal.Decimal `json:"opening_amount"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.Validation("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "register.open")
	defer span.End()

	actor, err := identity.RequireRole(ctx, identity.RoleCashier, identity.RoleManager)
	if err != nil {
		return b.WithError(err).Build()
	}

	reg, err := h.svc.Open(ctx, actor.UserID, payload.OpeningAmount)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(dto.NewRegisterResponse(reg)).Build()
}

func (h *Handler) current(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "register.current")
	defer span.End()

	actor, err := identity.Require(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}

	reg, err := h.svc.Current(ctx, actor.UserID)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewRegisterResponse(reg)).Build()
}

func (h *Handler) recordExpense(c echo.Context) error {
	b := response.New(c)

	var payload struct {
		Amount      decimal.Decimal `json:"amount"`
		Type        string          `json:"type"`
		Description string          `json:"description"`
		Party       string          `json:"party"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.Validation("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "register.recordExpense")
	defer span.End()

	actor, err := identity.RequireRole(ctx, identity.RoleCashier, identity.RoleManager)
	if err != nil {
		return b.WithError(err).Build()
	}

	expense, err := h.svc.RecordExpense(ctx, actor.UserID,
		payload.Amount, entity.ExpenseType(payload.Type), payload.Description, payload.Party)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(dto.NewExpenseResponse(expense)).Build()
}

func (h *Handler) reviewClose(c echo.Context) error {
	b := response.New(c)

	var payload struct {
		DeclaredAmount decimal.Decimal `json:"declared_amount"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.Validation("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "register.reviewClose")
	defer span.End()

	actor, err := identity.RequireRole(ctx, identity.RoleCashier, identity.RoleManager)
	if err != nil {
		return b.WithError(err).Build()
	}

	review, err := h.svc.RequestClose(ctx, actor.UserID, payload.DeclaredAmount)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.CloseReviewResponse{
		RegisterID:     review.RegisterID,
		ExpectedCash:   review.ExpectedCash,
		DeclaredAmount: review.DeclaredAmount,
		Difference:     review.Difference,
		Classification: review.Classification,
	}).Build()
}

func (h *Handler) confirmClose(c echo.Context) error {
	b := response.New(c)

	var payload struct {
		DeclaredAmount decimal.Decimal `json:"declared_amount"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.Validation("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "register.confirmClose")
	defer span.End()

	actor, err := identity.RequireRole(ctx, identity.RoleCashier, identity.RoleManager)
	if err != nil {
		return b.WithError(err).Build()
	}

	reg, err := h.svc.ConfirmClose(ctx, actor.UserID, payload.DeclaredAmount)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewRegisterResponse(reg)).Build()
}

func (h *Handler) cancelClose(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "register.cancelClose")
	defer span.End()

	actor, err := identity.Require(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}

	h.svc.CancelClose(actor.UserID)
	return b.Build()
}
