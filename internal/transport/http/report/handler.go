package report

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/carlostcba/GustadosPOS-sub000/internal/dto"
	"github.com/carlostcba/GustadosPOS-sub000/internal/identity"
	"github.com/carlostcba/GustadosPOS-sub000/internal/presentation/http/response"
	service "github.com/carlostcba/GustadosPOS-sub000/internal/service/report"
	"github.com/carlostcba/GustadosPOS-sub000/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/carlostcba/GustadosPOS-sub000/transport/http/report")

// Handler exposes shift reports over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a report Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo group.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/reports")
	g.GET("/registers/:id", h.forRegister)
}

func (h *Handler) forRegister(c echo.Context) error {
	b := response.New(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.Validation("invalid id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "reports.forRegister",
		trace.WithAttributes(attribute.Int64("register.id", id)))
	defer span.End()

	if _, err := identity.RequireRole(ctx, identity.RoleCashier, identity.RoleManager); err != nil {
		return b.WithError(err).Build()
	}

	report, err := h.svc.ForRegister(ctx, id, c.QueryParam("search"))
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(toDTO(report)).Build()
}

func toDTO(report *service.Report) dto.RegisterReportResponse {
	reg := report.Register
	resp := dto.RegisterReportResponse{
		RegisterID:     reg.ID,
		StartedAt:      reg.StartedAt,
		OpeningAmount:  reg.OpeningAmount,
		CashSales:      reg.CashSales,
		CardSales:      reg.CardSales,
		TransferSales:  reg.TransferSales,
		Deposits:       reg.DepositsReceived,
		ExpensesTotal:  reg.ExpensesTotal,
		ExpectedCash:   report.ExpectedCash,
		CashDifference: report.Difference,
	}
	if reg.ClosedAt != nil {
		resp.ClosedAt = *reg.ClosedAt
	}
	if reg.ClosingAmount != nil {
		resp.DeclaredAmount = *reg.ClosingAmount
	}
	for _, line := range report.Lines {
		resp.Lines = append(resp.Lines, dto.ReportLineResponse{
			ProductID:       line.ProductID,
			ProductName:     line.ProductName,
			Weighable:       line.Weighable,
			UnitLabel:       line.UnitLabel,
			Quantity:        line.Quantity,
			GrossTotal:      line.GrossTotal,
			DiscountedTotal: line.DiscountedTotal,
		})
	}
	return resp
}
