// Package report reconstructs what was sold during a register shift from
// order lines, since registers only keep running totals per tender.
package report

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/carlostcba/GustadosPOS-sub000/internal/entity"
	"github.com/carlostcba/GustadosPOS-sub000/internal/money"
	registerrepo "github.com/carlostcba/GustadosPOS-sub000/internal/repository/register"
	repo "github.com/carlostcba/GustadosPOS-sub000/internal/repository/report"
	"github.com/carlostcba/GustadosPOS-sub000/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/carlostcba/GustadosPOS-sub000/service/report")

// Line is one aggregated product across the shift, independent of which
// orders it appeared on.
type Line struct {
	ProductID       int64
	ProductName     string
	Weighable       bool
	UnitLabel       string
	Quantity        decimal.Decimal
	GrossTotal      decimal.Decimal
	DiscountedTotal decimal.Decimal
}

// Report is the reconstructed shift summary for one register.
type Report struct {
	Register     *entity.CashRegister
	ExpectedCash decimal.Decimal
	// Difference is declared minus expected; zero while the register is
	// still open.
	Difference decimal.Decimal
	Lines      []Line
}

// ItemSource yields order lines for a time window under the three
// attribution policies, most precise first.
type ItemSource interface {
	ItemsByLineWindow(ctx context.Context, from, to time.Time) ([]repo.ItemRow, error)
	ItemsByPaidOrders(ctx context.Context, from, to time.Time) ([]repo.ItemRow, error)
	ItemsByOrderWindow(ctx context.Context, from, to time.Time) ([]repo.ItemRow, error)
}

// RegisterSource resolves the register whose shift is being reported.
type RegisterSource interface {
	GetByID(ctx context.Context, id int64) (*entity.CashRegister, error)
}

// Service aggregates shift reports.
type Service struct {
	items     ItemSource
	registers RegisterSource
	logger    *zap.Logger
	now       func() time.Time
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Items     *repo.Repository
	Registers *registerrepo.Repository
	Logger    *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return New(p.Items, p.Registers, p.Logger)
}

// New builds the aggregator around any sources.
func New(items ItemSource, registers RegisterSource, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{items: items, registers: registers, logger: logger, now: time.Now}
}

// WithClock overrides the clock; open-register reports use it for the
// window's upper bound.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// ForRegister reconstructs the report for a register's shift. The search
// term filters lines by product name; empty matches everything. A shift
// with no attributable lines yields an empty report, never an error.
func (s *Service) ForRegister(ctx context.Context, registerID int64, search string) (*Report, error) {
	ctx, span := serviceTracer.Start(ctx, "ReportService.ForRegister",
		trace.WithAttributes(attribute.Int64("register.id", registerID)))
	defer span.End()

	register, err := s.registers.GetByID(ctx, registerID)
	if err != nil {
		if errors.Is(err, registerrepo.ErrNotFound) {
			return nil, errorbank.NotFound("cash register not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Transient("could not load the register", errorbank.WithCause(err))
	}

	from := register.StartedAt
	to := s.now().UTC()
	if register.ClosedAt != nil {
		to = *register.ClosedAt
	}

	rows, err := s.collect(ctx, from, to)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Transient("could not load shift items", errorbank.WithCause(err))
	}

	report := &Report{
		Register:     register,
		ExpectedCash: register.ExpectedCash(),
		Lines:        aggregate(rows, search),
	}
	if register.ClosedAt != nil && register.ClosingAmount != nil {
		report.Difference = money.Round2(register.ClosingAmount.Sub(report.ExpectedCash))
	}
	return report, nil
}

// collect tries the attribution policies in order and keeps the first
// one that yields anything.
func (s *Service) collect(ctx context.Context, from, to time.Time) ([]repo.ItemRow, error) {
	rows, err := s.items.ItemsByLineWindow(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		return rows, nil
	}

	rows, err = s.items.ItemsByPaidOrders(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		s.logger.Debug("shift report fell back to paid-order attribution")
		return rows, nil
	}

	rows, err = s.items.ItemsByOrderWindow(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		s.logger.Debug("shift report fell back to order-window attribution")
	}
	return rows, nil
}

// aggregate folds rows per product, applying each order's settlement
// discount ratio to its lines.
func aggregate(rows []repo.ItemRow, search string) []Line {
	search = strings.ToLower(strings.TrimSpace(search))

	byProduct := make(map[int64]*Line)
	for _, row := range rows {
		if search != "" && !strings.Contains(strings.ToLower(row.ProductName), search) {
			continue
		}

		gross := money.Round2(row.Quantity.Mul(row.UnitPrice))
		discounted := money.Round2(gross.Mul(discountRatio(row)))

		line, ok := byProduct[row.ProductID]
		if !ok {
			line = &Line{
				ProductID:   row.ProductID,
				ProductName: row.ProductName,
				Weighable:   row.Weighable,
				UnitLabel:   row.UnitLabel,
			}
			byProduct[row.ProductID] = line
		}
		line.Quantity = line.Quantity.Add(row.Quantity)
		line.GrossTotal = line.GrossTotal.Add(gross)
		line.DiscountedTotal = line.DiscountedTotal.Add(discounted)
	}

	lines := make([]Line, 0, len(byProduct))
	for _, line := range byProduct {
		lines = append(lines, *line)
	}
	sort.Slice(lines, func(i, j int) bool {
		return lines[i].ProductName < lines[j].ProductName
	})
	return lines
}

func discountRatio(row repo.ItemRow) decimal.Decimal {
	order := entity.Order{
		TotalAmount:       row.TotalAmount,
		DiscountTotal:     row.DiscountTotal,
		TotalWithDiscount: row.TotalWithDiscount,
	}
	return order.DiscountRatio()
}
