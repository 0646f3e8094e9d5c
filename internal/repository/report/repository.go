package report

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/carlostcba/GustadosPOS-sub000/internal/database"
	"github.com/carlostcba/GustadosPOS-sub000/internal/entity"
)

var repoTracer = otel.Tracer("github.com/carlostcba/GustadosPOS-sub000/repository/report")

// ItemRow is the typed join of an order line with its order's discount
// summary and the product metadata needed for display.
type ItemRow struct {
	OrderID           int64           `bun:"order_id"`
	OrderStatus       string          `bun:"order_status"`
	TotalAmount       decimal.Decimal `bun:"total_amount"`
	DiscountTotal     decimal.Decimal `bun:"discount_total"`
	TotalWithDiscount decimal.Decimal `bun:"total_amount_with_discount"`
	ProductID         int64           `bun:"product_id"`
	ProductName       string          `bun:"product_name"`
	Weighable         bool            `bun:"weighable"`
	UnitLabel         string          `bun:"unit_label"`
	Quantity          decimal.Decimal `bun:"quantity"`
	UnitPrice         decimal.Decimal `bun:"unit_price"`
}

// Repository reconstructs shift line items. Read-only.
type Repository struct {
	reader *bun.DB
}

// NewRepository wires a repository backed by the read connection.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{reader: conns.Reader}
}

func (r *Repository) baseQuery() *bun.SelectQuery {
	return r.reader.NewSelect().
		Model((*entity.OrderItem)(nil)).
		ColumnExpr("oi.order_id AS order_id").
		ColumnExpr("o.status AS order_status").
		ColumnExpr("o.total_amount AS total_amount").
		ColumnExpr("o.discount_total AS discount_total").
		ColumnExpr("o.total_amount_with_discount AS total_amount_with_discount").
		ColumnExpr("oi.product_id AS product_id").
		ColumnExpr("pr.name AS product_name").
		ColumnExpr("pr.weighable AS weighable").
		ColumnExpr("pr.unit_label AS unit_label").
		ColumnExpr("oi.quantity AS quantity").
		ColumnExpr("oi.unit_price AS unit_price").
		Join("JOIN orders AS o ON o.id = oi.order_id").
		Join("JOIN products AS pr ON pr.id = oi.product_id")
}

// ItemsByLineWindow matches line items whose creation timestamp falls
// inside the shift window. Primary attribution policy.
func (r *Repository) ItemsByLineWindow(ctx context.Context, from, to time.Time) ([]ItemRow, error) {
	ctx, span := repoTracer.Start(ctx, "ReportRepository.ItemsByLineWindow")
	defer span.End()

	var rows []ItemRow
	err := r.baseQuery().
		Where("oi.created_at >= ?", from).
		Where("oi.created_at <= ?", to).
		Scan(ctx, &rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return rows, nil
}

// ItemsByPaidOrders matches line items of orders fully paid inside the
// window. First fallback policy.
func (r *Repository) ItemsByPaidOrders(ctx context.Context, from, to time.Time) ([]ItemRow, error) {
	ctx, span := repoTracer.Start(ctx, "ReportRepository.ItemsByPaidOrders")
	defer span.End()

	var rows []ItemRow
	err := r.baseQuery().
		Where("o.status = ?", entity.OrderStatusPaid).
		Where("o.last_payment_at >= ?", from).
		Where("o.last_payment_at <= ?", to).
		Scan(ctx, &rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return rows, nil
}

// ItemsByOrderWindow matches line items of any order created inside the
// window regardless of status. Last-resort fallback policy.
func (r *Repository) ItemsByOrderWindow(ctx context.Context, from, to time.Time) ([]ItemRow, error) {
	ctx, span := repoTracer.Start(ctx, "ReportRepository.ItemsByOrderWindow")
	defer span.End()

	var rows []ItemRow
	err := r.baseQuery().
		Where("o.created_at >= ?", from).
		Where("o.created_at <= ?", to).
		Scan(ctx, &rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return rows, nil
}
