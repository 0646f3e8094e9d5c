package order

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/carlostcba/GustadosPOS-sub000/internal/database"
	"github.com/carlostcba/GustadosPOS-sub000/internal/entity"
)

var repoTracer = otel.Tracer("github.com/carlostcba/GustadosPOS-sub000/repository/order")

// ErrNotFound is returned when an order is missing.
var ErrNotFound = errors.New("order not found")

// ListFilter narrows the order feed.
type ListFilter struct {
	Status   entity.OrderStatus
	SellerID int64
	Limit    int
}

// Repository encapsulates read/write access for orders and their items.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// Create persists a new order with its items and assigns the type-prefixed
// sequence number derived from the generated id, all in one transaction.
func (r *Repository) Create(ctx context.Context, order *entity.Order) error {
	if order == nil {
		return errors.New("nil order")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Create",
		trace.WithAttributes(attribute.String("order.kind", string(order.Kind))))
	defer span.End()

	err := r.writer.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(order).Exec(ctx); err != nil {
			return err
		}

		order.Number = entity.FormatNumber(order.Kind, order.ID)
		if _, err := tx.NewUpdate().Model(order).
			Column("number").
			WherePK().
			Exec(ctx); err != nil {
			return err
		}

		for _, item := range order.Items {
			item.OrderID = order.ID
		}
		if len(order.Items) > 0 {
			if _, err := tx.NewInsert().Model(&order.Items).Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// GetByID fetches an order with items. Reads go to the writer because
// settlement decisions must see the latest balance split.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetByID",
		trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order := new(entity.Order)
	err := r.writer.NewSelect().Model(order).
		Relation("Items").
		Where("o.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return order, nil
}

// List returns the order feed, newest first, honoring the filter.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.List")
	defer span.End()

	var orders []*entity.Order
	q := r.reader.NewSelect().Model(&orders).Order("created_at DESC")
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.SellerID > 0 {
		q = q.Where("seller_id = ?", filter.SellerID)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	if err := q.Limit(limit).Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return orders, nil
}

// UpdateStatus moves an order to a new status when it is still in the
// expected one; reports whether the transition happened.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, from, to entity.OrderStatus) (bool, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.UpdateStatus",
		trace.WithAttributes(attribute.Int64("order.id", id), attribute.String("order.status", string(to))))
	defer span.End()

	res, err := r.writer.NewUpdate().Model((*entity.Order)(nil)).
		Set("status = ?", to).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("id = ?", id).
		Where("status = ?", from).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
