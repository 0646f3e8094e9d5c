package settlement

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/carlostcba/GustadosPOS-sub000/internal/database"
	"github.com/carlostcba/GustadosPOS-sub000/internal/entity"
	registerrepo "github.com/carlostcba/GustadosPOS-sub000/internal/repository/register"
)

var repoTracer = otel.Tracer("github.com/carlostcba/GustadosPOS-sub000/repository/settlement")

// ErrOrderConflict is returned when the order moved to another status
// between the settlement computation and the commit.
var ErrOrderConflict = errors.New("order changed concurrently")

// Commit bundles every write of one settlement so they land atomically:
// the order mutation, the payment audit record, the optional coupon usage,
// and the register counter increments.
type Commit struct {
	Order          *entity.Order
	PreviousStatus entity.OrderStatus
	Payment        *entity.Payment
	Usage          *entity.CouponUsage
	IsDeposit      bool
}

// Repository persists settlements as single transactions.
type Repository struct {
	writer *bun.DB
}

// NewRepository wires a repository backed by the write connection.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{writer: conns.Writer}
}

// FindByIdempotencyKey returns the payment recorded for a prior attempt
// with the same key, if any.
func (r *Repository) FindByIdempotencyKey(ctx context.Context, key string) (*entity.Payment, error) {
	ctx, span := repoTracer.Start(ctx, "SettlementRepository.FindByIdempotencyKey")
	defer span.End()

	payment := new(entity.Payment)
	err := r.writer.NewSelect().Model(payment).
		Where("idempotency_key = ?", key).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return payment, nil
}

// PriorCashPaid sums the cash side of payments already recorded for an
// order; the discount-eligibility rule for remaining balances needs it.
func (r *Repository) PriorCashPaid(ctx context.Context, orderID int64) (decimal.Decimal, error) {
	ctx, span := repoTracer.Start(ctx, "SettlementRepository.PriorCashPaid",
		trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	var total decimal.Decimal
	err := r.writer.NewSelect().Model((*entity.Payment)(nil)).
		ColumnExpr("COALESCE(SUM(pay_cash), 0)").
		Where("order_id = ?", orderID).
		Scan(ctx, &total)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return decimal.Zero, err
	}
	return total, nil
}

// Apply runs the whole settlement in one transaction. The order update is
// check-and-set on the previous status; losing that race aborts everything
// with ErrOrderConflict and no partial state remains.
func (r *Repository) Apply(ctx context.Context, commit *Commit) error {
	if commit == nil || commit.Order == nil || commit.Payment == nil {
		return errors.New("incomplete settlement commit")
	}
	ctx, span := repoTracer.Start(ctx, "SettlementRepository.Apply",
		trace.WithAttributes(
			attribute.Int64("order.id", commit.Order.ID),
			attribute.Int64("register.id", commit.Payment.RegisterID),
		))
	defer span.End()

	err := r.writer.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		order := commit.Order
		res, err := tx.NewUpdate().Model(order).
			Column("status", "deposit_amount", "remaining_amount", "payment_method",
				"discount_percentage", "discount_total", "total_amount_with_discount",
				"last_payment_at", "updated_at").
			WherePK().
			Where("status = ?", commit.PreviousStatus).
			Exec(ctx)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrOrderConflict
		}

		if _, err := tx.NewInsert().Model(commit.Payment).Exec(ctx); err != nil {
			return err
		}

		if commit.Usage != nil {
			commit.Usage.OrderID = order.ID
			commit.Usage.PaymentID = commit.Payment.ID
			if _, err := tx.NewInsert().Model(commit.Usage).Exec(ctx); err != nil {
				return err
			}
		}

		return registerrepo.ApplySale(ctx, tx,
			commit.Payment.RegisterID, commit.Payment.Method, commit.Payment.Amount, commit.IsDeposit)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "tx failed")
	}
	return err
}
