package register

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/carlostcba/GustadosPOS-sub000/internal/database"
	"github.com/carlostcba/GustadosPOS-sub000/internal/entity"
)

var repoTracer = otel.Tracer("github.com/carlostcba/GustadosPOS-sub000/repository/register")

// ErrNotFound is returned when a register is missing.
var ErrNotFound = errors.New("cash register not found")

// Repository encapsulates read/write access for cash registers and their
// expenses. Running totals are mutated exclusively through server-side
// increments so concurrent settlements never lose updates.
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

// Create persists a freshly opened register.
func (r *Repository) Create(ctx context.Context, reg *entity.CashRegister) error {
	if reg == nil {
		return errors.New("nil register")
	}
	ctx, span := repoTracer.Start(ctx, "RegisterRepository.Create",
		trace.WithAttributes(attribute.Int64("register.cashier_id", reg.CashierID)))
	defer span.End()

	_, err := r.writer.NewInsert().Model(reg).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// GetByID fetches a register by primary key.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.CashRegister, error) {
	ctx, span := repoTracer.Start(ctx, "RegisterRepository.GetByID",
		trace.WithAttributes(attribute.Int64("register.id", id)))
	defer span.End()

	reg := new(entity.CashRegister)
	err := r.reader.NewSelect().Model(reg).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return reg, nil
}

// OpenByCashier fetches the cashier's currently open register. Reads go to
// the writer: settlement decisions must not act on stale replica state.
func (r *Repository) OpenByCashier(ctx context.Context, cashierID int64) (*entity.CashRegister, error) {
	ctx, span := repoTracer.Start(ctx, "RegisterRepository.OpenByCashier",
		trace.WithAttributes(attribute.Int64("register.cashier_id", cashierID)))
	defer span.End()

	reg := new(entity.CashRegister)
	err := r.writer.NewSelect().Model(reg).
		Where("cashier_id = ?", cashierID).
		Where("closed_at IS NULL").
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return reg, nil
}

// ApplySale increments the tender's running total, and deposits_received
// when the payment is a deposit, via server-side addition. It accepts any
// bun.IDB so the settlement transaction can reuse it.
func ApplySale(ctx context.Context, db bun.IDB, registerID int64, method entity.PaymentMethod, amount decimal.Decimal, isDeposit bool) error {
	q := db.NewUpdate().Model((*entity.CashRegister)(nil)).
		Set(entity.SalesColumn(method)+" = "+entity.SalesColumn(method)+" + ?", amount).
		Where("id = ?", registerID).
		Where("closed_at IS NULL")
	if isDeposit {
		q = q.Set("deposits_received = deposits_received + ?", amount)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddSale applies a sale increment outside any wider transaction.
func (r *Repository) AddSale(ctx context.Context, registerID int64, method entity.PaymentMethod, amount decimal.Decimal, isDeposit bool) error {
	ctx, span := repoTracer.Start(ctx, "RegisterRepository.AddSale",
		trace.WithAttributes(attribute.Int64("register.id", registerID), attribute.String("method", string(method))))
	defer span.End()

	if err := ApplySale(ctx, r.writer, registerID, method, amount, isDeposit); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}
	return nil
}

// AddExpense inserts the expense row and bumps expenses_total in one
// transaction so the drawer baseline never drifts from its audit trail.
func (r *Repository) AddExpense(ctx context.Context, exp *entity.RegisterExpense) error {
	if exp == nil {
		return errors.New("nil expense")
	}
	ctx, span := repoTracer.Start(ctx, "RegisterRepository.AddExpense",
		trace.WithAttributes(attribute.Int64("register.id", exp.RegisterID)))
	defer span.End()

	err := r.writer.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(exp).Exec(ctx); err != nil {
			return err
		}
		res, err := tx.NewUpdate().Model((*entity.CashRegister)(nil)).
			Set("expenses_total = expenses_total + ?", exp.Amount).
			Where("id = ?", exp.RegisterID).
			Where("closed_at IS NULL").
			Exec(ctx)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "tx failed")
	}
	return err
}

// Close finalises the register with a check-and-set on closed_at. Returns
// false when the row was already closed by a concurrent confirm.
func (r *Repository) Close(ctx context.Context, registerID int64, closingAmount decimal.Decimal, closedAt time.Time) (bool, error) {
	ctx, span := repoTracer.Start(ctx, "RegisterRepository.Close",
		trace.WithAttributes(attribute.Int64("register.id", registerID)))
	defer span.End()

	res, err := r.writer.NewUpdate().Model((*entity.CashRegister)(nil)).
		Set("closing_amount = ?", closingAmount).
		Set("closed_at = ?", closedAt).
		Where("id = ?", registerID).
		Where("closed_at IS NULL").
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

// Expenses lists the expenses recorded against a register.
func (r *Repository) Expenses(ctx context.Context, registerID int64) ([]*entity.RegisterExpense, error) {
	ctx, span := repoTracer.Start(ctx, "RegisterRepository.Expenses",
		trace.WithAttributes(attribute.Int64("register.id", registerID)))
	defer span.End()

	var expenses []*entity.RegisterExpense
	err := r.reader.NewSelect().Model(&expenses).
		Where("register_id = ?", registerID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return expenses, nil
}
