package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// CashRegister is the per-shift drawer aggregate. At most one row per
// cashier may have closed_at NULL. Running totals are only ever mutated by
// server-side increments; once closed the row is append-only history.
type CashRegister struct {
	bun.BaseModel `bun:"table:cash_registers,alias:cr"`

	ID        int64 `bun:",pk,autoincrement"`
	CashierID int64 `bun:"cashier_id"`

	OpeningAmount    decimal.Decimal `bun:"opening_amount,type:decimal(12,2)"`
	CashSales        decimal.Decimal `bun:"cash_sales,type:decimal(12,2)"`
	CardSales        decimal.Decimal `bun:"card_sales,type:decimal(12,2)"`
	TransferSales    decimal.Decimal `bun:"transfer_sales,type:decimal(12,2)"`
	DepositsReceived decimal.Decimal `bun:"deposits_received,type:decimal(12,2)"`
	ExpensesTotal    decimal.Decimal `bun:"expenses_total,type:decimal(12,2)"`

	StartedAt     time.Time        `bun:"started_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	ClosedAt      *time.Time       `bun:"closed_at,nullzero"`
	ClosingAmount *decimal.Decimal `bun:"closing_amount,type:decimal(12,2),nullzero"`
}

// Open reports whether the shift is still in progress.
func (r *CashRegister) Open() bool {
	return r != nil && r.ClosedAt == nil
}

// ExpectedCash is the reconciliation baseline: opening amount plus cash
// sales minus expenses. Card and transfer sales never touch the drawer.
// Deposit cash is already inside CashSales; DepositsReceived is an
// informational sub-total, not an independent pool.
func (r *CashRegister) ExpectedCash() decimal.Decimal {
	return r.OpeningAmount.Add(r.CashSales).Sub(r.ExpensesTotal)
}

// SalesColumn resolves the running-total column incremented for a tender.
func SalesColumn(method PaymentMethod) string {
	switch method {
	case MethodCard:
		return "card_sales"
	case MethodTransfer:
		return "transfer_sales"
	default:
		return "cash_sales"
	}
}

// ExpenseType classifies drawer outflows recorded during a shift.
type ExpenseType string

const (
	ExpenseSupplierPayment ExpenseType = "supplier_payment"
	ExpenseEmployeeAdvance ExpenseType = "employee_advance"
)

// Valid reports whether the expense type is a known classification.
func (t ExpenseType) Valid() bool {
	return t == ExpenseSupplierPayment || t == ExpenseEmployeeAdvance
}

// RegisterExpense is an immutable drawer outflow owned by a register; it
// reduces the drawer's expected cash.
type RegisterExpense struct {
	bun.BaseModel `bun:"table:cash_register_expenses,alias:ce"`

	ID          int64           `bun:",pk,autoincrement"`
	RegisterID  int64           `bun:"register_id"`
	Amount      decimal.Decimal `bun:"amount,type:decimal(12,2)"`
	Type        ExpenseType     `bun:"type"`
	Description string          `bun:"description"`
	Party       string          `bun:"party"`
	CreatedAt   time.Time       `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
}
