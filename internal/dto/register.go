package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/carlostcba/GustadosPOS-sub000/internal/entity"
)

// RegisterResponse represents a cash register row over transport layers.
type RegisterResponse struct {
	ID               int64            `json:"id"`
	CashierID        int64            `json:"cashier_id"`
	OpeningAmount    decimal.Decimal  `json:"opening_amount"`
	CashSales        decimal.Decimal  `json:"cash_sales"`
	CardSales        decimal.Decimal  `json:"card_sales"`
	TransferSales    decimal.Decimal  `json:"transfer_sales"`
	DepositsReceived decimal.Decimal  `json:"deposits_received"`
	ExpensesTotal    decimal.Decimal  `json:"expenses_total"`
	ExpectedCash     decimal.Decimal  `json:"expected_cash"`
	StartedAt        time.Time        `json:"started_at"`
	ClosedAt         *time.Time       `json:"closed_at,omitempty"`
	ClosingAmount    *decimal.Decimal `json:"closing_amount,omitempty"`
}

// NewRegisterResponse maps a register entity onto its transport shape.
func NewRegisterResponse(reg *entity.CashRegister) RegisterResponse {
	return RegisterResponse{
		ID:               reg.ID,
		CashierID:        reg.CashierID,
		OpeningAmount:    reg.OpeningAmount,
		CashSales:        reg.CashSales,
		CardSales:        reg.CardSales,
		TransferSales:    reg.TransferSales,
		DepositsReceived: reg.DepositsReceived,
		ExpensesTotal:    reg.ExpensesTotal,
		ExpectedCash:     reg.ExpectedCash(),
		StartedAt:        reg.StartedAt,
		ClosedAt:         reg.ClosedAt,
		ClosingAmount:    reg.ClosingAmount,
	}
}

// CloseReviewResponse is the dry-run reconciliation shown before closing.
type CloseReviewResponse struct {
	RegisterID     int64           `json:"register_id"`
	ExpectedCash   decimal.Decimal `json:"expected_cash"`
	DeclaredAmount decimal.Decimal `json:"declared_amount"`
	Difference     decimal.Decimal `json:"difference"`
	Classification string          `json:"classification"`
}

// ExpenseResponse represents a recorded drawer expense.
type ExpenseResponse struct {
	ID          int64           `json:"id"`
	RegisterID  int64           `json:"register_id"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Party       string          `json:"party,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// NewExpenseResponse maps an expense entity onto its transport shape.
func NewExpenseResponse(exp *entity.RegisterExpense) ExpenseResponse {
	return ExpenseResponse{
		ID:          exp.ID,
		RegisterID:  exp.RegisterID,
		Amount:      exp.Amount,
		Type:        string(exp.Type),
		Description: exp.Description,
		Party:       exp.Party,
		CreatedAt:   exp.CreatedAt,
	}
}
