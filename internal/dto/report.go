package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReportLineResponse is one aggregated product line of a shift report.
type ReportLineResponse struct {
	ProductID       int64           `json:"product_id"`
	ProductName     string          `json:"product_name"`
	Weighable       bool            `json:"weighable"`
	UnitLabel       string          `json:"unit_label"`
	Quantity        decimal.Decimal `json:"quantity"`
	GrossTotal      decimal.Decimal `json:"gross_total"`
	DiscountedTotal decimal.Decimal `json:"discounted_total"`
}

// RegisterReportResponse is the reconstructed report for a closed shift.
type RegisterReportResponse struct {
	RegisterID     int64                `json:"register_id"`
	StartedAt      time.Time            `json:"started_at"`
	ClosedAt       time.Time            `json:"closed_at"`
	OpeningAmount  decimal.Decimal      `json:"opening_amount"`
	CashSales      decimal.Decimal      `json:"cash_sales"`
	CardSales      decimal.Decimal      `json:"card_sales"`
	TransferSales  decimal.Decimal      `json:"transfer_sales"`
	Deposits       decimal.Decimal      `json:"deposits_received"`
	ExpensesTotal  decimal.Decimal      `json:"expenses_total"`
	ExpectedCash   decimal.Decimal      `json:"expected_cash"`
	DeclaredAmount decimal.Decimal      `json:"declared_amount"`
	CashDifference decimal.Decimal      `json:"cash_difference"`
	Lines          []ReportLineResponse `json:"lines"`
}
