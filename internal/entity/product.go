package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Product carries the catalog metadata register reports need: the
// weighable flag and unit label drive quantity formatting.
type Product struct {
	bun.BaseModel `bun:"table:products,alias:pr"`

	ID        int64           `bun:",pk,autoincrement"`
	Name      string          `bun:"name"`
	Price     decimal.Decimal `bun:"price,type:decimal(12,2)"`
	Weighable bool            `bun:"weighable"`
	UnitLabel string          `bun:"unit_label"`
	CreatedAt time.Time       `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
}
