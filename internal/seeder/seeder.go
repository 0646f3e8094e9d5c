package seeder

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/carlostcba/GustadosPOS-sub000/internal/database"
	"github.com/carlostcba/GustadosPOS-sub000/internal/entity"
)

// Seeder performs database seeding for local/dev setups.
type Seeder struct {
	db     *bun.DB
	logger *zap.Logger
}

// New constructs a Seeder backed by the primary database connection.
func New(conns *database.Connections, logger *zap.Logger) *Seeder {
	return &Seeder{db: conns.Writer, logger: logger}
}

// Products seeds a small catalog if it is missing.
func (s *Seeder) Products(ctx context.Context) error {
	now := time.Now().UTC()
	samples := []entity.Product{
		{Name: "Sourdough loaf", Price: decimal.NewFromFloat(5.50), UnitLabel: "unit", CreatedAt: now},
		{Name: "Croissant", Price: decimal.NewFromFloat(2.25), UnitLabel: "unit", CreatedAt: now},
		{Name: "Ham", Price: decimal.NewFromFloat(18.90), Weighable: true, UnitLabel: "kg", CreatedAt: now},
		{Name: "Aged cheese", Price: decimal.NewFromFloat(24.00), Weighable: true, UnitLabel: "kg", CreatedAt: now},
		{Name: "Birthday cake", Price: decimal.NewFromFloat(42.00), UnitLabel: "unit", CreatedAt: now},
	}

	for _, sample := range samples {
		product := sample
		_, err := s.db.NewInsert().Model(&product).
			On("CONFLICT (name) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
	}

	if s.logger != nil {
		s.logger.Info("seeded products", zap.Int("count", len(samples)))
	}
	return nil
}

// Coupons seeds sample discount codes if they are missing.
func (s *Seeder) Coupons(ctx context.Context) error {
	now := time.Now().UTC()
	until := now.AddDate(1, 0, 0)
	samples := []entity.Coupon{
		{
			Code:               "WELCOME10",
			DiscountPercentage: decimal.NewFromInt(10),
			IsActive:           true,
			CreatedAt:          now,
		},
		{
			Code:               "BIGORDER15",
			DiscountPercentage: decimal.NewFromInt(15),
			MinOrderAmount:     decimal.NewFromInt(100),
			IsActive:           true,
			CreatedAt:          now,
		},
		{
			Code:               "ANNIVERSARY25",
			DiscountPercentage: decimal.NewFromInt(25),
			UsageLimit:         50,
			ValidFrom:          &now,
			ValidUntil:         &until,
			IsActive:           true,
			CreatedAt:          now,
		},
	}

	for _, sample := range samples {
		coupon := sample
		_, err := s.db.NewInsert().Model(&coupon).
			On("CONFLICT (code) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
	}

	if s.logger != nil {
		s.logger.Info("seeded coupons", zap.Int("count", len(samples)))
	}
	return nil
}

// All runs every seed step in order.
func (s *Seeder) All(ctx context.Context) error {
	if err := s.Products(ctx); err != nil {
		return err
	}
	return s.Coupons(ctx)
}
