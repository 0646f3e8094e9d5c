package coupon

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/carlostcba/GustadosPOS-sub000/internal/database"
	"github.com/carlostcba/GustadosPOS-sub000/internal/entity"
)

var repoTracer = otel.Tracer("github.com/carlostcba/GustadosPOS-sub000/repository/coupon")

// ErrNotFound is returned when no coupon matches a code.
var ErrNotFound = errors.New("coupon not found")

// Repository encapsulates read access for coupons and their usage counts.
// Coupons are maintained out of band; this side only reads them and counts
// recorded usages.
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

// GetByCode fetches a coupon by its (case-insensitive) code.
func (r *Repository) GetByCode(ctx context.Context, code string) (*entity.Coupon, error) {
	ctx, span := repoTracer.Start(ctx, "CouponRepository.GetByCode",
		trace.WithAttributes(attribute.String("coupon.code", code)))
	defer span.End()

	coupon := new(entity.Coupon)
	err := r.reader.NewSelect().Model(coupon).
		Where("lower(code) = ?", strings.ToLower(strings.TrimSpace(code))).
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
	return coupon, nil
}

// CountUsages counts recorded usages of a coupon. Counted on the writer:
// enforcing a usage limit on replica lag would let limits be exceeded.
func (r *Repository) CountUsages(ctx context.Context, couponID int64) (int, error) {
	ctx, span := repoTracer.Start(ctx, "CouponRepository.CountUsages",
		trace.WithAttributes(attribute.Int64("coupon.id", couponID)))
	defer span.End()

	count, err := r.writer.NewSelect().Model((*entity.CouponUsage)(nil)).
		Where("coupon_id = ?", couponID).
		Count(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count failed")
		return 0, err
	}
	return count, nil
}
