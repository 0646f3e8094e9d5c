package coupon

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/carlostcba/GustadosPOS-sub000/internal/cache"
	"github.com/carlostcba/GustadosPOS-sub000/internal/config"
	"github.com/carlostcba/GustadosPOS-sub000/internal/entity"
	repo "github.com/carlostcba/GustadosPOS-sub000/internal/repository/coupon"
	"github.com/carlostcba/GustadosPOS-sub000/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/carlostcba/GustadosPOS-sub000/service/coupon")

// Rejection reasons carried in the error details so the UI can react to
// specific failures (clearing an applied discount, showing the minimum).
const (
	ReasonNotCashPayment    = "not_cash_payment"
	ReasonEmptyCode         = "empty_code"
	ReasonNotFound          = "not_found"
	ReasonInactive          = "inactive"
	ReasonBelowMinimumOrder = "below_minimum_order"
	ReasonUsageLimitReached = "usage_limit_reached"
	ReasonNotYetValid       = "not_yet_valid"
	ReasonExpired           = "expired"
)

// Store is the lookup surface the validator consumes.
type Store interface {
	GetByCode(ctx context.Context, code string) (*entity.Coupon, error)
	CountUsages(ctx context.Context, couponID int64) (int, error)
}

// Service validates discount codes against the business rules. Discounts
// are cash-only by policy; the caller decides what "cash" means for the
// settlement at hand (prior cash payments can extend eligibility).
type Service struct {
	store    Store
	cache    cache.Store
	cacheTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Store  *repo.Repository
	Cache  cache.Store
	Config config.Config
	Logger *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	svc := New(p.Store, p.Logger)
	svc.cache = p.Cache
	svc.cacheTTL = p.Config.Cache.DefaultTTL
	return svc
}

// New builds the service around any Store implementation.
func New(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the validity-window clock.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Validate checks a code against the payment method, order total, validity
// window, and usage limit. On success it returns the coupon itself so the
// settlement can record the usage against the real coupon identity.
func (s *Service) Validate(ctx context.Context, code string, orderTotal decimal.Decimal, method entity.PaymentMethod) (*entity.Coupon, error) {
	ctx, span := serviceTracer.Start(ctx, "CouponService.Validate",
		trace.WithAttributes(attribute.String("coupon.code", code)))
	defer span.End()

	if !method.IsCash() {
		return nil, errorbank.BusinessRule("discount codes apply to cash payments only",
			errorbank.WithDetail("reason", ReasonNotCashPayment))
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, errorbank.Validation("a discount code is required",
			errorbank.WithDetail("reason", ReasonEmptyCode))
	}

	coupon, err := s.lookup(ctx, code)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("discount code not found",
				errorbank.WithDetail("reason", ReasonNotFound))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Transient("could not look up the discount code", errorbank.WithCause(err))
	}

	if !coupon.IsActive {
		return nil, errorbank.NotFound("discount code is no longer active",
			errorbank.WithDetail("reason", ReasonInactive))
	}

	now := s.now().UTC()
	if coupon.ValidFrom != nil && now.Before(*coupon.ValidFrom) {
		return nil, errorbank.BusinessRule("discount code is not valid yet",
			errorbank.WithDetail("reason", ReasonNotYetValid),
			errorbank.WithDetail("valid_from", coupon.ValidFrom.Format(time.RFC3339)))
	}
	if coupon.ValidUntil != nil && now.After(*coupon.ValidUntil) {
		return nil, errorbank.BusinessRule("discount code has expired",
			errorbank.WithDetail("reason", ReasonExpired),
			errorbank.WithDetail("valid_until", coupon.ValidUntil.Format(time.RFC3339)))
	}

	if coupon.MinOrderAmount.IsPositive() && orderTotal.LessThan(coupon.MinOrderAmount) {
		return nil, errorbank.BusinessRule("order total is below the code's minimum",
			errorbank.WithDetail("reason", ReasonBelowMinimumOrder),
			errorbank.WithDetail("min_order_amount", coupon.MinOrderAmount.StringFixed(2)))
	}

	if coupon.UsageLimit > 0 {
		used, err := s.store.CountUsages(ctx, coupon.ID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "repository error")
			return nil, errorbank.Transient("could not verify code usage", errorbank.WithCause(err))
		}
		if used >= coupon.UsageLimit {
			return nil, errorbank.BusinessRule("discount code has reached its usage limit",
				errorbank.WithDetail("reason", ReasonUsageLimitReached),
				errorbank.WithDetail("usage_limit", coupon.UsageLimit))
		}
	}

	return coupon, nil
}

func (s *Service) cacheKey(code string) string {
	return "coupons:code:" + strings.ToLower(code)
}

// lookup consults the cache before the repository. Usage counts are never
// cached: limits must see every recorded usage.
func (s *Service) lookup(ctx context.Context, code string) (*entity.Coupon, error) {
	if s.cache != nil {
		if bytes, err := s.cache.Get(ctx, s.cacheKey(code)); err == nil {
			var coupon entity.Coupon
			if err := json.Unmarshal(bytes, &coupon); err == nil {
				return &coupon, nil
			}
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("coupon cache read failed", zap.String("code", code), zap.Error(err))
		}
	}

	coupon, err := s.store.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if bytes, err := json.Marshal(coupon); err == nil {
			if err := s.cache.Set(ctx, s.cacheKey(code), bytes, s.cacheTTL); err != nil {
				s.logger.Warn("coupon cache write failed", zap.String("code", code), zap.Error(err))
			}
		}
	}
	return coupon, nil
}
