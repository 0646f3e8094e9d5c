package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
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
	"github.com/carlostcba/GustadosPOS-sub000/internal/money"
	"github.com/carlostcba/GustadosPOS-sub000/internal/realtime"
	repo "github.com/carlostcba/GustadosPOS-sub000/internal/repository/order"
	"github.com/carlostcba/GustadosPOS-sub000/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/carlostcba/GustadosPOS-sub000/service/order")

// ItemInput is one requested line on a new order.
type ItemInput struct {
	ProductID int64
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// CreateInput describes a new order taken at the counter.
type CreateInput struct {
	Kind            entity.OrderKind
	CustomerName    string
	CustomerContact string
	DeliveryDate    *time.Time
	Items           []ItemInput
}

// Service encapsulates order intake and the order feed.
type Service struct {
	repo     *repo.Repository
	cache    cache.Store
	cacheTTL time.Duration
	hub      realtime.Hub
	logger   *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Cache      cache.Store
	Hub        realtime.Hub
	Config     config.Config
	Logger     *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		repo:     p.Repository,
		cache:    p.Cache,
		cacheTTL: p.Config.Cache.DefaultTTL,
		hub:      p.Hub,
		logger:   p.Logger,
	}
}

// Create validates and persists a new pending order for the seller,
// assigning its type-prefixed sequence number.
func (s *Service) Create(ctx context.Context, sellerID int64, in CreateInput) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Create",
		trace.WithAttributes(attribute.String("order.kind", string(in.Kind))))
	defer span.End()

	order, err := buildOrder(sellerID, in)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, order); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Transient("failed to create order", errorbank.WithCause(err))
	}

	if err := s.storeInCache(ctx, order); err != nil && s.logger != nil {
		s.logger.Warn("orders cache write failed", zap.Int64("id", order.ID), zap.Error(err))
	}
	s.notify(ctx, order.ID, "created")

	return order, nil
}

func buildOrder(sellerID int64, in CreateInput) (*entity.Order, error) {
	switch in.Kind {
	case entity.OrderKindRegular, entity.OrderKindPreorder, entity.OrderKindDelivery:
	case "":
		in.Kind = entity.OrderKindRegular
	default:
		return nil, errorbank.Validation(fmt.Sprintf("unknown order kind %q", in.Kind))
	}
	if strings.TrimSpace(in.CustomerName) == "" {
		return nil, errorbank.Validation("customer name is required")
	}
	if len(in.Items) == 0 {
		return nil, errorbank.Validation("an order needs at least one item")
	}
	isPreorder := in.Kind == entity.OrderKindPreorder
	if isPreorder && in.DeliveryDate == nil {
		return nil, errorbank.Validation("pre-orders require a delivery date")
	}

	now := time.Now().UTC()
	total := decimal.Zero
	items := make([]*entity.OrderItem, 0, len(in.Items))
	for i, item := range in.Items {
		if item.ProductID <= 0 {
			return nil, errorbank.Validation(fmt.Sprintf("item %d: product is required", i+1))
		}
		if !money.IsPositive(item.Quantity) {
			return nil, errorbank.Validation(fmt.Sprintf("item %d: quantity must be greater than zero", i+1))
		}
		if item.UnitPrice.IsNegative() {
			return nil, errorbank.Validation(fmt.Sprintf("item %d: unit price cannot be negative", i+1))
		}
		total = total.Add(money.Round2(item.Quantity.Mul(item.UnitPrice)))
		items = append(items, &entity.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			CreatedAt: now,
		})
	}

	return &entity.Order{
		Kind:            in.Kind,
		CustomerName:    strings.TrimSpace(in.CustomerName),
		CustomerContact: strings.TrimSpace(in.CustomerContact),
		SellerID:        sellerID,
		IsPreorder:      isPreorder,
		DeliveryDate:    in.DeliveryDate,
		Status:          entity.OrderStatusPending,
		TotalAmount:     money.Round2(total),
		RemainingAmount: money.Round2(total),
		CreatedAt:       now,
		UpdatedAt:       now,
		Items:           items,
	}, nil
}

// Get retrieves an order by id, consulting cache when available.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	if order, err := s.getFromCache(ctx, id); err == nil {
		return order, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) && s.logger != nil {
		s.logger.Warn("orders cache read failed", zap.Int64("id", id), zap.Error(err))
	}

	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("order not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Transient("failed to load order", errorbank.WithCause(err))
	}

	if err := s.storeInCache(ctx, order); err != nil && s.logger != nil {
		s.logger.Warn("orders cache write failed", zap.Int64("id", id), zap.Error(err))
	}

	return order, nil
}

// List returns the order feed, filterable by status and seller.
func (s *Service) List(ctx context.Context, filter repo.ListFilter) ([]*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.List")
	defer span.End()

	if filter.Status != "" {
		switch filter.Status {
		case entity.OrderStatusPending, entity.OrderStatusProcessing,
			entity.OrderStatusPaid, entity.OrderStatusCancelled:
		default:
			return nil, errorbank.Validation(fmt.Sprintf("unknown status %q", filter.Status))
		}
	}

	orders, err := s.repo.List(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Transient("failed to list orders", errorbank.WithCause(err))
	}
	return orders, nil
}

// Cancel moves a pending order to cancelled. Orders that already took a
// payment cannot be cancelled here.
func (s *Service) Cancel(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Cancel", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("order not found")
		}
		return nil, errorbank.Transient("failed to load order", errorbank.WithCause(err))
	}
	if order.Status != entity.OrderStatusPending {
		return nil, errorbank.InvalidState(
			fmt.Sprintf("order %s is %s; only pending orders can be cancelled", order.Number, order.Status))
	}

	moved, err := s.repo.UpdateStatus(ctx, id, entity.OrderStatusPending, entity.OrderStatusCancelled)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Transient("failed to cancel order", errorbank.WithCause(err))
	}
	if !moved {
		return nil, errorbank.InvalidState("order changed concurrently; reload and retry")
	}

	order.Status = entity.OrderStatusCancelled
	order.UpdatedAt = time.Now().UTC()
	s.Evict(ctx, id)
	s.notify(ctx, id, "cancelled")

	s.logger.Info("order cancelled", zap.Int64("order_id", id), zap.String("number", order.Number))
	return order, nil
}

// Evict drops an order from the cache; settlement changes invalidate
// through here.
func (s *Service) Evict(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, s.cacheKey(id)); err != nil && s.logger != nil {
		s.logger.Warn("orders cache delete failed", zap.Int64("id", id), zap.Error(err))
	}
}

func (s *Service) notify(ctx context.Context, id int64, action string) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(ctx, realtime.Change{
		Kind:   realtime.KindOrders,
		ID:     id,
		Action: action,
		At:     time.Now().UTC(),
	})
}

func (s *Service) cacheKey(id int64) string {
	return fmt.Sprintf("orders:%d", id)
}

func (s *Service) getFromCache(ctx context.Context, id int64) (*entity.Order, error) {
	if s.cache == nil {
		return nil, cache.ErrCacheMiss
	}
	bytes, err := s.cache.Get(ctx, s.cacheKey(id))
	if err != nil {
		return nil, err
	}
	var order entity.Order
	if err := json.Unmarshal(bytes, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Service) storeInCache(ctx context.Context, order *entity.Order) error {
	if s.cache == nil || order == nil {
		return nil
	}
	bytes, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, s.cacheKey(order.ID), bytes, s.cacheTTL)
}
