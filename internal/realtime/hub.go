// Package realtime fans out entity-change notifications so cashier queues
// and caches can refresh without polling. Backed by redis pub/sub when
// available, otherwise an in-process dispatcher.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/carlostcba/GustadosPOS-sub000/internal/config"
)

// Change kinds published by the services.
const (
	KindOrders    = "orders"
	KindRegisters = "registers"
)

// Change describes a mutation to a persisted entity.
type Change struct {
	Kind   string    `json:"kind"`
	ID     int64     `json:"id"`
	Action string    `json:"action"`
	At     time.Time `json:"at"`
}

// Handler receives change notifications for a subscribed kind.
type Handler func(Change)

// Unsubscribe releases a subscription.
type Unsubscribe func()

// Hub is the change-notification interface exposed to services.
type Hub interface {
	Publish(ctx context.Context, change Change)
	Subscribe(kind string, handler Handler) (Unsubscribe, error)
}

// Module provides the hub to the Fx graph.
var Module = fx.Provide(NewHub)

// NewHub selects the redis-backed hub when realtime is enabled and redis is
// configured; otherwise notifications fan out in-process only.
func NewHub(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) Hub {
	if !cfg.Realtime.Enabled || cfg.Cache.Driver != "redis" {
		logger.Info("realtime hub running in-process only")
		return newLocalHub()
	}
	return newRedisHub(lc, cfg, logger)
}

// localHub dispatches changes to in-process subscribers.
type localHub struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]Handler
}

func newLocalHub() *localHub {
	return &localHub{subs: make(map[string]map[int]Handler)}
}

func (h *localHub) Publish(_ context.Context, change Change) {
	h.mu.RLock()
	handlers := make([]Handler, 0, len(h.subs[change.Kind]))
	for _, handler := range h.subs[change.Kind] {
		handlers = append(handlers, handler)
	}
	h.mu.RUnlock()
	for _, handler := range handlers {
		handler(change)
	}
}

func (h *localHub) Subscribe(kind string, handler Handler) (Unsubscribe, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[kind] == nil {
		h.subs[kind] = make(map[int]Handler)
	}
	id := h.nextID
	h.nextID++
	h.subs[kind][id] = handler
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs[kind], id)
	}, nil
}

// redisHub publishes over redis channels so every service instance sees
// the change, regardless of which one performed the write.
type redisHub struct {
	client *goredis.Client
	prefix string
	logger *zap.Logger
}

func newRedisHub(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) *redisHub {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
	})

	hub := &redisHub{
		client: client,
		prefix: cfg.Realtime.ChannelPrefix,
		logger: logger,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("ping redis for realtime hub: %w", err)
			}
			logger.Info("realtime hub connected", zap.String("channel_prefix", hub.prefix))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return hub
}

func (h *redisHub) channel(kind string) string {
	return h.prefix + "." + kind
}

func (h *redisHub) Publish(ctx context.Context, change Change) {
	payload, err := json.Marshal(change)
	if err != nil {
		h.logger.Error("marshal change notification", zap.Error(err))
		return
	}
	if err := h.client.Publish(ctx, h.channel(change.Kind), payload).Err(); err != nil {
		h.logger.Warn("publish change notification failed",
			zap.String("kind", change.Kind), zap.Error(err))
	}
}

func (h *redisHub) Subscribe(kind string, handler Handler) (Unsubscribe, error) {
	pubsub := h.client.Subscribe(context.Background(), h.channel(kind))
	if _, err := pubsub.Receive(context.Background()); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", kind, err)
	}

	done := make(chan struct{})
	go func() {
		ch := pubsub.Channel()
		for {
			select {
			case <-done:
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var change Change
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					h.logger.Warn("decode change notification failed", zap.Error(err))
					continue
				}
				handler(change)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			_ = pubsub.Close()
		})
	}, nil
}
