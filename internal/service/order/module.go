package order

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/carlostcba/GustadosPOS-sub000/internal/realtime"
)

// Module provides the order service to Fx and keeps the order cache
// coherent with change notifications.
var Module = fx.Options(
	fx.Provide(NewService),
	fx.Invoke(registerCacheInvalidation),
)

// registerCacheInvalidation evicts cached orders whenever any instance
// reports a change, so reads after a settlement see the new state.
func registerCacheInvalidation(lc fx.Lifecycle, svc *Service, hub realtime.Hub, logger *zap.Logger) {
	var unsubscribe realtime.Unsubscribe

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			var err error
			unsubscribe, err = hub.Subscribe(realtime.KindOrders, func(change realtime.Change) {
				svc.Evict(context.Background(), change.ID)
			})
			if err != nil {
				return err
			}
			logger.Info("order cache invalidation subscribed")
			return nil
		},
		OnStop: func(context.Context) error {
			if unsubscribe != nil {
				unsubscribe()
			}
			return nil
		},
	})
}
