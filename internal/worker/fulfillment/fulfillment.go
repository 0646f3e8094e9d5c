// Package fulfillment consumes the hand-off queue for fully paid orders.
// The actual preparation happens in the external fulfillment system; this
// handler is the boundary where orders leave the POS.
package fulfillment

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/carlostcba/GustadosPOS-sub000/internal/config"
	"github.com/carlostcba/GustadosPOS-sub000/internal/messaging"
	settlementsvc "github.com/carlostcba/GustadosPOS-sub000/internal/service/settlement"
	"github.com/carlostcba/GustadosPOS-sub000/internal/worker"
)

var workerTracer = otel.Tracer("github.com/carlostcba/GustadosPOS-sub000/worker/fulfillment")

// Module registers the fulfillment queue handler.
var Module = fx.Module("worker_fulfillment",
	fx.Provide(
		fx.Annotate(
			NewQueuedHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// NewQueuedHandler sets up the handler for fulfillment queue entries.
func NewQueuedHandler(logger *zap.Logger, cfg config.Config) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.fulfillment.process", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
		))
		defer span.End()

		var event settlementsvc.FulfillmentQueuedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("failed to decode fulfillment event", zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}

		fields := []zap.Field{
			zap.Int64("order_id", event.OrderID),
			zap.String("number", event.Number),
			zap.String("kind", event.Kind),
			zap.Int("priority", event.Priority),
		}
		if event.DeliveryDate != nil {
			fields = append(fields, zap.Time("delivery_date", *event.DeliveryDate))
		}
		if event.Priority >= settlementsvc.PriorityHigh {
			logger.Info("priority order handed to fulfillment", fields...)
		} else {
			logger.Info("order handed to fulfillment", fields...)
		}

		return nil
	}

	return worker.HandlerRegistration{
		Topic:   cfg.Messaging.Kafka.Topic,
		Handler: handler,
	}
}
