package notifications

import (
	"context"
	"encoding/json"
	"errors"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/fitlinehq/fitline-backend/pkg/enums"
	"github.com/fitlinehq/fitline-backend/pkg/logger"
	"github.com/fitlinehq/fitline-backend/pkg/outbox"
)

// Runner pulls order events off the notification subscription and
// feeds them to the consumer. Ack semantics: malformed messages are
// acked so they do not loop forever, processing failures are nacked
// for redelivery.
type Runner struct {
	subscription *pubsub.Subscriber
	consumer     *Consumer
	logg         *logger.Logger
}

func NewRunner(subscription *pubsub.Subscriber, consumer *Consumer, logg *logger.Logger) (*Runner, error) {
	if subscription == nil {
		return nil, errors.New("subscription required")
	}
	if consumer == nil {
		return nil, errors.New("consumer required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &Runner{subscription: subscription, consumer: consumer, logg: logg}, nil
}

func (r *Runner) Run(ctx context.Context) error {
	return r.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := r.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (r *Runner) process(ctx context.Context, msg *pubsub.Message) processResult {
	rawType := msg.Attributes["event_type"]
	logCtx := r.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": rawType,
	})

	eventType, err := enums.ParseOutboxEventType(rawType)
	if err != nil {
		r.logg.Info(logCtx, "skipping unknown event type")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		r.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}
	if _, err := uuid.Parse(envelope.EventID); err != nil {
		r.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	if err := r.consumer.Process(ctx, eventType, envelope); err != nil {
		r.logg.Error(logCtx, "notification processing failed", err)
		return processResult{nack: true}
	}
	return processResult{ack: true}
}
