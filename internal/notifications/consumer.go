package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/fitlinehq/fitline-backend/pkg/db/models"
	"github.com/fitlinehq/fitline-backend/pkg/enums"
	"github.com/fitlinehq/fitline-backend/pkg/logger"
	"github.com/fitlinehq/fitline-backend/pkg/outbox"
	"github.com/fitlinehq/fitline-backend/pkg/outbox/payloads"
	"github.com/fitlinehq/fitline-backend/pkg/outbox/registry"
)

const consumerName = "notifications"

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer turns order lifecycle events into notification rows while
// honoring Redis idempotency.
type Consumer struct {
	repo     *Repository
	manager  idempotencyChecker
	logg     *logger.Logger
	decoders *registry.DecoderRegistry
}

// NewConsumer builds a notification consumer with decoders for every
// supported event version.
func NewConsumer(repo *Repository, manager idempotencyChecker, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notification repo required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}

	decoders := registry.NewDecoderRegistry()
	registry.RegisterJSONDecoder[payloads.OrderPlacedEvent](decoders, enums.EventOrderPlaced, 1)
	registry.RegisterJSONDecoder[payloads.OrderShippedEvent](decoders, enums.EventOrderShipped, 1)
	registry.RegisterJSONDecoder[payloads.OrderCancelledEvent](decoders, enums.EventOrderCancelled, 1)
	registry.RegisterJSONDecoder[payloads.OrderCompletedEvent](decoders, enums.EventOrderCompleted, 1)
	registry.RegisterJSONDecoder[payloads.ReturnRequestedEvent](decoders, enums.EventReturnRequested, 1)

	return &Consumer{
		repo:     repo,
		manager:  manager,
		logg:     logg,
		decoders: decoders,
	}, nil
}

// Process stores one notification per event. Duplicate deliveries are
// dropped through the idempotency manager; a failed insert releases
// the idempotency mark so the delivery can retry.
func (c *Consumer) Process(ctx context.Context, eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) error {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"event_id":   envelope.EventID,
		"event_type": eventType,
	})

	if envelope.EventID == "" {
		return fmt.Errorf("event id missing")
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		return fmt.Errorf("parse event id: %w", err)
	}

	decoded, err := c.decoders.Decode(eventType, envelope.Version, envelope.Data)
	if err != nil {
		c.logg.Info(logCtx, "event not handled by notification consumer")
		return nil
	}

	notification, err := buildNotification(eventType, decoded)
	if err != nil {
		return err
	}

	already, err := c.manager.CheckAndMarkProcessed(ctx, consumerName, eventID)
	if err != nil {
		return fmt.Errorf("idempotency check: %w", err)
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return nil
	}

	if err := c.repo.Create(ctx, notification); err != nil {
		c.logg.Error(logCtx, "failed to store notification", err)
		_ = c.manager.Delete(ctx, consumerName, eventID)
		return err
	}

	c.logg.Info(logCtx, "notification stored")
	return nil
}

func buildNotification(eventType enums.OutboxEventType, decoded interface{}) (*models.Notification, error) {
	switch payload := decoded.(type) {
	case payloads.OrderPlacedEvent:
		orderID := payload.OrderID
		return &models.Notification{
			UserID:  payload.UserID,
			Type:    enums.NotificationTypeOrderPlaced,
			Title:   "Order placed",
			Message: fmt.Sprintf("Your order %s has been placed.", payload.OrderNumber),
			OrderID: &orderID,
		}, nil
	case payloads.OrderShippedEvent:
		orderID := payload.OrderID
		return &models.Notification{
			UserID:  payload.UserID,
			Type:    enums.NotificationTypeOrderShipped,
			Title:   "Order shipped",
			Message: fmt.Sprintf("Order %s is on its way.", payload.OrderNumber),
			OrderID: &orderID,
		}, nil
	case payloads.OrderCancelledEvent:
		orderID := payload.OrderID
		return &models.Notification{
			UserID:  payload.UserID,
			Type:    enums.NotificationTypeOrderCancelled,
			Title:   "Order cancelled",
			Message: fmt.Sprintf("Order %s has been cancelled.", payload.OrderNumber),
			OrderID: &orderID,
		}, nil
	case payloads.OrderCompletedEvent:
		orderID := payload.OrderID
		return &models.Notification{
			UserID:  payload.UserID,
			Type:    enums.NotificationTypeOrderCompleted,
			Title:   "Order delivered",
			Message: fmt.Sprintf("Order %s was delivered. Enjoy!", payload.OrderNumber),
			OrderID: &orderID,
		}, nil
	case payloads.ReturnRequestedEvent:
		orderID := payload.OrderID
		return &models.Notification{
			UserID:  payload.UserID,
			Type:    enums.NotificationTypeReturnRequested,
			Title:   "Return requested",
			Message: fmt.Sprintf("Your return for order %s has been filed.", payload.OrderNumber),
			OrderID: &orderID,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported event type %s", eventType)
	}
}
