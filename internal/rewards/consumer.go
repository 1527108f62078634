package rewards

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/Musty2002/sm-data-app-sub000/pkg/enums"
	"github.com/Musty2002/sm-data-app-sub000/pkg/logger"
	"github.com/Musty2002/sm-data-app-sub000/pkg/outbox"
	"github.com/Musty2002/sm-data-app-sub000/pkg/outbox/payloads"
)

const rewardsConsumerName = "rewards"

type awarder interface {
	Award(ctx context.Context, event payloads.PurchaseCompletedEvent) error
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer awards cashback off purchase_completed events while honoring
// Redis idempotency. The database-level reference uniqueness backstops the
// Redis check, so a lost idempotency key cannot double-award.
type Consumer struct {
	svc     awarder
	manager idempotencyChecker
	logg    *logger.Logger
}

// NewConsumer builds the rewards consumer.
func NewConsumer(svc awarder, manager idempotencyChecker, logg *logger.Logger) (*Consumer, error) {
	if svc == nil {
		return nil, fmt.Errorf("rewards service required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{svc: svc, manager: manager, logg: logg}, nil
}

// Process awards cashback if the envelope carries a completed purchase.
func (c *Consumer) Process(ctx context.Context, eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) error {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"event_id":   envelope.EventID,
		"event_type": eventType,
	})

	if eventType != enums.EventPurchaseCompleted {
		c.logg.Info(logCtx, "event not handled by rewards consumer")
		return nil
	}

	if envelope.EventID == "" {
		return fmt.Errorf("event id missing")
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		return fmt.Errorf("parse event id: %w", err)
	}

	already, err := c.manager.CheckAndMarkProcessed(ctx, rewardsConsumerName, eventID)
	if err != nil {
		return fmt.Errorf("idempotency check: %w", err)
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return nil
	}

	var event payloads.PurchaseCompletedEvent
	if err := json.Unmarshal(envelope.Data, &event); err != nil {
		c.logg.Error(logCtx, "failed to decode purchase completed payload", err)
		_ = c.manager.Delete(ctx, rewardsConsumerName, eventID)
		return err
	}

	if err := c.svc.Award(ctx, event); err != nil {
		c.logg.Error(logCtx, "failed to award cashback", err)
		_ = c.manager.Delete(ctx, rewardsConsumerName, eventID)
		return err
	}

	return nil
}
