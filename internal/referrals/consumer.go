package referrals

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

const referralsConsumerName = "referrals"

type unlocker interface {
	HandleQualifyingPurchase(ctx context.Context, event payloads.PurchaseCompletedEvent) error
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer unlocks referral bonuses off purchase_completed events. The
// atomic status flip in the service backstops the Redis idempotency check.
type Consumer struct {
	svc     unlocker
	manager idempotencyChecker
	logg    *logger.Logger
}

// NewConsumer builds the referrals consumer.
func NewConsumer(svc unlocker, manager idempotencyChecker, logg *logger.Logger) (*Consumer, error) {
	if svc == nil {
		return nil, fmt.Errorf("referral service required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{svc: svc, manager: manager, logg: logg}, nil
}

// Process unlocks the referral bonus if the envelope carries a completed
// purchase.
func (c *Consumer) Process(ctx context.Context, eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) error {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"event_id":   envelope.EventID,
		"event_type": eventType,
	})

	if eventType != enums.EventPurchaseCompleted {
		c.logg.Info(logCtx, "event not handled by referrals consumer")
		return nil
	}

	if envelope.EventID == "" {
		return fmt.Errorf("event id missing")
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		return fmt.Errorf("parse event id: %w", err)
	}

	already, err := c.manager.CheckAndMarkProcessed(ctx, referralsConsumerName, eventID)
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
		_ = c.manager.Delete(ctx, referralsConsumerName, eventID)
		return err
	}

	if err := c.svc.HandleQualifyingPurchase(ctx, event); err != nil {
		c.logg.Error(logCtx, "failed to process referral unlock", err)
		_ = c.manager.Delete(ctx, referralsConsumerName, eventID)
		return err
	}

	return nil
}
