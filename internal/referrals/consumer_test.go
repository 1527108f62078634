package referrals

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/Musty2002/sm-data-app-sub000/pkg/enums"
	"github.com/Musty2002/sm-data-app-sub000/pkg/logger"
	"github.com/Musty2002/sm-data-app-sub000/pkg/outbox"
	"github.com/Musty2002/sm-data-app-sub000/pkg/outbox/payloads"
)

type stubUnlocker struct {
	events []payloads.PurchaseCompletedEvent
	err    error
}

func (s *stubUnlocker) HandleQualifyingPurchase(_ context.Context, event payloads.PurchaseCompletedEvent) error {
	s.events = append(s.events, event)
	return s.err
}

type stubIdempotency struct {
	processed map[string]bool
	deleted   []string
}

func newStubIdempotency() *stubIdempotency {
	return &stubIdempotency{processed: map[string]bool{}}
}

func (s *stubIdempotency) CheckAndMarkProcessed(_ context.Context, consumer string, eventID uuid.UUID) (bool, error) {
	key := consumer + ":" + eventID.String()
	if s.processed[key] {
		return true, nil
	}
	s.processed[key] = true
	return false, nil
}

func (s *stubIdempotency) Delete(_ context.Context, consumer string, eventID uuid.UUID) error {
	key := consumer + ":" + eventID.String()
	delete(s.processed, key)
	s.deleted = append(s.deleted, key)
	return nil
}

func completedEnvelope(t *testing.T, event payloads.PurchaseCompletedEvent) outbox.PayloadEnvelope {
	t.Helper()
	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return outbox.PayloadEnvelope{
		Version: 1,
		EventID: uuid.NewString(),
		Data:    data,
	}
}

func newTestConsumer(t *testing.T, svc *stubUnlocker, manager *stubIdempotency) *Consumer {
	t.Helper()
	consumer, err := NewConsumer(svc, manager, logger.New(logger.Options{ServiceName: "referrals-consumer-test"}))
	if err != nil {
		t.Fatalf("NewConsumer: %v", err)
	}
	return consumer
}

func TestConsumerUnlocksOnCompletedPurchase(t *testing.T) {
	svc := &stubUnlocker{}
	consumer := newTestConsumer(t, svc, newStubIdempotency())

	envelope := completedEnvelope(t, payloads.PurchaseCompletedEvent{
		PurchaseID: uuid.New(),
		UserID:     uuid.New(),
		Category:   enums.PurchaseCategoryData,
		PlanName:   "2GB Weekly",
	})

	if err := consumer.Process(context.Background(), enums.EventPurchaseCompleted, envelope); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(svc.events) != 1 {
		t.Fatalf("expected 1 unlock call, got %d", len(svc.events))
	}
}

func TestConsumerIgnoresRefundEvents(t *testing.T) {
	svc := &stubUnlocker{}
	consumer := newTestConsumer(t, svc, newStubIdempotency())

	envelope := completedEnvelope(t, payloads.PurchaseCompletedEvent{UserID: uuid.New()})
	if err := consumer.Process(context.Background(), enums.EventPurchaseRefunded, envelope); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(svc.events) != 0 {
		t.Fatalf("expected no unlock calls, got %d", len(svc.events))
	}
}

func TestConsumerSkipsReplayedEvent(t *testing.T) {
	svc := &stubUnlocker{}
	consumer := newTestConsumer(t, svc, newStubIdempotency())

	envelope := completedEnvelope(t, payloads.PurchaseCompletedEvent{
		PurchaseID: uuid.New(),
		UserID:     uuid.New(),
		Category:   enums.PurchaseCategoryData,
		PlanName:   "1GB",
	})

	if err := consumer.Process(context.Background(), enums.EventPurchaseCompleted, envelope); err != nil {
		t.Fatalf("first Process: %v", err)
	}
	if err := consumer.Process(context.Background(), enums.EventPurchaseCompleted, envelope); err != nil {
		t.Fatalf("second Process: %v", err)
	}
	if len(svc.events) != 1 {
		t.Fatalf("expected 1 unlock call across replays, got %d", len(svc.events))
	}
}

func TestConsumerReleasesKeyOnUnlockFailure(t *testing.T) {
	svc := &stubUnlocker{err: errors.New("wallet unavailable")}
	manager := newStubIdempotency()
	consumer := newTestConsumer(t, svc, manager)

	envelope := completedEnvelope(t, payloads.PurchaseCompletedEvent{
		PurchaseID: uuid.New(),
		UserID:     uuid.New(),
		Category:   enums.PurchaseCategoryData,
		PlanName:   "1GB",
	})

	if err := consumer.Process(context.Background(), enums.EventPurchaseCompleted, envelope); err == nil {
		t.Fatal("expected error from failing unlock")
	}
	if len(manager.deleted) != 1 {
		t.Fatalf("expected idempotency key release, got %d deletes", len(manager.deleted))
	}
}
