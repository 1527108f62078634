package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/Musty2002/sm-data-app-sub000/pkg/enums"
	"github.com/Musty2002/sm-data-app-sub000/pkg/logger"
	"github.com/Musty2002/sm-data-app-sub000/pkg/outbox"
)

type stubProcessor struct {
	calls []enums.OutboxEventType
	err   error
}

func (s *stubProcessor) Process(_ context.Context, eventType enums.OutboxEventType, _ outbox.PayloadEnvelope) error {
	s.calls = append(s.calls, eventType)
	return s.err
}

func testMessage(t *testing.T, eventType string) *gcppubsub.Message {
	t.Helper()
	envelope := outbox.PayloadEnvelope{
		Version: 1,
		EventID: uuid.NewString(),
		Data:    json.RawMessage(`{"user_id":"` + uuid.NewString() + `"}`),
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return &gcppubsub.Message{
		Data:       data,
		Attributes: map[string]string{"event_type": eventType},
	}
}

func newServiceForTest(t *testing.T, processor Processor) *Service {
	t.Helper()
	return &Service{
		processor: processor,
		logg:      logger.New(logger.Options{ServiceName: "worker-test"}),
		name:      "test",
	}
}

func TestProcessDispatchesDecodedEvent(t *testing.T) {
	processor := &stubProcessor{}
	svc := newServiceForTest(t, processor)

	result := svc.process(context.Background(), testMessage(t, "purchase_completed"))
	if result.nack {
		t.Fatal("expected ack for handled event")
	}
	if len(processor.calls) != 1 || processor.calls[0] != enums.EventPurchaseCompleted {
		t.Fatalf("unexpected processor calls: %v", processor.calls)
	}
}

func TestProcessNacksOnProcessorError(t *testing.T) {
	processor := &stubProcessor{err: errors.New("transient")}
	svc := newServiceForTest(t, processor)

	result := svc.process(context.Background(), testMessage(t, "purchase_completed"))
	if !result.nack {
		t.Fatal("expected nack so the message is redelivered")
	}
}

func TestProcessAcksUndecodableMessage(t *testing.T) {
	processor := &stubProcessor{}
	svc := newServiceForTest(t, processor)

	msg := &gcppubsub.Message{Data: []byte("not json")}
	result := svc.process(context.Background(), msg)
	if result.nack {
		t.Fatal("expected malformed message to be dropped, not redelivered")
	}
	if len(processor.calls) != 0 {
		t.Fatalf("expected no processor calls, got %d", len(processor.calls))
	}
}

func TestProcessAcksUnknownEventType(t *testing.T) {
	processor := &stubProcessor{}
	svc := newServiceForTest(t, processor)

	result := svc.process(context.Background(), testMessage(t, "something_else"))
	if result.nack {
		t.Fatal("expected unknown event type to be dropped, not redelivered")
	}
	if len(processor.calls) != 0 {
		t.Fatalf("expected no processor calls, got %d", len(processor.calls))
	}
}
