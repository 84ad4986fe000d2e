package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/bakeshop/order-confirm/internal/kafka"
	"github.com/bakeshop/order-confirm/internal/orders"
)

// deadRedis returns a client pointing nowhere with fast failure, so cache
// operations degrade instead of blocking the handler.
func deadRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 10 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func envelope(eventType string, payload any) kafkago.Message {
	ev := orders.Envelope{
		EventID:      uuid.NewString(),
		EventType:    eventType,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     "test",
		Payload:      kafkax.MustMarshal(payload),
	}
	return kafkago.Message{Value: kafkax.MustMarshal(ev)}
}

func TestHandleEventConfirmed(t *testing.T) {
	s := &Service{Redis: deadRedis(), ServiceName: "test-auditor"}
	m := envelope(orders.EventOrderConfirmed, orders.OrderConfirmedPayload{
		OrderDocID:    "order-1",
		PaymentStatus: "paid",
		Items:         []orders.ItemQty{{ItemID: "cookie-1", Qty: 2}},
	})
	if err := s.HandleEvent(context.Background(), m); err != nil {
		t.Fatalf("handle: %v", err)
	}
}

func TestHandleEventRejected(t *testing.T) {
	s := &Service{Redis: deadRedis(), ServiceName: "test-auditor"}
	m := envelope(orders.EventOrderRejected, orders.OrderRejectedPayload{
		OrderDocID:         "order-1",
		Reason:             orders.RejectReasonOutOfStock,
		InsufficientItemID: "cookie-1",
	})
	if err := s.HandleEvent(context.Background(), m); err != nil {
		t.Fatalf("handle: %v", err)
	}
}

func TestHandleEventIgnoresUnknownType(t *testing.T) {
	s := &Service{Redis: deadRedis(), ServiceName: "test-auditor"}
	m := envelope("SomethingElse", map[string]string{"x": "y"})
	if err := s.HandleEvent(context.Background(), m); err != nil {
		t.Fatalf("handle: %v", err)
	}
}

func TestHandleEventBadJSON(t *testing.T) {
	s := &Service{Redis: deadRedis(), ServiceName: "test-auditor"}
	if err := s.HandleEvent(context.Background(), kafkago.Message{Value: []byte("{")}); err == nil {
		t.Fatalf("expected decode error")
	}
}
