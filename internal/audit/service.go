// Package audit follows confirmation outcomes off the event stream, keeps the
// order-status cache warm, and logs rejections for ops.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/bakeshop/order-confirm/internal/kafka"
	"github.com/bakeshop/order-confirm/internal/orders"
	"github.com/bakeshop/order-confirm/internal/redisx"
)

type Service struct {
	Redis       *redis.Client
	ServiceName string
}

// HandleEvent is wired as the consumer handler for both confirmation topics.
func (s *Service) HandleEvent(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}

	// dedup by event_id; offsets can replay after a crash
	dkey := fmt.Sprintf(redisx.KeyDedup, "audit", env.EventID)
	if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
		return nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	switch env.EventType {
	case orders.EventOrderConfirmed:
		p, err := kafkax.UnwrapPayload[orders.OrderConfirmedPayload](env.Payload)
		if err != nil {
			return err
		}
		key := fmt.Sprintf(redisx.KeyOrderStatus, p.OrderDocID)
		_ = s.Redis.Set(ctx, key, `{"status":"confirmed"}`, redisx.TTLStatusCache).Err()
		log.Printf("order %s confirmed (%d items)", p.OrderDocID, len(p.Items))
		return nil
	case orders.EventOrderRejected:
		p, err := kafkax.UnwrapPayload[orders.OrderRejectedPayload](env.Payload)
		if err != nil {
			return err
		}
		log.Printf("order %s rejected: %s (item %s)", p.OrderDocID, p.Reason, p.InsufficientItemID)
		return nil
	default:
		return nil // ignore
	}
}
