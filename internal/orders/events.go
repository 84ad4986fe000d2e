package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderConfirmed = "OrderConfirmed"
	EventOrderRejected  = "OrderRejected"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order doc id
	Payload       json.RawMessage `json:"payload"`
}

type OrderConfirmedPayload struct {
	OrderDocID    string    `json:"order_doc_id"`
	PaymentStatus string    `json:"payment_status"`
	Items         []ItemQty `json:"items"`
}

// RejectReasonOutOfStock is currently the only reject reason this service
// emits; not-found and validation failures never reach the event stream.
const RejectReasonOutOfStock = "OUT_OF_STOCK"

type OrderRejectedPayload struct {
	OrderDocID         string `json:"order_doc_id"`
	Reason             string `json:"reason"`
	InsufficientItemID string `json:"insufficient_item_id,omitempty"`
}
