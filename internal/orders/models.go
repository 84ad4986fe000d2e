package orders

import (
	"time"

	"github.com/bakeshop/order-confirm/internal/docstore"
)

// ConfirmRequest is the wire shape of a confirmation call. Quantity stays a
// JSON number here; the validator narrows it to a positive whole count.
type ConfirmRequest struct {
	OrderDocID    string        `json:"orderDocId"`
	PaymentStatus string        `json:"paymentStatus"`
	OrderItems    []ConfirmItem `json:"orderItems"`
}

type ConfirmItem struct {
	ID       string  `json:"id"`
	Quantity float64 `json:"quantity"`
}

// ItemQty is one validated line item handed to the engine.
type ItemQty struct {
	ItemID string `json:"id"`
	Qty    int64  `json:"qty"`
}

// Order mirrors the fields of an order document this service touches.
type Order struct {
	DocID         string    `json:"orderDocId"`
	OrderStatus   Status    `json:"orderStatus"`
	PaymentStatus string    `json:"paymentStatus,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// InventoryItem mirrors an inventory document. Quantity is available stock
// and is never driven below zero by a confirmation.
type InventoryItem struct {
	DocID    string `json:"id"`
	Quantity int64  `json:"quantity"`
}

// OrderFromDoc maps a stored document onto the typed model. The durable
// store round-trips timestamps through JSON, so updatedAt may arrive as a
// string; the in-memory store keeps time.Time.
func OrderFromDoc(docID string, doc docstore.Doc) Order {
	o := Order{DocID: docID}
	if s, ok := doc[FieldOrderStatus].(string); ok {
		o.OrderStatus = Status(s)
	}
	if s, ok := doc[FieldPaymentStatus].(string); ok {
		o.PaymentStatus = s
	}
	switch v := doc[FieldUpdatedAt].(type) {
	case time.Time:
		o.UpdatedAt = v
	case string:
		if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
			o.UpdatedAt = ts
		}
	}
	return o
}

// Document field names shared by the engine and the stores.
const (
	FieldOrderStatus   = "orderStatus"
	FieldPaymentStatus = "paymentStatus"
	FieldUpdatedAt     = "updatedAt"
	FieldQuantity      = "quantity"
)
