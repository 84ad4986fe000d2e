package redisx

import "time"

const (
	// Cached confirmation outcome: confirm:outcome:{order_doc_id} -> JSON
	// outcome body. Lets a repeated confirm short-circuit without opening a
	// transaction; the document store stays the source of truth.
	KeyConfirmOutcome = "confirm:outcome:%s"

	// Order status cache: order_status:{order_doc_id} -> {"status": "..."}
	KeyOrderStatus = "order_status:%s"

	// Stock read-through cache: stock:{item_id} -> quantity
	KeyStock = "stock:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLConfirmOutcome = 24 * time.Hour
	TTLStatusCache    = 5 * time.Minute
	TTLStockCache     = 30 * time.Second
	TTLDedup          = 48 * time.Hour
)
