package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/bakeshop/order-confirm/internal/docstore"
)

var (
	ErrOrderNotFound = errors.New("order not found")

	// ErrAlreadyConfirmed guards against a repeat confirmation decrementing
	// stock a second time.
	ErrAlreadyConfirmed = errors.New("order already confirmed")
)

// ItemNotFoundError identifies the missing inventory document.
type ItemNotFoundError struct {
	ItemID string
}

func (e *ItemNotFoundError) Error() string {
	return fmt.Sprintf("bakery item %s not found", e.ItemID)
}

// Outcome is the engine-level result of a confirmation attempt. OK false
// means the first item (in request order) with insufficient stock cancelled
// the whole order; nothing was written.
type Outcome struct {
	OK                 bool
	InsufficientItemID string
}

// Engine executes confirm-and-decrement atomically across one order document
// and N inventory documents. It holds no state of its own; all reads and
// writes go through a single store transaction.
type Engine struct {
	Store docstore.Store
}

// Confirm runs one transaction: read the order, read every requested item in
// request order, verify stock sufficiency, then stage the status update and
// all decrements together. The store may re-run the body on write conflict,
// so the body touches nothing outside the Tx.
//
// Returned errors: ErrOrderNotFound, ErrAlreadyConfirmed, *ItemNotFoundError,
// or a store failure. A stock shortage is not an error; it comes back as
// Outcome{OK: false}.
func (e *Engine) Confirm(ctx context.Context, orderDocID, paymentStatus string, items []ItemQty) (Outcome, error) {
	var out Outcome
	err := e.Store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		out = Outcome{}

		orderDoc, found, err := tx.Get(ctx, docstore.CollectionOrders, orderDocID)
		if err != nil {
			return err
		}
		if !found {
			return ErrOrderNotFound
		}
		if status, _ := orderDoc[FieldOrderStatus].(string); !CanConfirm(Status(status)) {
			return ErrAlreadyConfirmed
		}

		// Read phase: fetch every item before any write.
		type line struct {
			id            string
			current, want int64
		}
		lines := make([]line, 0, len(items))
		for _, it := range items {
			doc, found, err := tx.Get(ctx, docstore.CollectionItems, it.ItemID)
			if err != nil {
				return err
			}
			if !found {
				return &ItemNotFoundError{ItemID: it.ItemID}
			}
			lines = append(lines, line{id: it.ItemID, current: StockQuantity(doc), want: it.Qty})
		}

		// A single shortage cancels the whole order: no writes, not even for
		// items already verified sufficient.
		for _, l := range lines {
			if l.current < l.want {
				log.Printf("order %s: insufficient stock for item %s: have %d, want %d",
					orderDocID, l.id, l.current, l.want)
				out = Outcome{InsufficientItemID: l.id}
				return nil
			}
		}

		if err := tx.Update(ctx, docstore.CollectionOrders, orderDocID, docstore.Doc{
			FieldOrderStatus:   string(StatusConfirmed),
			FieldPaymentStatus: paymentStatus,
			FieldUpdatedAt:     docstore.ServerTimestamp,
		}); err != nil {
			return err
		}
		for _, l := range lines {
			if err := tx.Update(ctx, docstore.CollectionItems, l.id, docstore.Doc{
				FieldQuantity: l.current - l.want,
			}); err != nil {
				return err
			}
		}
		out = Outcome{OK: true}
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}
	return out, nil
}

// StockQuantity reads a stored quantity defensively: missing or non-numeric
// values count as zero, and so do negatives, so corrupt stock can never
// satisfy a request.
func StockQuantity(doc docstore.Doc) int64 {
	var n int64
	switch v := doc[FieldQuantity].(type) {
	case int64:
		n = v
	case int:
		n = int64(v)
	case float64:
		n = int64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		n = int64(f)
	default:
		return 0
	}
	if n < 0 {
		return 0
	}
	return n
}
