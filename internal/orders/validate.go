package orders

import (
	"fmt"
	"math"
	"strings"
)

// ValidationError reports the first structurally invalid field of a
// confirmation request. Index is the offending item's position for item-level
// violations and -1 otherwise.
type ValidationError struct {
	Field string
	Index int
	Msg   string
}

func (e *ValidationError) Error() string { return e.Msg }

// ValidateConfirmRequest checks request shape before any store access and
// returns the validated line items. Checks run in a fixed order for
// deterministic error reporting: orderDocId, then paymentStatus, then the
// items list, then each item by increasing index (id before quantity); the
// first violation short-circuits.
func ValidateConfirmRequest(req ConfirmRequest) ([]ItemQty, error) {
	if req.OrderDocID == "" {
		return nil, &ValidationError{Field: "orderDocId", Index: -1, Msg: "missing orderDocId"}
	}
	if strings.TrimSpace(req.PaymentStatus) == "" {
		return nil, &ValidationError{Field: "paymentStatus", Index: -1, Msg: "invalid paymentStatus"}
	}
	if len(req.OrderItems) == 0 {
		return nil, &ValidationError{Field: "orderItems", Index: -1, Msg: "no orderItems"}
	}
	items := make([]ItemQty, 0, len(req.OrderItems))
	for i, it := range req.OrderItems {
		if strings.TrimSpace(it.ID) == "" {
			return nil, &ValidationError{Field: "orderItems.id", Index: i, Msg: fmt.Sprintf("invalid itemId [%d]", i)}
		}
		if it.Quantity <= 0 || it.Quantity != math.Trunc(it.Quantity) {
			return nil, &ValidationError{Field: "orderItems.quantity", Index: i, Msg: fmt.Sprintf("invalid quantity for item [%d]", i)}
		}
		items = append(items, ItemQty{ItemID: it.ID, Qty: int64(it.Quantity)})
	}
	return items, nil
}
