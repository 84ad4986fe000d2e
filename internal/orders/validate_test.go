package orders

import (
	"errors"
	"testing"
)

func validReq() ConfirmRequest {
	return ConfirmRequest{
		OrderDocID:    "order-1",
		PaymentStatus: "paid",
		OrderItems: []ConfirmItem{
			{ID: "cookie-1", Quantity: 2},
			{ID: "baguette-1", Quantity: 1},
		},
	}
}

func fieldOf(t *testing.T, err error) (string, int) {
	t.Helper()
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	return ve.Field, ve.Index
}

func TestValidateOK(t *testing.T) {
	items, err := ValidateConfirmRequest(validReq())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 || items[0].ItemID != "cookie-1" || items[0].Qty != 2 {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestValidateMissingOrderDocID(t *testing.T) {
	req := validReq()
	req.OrderDocID = ""
	_, err := ValidateConfirmRequest(req)
	if f, i := fieldOf(t, err); f != "orderDocId" || i != -1 {
		t.Fatalf("got field=%s index=%d", f, i)
	}
}

func TestValidateMissingPaymentStatus(t *testing.T) {
	req := validReq()
	req.PaymentStatus = "   "
	_, err := ValidateConfirmRequest(req)
	if f, _ := fieldOf(t, err); f != "paymentStatus" {
		t.Fatalf("got field=%s", f)
	}
}

func TestValidateEmptyItems(t *testing.T) {
	req := validReq()
	req.OrderItems = nil
	_, err := ValidateConfirmRequest(req)
	if f, _ := fieldOf(t, err); f != "orderItems" {
		t.Fatalf("got field=%s", f)
	}
}

func TestValidateItemErrorsCarryIndex(t *testing.T) {
	req := validReq()
	req.OrderItems[1].ID = " "
	_, err := ValidateConfirmRequest(req)
	if f, i := fieldOf(t, err); f != "orderItems.id" || i != 1 {
		t.Fatalf("got field=%s index=%d", f, i)
	}

	req = validReq()
	req.OrderItems[0].Quantity = 0
	_, err = ValidateConfirmRequest(req)
	if f, i := fieldOf(t, err); f != "orderItems.quantity" || i != 0 {
		t.Fatalf("got field=%s index=%d", f, i)
	}
}

func TestValidateFractionalQuantityRejected(t *testing.T) {
	req := validReq()
	req.OrderItems[0].Quantity = 1.5
	_, err := ValidateConfirmRequest(req)
	if f, i := fieldOf(t, err); f != "orderItems.quantity" || i != 0 {
		t.Fatalf("got field=%s index=%d", f, i)
	}
}

// Missing orderDocId wins over malformed items: checks run in a fixed order.
func TestValidatePrecedence(t *testing.T) {
	req := ConfirmRequest{
		PaymentStatus: "",
		OrderItems:    []ConfirmItem{{ID: "", Quantity: -3}},
	}
	_, err := ValidateConfirmRequest(req)
	if f, _ := fieldOf(t, err); f != "orderDocId" {
		t.Fatalf("got field=%s", f)
	}
}

// Within one item, the id check precedes the quantity check.
func TestValidateItemIDBeforeQuantity(t *testing.T) {
	req := validReq()
	req.OrderItems[0] = ConfirmItem{ID: "", Quantity: -1}
	_, err := ValidateConfirmRequest(req)
	if f, i := fieldOf(t, err); f != "orderItems.id" || i != 0 {
		t.Fatalf("got field=%s index=%d", f, i)
	}
}
