package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/bakeshop/order-confirm/internal/docstore"
	kafkax "github.com/bakeshop/order-confirm/internal/kafka"
	"github.com/bakeshop/order-confirm/internal/orders"
	"github.com/bakeshop/order-confirm/internal/redisx"
)

// ConfirmHandler adapts HTTP requests onto the confirmation engine and maps
// every engine outcome to a distinguishable response.
type ConfirmHandler struct {
	Engine         *orders.Engine
	Store          docstore.Reader
	Producer       *kafkax.Producer // order.confirmed
	RejectProducer *kafkax.Producer // order.rejected
	Redis          *redis.Client
	Service        string
}

// confirmResp is the response envelope the storefront consumes.
type confirmResp struct {
	Success            bool   `json:"success"`
	Status             string `json:"status"`
	Message            string `json:"message"`
	InsufficientItemID string `json:"insufficientItemId,omitempty"`
}

func (h *ConfirmHandler) Register(r *chi.Mux) {
	r.Post("/api/confirm-order", h.confirmOrder)
	r.Get("/api/orders/{id}", h.getOrder)
	r.Get("/api/stock/{itemId}", h.getStock)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *ConfirmHandler) confirmOrder(w http.ResponseWriter, r *http.Request) {
	var req orders.ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, confirmResp{Status: "error", Message: "invalid json"})
		return
	}

	items, err := orders.ValidateConfirmRequest(req)
	if err != nil {
		log.Printf("validation error: %v", err)
		writeJSON(w, http.StatusBadRequest, confirmResp{Status: "error", Message: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// Fast-path: a confirm already committed for this order replays its
	// success response instead of tripping the already-confirmed guard.
	// The store stays the source of truth; cache errors just fall through.
	idemKey := fmt.Sprintf(redisx.KeyConfirmOutcome, req.OrderDocID)
	if h.Redis != nil {
		if cached, err := h.Redis.Get(ctx, idemKey).Result(); err == nil && cached != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(cached))
			return
		}
	}

	out, err := h.Engine.Confirm(ctx, req.OrderDocID, req.PaymentStatus, items)
	if err != nil {
		h.writeConfirmError(w, err)
		return
	}

	if !out.OK {
		resp := confirmResp{
			Status:             "payment_confirmed_order_cancelled",
			Message:            fmt.Sprintf("Insufficient stock for item %s", out.InsufficientItemID),
			InsufficientItemID: out.InsufficientItemID,
		}
		h.publishRejected(req.OrderDocID, out.InsufficientItemID, r.Header.Get("X-Request-Id"))
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}

	resp := confirmResp{
		Success: true,
		Status:  "success",
		Message: "Order confirmed and stock decremented",
	}
	if h.Redis != nil {
		if b, err := json.Marshal(resp); err == nil {
			_ = h.Redis.Set(ctx, idemKey, b, redisx.TTLConfirmOutcome).Err()
		}
		statusKey := fmt.Sprintf(redisx.KeyOrderStatus, req.OrderDocID)
		_ = h.Redis.Set(ctx, statusKey, `{"status":"confirmed"}`, redisx.TTLStatusCache).Err()
	}

	h.publishConfirmed(req.OrderDocID, req.PaymentStatus, items, r.Header.Get("X-Request-Id"))
	writeJSON(w, http.StatusOK, resp)
}

func (h *ConfirmHandler) writeConfirmError(w http.ResponseWriter, err error) {
	var infe *orders.ItemNotFoundError
	switch {
	case errors.Is(err, orders.ErrOrderNotFound):
		writeJSON(w, http.StatusNotFound, confirmResp{Status: "error", Message: "Order not found"})
	case errors.As(err, &infe):
		writeJSON(w, http.StatusNotFound, confirmResp{Status: "error", Message: infe.Error()})
	case errors.Is(err, orders.ErrAlreadyConfirmed):
		writeJSON(w, http.StatusConflict, confirmResp{Status: "error", Message: "Order already confirmed"})
	default:
		log.Printf("confirm-order store failure: %v", err)
		writeJSON(w, http.StatusInternalServerError, confirmResp{Status: "error", Message: err.Error()})
	}
}

func (h *ConfirmHandler) publishConfirmed(orderDocID, paymentStatus string, items []orders.ItemQty, trace string) {
	if h.Producer == nil {
		return
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderConfirmed,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       trace,
		CorrelationID: orderDocID,
		Payload: kafkax.MustMarshal(orders.OrderConfirmedPayload{
			OrderDocID:    orderDocID,
			PaymentStatus: paymentStatus,
			Items:         items,
		}),
	}
	h.Producer.Publish(orders.PartitionKey(orderDocID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderConfirmed)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (h *ConfirmHandler) publishRejected(orderDocID, itemID, trace string) {
	if h.RejectProducer == nil {
		return
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderRejected,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       trace,
		CorrelationID: orderDocID,
		Payload: kafkax.MustMarshal(orders.OrderRejectedPayload{
			OrderDocID:         orderDocID,
			Reason:             orders.RejectReasonOutOfStock,
			InsufficientItemID: itemID,
		}),
	}
	h.RejectProducer.Publish(orders.PartitionKey(orderDocID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderRejected)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (h *ConfirmHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderDocID := chi.URLParam(r, "id")
	if orderDocID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// cache first, store fallback
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderDocID)
	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	doc, found, err := h.Store.Lookup(ctx, docstore.CollectionOrders, orderDocID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	order := orders.OrderFromDoc(orderDocID, doc)
	if h.Redis != nil {
		if b, err := json.Marshal(map[string]string{"status": string(order.OrderStatus)}); err == nil {
			_ = h.Redis.Set(ctx, key, b, redisx.TTLStatusCache).Err()
		}
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *ConfirmHandler) getStock(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemId")
	if itemID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing itemId"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	key := fmt.Sprintf(redisx.KeyStock, itemID)
	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, key).Int64(); err == nil {
			writeJSON(w, http.StatusOK, orders.InventoryItem{DocID: itemID, Quantity: s})
			return
		}
	}

	doc, found, err := h.Store.Lookup(ctx, docstore.CollectionItems, itemID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
		return
	}
	qty := orders.StockQuantity(doc)
	if h.Redis != nil {
		_ = h.Redis.Set(ctx, key, qty, redisx.TTLStockCache).Err()
	}
	writeJSON(w, http.StatusOK, orders.InventoryItem{DocID: itemID, Quantity: qty})
}
