package rest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/vladislavdragonenkov/shop/internal/auth"
	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/service/order"
)

// maxRequestBodyBytes ограничивает размер тела запроса.
const maxRequestBodyBytes = 1 << 20

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	key := r.Header.Get("Idempotency-Key")
	if key != "" && h.idempotency != nil {
		h.createOrderIdempotent(w, identity, key, body)
		return
	}

	status, response := h.performCreateOrder(identity, body)
	writeJSON(w, status, response)
}

// createOrderIdempotent защищает размещение заказа от повторов: первый запрос
// с ключом захватывает запись в статусе processing, остальные либо получают
// закэшированный ответ, либо конфликт.
func (h *Handler) createOrderIdempotent(w http.ResponseWriter, identity auth.Identity, key string, body []byte) {
	hash := sha256.Sum256(body)
	requestHash := hex.EncodeToString(hash[:])

	record, err := h.idempotency.CreateProcessing(key, requestHash, time.Now().UTC().Add(h.idempotencyTTL))
	switch {
	case err == nil:
		status, response := h.performCreateOrder(identity, body)

		cached, marshalErr := json.Marshal(response)
		if marshalErr != nil {
			h.logger.WithError(marshalErr).Error("failed to cache idempotent response")
			writeJSON(w, status, response)
			return
		}

		if response.Success {
			err = h.idempotency.MarkDone(key, cached, status)
		} else {
			err = h.idempotency.MarkFailed(key, cached, status)
		}
		if err != nil {
			h.logger.WithError(err).WithField("idempotency_key", key).Error("failed to finalize idempotency record")
		}

		writeJSON(w, status, response)

	case errors.Is(err, domain.ErrIdempotencyHashMismatch):
		status, message := mapError(err)
		writeError(w, status, message)

	case errors.Is(err, domain.ErrIdempotencyKeyAlreadyExists):
		if record.Status == domain.IdempotencyStatusProcessing {
			writeError(w, http.StatusConflict, "request with this idempotency key is still being processed")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(record.HTTPStatus)
		if _, err := w.Write(record.ResponseBody); err != nil {
			h.logger.WithError(err).Error("failed to replay cached response")
		}

	default:
		h.logger.WithError(err).WithField("idempotency_key", key).Error("idempotency store failure")
		status, message := mapError(err)
		writeError(w, status, message)
	}
}

func (h *Handler) performCreateOrder(identity auth.Identity, body []byte) (int, envelope) {
	var req createOrderRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return http.StatusBadRequest, envelope{Success: false, Message: "invalid request body"}
	}

	items := make([]order.CreateItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, order.CreateItemInput{
			ProductID: item.Product,
			Qty:       item.Quantity,
		})
	}

	result, err := h.orders.Create(order.CreateInput{
		CustomerID:    identity.UserID,
		Items:         items,
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
		Address: domain.ShippingAddress{
			Street:      req.ShippingAddress.Street,
			City:        req.ShippingAddress.City,
			State:       req.ShippingAddress.State,
			ZipCode:     req.ShippingAddress.ZipCode,
			Country:     req.ShippingAddress.Country,
			PhoneNumber: req.ShippingAddress.PhoneNumber,
			Email:       req.ShippingAddress.Email,
		},
		Notes: req.OrderNotes,
	})
	if err != nil {
		status, message := mapError(err)
		if status >= http.StatusInternalServerError {
			h.logger.WithError(err).Error("order creation failed")
		}
		return status, envelope{Success: false, Message: message}
	}

	return http.StatusCreated, envelope{
		Success: true,
		Message: "Order placed successfully",
		Data: createOrderResponse{
			Order:      toOrderPayload(result.Order),
			SessionID:  result.SessionID,
			PaymentURL: result.PaymentURL,
		},
	}
}

func (h *Handler) listMyOrders(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
	page, limit := pageParams(r)

	orders, pageInfo, err := h.orders.ListMine(identity.UserID, page, limit)
	if err != nil {
		h.respondError(w, err, "list own orders failed")
		return
	}

	writeSuccess(w, http.StatusOK, "", toOrderPayloads(orders), toPagination(pageInfo))
}

func (h *Handler) listAllOrders(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	page, limit := pageParams(r)
	status := domain.OrderStatus(r.URL.Query().Get("status"))

	orders, pageInfo, err := h.orders.ListAll(status, page, limit)
	if err != nil {
		h.respondError(w, err, "list all orders failed")
		return
	}

	writeSuccess(w, http.StatusOK, "", toOrderPayloads(orders), toPagination(pageInfo))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
	orderID := mux.Vars(r)["id"]

	result, timeline, err := h.orders.Get(orderID, identity.UserID, identity.IsAdmin())
	if err != nil {
		h.respondError(w, err, "get order failed")
		return
	}

	writeSuccess(w, http.StatusOK, "", orderDetailsResponse{
		Order:    toOrderPayload(result),
		Timeline: toTimelinePayloads(timeline),
	}, nil)
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
	orderID := mux.Vars(r)["id"]

	result, err := h.orders.Cancel(orderID, identity.UserID)
	if err != nil {
		h.respondError(w, err, "cancel order failed")
		return
	}

	writeSuccess(w, http.StatusOK, "Order cancelled successfully", toOrderPayload(result), nil)
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	orderID := mux.Vars(r)["id"]

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.orders.UpdateStatus(orderID, domain.OrderStatus(req.Status), req.TrackingNumber)
	if err != nil {
		h.respondError(w, err, "update order status failed")
		return
	}

	writeSuccess(w, http.StatusOK, "Order status updated successfully", toOrderPayload(result), nil)
}

// respondError маппит ошибку в HTTP-ответ; серверные ошибки дополнительно логируются.
func (h *Handler) respondError(w http.ResponseWriter, err error, logMessage string) {
	status, message := mapError(err)
	if status >= http.StatusInternalServerError {
		h.logger.WithError(err).Error(logMessage)
	}
	writeError(w, status, message)
}

func pageParams(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return page, limit
}
