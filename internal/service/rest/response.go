package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// envelope — единый формат JSON-ответа сервиса.
type envelope struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Pagination *pagination `json:"pagination,omitempty"`
}

// pagination — метаданные постраничного списка.
type pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalOrders int  `json:"totalOrders"`
	HasNext     bool `json:"hasNext"`
	HasPrev     bool `json:"hasPrev"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.WithError(err).Error("marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.WithError(err).Error("write response")
	}
}

func writeSuccess(w http.ResponseWriter, status int, message string, data interface{}, page *pagination) {
	writeJSON(w, status, envelope{
		Success:    true,
		Message:    message,
		Data:       data,
		Pagination: page,
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Message: message})
}

// badRequestErrors — ошибки, которые клиент может исправить, поменяв запрос.
// Их текст безопасно отдавать наружу как есть.
var badRequestErrors = []error{
	domain.ErrCustomerRequired,
	domain.ErrItemsRequired,
	domain.ErrItemProductRequired,
	domain.ErrItemQtyInvalid,
	domain.ErrItemPriceInvalid,
	domain.ErrAmountNegative,
	domain.ErrAmountMismatch,
	domain.ErrAddressStreetRequired,
	domain.ErrAddressCityRequired,
	domain.ErrAddressCountryRequired,
	domain.ErrOrderIDRequired,
	domain.ErrOrderStatusUnknown,
	domain.ErrPaymentStatusUnknown,
	domain.ErrPaymentMethodInvalid,
	domain.ErrInsufficientStock,
	domain.ErrOrderStateConflict,
	domain.ErrStatusTransitionDenied,
	domain.ErrWebhookSignature,
	domain.ErrWebhookPayloadInvalid,
	domain.ErrSessionIDRequired,
}

// mapError переводит доменную ошибку в HTTP-статус и сообщение для клиента.
// Внутренние ошибки наружу не раскрываются: клиент получает общий текст,
// детали остаются в логах.
func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, "authentication required"
	case errors.Is(err, domain.ErrAccessDenied):
		return http.StatusForbidden, "access denied"
	case domain.IsNotFound(err):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrIdempotencyHashMismatch):
		return http.StatusConflict, "idempotency key reused with different request"
	case domain.IsVersionConflict(err):
		return http.StatusConflict, "order was modified concurrently, retry the request"
	case errors.Is(err, domain.ErrCheckoutUnavailable):
		return http.StatusBadGateway, "payment provider unavailable"
	}

	for _, sentinel := range badRequestErrors {
		if errors.Is(err, sentinel) {
			return http.StatusBadRequest, err.Error()
		}
	}

	return http.StatusInternalServerError, "internal server error"
}
