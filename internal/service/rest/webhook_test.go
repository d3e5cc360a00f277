package rest

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/shop/internal/service/payment"
)

func signedHeaders(body []byte) map[string]string {
	return map[string]string{
		webhookSignatureHeader: payment.Sign(webhookSecret, time.Now(), body),
	}
}

func completedEventBody(sessionID string, amount int64) []byte {
	return []byte(fmt.Sprintf(
		`{"type":"checkout.session.completed","data":{"object":{"id":%q,"amount_total":%d}}}`,
		sessionID, amount,
	))
}

func (e *restEnv) placeOrder(t *testing.T) createOrderResponse {
	t.Helper()

	recorder := e.do(t, http.MethodPost, "/api/orders", tokenUser,
		createOrderBody(t, createOrderItem{Product: "prod-a", Quantity: 1}), nil)
	require.Equal(t, http.StatusCreated, recorder.Code, "body: %s", recorder.Body.String())

	var data createOrderResponse
	decodeData(t, decodeEnvelope(t, recorder), &data)
	return data
}

func TestHandler_Webhook_ReconcilesPayment(t *testing.T) {
	env := newRESTEnv(t, defaultProducts()...)
	placed := env.placeOrder(t)

	body := completedEventBody(placed.SessionID, 1100)
	recorder := env.do(t, http.MethodPost, "/api/payments/webhook", "", body, signedHeaders(body))

	require.Equal(t, http.StatusOK, recorder.Code, "body: %s", recorder.Body.String())
	assert.JSONEq(t, `{"received":true}`, recorder.Body.String())

	updated, err := env.orders.Get(placed.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, "paid", string(updated.PaymentStatus))
	// Сумма провайдера авторитетна и перезаписывает сумму заказа.
	assert.Equal(t, int64(1100), updated.AmountMinor)
}

func TestHandler_Webhook_ReplayIsIdempotent(t *testing.T) {
	env := newRESTEnv(t, defaultProducts()...)
	placed := env.placeOrder(t)

	body := completedEventBody(placed.SessionID, 1000)
	for i := 0; i < 2; i++ {
		recorder := env.do(t, http.MethodPost, "/api/payments/webhook", "", body, signedHeaders(body))
		require.Equal(t, http.StatusOK, recorder.Code)
	}

	updated, err := env.orders.Get(placed.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, "paid", string(updated.PaymentStatus))
}

func TestHandler_Webhook_BadSignature(t *testing.T) {
	env := newRESTEnv(t, defaultProducts()...)
	placed := env.placeOrder(t)

	body := completedEventBody(placed.SessionID, 1000)

	recorder := env.do(t, http.MethodPost, "/api/payments/webhook", "", body, nil)
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = env.do(t, http.MethodPost, "/api/payments/webhook", "", body, map[string]string{
		webhookSignatureHeader: payment.Sign("wrong-secret", time.Now(), body),
	})
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	// Событие с невалидной подписью не применяется.
	updated, err := env.orders.Get(placed.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, "pending", string(updated.PaymentStatus))
}

func TestHandler_Webhook_UnknownSessionAcknowledged(t *testing.T) {
	env := newRESTEnv(t, defaultProducts()...)

	body := completedEventBody("cs_unknown", 1000)
	recorder := env.do(t, http.MethodPost, "/api/payments/webhook", "", body, signedHeaders(body))

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"received":true}`, recorder.Body.String())
}

func TestHandler_Webhook_UnknownEventTypeIgnored(t *testing.T) {
	env := newRESTEnv(t, defaultProducts()...)
	placed := env.placeOrder(t)

	body := []byte(`{"type":"invoice.paid","data":{"object":{"id":"cs_x","amount_total":5}}}`)
	recorder := env.do(t, http.MethodPost, "/api/payments/webhook", "", body, signedHeaders(body))
	require.Equal(t, http.StatusOK, recorder.Code)

	updated, err := env.orders.Get(placed.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, "pending", string(updated.PaymentStatus))
}

func TestHandler_Webhook_MalformedBody(t *testing.T) {
	env := newRESTEnv(t, defaultProducts()...)

	body := []byte(`{not json`)
	recorder := env.do(t, http.MethodPost, "/api/payments/webhook", "", body, signedHeaders(body))
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}
