package metrics

import "github.com/prometheus/client_golang/prometheus"

// WebhookMetrics содержит метрики обработки платёжных webhook-событий.
type WebhookMetrics struct {
	received          prometheus.Counter
	signatureRejected prometheus.Counter
	reconciled        prometheus.Counter
	unknownSession    prometheus.Counter
	replayed          prometheus.Counter
}

// NewWebhookMetrics создаёт новый экземпляр метрик webhook.
func NewWebhookMetrics() *WebhookMetrics {
	return newWebhookMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newWebhookMetricsWithRegisterer(registerer prometheus.Registerer) *WebhookMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &WebhookMetrics{
		received: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_webhook_events_received_total",
			Help: "Total number of webhook events received",
		}),
		signatureRejected: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_webhook_signature_rejected_total",
			Help: "Total number of webhook events rejected due to bad signature",
		}),
		reconciled: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_webhook_payments_reconciled_total",
			Help: "Total number of payments reconciled from webhook events",
		}),
		unknownSession: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_webhook_unknown_session_total",
			Help: "Total number of webhook events referencing unknown checkout sessions",
		}),
		replayed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_webhook_events_replayed_total",
			Help: "Total number of webhook events ignored as duplicates",
		}),
	}
}

// RecordReceived увеличивает счётчик принятых событий.
func (m *WebhookMetrics) RecordReceived() {
	m.received.Inc()
}

// RecordSignatureRejected увеличивает счётчик событий с неверной подписью.
func (m *WebhookMetrics) RecordSignatureRejected() {
	m.signatureRejected.Inc()
}

// RecordReconciled увеличивает счётчик успешно сверенных платежей.
func (m *WebhookMetrics) RecordReconciled() {
	m.reconciled.Inc()
}

// RecordUnknownSession увеличивает счётчик событий по неизвестным сессиям.
func (m *WebhookMetrics) RecordUnknownSession() {
	m.unknownSession.Inc()
}

// RecordReplayed увеличивает счётчик повторно доставленных событий.
func (m *WebhookMetrics) RecordReplayed() {
	m.replayed.Inc()
}
