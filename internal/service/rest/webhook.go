package rest

import (
	"io"
	"net/http"
)

// webhookSignatureHeader несёт подпись тела события от платёжного провайдера.
const webhookSignatureHeader = "Shop-Signature"

// handleWebhook принимает события платёжного провайдера. Тело читается сырым:
// подпись считается над байтами запроса, любой разбор до проверки подписи
// открыл бы обработчик для неаутентифицированного ввода.
func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	if err := h.verifier.Verify(body, r.Header.Get(webhookSignatureHeader)); err != nil {
		h.reconciler.RecordSignatureRejected()
		h.logger.WithError(err).Warn("webhook signature rejected")
		status, message := mapError(err)
		writeError(w, status, message)
		return
	}

	if err := h.reconciler.HandleEvent(body); err != nil {
		h.logger.WithError(err).Warn("webhook event rejected")
		status, message := mapError(err)
		writeError(w, status, message)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
