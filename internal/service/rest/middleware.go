package rest

import (
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/auth"
	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// statusRecorder запоминает статус ответа для лога запроса.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// logMiddleware пишет структурированную запись на каждый запрос.
func (h *Handler) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		h.logger.WithFields(log.Fields{
			"method":     r.Method,
			"url":        r.URL.Path,
			"status":     recorder.status,
			"durationMs": time.Since(started).Milliseconds(),
			"remoteAddr": r.RemoteAddr,
			"userAgent":  r.UserAgent(),
		}).Info("http request")
	})
}

// authenticatedHandler — обработчик, которому нужна подтверждённая личность.
type authenticatedHandler func(w http.ResponseWriter, r *http.Request, identity auth.Identity)

// authenticated извлекает bearer-токен и проверяет его через Authenticator.
// Запрос без валидного токена не доходит до бизнес-логики.
func (h *Handler) authenticated(next authenticatedHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			status, message := mapError(domain.ErrUnauthenticated)
			writeError(w, status, message)
			return
		}

		identity, err := h.authenticator.Authenticate(token)
		if err != nil {
			status, message := mapError(err)
			writeError(w, status, message)
			return
		}

		next(w, r, identity)
	})
}

// adminOnly дополнительно требует операторскую роль.
func (h *Handler) adminOnly(next authenticatedHandler) http.Handler {
	return h.authenticated(func(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
		if !identity.IsAdmin() {
			status, message := mapError(domain.ErrAccessDenied)
			writeError(w, status, message)
			return
		}
		next(w, r, identity)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}
