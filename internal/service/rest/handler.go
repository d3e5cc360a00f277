package rest

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/auth"
	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/service/order"
	"github.com/vladislavdragonenkov/shop/internal/service/payment"
)

// defaultIdempotencyTTL — срок хранения записи идемпотентности по умолчанию.
const defaultIdempotencyTTL = 24 * time.Hour

// Handler — HTTP-поверхность сервиса: заказы клиента, операторские маршруты
// и webhook платёжного провайдера.
type Handler struct {
	orders        *order.Service
	reconciler    *payment.Reconciler
	verifier      *payment.SignatureVerifier
	authenticator auth.Authenticator
	logger        *log.Entry

	idempotency    domain.IdempotencyRepository
	idempotencyTTL time.Duration
}

// Option настраивает Handler.
type Option func(*Handler)

// WithLogger задаёт логгер обработчика.
func WithLogger(logger *log.Entry) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithIdempotency включает поддержку заголовка Idempotency-Key на создании заказа.
func WithIdempotency(repo domain.IdempotencyRepository, ttl time.Duration) Option {
	return func(h *Handler) {
		h.idempotency = repo
		if ttl > 0 {
			h.idempotencyTTL = ttl
		}
	}
}

// NewHandler конструирует HTTP-обработчик со всеми зависимостями.
func NewHandler(
	orders *order.Service,
	reconciler *payment.Reconciler,
	verifier *payment.SignatureVerifier,
	authenticator auth.Authenticator,
	options ...Option,
) *Handler {
	h := &Handler{
		orders:         orders,
		reconciler:     reconciler,
		verifier:       verifier,
		authenticator:  authenticator,
		idempotencyTTL: defaultIdempotencyTTL,
	}

	for _, option := range options {
		option(h)
	}

	if h.logger == nil {
		h.logger = log.New().WithField("component", "http")
	}
	return h
}

// Router собирает маршруты под /api. Конкретные пути регистрируются раньше
// шаблона {id}, иначе mux примет "my-orders" за идентификатор заказа.
func (h *Handler) Router() http.Handler {
	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()

	api.Handle("/orders", h.authenticated(h.createOrder)).Methods(http.MethodPost)
	api.Handle("/orders/my-orders", h.authenticated(h.listMyOrders)).Methods(http.MethodGet)
	api.Handle("/orders/admin/all", h.adminOnly(h.listAllOrders)).Methods(http.MethodGet)
	api.Handle("/orders/{id}", h.authenticated(h.getOrder)).Methods(http.MethodGet)
	api.Handle("/orders/{id}/cancel", h.authenticated(h.cancelOrder)).Methods(http.MethodPut)
	api.Handle("/orders/{id}/status", h.adminOnly(h.updateOrderStatus)).Methods(http.MethodPut)

	api.HandleFunc("/payments/webhook", h.handleWebhook).Methods(http.MethodPost)

	return h.logMiddleware(router)
}
