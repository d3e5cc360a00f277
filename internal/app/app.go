package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/auth"
	healthcheck "github.com/vladislavdragonenkov/shop/internal/health"
	"github.com/vladislavdragonenkov/shop/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/shop/internal/service/checkout"
	idemworker "github.com/vladislavdragonenkov/shop/internal/service/idempotency"
	"github.com/vladislavdragonenkov/shop/internal/service/order"
	"github.com/vladislavdragonenkov/shop/internal/service/outbox"
	"github.com/vladislavdragonenkov/shop/internal/service/payment"
	"github.com/vladislavdragonenkov/shop/internal/service/rest"
	"github.com/vladislavdragonenkov/shop/internal/version"
)

func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := buildDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.WithError(err).Warn("failed to close storage")
		}
	}()

	authenticator, err := auth.ParseStaticTokens(cfg.AuthTokens)
	if err != nil {
		return fmt.Errorf("parse auth tokens: %w", err)
	}

	// Инициализация Kafka producer (опционально)
	var kafkaProducer *kafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		} else {
			kafkaProducer = producer
			logger.WithField("brokers", cfg.KafkaBrokers).Info("kafka producer initialized")
		}
	}

	// NOTE: Using mock checkout provider for development/demo purposes
	// In production, replace with a real payment provider client
	checkoutProvider := checkout.NewMockProvider()

	orderService := order.NewService(
		deps.Orders,
		deps.Products,
		deps.Intents,
		deps.Sequences,
		checkoutProvider,
		deps.Outbox,
		deps.Timeline,
		logger.WithField("layer", "order"),
	)
	reconciler := payment.NewReconciler(
		deps.Intents,
		deps.Orders,
		deps.Timeline,
		deps.Outbox,
		logger.WithField("layer", "payment"),
	)
	verifier := payment.NewSignatureVerifier(cfg.WebhookSecret, cfg.WebhookTolerance)

	restHandler := rest.NewHandler(
		orderService,
		reconciler,
		verifier,
		authenticator,
		rest.WithLogger(logger.WithField("layer", "http")),
		rest.WithIdempotency(deps.Idempotency, cfg.IdempotencyTTL),
	)

	// HTTP Health checks
	versionStr, _, _ := version.Info()
	healthHandler := healthcheck.NewHandler(versionStr)
	if deps.Store != nil {
		healthHandler.RegisterChecker("storage", healthcheck.NewStorageChecker(deps.Store, 2*time.Second))
	}

	metricsSrv := startOpsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	// Фоновые воркеры: публикация outbox (только при настроенном Kafka)
	// и чистка истёкших idempotency-записей.
	var workers sync.WaitGroup
	if kafkaProducer != nil {
		publisher := kafka.NewOutboxPublisher(kafkaProducer, kafka.TopicOrderEvents)
		dlqPublisher := kafka.NewOutboxPublisher(kafkaProducer, kafka.TopicDeadLetterQueue)

		outboxWorker := outbox.NewWorker(
			deps.Outbox,
			publisher,
			outbox.WithLogger(logger.WithField("layer", "outbox")),
			outbox.WithDLQPublisher(dlqPublisher),
			outbox.WithOriginTopic(kafka.TopicOrderEvents),
			outbox.WithPollInterval(cfg.OutboxPollInterval),
			outbox.WithBatchSize(cfg.OutboxBatchSize),
			outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
		)
		workers.Add(1)
		go func() {
			defer workers.Done()
			outboxWorker.Run(ctx)
		}()
	} else {
		logger.Info("kafka brokers not configured, outbox worker disabled")
	}

	cleanupWorker := idemworker.NewCleanupWorker(
		deps.Idempotency,
		idemworker.WithLogger(logger.WithField("layer", "idempotency")),
		idemworker.WithInterval(cfg.IdempotencyCleanupInterval),
	)
	workers.Add(1)
	go func() {
		defer workers.Done()
		cleanupWorker.Run(ctx)
	}()

	apiSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: restHandler.Router()}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP API слушает %s", cfg.HTTPAddr)
		errCh <- apiSrv.ListenAndServe()
	}()

	closeProducer := func() {
		if kafkaProducer == nil {
			return
		}
		if err := kafkaProducer.Close(); err != nil {
			logger.WithError(err).Warn("failed to close kafka producer")
		} else {
			logger.Info("kafka producer closed")
		}
	}

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP сервер")
		shutdownHTTP(apiSrv, logger)
		shutdownHTTP(metricsSrv, logger)
		workers.Wait()
		closeProducer()
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)
		workers.Wait()
		closeProducer()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// startOpsServer запускает служебный HTTP-сервер: метрики и health checks.
func startOpsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler http.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez", addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("ops server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
