package main

import (
	"context"
	"time"

	"tablebook/internal/booking/handler"
	"tablebook/internal/booking/session"
	"tablebook/internal/booking/validator"
	"tablebook/internal/hallmap"
	"tablebook/internal/health"
	"tablebook/internal/reservation"
	"tablebook/internal/tables"
	"tablebook/pkg/app"
	"tablebook/pkg/cache"
	"tablebook/pkg/client"
	"tablebook/pkg/config"
	"tablebook/pkg/kafka"
	kafka_config "tablebook/pkg/kafka/config"
	kafka_middleware "tablebook/pkg/kafka/middleware"
	"tablebook/pkg/middleware"
	"tablebook/pkg/sealer"
)

const (
	ServiceName = "booking"

	sessionSweepInterval = time.Minute
)

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetRedis()

	cfg.Log.Info("Starting Booking service")
	serverApp := app.NewApplication(cfg)

	tablesService := initTables(cfg)
	publisher := initKafka(cfg, serverApp, tablesService)
	bookingHandler := initHandler(cfg, serverApp, tablesService, publisher)

	healthHandler := health.NewHandler(map[string]health.Check{
		"backend": cfg.Client.Backend.Ping,
	}, cfg.Log)

	serverApp.SetApp(healthHandler, bookingHandler)
	serverApp.Run()
}

func initTables(cfg *config.Config) *tables.Service {
	var tableCache cache.TableCache
	if cfg.Client.Redis != nil {
		tableCache = cache.NewRedisTableCache(cfg.Client.Redis, cfg.TablesCacheTTL)
	} else {
		tableCache = cache.NewMemoryTableCache(cfg.TablesCacheTTL)
	}
	return tables.NewService(client.NewTablesClient(cfg.Client.Backend), tableCache, cfg.Log)
}

// initKafka publishes booking events and invalidates the tables cache on
// layout events. Without KAFKA_ENABLED events are dropped.
func initKafka(cfg *config.Config, serverApp *app.Application, tablesService *tables.Service) kafka.Publisher {
	if !cfg.KafkaEnabled {
		cfg.Log.Info("Kafka disabled, booking events will not be published")
		return kafka.NopPublisher{}
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.KafkaBookingsTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	serverApp.OnShutdown("kafka producer", producer.Close)

	consumer, err := kafka.NewConsumer(kafkaCfg, cfg.KafkaLayoutTopic, cfg.KafkaGroupID, tablesService.HandleLayoutEvent, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
	serverApp.AddWorker(func(ctx context.Context) {
		if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
			cfg.Log.Error("Layout event consumer stopped", "error", err)
		}
	})
	serverApp.OnShutdown("kafka consumer", consumer.Close)

	return producer
}

func initHandler(cfg *config.Config, serverApp *app.Application, tablesService *tables.Service, publisher kafka.Publisher) *handler.BookingHandler {
	draftValidator := validator.NewDraftValidator(cfg.Log)
	bookings := client.NewBookingsClient(cfg.Client.Backend)

	cookieSealer, err := sealer.New(cfg.SessionKey, "session")
	if err != nil {
		cfg.Log.Fatal("Invalid session key", "error", err)
	}
	store := session.NewStore(session.Config{
		TTL:                 cfg.SessionTTL,
		Canvas:              hallmap.Canvas{Width: float64(cfg.CanvasWidth), Height: float64(cfg.CanvasHeight)},
		AvailabilityTimeout: cfg.BackendTimeout,
		Today:               cfg.Today,
		Secure:              cfg.SessionSecure,
	}, cookieSealer, bookings, draftValidator, cfg.Log)
	serverApp.AddWorker(func(ctx context.Context) {
		store.Run(ctx, sessionSweepInterval)
	})

	submitter := reservation.NewSubmitter(bookings, draftValidator, publisher, reservation.Config{
		PaymentPagePath: cfg.PaymentPagePath,
		DepositAmount:   cfg.DepositAmount,
		Source:          ServiceName,
	}, cfg.Log)

	var (
		limiter     middleware.RateLimiter
		idempotency middleware.IdempotencyStore
	)
	if cfg.Client.Redis != nil {
		limiter = middleware.NewRedisRateLimiter(cfg.Client.Redis, cfg.SubmitRateLimit, cfg.SubmitRateWindow)
		idempotency = middleware.NewRedisIdempotencyStore(cfg.Client.Redis, cfg.IdempotencyTTL, cfg.Log)
	} else {
		memLimiter := middleware.NewPhoneRateLimiter(cfg.SubmitRateLimit, cfg.SubmitRateWindow)
		memStore := middleware.NewInMemoryIdempotencyStore(cfg.IdempotencyTTL)
		serverApp.OnShutdown("rate limiter", func() error { memLimiter.Stop(); return nil })
		serverApp.OnShutdown("idempotency store", func() error { memStore.Stop(); return nil })
		limiter, idempotency = memLimiter, memStore
	}

	return handler.NewBookingHandler(handler.Deps{
		Store:        store,
		Tables:       tablesService,
		Availability: bookings,
		Submitter:    submitter,
		RateLimiter:  limiter,
		RateWindow:   cfg.SubmitRateWindow,
		Idempotency:  idempotency,
		Log:          cfg.Log,
	})
}
