package main

import (
	"context"
	"os"

	"tablebook/internal/editor/handler"
	"tablebook/internal/editor/repository"
	"tablebook/internal/editor/service"
	"tablebook/internal/editor/validator"
	"tablebook/internal/hallmap"
	"tablebook/internal/health"
	"tablebook/internal/tables"
	"tablebook/pkg/app"
	"tablebook/pkg/cache"
	"tablebook/pkg/client"
	"tablebook/pkg/config"
	"tablebook/pkg/kafka"
	kafka_config "tablebook/pkg/kafka/config"
	kafka_middleware "tablebook/pkg/kafka/middleware"
)

const (
	ServiceName = "editor"

	defaultEditorPort = "8081"
)

func main() {
	cfg := config.Load(ServiceName)
	if os.Getenv(config.EnvPort) == "" {
		cfg.Port = defaultEditorPort
	}
	cfg.RequireEditor()
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting Layout Editor service")
	serverApp := app.NewApplication(cfg)

	var tableCache cache.TableCache
	if cfg.Client.Redis != nil {
		tableCache = cache.NewRedisTableCache(cfg.Client.Redis, cfg.TablesCacheTTL)
	} else {
		tableCache = cache.NewMemoryTableCache(cfg.TablesCacheTTL)
	}
	backend := client.NewTablesClient(cfg.Client.Backend)
	tablesService := tables.NewService(backend, tableCache, cfg.Log)

	layoutService := service.NewLayoutService(
		backend,
		tablesService,
		repository.NewMongoLayoutEventRepository(cfg),
		initPublisher(cfg, serverApp),
		validator.NewTableValidator(cfg.Log),
		service.Config{
			Canvas: hallmap.Canvas{Width: float64(cfg.CanvasWidth), Height: float64(cfg.CanvasHeight)},
			Grid:   float64(cfg.GridSnap),
			Source: ServiceName,
		},
		cfg.Log,
	)
	layoutHandler := handler.NewLayoutHandler(layoutService, []byte(cfg.JWTSecret), cfg.Log)

	healthHandler := health.NewHandler(map[string]health.Check{
		"backend": cfg.Client.Backend.Ping,
		"mongo": func(ctx context.Context) error {
			return cfg.Client.Mongo.Ping(ctx, nil)
		},
	}, cfg.Log)

	serverApp.SetApp(healthHandler, layoutHandler)
	serverApp.Run()
}

// initPublisher announces layout changes so booking instances drop their
// cached tables. Without KAFKA_ENABLED they rely on the cache TTL.
func initPublisher(cfg *config.Config, serverApp *app.Application) kafka.Publisher {
	if !cfg.KafkaEnabled {
		cfg.Log.Info("Kafka disabled, layout events will not be published")
		return kafka.NopPublisher{}
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.KafkaLayoutTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	serverApp.OnShutdown("kafka producer", producer.Close)
	return producer
}
