package config

import "time"

const (
	DefaultPort      = "8080"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultBackendURL     = "http://localhost:8000/api"
	DefaultBackendTimeout = 10 * time.Second

	DefaultRequestTimeout  = 30 * time.Second
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultCanvasWidth  = 800
	DefaultCanvasHeight = 600
	DefaultGridSnap     = 0

	// Development key only; deployments must set SESSION_KEY.
	DefaultSessionKey = "lfQVRuulcL2iOhOJ2r8BYTweoSKwVAJnIF9U+AL+M60="
	DefaultSessionTTL = 2 * time.Hour
	DefaultTimezone   = "Europe/Moscow"

	DefaultRedisDB        = 0
	DefaultTablesCacheTTL = 5 * time.Minute

	DefaultKafkaEnabled       = false
	DefaultKafkaBookingsTopic = "table-bookings"
	DefaultKafkaLayoutTopic   = "table-layout"
	DefaultKafkaGroupID       = "booking-cache"

	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "tablebook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultSubmitRateLimit  = 5
	DefaultSubmitRateWindow = 1 * time.Hour
	DefaultIdempotencyTTL   = 24 * time.Hour

	DefaultPaymentPagePath = "/payment/test"
	DefaultDepositAmount   = 500
)
