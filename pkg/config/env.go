package config

const (
	EnvPort      = "PORT"
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"

	EnvBackendURL     = "BACKEND_URL"
	EnvBackendTimeout = "BACKEND_TIMEOUT"

	EnvRequestTimeout  = "REQUEST_TIMEOUT"
	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvCanvasWidth  = "CANVAS_WIDTH"
	EnvCanvasHeight = "CANVAS_HEIGHT"
	EnvGridSnap     = "GRID_SNAP"

	EnvSessionKey    = "SESSION_KEY"
	EnvSessionTTL    = "SESSION_TTL"
	EnvSessionSecure = "SESSION_COOKIE_SECURE"
	EnvTimezone      = "RESTAURANT_TIMEZONE"

	EnvRedisAddr      = "REDIS_ADDR"
	EnvRedisPassword  = "REDIS_PASSWORD"
	EnvRedisDB        = "REDIS_DB"
	EnvTablesCacheTTL = "TABLES_CACHE_TTL"

	EnvKafkaEnabled       = "KAFKA_ENABLED"
	EnvKafkaBookingsTopic = "KAFKA_BOOKINGS_TOPIC"
	EnvKafkaLayoutTopic   = "KAFKA_LAYOUT_TOPIC"
	EnvKafkaGroupID       = "KAFKA_GROUP_ID"

	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvJWTSecret = "JWT_SECRET"

	EnvSubmitRateLimit  = "SUBMIT_RATE_LIMIT"
	EnvSubmitRateWindow = "SUBMIT_RATE_WINDOW"
	EnvIdempotencyTTL   = "IDEMPOTENCY_TTL"

	EnvPaymentPagePath = "PAYMENT_PAGE_PATH"
	EnvDepositAmount   = "DEPOSIT_AMOUNT"
)
