package config

import (
	"encoding/base64"
	"fmt"
	"maps"
	"net/url"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"tablebook/pkg/client"
	"tablebook/pkg/logger"
)

type Config struct {
	ServiceName string
	Port        string

	BackendURL     string
	BackendTimeout time.Duration

	RequestTimeout  time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	CanvasWidth  int
	CanvasHeight int
	GridSnap     int

	SessionKey    string
	SessionTTL    time.Duration
	SessionSecure bool
	Timezone      string

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	TablesCacheTTL time.Duration

	KafkaEnabled       bool
	KafkaBookingsTopic string
	KafkaLayoutTopic   string
	KafkaGroupID       string

	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	JWTSecret string

	SubmitRateLimit  int
	SubmitRateWindow time.Duration
	IdempotencyTTL   time.Duration

	PaymentPagePath string
	DepositAmount   int

	Log    *logger.Logger
	Client *client.Client
}

// Load reads an optional .env file, then the environment. It exits the
// process when the configuration is invalid.
func Load(serviceName string) *Config {
	_ = godotenv.Load()

	cfg := &Config{
		ServiceName: serviceName,
		Port:        getEnvStr(EnvPort, DefaultPort),

		BackendURL:     strings.TrimRight(getEnvStr(EnvBackendURL, DefaultBackendURL), "/"),
		BackendTimeout: getEnvDuration(EnvBackendTimeout, DefaultBackendTimeout),

		RequestTimeout:  getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		CanvasWidth:  getEnvNum(EnvCanvasWidth, DefaultCanvasWidth),
		CanvasHeight: getEnvNum(EnvCanvasHeight, DefaultCanvasHeight),
		GridSnap:     getEnvNum(EnvGridSnap, DefaultGridSnap),

		SessionKey:    getEnvStr(EnvSessionKey, DefaultSessionKey),
		SessionTTL:    getEnvDuration(EnvSessionTTL, DefaultSessionTTL),
		SessionSecure: getEnvBool(EnvSessionSecure, false),
		Timezone:      getEnvStr(EnvTimezone, DefaultTimezone),

		RedisAddr:      getEnvStr(EnvRedisAddr, ""),
		RedisPassword:  getEnvStr(EnvRedisPassword, ""),
		RedisDB:        getEnvNum(EnvRedisDB, DefaultRedisDB),
		TablesCacheTTL: getEnvDuration(EnvTablesCacheTTL, DefaultTablesCacheTTL),

		KafkaEnabled:       getEnvBool(EnvKafkaEnabled, DefaultKafkaEnabled),
		KafkaBookingsTopic: getEnvStr(EnvKafkaBookingsTopic, DefaultKafkaBookingsTopic),
		KafkaLayoutTopic:   getEnvStr(EnvKafkaLayoutTopic, DefaultKafkaLayoutTopic),
		KafkaGroupID:       getEnvStr(EnvKafkaGroupID, DefaultKafkaGroupID),

		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		JWTSecret: getEnvStr(EnvJWTSecret, ""),

		SubmitRateLimit:  getEnvNum(EnvSubmitRateLimit, DefaultSubmitRateLimit),
		SubmitRateWindow: getEnvDuration(EnvSubmitRateWindow, DefaultSubmitRateWindow),
		IdempotencyTTL:   getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),

		PaymentPagePath: getEnvStr(EnvPaymentPagePath, DefaultPaymentPagePath),
		DepositAmount:   getEnvNum(EnvDepositAmount, DefaultDepositAmount),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    getEnvStr(EnvLogFormat, DefaultLogFormat),
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.Client.SetBackend(cfg.BackendURL, cfg.BackendTimeout)
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

// SetRedis connects the tables cache store. Without REDIS_ADDR the services
// fall back to the in-memory cache and this is a no-op.
func (cfg *Config) SetRedis() {
	if cfg.RedisAddr == "" {
		cfg.Log.Info("REDIS_ADDR not set, using in-memory tables cache")
		return
	}
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
}

// RequireEditor checks the settings only the editor service depends on.
func (cfg *Config) RequireEditor() {
	if len(cfg.JWTSecret) < 16 {
		cfg.Log.Fatal("JWT_SECRET must be set to at least 16 characters for the editor service")
	}
}

// Today returns the current date in the restaurant's timezone.
func (cfg *Config) Today() string {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		loc = time.UTC
	}
	return time.Now().In(loc).Format("2006-01-02")
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if u, err := url.Parse(cfg.BackendURL); err != nil || u.Scheme == "" || u.Host == "" {
		errors = append(errors, fmt.Sprintf("BackendURL must be an absolute URL, got: %s", cfg.BackendURL))
	}

	if cfg.CanvasWidth <= 40 || cfg.CanvasHeight <= 40 {
		errors = append(errors, fmt.Sprintf("Canvas must be larger than 40x40, got: %dx%d", cfg.CanvasWidth, cfg.CanvasHeight))
	}
	if cfg.GridSnap < 0 {
		errors = append(errors, fmt.Sprintf("GridSnap cannot be negative, got: %d", cfg.GridSnap))
	}

	if key, err := base64.StdEncoding.DecodeString(cfg.SessionKey); err != nil || len(key) != 32 {
		errors = append(errors, "SessionKey must be a base64 encoded 32 byte key")
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("Timezone is not a valid IANA name, got: %s", cfg.Timezone))
	}

	if cfg.MongoURI != "" && !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}
	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}

	if cfg.KafkaEnabled {
		if cfg.KafkaBookingsTopic == "" || cfg.KafkaLayoutTopic == "" {
			errors = append(errors, "Kafka topics cannot be empty when Kafka is enabled")
		}
		if cfg.KafkaGroupID == "" {
			errors = append(errors, "KafkaGroupID cannot be empty when Kafka is enabled")
		}
	}

	if cfg.SubmitRateLimit <= 0 {
		errors = append(errors, fmt.Sprintf("SubmitRateLimit must be positive, got: %d", cfg.SubmitRateLimit))
	}
	if cfg.DepositAmount < 0 {
		errors = append(errors, fmt.Sprintf("DepositAmount cannot be negative, got: %d", cfg.DepositAmount))
	}
	if !strings.HasPrefix(cfg.PaymentPagePath, "/") && !strings.HasPrefix(cfg.PaymentPagePath, "http") {
		errors = append(errors, fmt.Sprintf("PaymentPagePath must be a path or URL, got: %s", cfg.PaymentPagePath))
	}

	durations := map[string]time.Duration{
		"BackendTimeout":   cfg.BackendTimeout,
		"RequestTimeout":   cfg.RequestTimeout,
		"ReadTimeout":      cfg.ReadTimeout,
		"WriteTimeout":     cfg.WriteTimeout,
		"IdleTimeout":      cfg.IdleTimeout,
		"ShutdownTimeout":  cfg.ShutdownTimeout,
		"SessionTTL":       cfg.SessionTTL,
		"TablesCacheTTL":   cfg.TablesCacheTTL,
		"MongoConnTimeout": cfg.MongoConnTimeout,
		"SubmitRateWindow": cfg.SubmitRateWindow,
		"IdempotencyTTL":   cfg.IdempotencyTTL,
	}
	for _, name := range slices.Sorted(maps.Keys(durations)) {
		if durations[name] <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", name, durations[name]))
		}
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"port", cfg.Port,
		"backend_url", cfg.BackendURL,
		"backend_timeout", cfg.BackendTimeout,
		"request_timeout", cfg.RequestTimeout,
		"canvas", fmt.Sprintf("%dx%d", cfg.CanvasWidth, cfg.CanvasHeight),
		"grid_snap", cfg.GridSnap,
		"session_ttl", cfg.SessionTTL,
		"session_secure", cfg.SessionSecure,
		"timezone", cfg.Timezone,
		"redis_addr", cfg.RedisAddr,
		"tables_cache_ttl", cfg.TablesCacheTTL,
		"kafka_enabled", cfg.KafkaEnabled,
		"kafka_bookings_topic", cfg.KafkaBookingsTopic,
		"kafka_layout_topic", cfg.KafkaLayoutTopic,
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"jwt_secret_set", cfg.JWTSecret != "",
		"submit_rate_limit", cfg.SubmitRateLimit,
		"submit_rate_window", cfg.SubmitRateWindow,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"payment_page_path", cfg.PaymentPagePath,
		"deposit_amount", cfg.DepositAmount,
	)
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
