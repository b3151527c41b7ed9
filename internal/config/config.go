package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Midtrans MidtransConfig
	Auth     AuthConfig
	Orders   OrderConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port               string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	CORSAllowedOrigins []string
}

type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	AutoMigrate  bool
	SeedData     bool
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topics  TopicConfig
}

type TopicConfig struct {
	OrderCreated string
	OrderPaid    string
	OrderFailed  string
	Alerts       string
}

// All returns every configured topic, used when bootstrapping Kafka.
func (t TopicConfig) All() []string {
	return []string{t.OrderCreated, t.OrderPaid, t.OrderFailed, t.Alerts}
}

type MidtransConfig struct {
	ServerKey       string
	IsProduction    bool
	VerifySignature bool
	// isProductionSet records whether MIDTRANS_IS_PRODUCTION was present and parseable.
	isProductionSet bool
}

type AuthConfig struct {
	JWTSecret    string
	OIDCIssuer   string
	OIDCClientID string
}

type OrderConfig struct {
	PendingTTL     time.Duration
	IdempotencyTTL time.Duration
}

type LogConfig struct {
	Dir   string
	Level string
}

// Load reads an optional .env file and the process environment.
func Load() *Config {
	_ = godotenv.Load()

	isProduction, productionSet := lookupBool("MIDTRANS_IS_PRODUCTION")

	return &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", ":8080"),
			ReadTimeout:        15 * time.Second,
			WriteTimeout:       0, // SSE streams stay open
			IdleTimeout:        60 * time.Second,
			CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  time.Duration(getEnvInt("DB_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
			AutoMigrate:  getEnvBool("AUTO_MIGRATE", true),
			SeedData:     getEnvBool("SEED_DATA", false),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", true),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Enabled: getEnvBool("KAFKA_ENABLED", false),
			Brokers: splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
			Topics: TopicConfig{
				OrderCreated: getEnv("KAFKA_TOPIC_ORDER_CREATED", "booking.order.created"),
				OrderPaid:    getEnv("KAFKA_TOPIC_ORDER_PAID", "booking.order.paid"),
				OrderFailed:  getEnv("KAFKA_TOPIC_ORDER_FAILED", "booking.order.failed"),
				Alerts:       getEnv("KAFKA_TOPIC_ALERTS", "booking.reconciliation.alerts"),
			},
		},
		Midtrans: MidtransConfig{
			ServerKey:       os.Getenv("MIDTRANS_SERVER_KEY"),
			IsProduction:    isProduction,
			VerifySignature: getEnvBool("MIDTRANS_VERIFY_SIGNATURE", false),
			isProductionSet: productionSet,
		},
		Auth: AuthConfig{
			JWTSecret:    os.Getenv("AUTH_JWT_SECRET"),
			OIDCIssuer:   os.Getenv("AUTH_OIDC_ISSUER"),
			OIDCClientID: getEnv("AUTH_OIDC_CLIENT_ID", "authenticated"),
		},
		Orders: OrderConfig{
			PendingTTL:     time.Duration(getEnvInt("PENDING_ORDER_TTL_MINUTES", 0)) * time.Minute,
			IdempotencyTTL: time.Duration(getEnvInt("CHECKOUT_IDEMPOTENCY_TTL_MINUTES", 10)) * time.Minute,
		},
		Log: LogConfig{
			Dir:   getEnv("LOG_DIR", "logs"),
			Level: getEnv("LOG_LEVEL", "INFO"),
		},
	}
}

// Validate reports every missing required setting at once.
func (c *Config) Validate() error {
	var missing []string
	if c.Database.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.Midtrans.ServerKey == "" {
		missing = append(missing, "MIDTRANS_SERVER_KEY")
	}
	if !c.Midtrans.isProductionSet {
		missing = append(missing, "MIDTRANS_IS_PRODUCTION")
	}
	if c.Auth.JWTSecret == "" && c.Auth.OIDCIssuer == "" {
		missing = append(missing, "AUTH_JWT_SECRET or AUTH_OIDC_ISSUER")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if c.Orders.PendingTTL > 0 && !c.Redis.Enabled {
		return errors.New("PENDING_ORDER_TTL_MINUTES requires REDIS_ENABLED")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if parsed, ok := lookupBool(key); ok {
		return parsed
	}
	return defaultValue
}

func lookupBool(key string) (bool, bool) {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed, true
		}
	}
	return false, false
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
