package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	DBDriver    string
	DatabaseURL string

	JWTSecret    []byte
	JWTTTL       time.Duration
	CookieSecure bool

	KafkaBrokers []string

	ESURL          string
	ESUser         string
	ESPassword     string
	ESProductIndex string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	PaymentAPIURL        string
	PaymentKeyID         string
	PaymentKeySecret     string
	PaymentWebhookSecret string
	PaymentCurrency      string
	PaymentTimeout       time.Duration

	AuthRateLimit int
	CSRFEnabled   bool
}

func Load() Config {
	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "coffee_shop"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    os.Getenv("LOG_LEVEL"),

		DBDriver:    EnvDefault("DB_DRIVER", "postgres"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret:    []byte(os.Getenv("JWT_SECRET")),
		JWTTTL:       EnvDurationDefault("JWT_TTL", 24*time.Hour),
		CookieSecure: EnvBoolDefault("COOKIE_SECURE", true),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		ESURL:          os.Getenv("ES_URL"),
		ESUser:         os.Getenv("ES_USER"),
		ESPassword:     os.Getenv("ES_PASSWORD"),
		ESProductIndex: EnvDefault("ES_PRODUCT_INDEX", "products"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       EnvIntDefault("REDIS_DB", 0),
		CacheTTL:      EnvDurationDefault("CACHE_TTL", 5*time.Minute),

		PaymentAPIURL:        EnvDefault("PAYMENT_API_URL", "https://api.razorpay.com"),
		PaymentKeyID:         os.Getenv("PAYMENT_KEY_ID"),
		PaymentKeySecret:     os.Getenv("PAYMENT_KEY_SECRET"),
		PaymentWebhookSecret: os.Getenv("PAYMENT_WEBHOOK_SECRET"),
		PaymentCurrency:      EnvDefault("PAYMENT_CURRENCY", "INR"),
		PaymentTimeout:       EnvDurationDefault("PAYMENT_TIMEOUT", 10*time.Second),

		AuthRateLimit: EnvIntDefault("AUTH_RATE_LIMIT", 5),
		CSRFEnabled:   EnvBoolDefault("CSRF_ENABLED", false),
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// EnvDurationDefault accepts Go duration strings ("10s", "24h").
func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
