package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/currency"
)

const (
	BackendScylla   = "scylla"
	BackendPostgres = "postgres"
)

type Config struct {
	Env      string
	LogLevel string
	Port     string

	JWTSecret   string
	CORSOrigins []string

	RedisHost     string
	RedisPassword string
	CartTTL       time.Duration

	StoreBackend   string
	ScyllaHosts    []string
	ScyllaKeyspace string
	ScyllaUsername string
	ScyllaPassword string
	ScyllaCAPath   string
	PostgresURL    string

	CouponInvalidation string
	CouponAPIURL       string

	Currency              string
	TaxRate               float64
	FreeShippingThreshold float64
	ShippingFee           float64

	StripeSecretKey string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool

	StorefrontURL string

	// EnvFileLoaded reports whether a .env file was found.
	EnvFileLoaded bool
}

// Load reads .env when present, then the process environment.
func Load() (Config, error) {
	loaded := godotenv.Load(".env") == nil

	cfg := Config{
		Env:      getEnv("APP_ENV", "prod"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Port:     getEnv("PORT", "8080"),

		JWTSecret:   os.Getenv("JWT_SECRET"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),

		RedisHost:     getEnv("REDIS_HOST", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		StoreBackend:   strings.ToLower(getEnv("STORE_BACKEND", BackendScylla)),
		ScyllaHosts:    splitList(getEnv("SCYLLA_HOSTS", "localhost:9042")),
		ScyllaKeyspace: getEnv("SCYLLA_KEYSPACE", "cake_heaven"),
		ScyllaUsername: os.Getenv("SCYLLA_USERNAME"),
		ScyllaPassword: os.Getenv("SCYLLA_PASSWORD"),
		ScyllaCAPath:   os.Getenv("SCYLLA_SSL_CA_PATH"),
		PostgresURL:    os.Getenv("POSTGRES_URL"),

		CouponInvalidation: strings.ToLower(getEnv("COUPON_INVALIDATION", "any_mutation")),
		CouponAPIURL:       strings.TrimRight(os.Getenv("COUPON_API_URL"), "/"),

		Currency: strings.ToUpper(getEnv("CURRENCY", "INR")),

		StripeSecretKey: os.Getenv("STRIPE_SECRET_KEY"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		MailFrom:     getEnv("MAIL_FROM", "orders@cakeheaven.local"),

		MinIOEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinIOAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinIOSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinIOBucket:    getEnv("MINIO_BUCKET", "cake-heaven"),

		StorefrontURL: strings.TrimRight(getEnv("STOREFRONT_URL", "http://localhost:5173"), "/"),

		EnvFileLoaded: loaded,
	}

	var err error
	if cfg.CartTTL, err = getEnvDuration("CART_TTL", 30*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.TaxRate, err = getEnvFloat("TAX_RATE", 0.05); err != nil {
		return Config{}, err
	}
	if cfg.FreeShippingThreshold, err = getEnvFloat("FREE_SHIPPING_THRESHOLD", 1000); err != nil {
		return Config{}, err
	}
	if cfg.ShippingFee, err = getEnvFloat("SHIPPING_FEE", 100); err != nil {
		return Config{}, err
	}
	if cfg.SMTPPort, err = getEnvInt("SMTP_PORT", 587); err != nil {
		return Config{}, err
	}
	if cfg.MinIOUseSSL, err = getEnvBool("MINIO_USE_SSL", false); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	switch c.StoreBackend {
	case BackendScylla:
		if len(c.ScyllaHosts) == 0 {
			errs = append(errs, errors.New("SCYLLA_HOSTS is required for the scylla backend"))
		}
	case BackendPostgres:
		if c.PostgresURL == "" {
			errs = append(errs, errors.New("POSTGRES_URL is required for the postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND: unknown backend %q", c.StoreBackend))
	}

	switch c.CouponInvalidation {
	case "any_mutation", "clear_only":
	default:
		errs = append(errs, fmt.Errorf("COUPON_INVALIDATION: unknown policy %q", c.CouponInvalidation))
	}

	if _, err := currency.ParseISO(c.Currency); err != nil {
		errs = append(errs, fmt.Errorf("CURRENCY: %w", err))
	}
	if c.TaxRate < 0 {
		errs = append(errs, errors.New("TAX_RATE must not be negative"))
	}
	if c.ShippingFee < 0 || c.FreeShippingThreshold < 0 {
		errs = append(errs, errors.New("shipping settings must not be negative"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}

	return errors.Join(errs...)
}

func (c Config) IsDev() bool {
	return c.Env == "dev"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
