package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	AppEnv  string
	AppPort string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBSSLMode  string

	JWTSecret string
	JWTTTL    time.Duration

	CORSOrigins []string
	FrontendURL string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	MailFrom     string

	MediaBucketURL string
	MediaPublicURL string

	ShippingFee           decimal.Decimal
	FreeShippingThreshold decimal.Decimal

	LogFile      string
	LogMaxSizeMB int
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:  getEnv("APP_ENV", "development"),
		AppPort: getEnv("APP_PORT", "5000"),

		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTTTL:    time.Duration(getInt("JWT_TTL_HOURS", 24*30)) * time.Hour,

		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getInt("SMTP_PORT", 587),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		MailFrom:     getEnv("MAIL_FROM", "no-reply@localhost"),

		MediaBucketURL: getEnv("MEDIA_BUCKET_URL", "file:///tmp/storefront-media"),
		MediaPublicURL: getEnv("MEDIA_PUBLIC_URL", "http://localhost:5000/media"),

		ShippingFee:           getDecimal("SHIPPING_FEE", decimal.NewFromInt(50)),
		FreeShippingThreshold: getDecimal("FREE_SHIPPING_THRESHOLD", decimal.NewFromInt(500)),

		LogFile:      os.Getenv("LOG_FILE"),
		LogMaxSizeMB: getInt("LOG_MAX_SIZE_MB", 64),
	}

	if cfg.DBHost == "" {
		return nil, errors.New("DB_HOST is not set")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	v, err := decimal.NewFromString(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
