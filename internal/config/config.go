package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port    string
	Env     string
	Storage string // "postgres" or "memory"

	DatabaseURL string

	JWTSecret          string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string
	FrontendURL        string
	CORSOrigin         string

	NATSURL        string
	RedisURL       string
	MeiliURL       string
	MeiliMasterKey string

	S3Endpoint     string
	S3BucketName   string
	S3UsePathStyle bool
	AWSRegion      string
	AWSAccessKey   string
	AWSSecretKey   string

	APNSAuthKeyPath string
	APNSKeyID       string
	APNSTeamID      string
	APNSTopic       string
	APNSProduction  bool

	RateLimitMax        int
	RateLimitExpiration time.Duration

	OTLPEndpoint string
}

// Load reads .env.dev when present and then the process environment.
func Load() Config {
	_ = godotenv.Load(".env.dev")

	return Config{
		Port:    getenv("APP_PORT", "5001"),
		Env:     getenv("APP_ENV", "development"),
		Storage: getenv("STORAGE", "postgres"),

		DatabaseURL: databaseURL(),

		JWTSecret:          getenv("JWT_SECRET", "forum-dev-secret"),
		GoogleClientID:     getenv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getenv("GOOGLE_CLIENT_SECRET", ""),
		GoogleCallbackURL:  getenv("GOOGLE_CALLBACK_URL", "http://localhost:5001/auth/google/callback"),
		FrontendURL:        getenv("FRONTEND_URL", "http://localhost:5173"),
		CORSOrigin:         getenv("CORS_ORIGIN", "http://localhost:5173"),

		NATSURL:        getenv("NATS_URL", ""),
		RedisURL:       getenv("REDIS_URL", ""),
		MeiliURL:       getenv("MEILI_URL", ""),
		MeiliMasterKey: getenv("MEILI_MASTER_KEY", ""),

		S3Endpoint:     getenv("S3_ENDPOINT", ""),
		S3BucketName:   getenv("S3_BUCKET_NAME", ""),
		S3UsePathStyle: getenv("S3_USE_PATH_STYLE", "false") == "true",
		AWSRegion:      getenv("AWS_REGION", "us-east-1"),
		AWSAccessKey:   getenv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getenv("AWS_SECRET_ACCESS_KEY", ""),

		APNSAuthKeyPath: getenv("APNS_AUTH_KEY_PATH", ""),
		APNSKeyID:       getenv("APNS_KEY_ID", ""),
		APNSTeamID:      getenv("APNS_TEAM_ID", ""),
		APNSTopic:       getenv("APNS_TOPIC", ""),
		APNSProduction:  getenv("APNS_MODE", "") == "production",

		RateLimitMax:        getenvInt("RATE_LIMIT_MAX", 100),
		RateLimitExpiration: time.Duration(getenvInt("RATE_LIMIT_EXPIRATION_SECONDS", 60)) * time.Second,

		OTLPEndpoint: getenv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// databaseURL prefers DATABASE_URL and otherwise assembles one from DB_* variables.
func databaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		getenv("DB_USER", "forum"),
		getenv("DB_PASSWORD", "forum"),
		getenv("DB_HOST", "localhost"),
		getenv("DB_PORT", "5432"),
		getenv("DB_NAME", "forum"),
	)
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
