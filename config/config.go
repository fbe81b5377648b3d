package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	PORT        string
	DB_URL      string
	JWT_SECRET  string
	CORS_ORIGIN string
	APP_URL     string

	GOOGLE_CLIENT_ID         string
	GOOGLE_CLIENT_SECRET     string
	GOOGLE_REDIRECT_URL      string
	GOOGLE_FRONTEND_REDIRECT string

	STRIPE_SECRET_KEY         string
	STRIPE_WEBHOOK_SECRET     string
	STRIPE_PREMIUM_PRODUCT_ID string

	REDIS_ADDR     string
	REDIS_PASSWORD string
	REDIS_DB       int

	KAFKA_BROKERS []string
	KAFKA_TOPIC   string

	MODERATION_API_URL string
	MODERATION_API_KEY string
	MODERATION_MODEL   string
	// Set to "false" to stop logging every moderation decision.
	MODERATION_LOG_DECISIONS bool

	// Premium users at or above this level skip the classifier.
	TRUSTED_LEVEL_THRESHOLD int
	EXPIRING_SOON_DAYS      int
	SWEEP_INTERVAL          time.Duration
	PROFILE_CACHE_TTL       time.Duration
)

func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}

	PORT = getEnv("PORT", "8080")
	DB_URL = mustEnv("DB_URL")
	JWT_SECRET = mustEnv("JWT_SECRET")
	CORS_ORIGIN = getEnv("CORS_ORIGIN", "http://localhost:5173")
	APP_URL = getEnv("APP_URL", "http://localhost:5173")

	GOOGLE_CLIENT_ID = getEnv("GOOGLE_CLIENT_ID", "")
	GOOGLE_CLIENT_SECRET = getEnv("GOOGLE_CLIENT_SECRET", "")
	GOOGLE_REDIRECT_URL = getEnv("GOOGLE_REDIRECT_URL", "")
	GOOGLE_FRONTEND_REDIRECT = getEnv("GOOGLE_FRONTEND_REDIRECT", "")

	STRIPE_SECRET_KEY = getEnv("STRIPE_SECRET_KEY", "")
	STRIPE_WEBHOOK_SECRET = getEnv("STRIPE_WEBHOOK_SECRET", "")
	STRIPE_PREMIUM_PRODUCT_ID = getEnv("STRIPE_PREMIUM_PRODUCT_ID", "")

	REDIS_ADDR = getEnv("REDIS_ADDR", "")
	REDIS_PASSWORD = getEnv("REDIS_PASSWORD", "")
	REDIS_DB = getEnvInt("REDIS_DB", 0)

	KAFKA_BROKERS = splitList(getEnv("KAFKA_BROKERS", ""))
	KAFKA_TOPIC = getEnv("KAFKA_TOPIC", "reflectio.events")

	MODERATION_API_URL = getEnv("MODERATION_API_URL", "https://api.openai.com/v1/moderations")
	MODERATION_API_KEY = mustEnv("MODERATION_API_KEY")
	MODERATION_MODEL = getEnv("MODERATION_MODEL", "omni-moderation-latest")
	MODERATION_LOG_DECISIONS = getEnv("MODERATION_LOG_DECISIONS", "true") != "false"

	TRUSTED_LEVEL_THRESHOLD = getEnvInt("TRUSTED_LEVEL_THRESHOLD", 3)
	EXPIRING_SOON_DAYS = getEnvInt("EXPIRING_SOON_DAYS", 7)
	SWEEP_INTERVAL = getEnvDuration("SWEEP_INTERVAL", time.Hour)
	PROFILE_CACHE_TTL = getEnvDuration("PROFILE_CACHE_TTL", 30*time.Second)
}

func mustEnv(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("Missing required environment variable: %s", key)
	}
	return v
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("Invalid integer for %s: %q", key, v)
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("Invalid duration for %s: %q", key, v)
	}
	return d
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
