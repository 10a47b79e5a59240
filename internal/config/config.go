package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	LogFormat     string
	PublicBaseURL string

	// Salon scheduling parameters.
	SalonName        string
	SalonTimezone    string
	OpeningHours     string
	SlotStepMinutes  int
	LeadMinutes      int
	BufferMinutes    int
	Employees        []string
	CalendarTimeout  time.Duration
	BusyCacheTTL     time.Duration
	CatalogCacheTTL  time.Duration

	DatabaseURL string

	RedisAddr     string
	RedisPassword string

	// Google Calendar
	GoogleCredentialsJSON string
	GoogleCredentialsFile string

	// Shopify catalog
	ShopifyShopDomain  string
	ShopifyAccessToken string
	ShopifyAPIVersion  string

	// SendGrid Email Configuration
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string

	StaffJWTSecret     string
	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "json"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),

		SalonName:       getEnv("SALON_NAME", "the salon"),
		SalonTimezone:   getEnv("SALON_TIMEZONE", "Europe/Paris"),
		OpeningHours:    getEnv("OPENING_HOURS", "09:00-19:00"),
		SlotStepMinutes: getEnvAsInt("SLOT_STEP_MINUTES", 15),
		LeadMinutes:     getEnvAsInt("LEAD_MINUTES", 60),
		BufferMinutes:   getEnvAsInt("BUFFER_MINUTES", 0),
		Employees:       getEnvAsSlice("EMPLOYEES", nil),
		CalendarTimeout: getEnvAsDuration("CALENDAR_TIMEOUT", 10*time.Second),
		BusyCacheTTL:    getEnvAsDuration("BUSY_CACHE_TTL", time.Minute),
		CatalogCacheTTL: getEnvAsDuration("CATALOG_CACHE_TTL", 5*time.Minute),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		GoogleCredentialsJSON: getEnv("GOOGLE_CREDENTIALS_JSON", ""),
		GoogleCredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", ""),

		ShopifyShopDomain:  getEnv("SHOPIFY_SHOP_DOMAIN", ""),
		ShopifyAccessToken: getEnv("SHOPIFY_ACCESS_TOKEN", ""),
		ShopifyAPIVersion:  getEnv("SHOPIFY_API_VERSION", "2024-01"),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", ""),

		StaffJWTSecret:     getEnv("STAFF_JWT_SECRET", ""),
		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", nil),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsSlice splits a comma-separated environment variable.
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
