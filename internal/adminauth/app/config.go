package app

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Issuer string // Issuer claim for tokens (default: freshcounty-adminauth)

	AccessTokenTTL time.Duration // Bearer token lifetime (default: 24h)
	GraceTTL       time.Duration // Post-login grace marker lifetime (default: 45s)
	ChallengeTTL   time.Duration // MFA login challenge lifetime (default: 5m)

	DatabaseFile string // Path to SQLite database file (default: ./adminauth.db)
	PepperFile   string // Path to the password hashing pepper (default: ./pepper)
	SigningKey   string // Path to the Ed25519 signing key PEM (default: ./signing.pem)

	// Bootstrap credentials seed the first admin account when the users
	// table is empty. Both must be set for seeding to happen.
	BootstrapEmail    string
	BootstrapPassword string

	CookieSecure bool // Secure attribute on session cookies (default: true)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
	AuditRetention       time.Duration // How long audit events are kept (default: 90 days)
}

// LoadConfig reads configuration from the environment, with an optional
// .env file for local development. Real environment variables win over
// the file.
func LoadConfig() Config {
	_ = godotenv.Load()

	return Config{
		Issuer: getEnvOrDefault("ADMINAUTH_ISSUER", "freshcounty-adminauth"),

		AccessTokenTTL: getEnvDurationOrDefault("ADMINAUTH_ACCESS_TOKEN_TTL", 24*time.Hour),
		GraceTTL:       getEnvDurationOrDefault("ADMINAUTH_GRACE_TTL", 45*time.Second),
		ChallengeTTL:   getEnvDurationOrDefault("ADMINAUTH_CHALLENGE_TTL", 5*time.Minute),

		DatabaseFile: getEnvOrDefault("ADMINAUTH_DATABASE_FILE", "adminauth.db"),
		PepperFile:   getEnvOrDefault("ADMINAUTH_PEPPER_FILE", "pepper"),
		SigningKey:   getEnvOrDefault("ADMINAUTH_SIGNING_KEY_FILE", "signing.pem"),

		BootstrapEmail:    os.Getenv("ADMINAUTH_BOOTSTRAP_EMAIL"),
		BootstrapPassword: os.Getenv("ADMINAUTH_BOOTSTRAP_PASSWORD"),

		CookieSecure: getEnvBoolOrDefault("ADMINAUTH_COOKIE_SECURE", true),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
		AuditRetention:       getEnvDurationOrDefault("ADMINAUTH_AUDIT_RETENTION", 90*24*time.Hour),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
