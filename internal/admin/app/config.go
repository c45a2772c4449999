package app

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Issuer               string        // Issuer label embedded in TOTP otpauth URLs (default: lodgeworks-backoffice)
	DatabaseFile         string        // Path to SQLite database file (default: ./backoffice.db)
	PepperFile           string        // Path to file containing pepper for password hashing (default: ./pepper)
	MasterKeyPath        string        // Optional: path to master encryption key file for TOTP secrets
	SessionTTL           time.Duration // Session lifetime (default: 12h)
	CookieSecure         bool          // Secure attribute on the session cookie (default: true outside dev)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

// LoadConfig reads configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment
// variables win over it.
func LoadConfig() Config {
	_ = godotenv.Load()

	cfg := Config{
		Issuer:               getEnvOrDefault("BACKOFFICE_ISSUER", "lodgeworks-backoffice"),
		DatabaseFile:         getEnvOrDefault("BACKOFFICE_DATABASE_FILE", "backoffice.db"),
		PepperFile:           getEnvOrDefault("BACKOFFICE_PEPPER_FILE", "pepper"),
		MasterKeyPath:        os.Getenv("BACKOFFICE_MASTER_KEY_PATH"),
		SessionTTL:           getEnvDurationOrDefault("BACKOFFICE_SESSION_TTL", 12*time.Hour),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	cfg.CookieSecure = cfg.Env != "dev"
	if v := os.Getenv("BACKOFFICE_COOKIE_SECURE"); v != "" {
		if secure, err := strconv.ParseBool(v); err == nil {
			cfg.CookieSecure = secure
		}
	}

	return cfg
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
