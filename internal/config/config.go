package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"acadgateway/internal/constants"
	"acadgateway/internal/models"

	"github.com/joho/godotenv"
)

// LoadConfig builds the application configuration from a .env file (if
// present) and the process environment. The returned value is immutable
// after startup.
func LoadConfig() (*models.Config, error) {
	// A missing .env file is not an error; the environment may carry
	// everything.
	_ = godotenv.Load()

	cfg := &models.Config{
		Server: models.ServerConfig{
			Port: getEnvInt("PORT", constants.DefaultServerPort),
		},
		WhatsApp: models.WhatsAppConfig{
			ServiceURL: getEnv("WHATSAPP_SERVICE_URL", constants.DefaultUpstreamURL),
			APIKey:     os.Getenv("WHATSAPP_API_KEY"),
		},
		Database: models.DatabaseConfig{
			Path: getEnv("DB_PATH", constants.DefaultDatabasePath),
		},
		Auth: models.AuthConfig{
			JWTSecret:          os.Getenv("JWT_SECRET_KEY"),
			JWTExpirationHours: getEnvInt("JWT_EXPIRATION_HOURS", constants.DefaultJWTExpirationHours),
		},
		CORS: models.CORSConfig{
			AllowedOrigins: splitOrigins(getEnv("CORS_ORIGINS", "*")),
		},
		Tracing: models.TracingConfig{
			ServiceName:    getEnv("TRACING_SERVICE_NAME", "acadgateway"),
			ServiceVersion: getEnv("TRACING_SERVICE_VERSION", "dev"),
			Environment:    getEnv("ENVIRONMENT", "development"),
			OTLPEndpoint:   getEnv("OTLP_ENDPOINT", "http://localhost:4318/v1/traces"),
			SampleRate:     getEnvFloat("TRACING_SAMPLE_RATE", 0.1),
			Enabled:        getEnvBool("TRACING_ENABLED", false),
			UseStdout:      getEnvBool("TRACING_USE_STDOUT", true),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(c *models.Config) error {
	if c.WhatsApp.ServiceURL == "" {
		return models.ConfigError{Message: "missing WhatsApp service URL"}
	}
	if strings.HasSuffix(c.WhatsApp.ServiceURL, "/") {
		c.WhatsApp.ServiceURL = strings.TrimRight(c.WhatsApp.ServiceURL, "/")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return models.ConfigError{Message: fmt.Sprintf("invalid port: %d", c.Server.Port)}
	}
	if c.Database.Path == "" {
		return models.ConfigError{Message: "missing database path"}
	}
	if c.Auth.JWTExpirationHours <= 0 {
		c.Auth.JWTExpirationHours = constants.DefaultJWTExpirationHours
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return origins
}
