package models

// Config holds the application configuration. It is constructed once
// at startup and treated as read-only afterwards.
type Config struct {
	Server   ServerConfig   `json:"server"`
	WhatsApp WhatsAppConfig `json:"whatsapp"`
	Database DatabaseConfig `json:"database"`
	Auth     AuthConfig     `json:"auth"`
	CORS     CORSConfig     `json:"cors"`
	Tracing  TracingConfig  `json:"tracing"`
	LogLevel string         `json:"log_level"`
}

// ServerConfig holds the HTTP listener configuration
type ServerConfig struct {
	Port int `json:"port"`
}

// WhatsAppConfig holds upstream WhatsApp automation service settings
type WhatsAppConfig struct {
	ServiceURL string `json:"service_url"`
	APIKey     string `json:"api_key"`
}

// DatabaseConfig holds database related configurations
type DatabaseConfig struct {
	Path string `json:"path"`
}

// AuthConfig holds JWT issuance settings for the local auth endpoints
type AuthConfig struct {
	JWTSecret          string `json:"jwt_secret"`
	JWTExpirationHours int    `json:"jwt_expiration_hours"`
}

// CORSConfig holds the CORS allow-list. Empty means wildcard.
type CORSConfig struct {
	AllowedOrigins []string `json:"allowed_origins"`
}

// TracingConfig holds OpenTelemetry settings
type TracingConfig struct {
	ServiceName    string  `json:"service_name"`
	ServiceVersion string  `json:"service_version"`
	Environment    string  `json:"environment"`
	OTLPEndpoint   string  `json:"otlp_endpoint"`
	SampleRate     float64 `json:"sample_rate"`
	Enabled        bool    `json:"enabled"`
	UseStdout      bool    `json:"use_stdout"`
}

type ConfigError struct {
	Message string
}

func (e ConfigError) Error() string {
	return e.Message
}
