package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int
	LogLevel           string
	AllowedOrigins     []string // websocket origins; empty allows any

	// Backend selection
	DataBackend   string
	SQLiteDBPath  string
	DatabaseURL   string
	DataDirectory string // memory backend seed files

	// AMQP ledger events (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets ledger export
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string

	// Mentor
	AnthropicAPIKey     string
	MentorModel         string
	MentorMaxTokens     int
	MentorMaxToolRounds int
	MentorTimeout       time.Duration
	MediaMaxDimension   int

	// Auth and sessions
	AuthJWTSecret    string
	AuthIssuer       string
	SessionTTL       time.Duration
	SessionCacheSize int
	AccessContactURL string
}

var validBackends = []string{"memory", "sqlite", "postgres"}

func Load() *Config {
	cfg := &Config{
		Port:               getEnv("PORT", "8081"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		AllowedOrigins:     getEnvList("WS_ALLOWED_ORIGINS"),

		DataBackend:   getEnv("DATA_BACKEND", "sqlite"),
		SQLiteDBPath:  getEnv("SQLITE_DB_PATH", "./data/motoinvest.db"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		DataDirectory: getEnv("MEMORY_SEED_DIR", "data"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "motoinvest"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_events"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Ledger"),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),

		AnthropicAPIKey:     getEnv("ANTHROPIC_API_KEY", ""),
		MentorModel:         getEnv("MENTOR_MODEL", "claude-sonnet-4-20250514"),
		MentorMaxTokens:     getEnvInt("MENTOR_MAX_TOKENS", 1024),
		MentorMaxToolRounds: getEnvInt("MENTOR_MAX_TOOL_ROUNDS", 4),
		MentorTimeout:       getEnvDuration("MENTOR_TIMEOUT", 60*time.Second),
		MediaMaxDimension:   getEnvInt("MEDIA_MAX_DIMENSION", 1568),

		AuthJWTSecret:    getEnv("AUTH_JWT_SECRET", ""),
		AuthIssuer:       getEnv("AUTH_ISSUER", ""),
		SessionTTL:       getEnvDuration("SESSION_TTL", 30*time.Minute),
		SessionCacheSize: getEnvInt("SESSION_CACHE_SIZE", 1000),
		AccessContactURL: getEnv("ACCESS_CONTACT_URL", "https://wa.me/5500000000000"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	case "postgres":
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when using postgres backend")
		} else if u, err := url.Parse(c.DatabaseURL); err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
			errors = append(errors, "invalid DATABASE_URL: must be a postgres:// or postgresql:// URL")
		}
	}

	errors = append(errors, c.amqpErrors()...)

	if strings.TrimSpace(c.AuthJWTSecret) == "" {
		errors = append(errors, "AUTH_JWT_SECRET is required")
	} else if len(c.AuthJWTSecret) < 32 {
		errors = append(errors, "AUTH_JWT_SECRET must be at least 32 characters")
	}

	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	} else if c.SessionTTL > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at most 24 hours", c.SessionTTL))
	}
	if c.SessionCacheSize < 1 || c.SessionCacheSize > 100000 {
		errors = append(errors, fmt.Sprintf("invalid session cache size %d: must be between 1 and 100000", c.SessionCacheSize))
	}

	if c.MentorModel == "" {
		errors = append(errors, "mentor model cannot be empty")
	}
	if c.MentorMaxTokens < 1 || c.MentorMaxTokens > 32768 {
		errors = append(errors, fmt.Sprintf("invalid mentor max tokens %d: must be between 1 and 32768", c.MentorMaxTokens))
	}
	if c.MentorMaxToolRounds < 1 || c.MentorMaxToolRounds > 10 {
		errors = append(errors, fmt.Sprintf("invalid mentor max tool rounds %d: must be between 1 and 10", c.MentorMaxToolRounds))
	}
	if c.MentorTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid mentor timeout %v: must be at least 1 second", c.MentorTimeout))
	}
	if c.MediaMaxDimension < 256 || c.MediaMaxDimension > 8192 {
		errors = append(errors, fmt.Sprintf("invalid media max dimension %d: must be between 256 and 8192", c.MediaMaxDimension))
	}

	if c.RateLimitPerMinute < 1 || c.RateLimitPerMinute > 10000 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be between 1 and 10000 requests per minute", c.RateLimitPerMinute))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// ValidateExporter checks what the ledger exporter needs: a broker and a
// spreadsheet with service-account credentials.
func (c *Config) ValidateExporter() error {
	var errors []string

	if c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required for the exporter")
	}
	errors = append(errors, c.amqpErrors()...)

	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "Google Spreadsheet ID is required for the exporter")
	}
	if c.GoogleSheetName == "" {
		errors = append(errors, "Google Sheet name is required for the exporter")
	}
	hasFile := c.GoogleServiceAccountFile != ""
	hasJSON := c.GoogleServiceAccountJSON != ""
	if !hasFile && !hasJSON {
		errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for the exporter")
	}
	if hasFile {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("exporter configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func (c *Config) amqpErrors() []string {
	if c.AMQPURL == "" {
		return nil
	}
	var errors []string
	if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
	} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
		errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
	}
	if c.AMQPExchange == "" {
		errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
	}
	if c.AMQPQueue == "" {
		errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
	}
	return errors
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
