package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"

	minSecretLength  = 16
	minNoteKeyLength = 32
)

// Role selects the extra checks a process needs on top of the common ones.
type Role int

const (
	RoleServer Role = iota
	RoleWorker
	RoleCLI
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int

	// Storage
	DataBackend  string
	SQLiteDBPath string
	SeedFile     string

	// Note sealing at rest
	NoteEncryptionKey string
	NoteSigningKey    string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets reports
	GoogleSpreadsheetID      string
	GoogleSheetPrefix        string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Auth
	JWTSecret string
	JWTIssuer string

	// Dashboard cache
	CacheSize int
	CacheTTL  time.Duration

	// Worker
	ReportConcurrency int
	ReportInterval    time.Duration

	LogLevel string
}

func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8081"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),

		DataBackend:  strings.ToLower(getEnv("DATA_BACKEND", BackendMemory)),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/fintrack.db"),
		SeedFile:     getEnv("SEED_FILE", ""),

		NoteEncryptionKey: getEnv("NOTE_ENCRYPTION_KEY", ""),
		NoteSigningKey:    getEnv("NOTE_SIGNING_KEY", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "fintrack"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "transaction_changes"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetPrefix:        getEnv("GOOGLE_SHEET_PREFIX", "Report"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
		JWTIssuer: getEnv("AUTH_JWT_ISSUER", "fintrack"),

		CacheSize: getEnvInt("CACHE_SIZE", 200),
		CacheTTL:  getEnvDuration("CACHE_TTL", 5*time.Minute),

		ReportConcurrency: getEnvInt("REPORT_CONCURRENCY", 4),
		ReportInterval:    getEnvDuration("REPORT_INTERVAL", time.Hour),

		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}
}

// SealingEnabled reports whether notes are encrypted at rest.
func (c *Config) SealingEnabled() bool {
	return c.NoteEncryptionKey != "" && c.NoteSigningKey != ""
}

// Validate checks the settings every process shares and returns all
// problems at once.
func (c *Config) Validate() error {
	return joinProblems(c.common())
}

// ValidateFor runs the common checks plus those the role depends on.
func (c *Config) ValidateFor(role Role) error {
	problems := c.common()
	switch role {
	case RoleServer:
		if c.JWTSecret == "" {
			problems = append(problems, "AUTH_JWT_SECRET is required")
		}
	case RoleWorker:
		if c.AMQPURL == "" {
			problems = append(problems, "AMQP_URL is required for the report worker")
		}
		if c.GoogleSpreadsheetID == "" {
			problems = append(problems, "GOOGLE_SPREADSHEET_ID is required for the report worker")
		}
		if c.ReportInterval < time.Minute {
			problems = append(problems, fmt.Sprintf("invalid report interval %v: must be at least 1 minute", c.ReportInterval))
		}
	}
	return joinProblems(problems)
}

func (c *Config) common() []string {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{BackendMemory, BackendSQLite}
	if !slices.Contains(validBackends, c.DataBackend) {
		problems = append(problems, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}
	if c.DataBackend == BackendSQLite && strings.TrimSpace(c.SQLiteDBPath) == "" {
		problems = append(problems, "SQLite database path cannot be empty when using sqlite backend")
	}
	if c.DataBackend == BackendSQLite && c.SeedFile != "" {
		problems = append(problems, "SEED_FILE only applies to the memory backend")
	}

	if (c.NoteEncryptionKey == "") != (c.NoteSigningKey == "") {
		problems = append(problems, "NOTE_ENCRYPTION_KEY and NOTE_SIGNING_KEY must be set together")
	} else if c.SealingEnabled() {
		if len(c.NoteEncryptionKey) < minNoteKeyLength || len(c.NoteSigningKey) < minNoteKeyLength {
			problems = append(problems, fmt.Sprintf("note keys must be at least %d characters", minNoteKeyLength))
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			problems = append(problems, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			problems = append(problems, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.JWTSecret != "" && len(c.JWTSecret) < minSecretLength {
		problems = append(problems, fmt.Sprintf("AUTH_JWT_SECRET must be at least %d characters", minSecretLength))
	}

	if c.CacheSize < 1 {
		problems = append(problems, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	}
	if c.CacheTTL <= 0 {
		problems = append(problems, fmt.Sprintf("invalid cache TTL %v: must be positive", c.CacheTTL))
	}
	if c.RateLimitPerMinute < 1 {
		problems = append(problems, fmt.Sprintf("invalid rate limit %d: must be at least 1 per minute", c.RateLimitPerMinute))
	}
	if c.ReportConcurrency < 1 || c.ReportConcurrency > 64 {
		problems = append(problems, fmt.Sprintf("invalid report concurrency %d: must be between 1 and 64", c.ReportConcurrency))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}
	return problems
}

func joinProblems(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
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
