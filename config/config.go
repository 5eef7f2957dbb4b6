package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"lottoledger/database"
	"lottoledger/domain/entities"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// NATS configuration
	NATSServers string // NATS server addresses (comma-separated)

	// Listeners
	HTTPAddr       string
	GRPCHealthAddr string

	// Round administration
	AdminAddresses       []string // normalized 0x addresses; empty means no restriction
	DefaultMinStake      decimal.Decimal
	DefaultMaxPlayers    int64
	DefaultDurationHours int64

	// Round close worker
	RoundCloseSchedule string // cron spec
	AutoSettle         bool

	// Draw entropy. A seed selects the reproducible source and is refused in production.
	RandomSeed *uint64

	// Discord announcer (disabled without a token)
	DiscordToken     string
	DiscordChannelID string

	// OpenTelemetry configuration
	OTelEnabled              bool
	OTelServiceName          string
	OTelExporterType         string // "console", "otlp" or "none"
	OTelOTLPEndpoint         string
	OTelExportIntervalMillis int

	// Logging
	LogLevel  string
	LogFormat string // "json" or "text"

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// IsProduction reports whether the service runs with production safeguards
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// load reads an optional .env file and then the process environment
func load() (*Config, error) {
	// A missing .env file is normal outside local development
	_ = godotenv.Load()

	config := &Config{
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		DatabaseName:         os.Getenv("DATABASE_NAME"),
		NATSServers:          os.Getenv("NATS_SERVERS"),
		HTTPAddr:             getEnvWithDefault("HTTP_ADDR", ":8080"),
		GRPCHealthAddr:       getEnvWithDefault("GRPC_HEALTH_ADDR", ":9090"),
		DefaultMinStake:      decimal.New(1, 14),
		DefaultMaxPlayers:    1000,
		DefaultDurationHours: 168,
		RoundCloseSchedule:   getEnvWithDefault("ROUND_CLOSE_SCHEDULE", "@every 1m"),
		DiscordToken:         os.Getenv("DISCORD_TOKEN"),
		DiscordChannelID:     os.Getenv("DISCORD_CHANNEL_ID"),
		OTelEnabled:          getEnvWithDefault("OTEL_ENABLED", "false") == "true",
		OTelServiceName:      getEnvWithDefault("OTEL_SERVICE_NAME", "lottoledger"),
		OTelExporterType:     getEnvWithDefault("OTEL_EXPORTER_TYPE", "console"),
		OTelOTLPEndpoint:     getEnvWithDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		LogLevel:             getEnvWithDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvWithDefault("LOG_FORMAT", "text"),
		Environment:          getEnvWithDefault("ENVIRONMENT", "development"),
	}

	if raw := os.Getenv("ADMIN_ADDRESSES"); raw != "" {
		admins, err := parseAdminAddresses(raw)
		if err != nil {
			return nil, err
		}
		config.AdminAddresses = admins
	}

	if raw := os.Getenv("DEFAULT_MIN_STAKE"); raw != "" {
		stake, err := decimal.NewFromString(raw)
		if err != nil || !stake.IsPositive() || !stake.Equal(stake.Truncate(0)) {
			return nil, fmt.Errorf("DEFAULT_MIN_STAKE must be a positive integer amount, got %q", raw)
		}
		config.DefaultMinStake = stake
	}
	if raw := os.Getenv("DEFAULT_MAX_PLAYERS"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("DEFAULT_MAX_PLAYERS must be a positive integer, got %q", raw)
		}
		config.DefaultMaxPlayers = n
	}
	if raw := os.Getenv("DEFAULT_DURATION_HOURS"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("DEFAULT_DURATION_HOURS must be a positive integer, got %q", raw)
		}
		config.DefaultDurationHours = n
	}
	if raw := os.Getenv("AUTO_SETTLE"); raw != "" {
		autoSettle, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("AUTO_SETTLE must be a boolean, got %q", raw)
		}
		config.AutoSettle = autoSettle
	}
	config.OTelExportIntervalMillis = 10000
	if raw := os.Getenv("OTEL_EXPORT_INTERVAL_MILLIS"); raw != "" {
		interval, err := strconv.Atoi(raw)
		if err != nil || interval <= 0 {
			return nil, fmt.Errorf("OTEL_EXPORT_INTERVAL_MILLIS must be a positive integer, got %q", raw)
		}
		config.OTelExportIntervalMillis = interval
	}
	if raw := os.Getenv("RANDOM_SEED"); raw != "" {
		seed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("RANDOM_SEED must be an unsigned integer, got %q", raw)
		}
		config.RandomSeed = &seed
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	if c.Environment == "test" {
		return nil
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DatabaseName != "" && strings.TrimSpace(c.DatabaseName) == "" {
		return fmt.Errorf("DATABASE_NAME cannot be empty when provided")
	}
	if c.IsProduction() && c.RandomSeed != nil {
		return fmt.Errorf("RANDOM_SEED is not allowed in production")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}
	return nil
}

// parseAdminAddresses normalizes each entry the way callers' addresses are normalized
func parseAdminAddresses(raw string) ([]string, error) {
	var out []string
	for _, item := range parseList(raw) {
		address, err := entities.ParseAddress(item)
		if err != nil {
			return nil, fmt.Errorf("ADMIN_ADDRESSES contains an invalid address %q", item)
		}
		out = append(out, address.String())
	}
	return out, nil
}

func parseList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.ToLower(strings.TrimSpace(item))
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:          "test",
		HTTPAddr:             ":0",
		DefaultMinStake:      decimal.New(1, 14),
		DefaultMaxPlayers:    1000,
		DefaultDurationHours: 168,
		RoundCloseSchedule:   "@every 1m",
		LogLevel:             "info",
		LogFormat:            "text",
		OTelServiceName:      "lottoledger-test",
		OTelExporterType:     "none",
	}
}
