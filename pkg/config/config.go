// Package config loads pipeline configuration from environment variables,
// following the same flat Config struct + Load()/getEnv* helper pattern the
// validator service used for its own configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/certen/independant-validator/pkg/errs"
)

// Config holds all configuration for a single pipeline invocation.
type Config struct {
	// Environment selects staging vs production, which in turn selects the
	// blockchain RPC URL, the relational-store published-flag column, and
	// the checkpoint key prefix.
	Environment string

	// Object store (GCS-modeled bucket holding credentials, raw/canonical
	// route partitions, checkpoints, metadata, and scoring output).
	ObjectStoreBucket          string
	ObjectStoreCredentialsFile string

	// Fleet API (Tribu) credentials.
	FleetAPIBaseURL  string
	FleetAPIUsername string
	FleetAPIPassword string

	// Relational store (Airtable-like REST API).
	RelationalBaseURL string
	RelationalAPIKey  string
	RelationalBaseID  string

	// Blockchain.
	StagingRPCURL    string
	ProductionRPCURL string
	ChainID          int64
	ContractAddress  string
	MinGasPriceWei   int64
	GasEstimateMargin uint64

	// HD wallet mnemonic, read from PIPELINE_MNEMONIC. Load does not fetch
	// it from the object store's credentials/ prefix.
	Mnemonic string

	// OperatorPrivateKeyHex signs every transaction the Blockchain Publisher
	// submits. Distinct from the HD wallet: the mnemonic mints per-client
	// receiving addresses, this key is the pipeline's own funded account.
	OperatorPrivateKeyHex string

	// Counter service (Postgres-backed durable RouteID register).
	CounterDatabaseURL      string
	CounterFloor            uint64
	CounterMaxRetries       int
	CounterBackoffBase      time.Duration

	// Publisher tunables.
	PublishPollInterval   time.Duration
	PublishMaxAttempts    int
	PublishReceiptTimeout time.Duration

	// Firestore operational-notification sink.
	NotifyEnabled        bool
	FirebaseProjectID    string
	FirebaseCredentials  string

	// Metrics server.
	MetricsAddr string

	LogLevel string
}

// Load reads configuration from environment variables. Required production
// secrets (mnemonic, production RPC URL, relational-store API key) have no default;
// call Validate() to enumerate anything missing before a stage runs.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("PIPELINE_ENVIRONMENT", "staging"),

		ObjectStoreBucket:          getEnv("OBJECT_STORE_BUCKET", ""),
		ObjectStoreCredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),

		FleetAPIBaseURL:  getEnv("FLEET_API_BASE_URL", ""),
		FleetAPIUsername: getEnv("FLEET_API_USERNAME", ""),
		FleetAPIPassword: getEnv("FLEET_API_PASSWORD", ""),

		RelationalBaseURL: getEnv("RELATIONAL_BASE_URL", ""),
		RelationalAPIKey:  getEnv("RELATIONAL_API_KEY", ""),
		RelationalBaseID:  getEnv("RELATIONAL_BASE_ID", ""),

		StagingRPCURL:    getEnv("STAGING_RPC_URL", "https://alfajores-forno.celo-testnet.org"),
		ProductionRPCURL: getEnv("PRODUCTION_RPC_URL", ""),
		ChainID:          getEnvInt64("CHAIN_ID", 44787),
		ContractAddress:  getEnv("CONTRACT_ADDRESS", ""),
		MinGasPriceWei:   getEnvInt64("MIN_GAS_PRICE_WEI", 5_000_000_000),
		GasEstimateMargin: uint64(getEnvInt64("GAS_ESTIMATE_MARGIN", 100000)),

		Mnemonic:              getEnv("PIPELINE_MNEMONIC", ""),
		OperatorPrivateKeyHex: getEnv("PIPELINE_OPERATOR_PRIVATE_KEY", ""),

		CounterDatabaseURL: getEnv("COUNTER_DATABASE_URL", ""),
		CounterFloor:       uint64(getEnvInt64("COUNTER_FLOOR", 100000)),
		CounterMaxRetries:  getEnvInt("COUNTER_MAX_RETRIES", 5),
		CounterBackoffBase: getEnvDuration("COUNTER_BACKOFF_BASE", 250*time.Millisecond),

		PublishPollInterval:   getEnvDuration("PUBLISH_POLL_INTERVAL", 10*time.Second),
		PublishMaxAttempts:    getEnvInt("PUBLISH_MAX_ATTEMPTS", 5),
		PublishReceiptTimeout: getEnvDuration("PUBLISH_RECEIPT_TIMEOUT", 300*time.Second),

		NotifyEnabled:       getEnvBool("NOTIFY_ENABLED", false),
		FirebaseProjectID:   getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseCredentials: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),

		MetricsAddr: getEnv("METRICS_ADDR", "0.0.0.0:9090"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

// RPCURL returns the blockchain endpoint for the configured environment.
func (c *Config) RPCURL() string {
	if c.Environment == "production" {
		return c.ProductionRPCURL
	}
	return c.StagingRPCURL
}

// PublishedFlagColumn returns the per-environment published-flag column name
// used to filter the relational-store views (e.g. "PublishedToCeloStaging").
func (c *Config) PublishedFlagColumn() string {
	return "PublishedToCelo" + capitalize(c.Environment)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}

// Validate checks that all fields required for a production run are present,
// collecting every missing field rather than stopping at the first.
func (c *Config) Validate() error {
	var missing []string

	if c.ObjectStoreBucket == "" {
		missing = append(missing, "OBJECT_STORE_BUCKET is required")
	}
	if c.RelationalBaseURL == "" {
		missing = append(missing, "RELATIONAL_BASE_URL is required")
	}
	if c.RelationalAPIKey == "" {
		missing = append(missing, "RELATIONAL_API_KEY is required")
	}
	if c.Mnemonic == "" {
		missing = append(missing, "PIPELINE_MNEMONIC is required")
	}
	if c.OperatorPrivateKeyHex == "" {
		missing = append(missing, "PIPELINE_OPERATOR_PRIVATE_KEY is required")
	}
	if c.ContractAddress == "" {
		missing = append(missing, "CONTRACT_ADDRESS is required")
	}
	if c.RPCURL() == "" {
		missing = append(missing, fmt.Sprintf("RPC URL for environment %q is required", c.Environment))
	}
	if c.CounterDatabaseURL == "" {
		missing = append(missing, "COUNTER_DATABASE_URL is required")
	}
	if c.Environment != "staging" && c.Environment != "production" {
		missing = append(missing, "PIPELINE_ENVIRONMENT must be \"staging\" or \"production\"")
	}

	if len(missing) > 0 {
		return &errs.ConfigurationError{Fields: missing}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
