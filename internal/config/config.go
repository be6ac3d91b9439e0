// Package config handles loading and validation of service configuration.
// Supports both development (env vars) and production (Secret Manager) modes.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"

	"upsell-server/internal/model"
)

// Config holds all service configuration.
// Environment determines whether app credentials load from env vars
// (development) or Secret Manager (production).
type Config struct {
	// Server settings
	Port        string
	Environment string // "development" or "production"
	LogLevel    string // "debug", "info", "warn", "error"

	// GCP settings (required in production)
	GCPProject string
	AppID      string // Secret Manager secret name holding the app config

	// Infrastructure endpoints. Both optional: without Redis the session
	// store is in-memory, without Kafka events are discarded.
	RedisAddr    string
	KafkaBrokers []string
	KafkaTopic   string

	// App-specific configuration (loaded from secrets in production)
	App AppConfig
}

// AppConfig contains the platform app credentials and offer settings.
// In production, this is loaded from Secret Manager as JSON.
// In development, loaded from individual env vars or CONFIG_FILE.
type AppConfig struct {
	APIKey    string `json:"api_key"`    // platform app client id; JWT issuer and audience
	APISecret string `json:"api_secret"` // signs changesets, verifies session tokens and webhooks

	// Catalog API version, e.g. "2024-01". Empty uses the client default.
	CatalogAPIVersion string `json:"catalog_api_version,omitempty"`

	// Flat shipping line attached to discovery offers.
	ShippingPrice string `json:"shipping_price,omitempty"`
	ShippingTitle string `json:"shipping_title,omitempty"`
}

// Load reads configuration from file, environment, or Secret Manager.
// Priority: CONFIG_FILE (if set) → ENV vars / Secret Manager.
// Validates all required fields and returns an error if any are missing.
func Load(ctx context.Context) (*Config, error) {
	// If CONFIG_FILE is set, load everything from the JSON file
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromFile(configPath)
	}

	cfg := &Config{
		Port:        envOrDefault("PORT", "8080"),
		Environment: envOrDefault("ENVIRONMENT", "development"),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		GCPProject:  os.Getenv("GCP_PROJECT"),
		AppID:       os.Getenv("APP_ID"),
		RedisAddr:   os.Getenv("REDIS_ADDR"),
		KafkaTopic:  envOrDefault("KAFKA_TOPIC", "upsell-events"),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitList(brokers)
	}

	var err error
	if cfg.Environment == "production" {
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("GCP_PROJECT required in production environment")
		}
		if cfg.AppID == "" {
			return nil, fmt.Errorf("APP_ID required in production environment")
		}
		err = cfg.loadFromSecretManager(ctx)
	} else {
		err = cfg.loadFromEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("loading app config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile reads all configuration from a JSON file.
// Used for local development to avoid multiple ENV vars.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var fileConfig struct {
		Port         string    `json:"port"`
		Environment  string    `json:"environment"`
		LogLevel     string    `json:"log_level"`
		RedisAddr    string    `json:"redis_addr"`
		KafkaBrokers []string  `json:"kafka_brokers"`
		KafkaTopic   string    `json:"kafka_topic"`
		App          AppConfig `json:"app"`
	}

	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg := &Config{
		Port:         withDefault(fileConfig.Port, "8080"),
		Environment:  withDefault(fileConfig.Environment, "development"),
		LogLevel:     withDefault(fileConfig.LogLevel, "info"),
		RedisAddr:    fileConfig.RedisAddr,
		KafkaBrokers: fileConfig.KafkaBrokers,
		KafkaTopic:   withDefault(fileConfig.KafkaTopic, "upsell-events"),
		App:          fileConfig.App,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromSecretManager fetches app config from GCP Secret Manager.
// Secret name format: projects/{project}/secrets/{app_id}/versions/latest
func (c *Config) loadFromSecretManager(ctx context.Context) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest",
		c.GCPProject, c.AppID)

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return fmt.Errorf("accessing secret %s: %w", secretName, err)
	}

	if err := json.Unmarshal(result.Payload.Data, &c.App); err != nil {
		return fmt.Errorf("parsing secret JSON: %w", err)
	}
	return nil
}

// loadFromEnv reads app config from individual environment variables.
// Used in development mode for local testing.
func (c *Config) loadFromEnv() error {
	c.App = AppConfig{
		APIKey:            os.Getenv("APP_API_KEY"),
		APISecret:         os.Getenv("APP_API_SECRET"),
		CatalogAPIVersion: os.Getenv("CATALOG_API_VERSION"),
		ShippingPrice:     os.Getenv("OFFER_SHIPPING_PRICE"),
		ShippingTitle:     os.Getenv("OFFER_SHIPPING_TITLE"),
	}
	return nil
}

// validate checks that all required configuration fields are present.
func (c *Config) validate() error {
	if c.App.APIKey == "" {
		return fmt.Errorf("api_key is required")
	}
	if c.App.APISecret == "" {
		return fmt.Errorf("api_secret is required")
	}
	if c.App.ShippingPrice != "" && model.ParseCents(c.App.ShippingPrice) <= 0 {
		return fmt.Errorf("invalid shipping_price %q", c.App.ShippingPrice)
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		return fmt.Errorf("kafka_topic is required when brokers are set")
	}
	return nil
}

// splitList parses a comma-separated env value into trimmed entries.
func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// withDefault returns val if non-empty, otherwise defaultVal.
func withDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

// envOrDefault returns the environment variable value or the default if not set.
func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
