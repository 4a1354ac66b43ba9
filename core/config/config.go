package config

import (
	"reflect"
	"strings"

	"tablesync/core/archive"
	"tablesync/core/database"
	"tablesync/core/logger"
	"tablesync/core/server"
	"tablesync/feature/glide"
	"tablesync/feature/sheets"
	"tablesync/feature/webhook"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP trigger server.
	Server server.Config `mapstructure:"server"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the audit database connection.
	Database database.Config `mapstructure:"database"`
	// Archive holds configuration for the run report object store.
	Archive archive.Config `mapstructure:"archive"`
	// Sheets holds configuration for the Google Sheets API.
	Sheets sheets.Config `mapstructure:"sheets"`
	// Glide holds configuration for the Glide Big Tables API.
	Glide glide.Config `mapstructure:"glide"`
	// Webhook holds configuration for run event emission.
	Webhook webhook.Config `mapstructure:"webhook"`
	// Sync holds the sync unit declarations.
	Sync SyncConfig `mapstructure:"sync"`
}

// SyncConfig declares the sync units and run-wide tuning.
type SyncConfig struct {
	// UnitsJSON is the JSON array declaring every sync unit. Parsed and
	// validated by Units() at load so a bad mapping fails startup, not a
	// cron run hours later.
	UnitsJSON string `mapstructure:"units_json" default:"[]"`
	// RetryAttempts bounds per-record retries of transient write failures.
	RetryAttempts int `mapstructure:"retry_attempts" default:"3"`
	// RetryBackoffMS is the initial backoff between attempts; it doubles
	// per retry.
	RetryBackoffMS int `mapstructure:"retry_backoff_ms" default:"500"`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env file if it exists
	// We construct the path to .env
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. SERVER_PORT -> server.port)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Fail fast on malformed unit declarations.
	if _, err := config.Units(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Units parses and validates the declared sync units.
func (c *Config) Units() ([]Unit, error) {
	return ParseUnits(c.Sync.UnitsJSON)
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	// If it's a pointer, get the element
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		// Skip if no tag
		if tag == "" {
			continue
		}

		// Build the key
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		// If it's a nested struct, recurse
		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		defaultValue := field.Tag.Get("default")
		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, defaultValue)
	}
}
