package config

import (
	"reflect"
	"strings"

	"kindle-sync/core/database"
	"kindle-sync/core/logger"
	"kindle-sync/core/server"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the SQLite database.
	Database database.Config `mapstructure:"database"`
	// Sync holds configuration for the sync engine.
	Sync SyncConfig `mapstructure:"sync"`
}

// SyncConfig holds the tunables of the sync engine.
type SyncConfig struct {
	// Region is the Amazon marketplace identifier.
	Region string `mapstructure:"region" default:"global"`
	// Workers bounds the number of books synced in parallel.
	Workers int `mapstructure:"workers" default:"2"`
	// MaxRetries is the attempt budget per remote page fetch.
	MaxRetries int `mapstructure:"max_retries" default:"3"`
	// RetryDelaySeconds is the initial backoff delay.
	RetryDelaySeconds int `mapstructure:"retry_delay_seconds" default:"2"`
	// RequestTimeoutSeconds is the per-request HTTP timeout.
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds" default:"30"`
	// MaxPages caps the pagination loop per book.
	MaxPages int `mapstructure:"max_pages" default:"256"`
	// AuthFailureLimit is how many consecutive authentication failures
	// are tolerated before the stored session is invalidated.
	AuthFailureLimit int `mapstructure:"auth_failure_limit" default:"3"`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	// Load .env file if it exists; ignore the error if it doesn't
	// (e.g. production).
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values.
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. SYNC_REGION -> sync.region).
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindValues uses reflection to iterate over the struct and set default
// values in Viper based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		defaultValue := field.Tag.Get("default")
		// Always set default (even if empty) to register the key for AutomaticEnv.
		v.SetDefault(key, defaultValue)
	}
}
