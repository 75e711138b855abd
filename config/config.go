// Package config loads flagcore's Config with github.com/spf13/viper:
// a SetDefaults function, a cached package-level Load, and a
// LoadFromFile for tests.
package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/edgeflag/flagcore/errors"
)

// Config holds every tunable recognized by the client: credentials,
// worker intervals, and feature toggles.
type Config struct {
	MobileKey           string   `mapstructure:"mobile_key"`
	SecondaryMobileKeys []string `mapstructure:"secondary_mobile_keys"`

	EventsFlushIntervalMillis       int `mapstructure:"events_flush_interval_millis"`
	PollingIntervalMillis           int `mapstructure:"polling_interval_millis"`
	BackgroundPollingIntervalMillis int `mapstructure:"background_polling_interval_millis"`

	DisableBackgroundUpdating bool `mapstructure:"disable_background_updating"`
	Streaming                 bool `mapstructure:"streaming"`
	Offline                   bool `mapstructure:"offline"`
}

// PrimaryEnvironment is the fixed constant naming the primary
// environment, used by registry.Registry as the default key.
const PrimaryEnvironment = "default"

// EventsFlushInterval returns EventsFlushIntervalMillis as a Duration.
func (c Config) EventsFlushInterval() time.Duration {
	return time.Duration(c.EventsFlushIntervalMillis) * time.Millisecond
}

// PollingInterval returns PollingIntervalMillis as a Duration.
func (c Config) PollingInterval() time.Duration {
	return time.Duration(c.PollingIntervalMillis) * time.Millisecond
}

// BackgroundPollingInterval returns BackgroundPollingIntervalMillis as a Duration.
func (c Config) BackgroundPollingInterval() time.Duration {
	return time.Duration(c.BackgroundPollingIntervalMillis) * time.Millisecond
}

var (
	globalConfig  *Config
	viperInstance *viper.Viper
)

// SetDefaults configures the documented defaults for polling and
// streaming cadence: 30 second polling, 1 hour background polling,
// streaming preferred over polling in the foreground.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("events_flush_interval_millis", 30000)
	v.SetDefault("polling_interval_millis", 30000)
	v.SetDefault("background_polling_interval_millis", 3600000)
	v.SetDefault("disable_background_updating", false)
	v.SetDefault("streaming", true)
	v.SetDefault("offline", false)
	v.SetDefault("secondary_mobile_keys", map[string]string{})
}

// Load reads flagcore configuration using Viper, caching the result.
func Load() (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	v := initViper()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	globalConfig = &cfg
	return globalConfig, nil
}

// GetViper returns the Viper instance for advanced configuration access.
func GetViper() *viper.Viper {
	return initViper()
}

// LoadFromFile loads configuration from a specific TOML file path,
// bypassing the cached global config — used by Watch to reload the
// watched file.
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal config from %s", configPath)
	}

	return &cfg, nil
}

// Reset clears the cached configuration (useful for testing).
func Reset() {
	globalConfig = nil
	viperInstance = nil
}

func initViper() *viper.Viper {
	if viperInstance != nil {
		return viperInstance
	}

	v := viper.New()
	v.SetEnvPrefix("FLAGCORE")
	v.AutomaticEnv()

	SetDefaults(v)

	v.SetConfigName("flagcore")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // config file is optional; defaults + env vars still apply

	viperInstance = v
	return v
}
