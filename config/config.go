package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds server configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	Provider ProviderConfig `mapstructure:"provider"`
	Engine   EngineConfig   `mapstructure:"engine"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// StoreConfig holds the fixture database settings.
type StoreConfig struct {
	Path string `mapstructure:"path"`
	Seed bool   `mapstructure:"seed"`
}

// ProviderConfig holds the live upstream settings. AccessToken is the
// fallback when a request carries no bearer token of its own.
type ProviderConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	APIVersion    string        `mapstructure:"api_version"`
	VersionHeader string        `mapstructure:"version_header"`
	Timeout       time.Duration `mapstructure:"timeout"`
	AccessToken   string        `mapstructure:"access_token"`
}

type EngineConfig struct {
	Concurrency            int  `mapstructure:"concurrency"`
	RequireIndividualMatch bool `mapstructure:"require_individual_match"`
}

// Load reads configuration from file and env. Env var overrides use prefix WORKFORCE_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("server.port", "8080")
	v.SetDefault("store.path", "./data/workforce.db")
	v.SetDefault("store.seed", true)
	v.SetDefault("provider.base_url", "https://api.tryfinch.com")
	v.SetDefault("provider.api_version", "2020-09-17")
	v.SetDefault("provider.version_header", "Finch-API-Version")
	v.SetDefault("provider.timeout", "15s")
	v.SetDefault("provider.access_token", "")
	v.SetDefault("engine.concurrency", 8)
	v.SetDefault("engine.require_individual_match", false)

	v.SetConfigType("toml")

	cfgPath := os.Getenv("WORKFORCE_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "workforce"))
		v.AddConfigPath(".")
		v.SetConfigName("workforce")
	}

	v.SetEnvPrefix("WORKFORCE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// an explicitly named file must exist
		if cfgPath != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.Engine.Concurrency < 1 {
		return Config{}, fmt.Errorf("engine.concurrency must be at least 1, got %d", c.Engine.Concurrency)
	}
	return c, nil
}
