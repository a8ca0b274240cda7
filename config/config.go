package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server       ServerConfig           `mapstructure:"server"`
	Suggest      SuggestConfig          `mapstructure:"suggest"`
	GeoIP        GeoIPConfig            `mapstructure:"geoip"`
	Cache        CacheConfig            `mapstructure:"cache"`
	Prefs        PrefsConfig            `mapstructure:"prefs"`
	RemoteConfig RemoteConfig           `mapstructure:"remote_config"`
	Experiments  map[string]interface{} `mapstructure:"experiments"`
	Logger       LoggerConfig           `mapstructure:"logger"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// SuggestConfig holds the remote suggestion API and fetch settings
type SuggestConfig struct {
	APIKey                  string        `mapstructure:"api_key"`
	BaseURL                 string        `mapstructure:"base_url"`
	Timeout                 time.Duration `mapstructure:"timeout"`
	CacheTTL                time.Duration `mapstructure:"cache_ttl"`
	RateLimit               float64       `mapstructure:"rate_limit"`
	RateBurst               int           `mapstructure:"rate_burst"`
	MinKeywordLengthDefault int           `mapstructure:"min_keyword_length_default"`
	SessionIdleTTL          time.Duration `mapstructure:"session_idle_ttl"`
	SessionSweepSpec        string        `mapstructure:"session_sweep_spec"`
	Debug                   bool          `mapstructure:"debug"`
}

// GeoIPConfig holds the IP geolocation provider settings
type GeoIPConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// CacheConfig holds cache maintenance settings
type CacheConfig struct {
	PurgeSpec string `mapstructure:"purge_spec"`
}

// PrefsConfig holds the preference store location. An empty path keeps
// preferences in memory.
type PrefsConfig struct {
	Path string `mapstructure:"path"`
}

// RemoteConfig holds the remote config document settings
type RemoteConfig struct {
	URL         string        `mapstructure:"url"`
	RefreshSpec string        `mapstructure:"refresh_spec"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// LoggerConfig holds logging settings
type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/placewise/")

	v.SetEnvPrefix("PLACEWISE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads a .env file from the working directory if present.
// Variables already set in the environment win.
func loadEnvFile() error {
	if err := godotenv.Load(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error loading .env file: %w", err)
	}
	return nil
}

// setDefaults sets default configuration values. Every key gets a default so
// AutomaticEnv can see it during Unmarshal.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"chrome-extension://*", "moz-extension://*"})

	// Suggestion API defaults
	v.SetDefault("suggest.api_key", "")
	v.SetDefault("suggest.base_url", "https://suggest.placewise.dev")
	v.SetDefault("suggest.timeout", "5s")
	v.SetDefault("suggest.cache_ttl", "60s")
	v.SetDefault("suggest.rate_limit", 10)
	v.SetDefault("suggest.rate_burst", 20)
	v.SetDefault("suggest.min_keyword_length_default", 2)
	v.SetDefault("suggest.session_idle_ttl", "30m")
	v.SetDefault("suggest.session_sweep_spec", "@every 1m")
	v.SetDefault("suggest.debug", false)

	// Geolocation defaults
	v.SetDefault("geoip.base_url", "http://ip-api.com")
	v.SetDefault("geoip.cache_ttl", "1h")
	v.SetDefault("geoip.timeout", "2s")

	v.SetDefault("cache.purge_spec", "@every 10m")

	v.SetDefault("prefs.path", "")

	// Remote config defaults
	v.SetDefault("remote_config.url", "")
	v.SetDefault("remote_config.refresh_spec", "@every 5m")
	v.SetDefault("remote_config.timeout", "5s")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "text")
}

// validate validates the configuration
func validate(config *Config) error {
	if err := validateURL("suggest.base_url", config.Suggest.BaseURL, true); err != nil {
		return err
	}
	if config.Suggest.Timeout <= 0 {
		return fmt.Errorf("suggest timeout must be positive, got: %s", config.Suggest.Timeout)
	}
	if config.Suggest.CacheTTL <= 0 {
		return fmt.Errorf("suggest cache TTL must be positive, got: %s", config.Suggest.CacheTTL)
	}
	if config.Suggest.MinKeywordLengthDefault < 0 {
		return fmt.Errorf("suggest min keyword length default cannot be negative, got: %d", config.Suggest.MinKeywordLengthDefault)
	}

	if config.Suggest.SessionIdleTTL <= 0 {
		return fmt.Errorf("suggest session idle TTL must be positive, got: %s", config.Suggest.SessionIdleTTL)
	}

	if err := validateURL("geoip.base_url", config.GeoIP.BaseURL, false); err != nil {
		return err
	}
	if err := validateURL("remote_config.url", config.RemoteConfig.URL, false); err != nil {
		return err
	}
	if config.RemoteConfig.URL != "" && config.RemoteConfig.RefreshSpec == "" {
		return fmt.Errorf("remote config refresh spec is required when a remote config url is set")
	}

	if _, err := logrus.ParseLevel(config.Logger.Level); err != nil {
		return fmt.Errorf("logger level is invalid: %w", err)
	}
	if config.Logger.Format != "text" && config.Logger.Format != "json" {
		return fmt.Errorf("logger format must be 'text' or 'json', got: %s", config.Logger.Format)
	}

	return nil
}

func validateURL(name, raw string, required bool) error {
	if raw == "" {
		if required {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an http(s) url, got: %s", name, raw)
	}
	return nil
}
