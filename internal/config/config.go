package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	return Load("")
}

// Load creates a configuration instance, reading configFile when it is set
// and searching the default locations otherwise
func Load(configFile string) (*Config, error) {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/newsletter-funnels/")
		v.AddConfigPath("$HOME/.newsletter-funnels")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Set defaults
	setDefaults(v)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("FUNNEL_BUILDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// BindFlags lets command line flags override configuration keys.
// The map goes from configuration key to flag name.
func (c *Config) BindFlags(flags *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		flag := flags.Lookup(name)
		if flag == nil {
			return fmt.Errorf("unknown flag %q for key %q", name, key)
		}
		if err := c.v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %q: %w", name, err)
		}
	}
	return nil
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Store defaults
	v.SetDefault("store.type", "sqlite")
	v.SetDefault("store.sqlite_path", "/data/funnels.db")
	v.SetDefault("store.mysql_dsn", "user:password@tcp(localhost:3306)/newsletter_funnels?parseTime=true")
	v.SetDefault("store.disk_path", "/data/funnels")
	v.SetDefault("store.disk_cache_size", 1024*1024)

	// Capture server defaults
	v.SetDefault("capture.listen_address", "0.0.0.0:2525")
	v.SetDefault("capture.domain", "localhost")
	v.SetDefault("capture.tracked_domains", []string{})
	v.SetDefault("capture.max_message_bytes", 10*1024*1024)
	v.SetDefault("capture.read_timeout", "30s")
	v.SetDefault("capture.write_timeout", "30s")
	v.SetDefault("capture.body_preview_size", 280)
	v.SetDefault("capture.auth.enabled", false)
	v.SetDefault("capture.auth.username", "")
	v.SetDefault("capture.auth.password", "")

	// Funnel defaults
	v.SetDefault("funnel.default_color", "#6366f1")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
