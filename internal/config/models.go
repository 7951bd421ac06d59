package config

import (
	"fmt"
	"time"
)

// StoreConfig represents the configuration for the catalog and funnel store
type StoreConfig struct {
	Type          string
	SQLitePath    string
	MySQLDSN      string
	DiskPath      string
	DiskCacheSize int
}

// CaptureConfig represents the configuration for the newsletter capture server
type CaptureConfig struct {
	ListenAddress   string
	Domain          string
	TrackedDomains  []string
	MaxMessageBytes int64
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	BodyPreviewSize int
	AuthEnabled     bool
	AuthUsername    string
	AuthPassword    string
}

// FunnelConfig represents funnel composition settings
type FunnelConfig struct {
	DefaultColor string
}

// GetStore returns the store configuration
func (c *Config) GetStore() StoreConfig {
	return StoreConfig{
		Type:          c.GetString("store.type"),
		SQLitePath:    c.GetString("store.sqlite_path"),
		MySQLDSN:      c.GetString("store.mysql_dsn"),
		DiskPath:      c.GetString("store.disk_path"),
		DiskCacheSize: c.GetInt("store.disk_cache_size"),
	}
}

// GetCapture returns the capture server configuration
func (c *Config) GetCapture() (CaptureConfig, error) {
	readTimeout, err := c.GetDuration("capture.read_timeout")
	if err != nil {
		return CaptureConfig{}, fmt.Errorf("invalid capture read timeout: %w", err)
	}
	writeTimeout, err := c.GetDuration("capture.write_timeout")
	if err != nil {
		return CaptureConfig{}, fmt.Errorf("invalid capture write timeout: %w", err)
	}

	return CaptureConfig{
		ListenAddress:   c.GetString("capture.listen_address"),
		Domain:          c.GetString("capture.domain"),
		TrackedDomains:  c.GetStringSlice("capture.tracked_domains"),
		MaxMessageBytes: int64(c.GetInt("capture.max_message_bytes")),
		ReadTimeout:     readTimeout,
		WriteTimeout:    writeTimeout,
		BodyPreviewSize: c.GetInt("capture.body_preview_size"),
		AuthEnabled:     c.GetBool("capture.auth.enabled"),
		AuthUsername:    c.GetString("capture.auth.username"),
		AuthPassword:    c.GetString("capture.auth.password"),
	}, nil
}

// GetFunnel returns the funnel composition configuration
func (c *Config) GetFunnel() FunnelConfig {
	return FunnelConfig{
		DefaultColor: c.GetString("funnel.default_color"),
	}
}
