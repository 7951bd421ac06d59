package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	t.Parallel()

	cfg := NewFromViper(NewEmptyViper())

	store := cfg.GetStore()
	assert.Equal(t, "sqlite", store.Type)
	assert.Equal(t, 1024*1024, store.DiskCacheSize)

	capture, err := cfg.GetCapture()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:2525", capture.ListenAddress)
	assert.Equal(t, 30*time.Second, capture.ReadTimeout)
	assert.Empty(t, capture.TrackedDomains)
	assert.False(t, capture.AuthEnabled)

	assert.Equal(t, "#6366f1", cfg.GetFunnel().DefaultColor)
	assert.Equal(t, "info", cfg.GetString("logging.level"))
}

func TestLoadFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
store:
  type: disk
  disk_path: /tmp/funnels
capture:
  tracked_domains:
    - acme.io
    - globex.com
  read_timeout: 5s
funnel:
  default_color: "#22c55e"
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "disk", cfg.GetStore().Type)
	assert.Equal(t, "/tmp/funnels", cfg.GetStore().DiskPath)

	capture, err := cfg.GetCapture()
	require.NoError(t, err)
	assert.Equal(t, []string{"acme.io", "globex.com"}, capture.TrackedDomains)
	assert.Equal(t, 5*time.Second, capture.ReadTimeout)
	assert.Equal(t, 30*time.Second, capture.WriteTimeout)

	assert.Equal(t, "#22c55e", cfg.GetFunnel().DefaultColor)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestInvalidCaptureTimeout(t *testing.T) {
	t.Parallel()

	v := NewEmptyViper()
	v.Set("capture.read_timeout", "soon")

	_, err := NewFromViper(v).GetCapture()
	require.Error(t, err)
}

func TestBindFlags(t *testing.T) {
	t.Parallel()

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("store", "", "")
	require.NoError(t, flags.Parse([]string{"--store", "memory"}))

	cfg := NewFromViper(NewEmptyViper())
	require.NoError(t, cfg.BindFlags(flags, map[string]string{"store.type": "store"}))
	assert.Equal(t, "memory", cfg.GetStore().Type)

	err := cfg.BindFlags(flags, map[string]string{"store.type": "nope"})
	require.Error(t, err)
}
