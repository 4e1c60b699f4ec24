package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, 60, cfg.RetentionSeconds)
	assert.Equal(t, 50, cfg.DefaultScrollLimit)
	assert.Equal(t, 800, cfg.MaxNumbers)
	assert.Equal(t, 3, cfg.NavRetries)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"port": 8080, "retention_seconds": 120, "chrome_path": "/usr/bin/chromium"}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 120, cfg.RetentionSeconds)
	assert.Equal(t, "/usr/bin/chromium", cfg.ChromePath)
	// untouched fields stay zero until merged
	assert.Equal(t, 0, cfg.DefaultScrollLimit)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := Config{Port: 8080, NavRetries: 5}
	merged := cfg.MergeWithDefaults(Defaults())

	assert.Equal(t, 8080, merged.Port)
	assert.Equal(t, 5, merged.NavRetries)
	assert.Equal(t, 60, merged.RetentionSeconds)
	assert.Equal(t, 50, merged.DefaultScrollLimit)
	assert.Equal(t, 15, merged.KeepAliveSeconds)
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	cfg.Port = 70000
	assert.Error(t, cfg.Validate())

	cfg = Defaults()
	cfg.RetentionSeconds = -1
	assert.Error(t, cfg.Validate())

	cfg = Defaults()
	cfg.NavRetries = -1
	assert.Error(t, cfg.Validate())
}

func TestDurationAccessors(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, 60*time.Second, cfg.Retention())
	assert.Equal(t, 5*time.Second, cfg.SweepInterval())
	assert.Equal(t, 3*time.Second, cfg.NavBackoff())
	assert.Equal(t, 120*time.Second, cfg.NavTimeout())
	assert.Equal(t, 2500*time.Millisecond, cfg.ScrollSettle())
	assert.Equal(t, 1500*time.Millisecond, cfg.ExpandSettle())
	assert.Equal(t, 15*time.Second, cfg.KeepAlive())
}
