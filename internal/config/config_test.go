package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Victor-armando18/service-giftbuilder/pkg/giftbuilder"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, giftbuilder.DefaultTiers, cfg.Discount.Tiers)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `server:
  addr: ":9090"
session:
  ttl: 30m
discount:
  tiers:
    - minProducts: 4
      rate: 0.1
    - minProducts: 2
      rate: 0.05
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("GIFTBUILDER_LOG_LEVEL", "debug")
	t.Setenv("GIFTBUILDER_SWEEP_INTERVAL", "1m")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, time.Minute, cfg.Session.SweepInterval)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, giftbuilder.Tiers{{MinProducts: 4, Rate: 0.1}, {MinProducts: 2, Rate: 0.05}}, cfg.Discount.Tiers)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("bad env duration", func(t *testing.T) {
		t.Setenv("GIFTBUILDER_SESSION_TTL", "soon")
		_, err := Load("")
		assert.Error(t, err)
	})

	t.Run("non monotonic tiers", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := "discount:\n  tiers:\n    - {minProducts: 5, rate: 0.05}\n    - {minProducts: 3, rate: 0.10}\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		_, err := Load(path)
		assert.ErrorIs(t, err, giftbuilder.ErrInvalidTiers)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("empty addr", func(t *testing.T) {
		cfg := Default()
		cfg.Server.Addr = ""
		assert.Error(t, cfg.Validate())
	})
}
