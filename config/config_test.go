package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, 200, cfg.PublicPageLimit)
	assert.Equal(t, 500, cfg.PublicPageCap)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 6*time.Second, cfg.FeaturedInterval)
	assert.NotZero(t, cfg.MaxUploadBytes)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":9090")
	t.Setenv("PUBLIC_PAGE_LIMIT", "50")
	t.Setenv("JWT_TTL", "1h")
	t.Setenv("MINIO_USE_SSL", "true")

	cfg := Load()

	assert.Equal(t, ":9090", cfg.ServerAddr)
	assert.Equal(t, 50, cfg.PublicPageLimit)
	assert.Equal(t, time.Hour, cfg.JWTTTL)
	assert.True(t, cfg.MinioUseSSL)
}

func TestGetEnvIntIgnoresGarbage(t *testing.T) {
	t.Setenv("PUBLIC_PAGE_LIMIT", "not-a-number")
	cfg := Load()
	assert.Equal(t, 200, cfg.PublicPageLimit)
}
