package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"massiliafm/config"
)

func TestObjectNameSanitizesFilename(t *testing.T) {
	name := ObjectName("audio", "Mon Été à Marseille (live).mp3")

	assert.True(t, strings.HasPrefix(name, "audio/"))
	assert.True(t, strings.HasSuffix(name, ".mp3"))
	// Everything outside the safe set collapses to underscores.
	rest := strings.TrimPrefix(name, "audio/")
	dash := strings.Index(rest, "-")
	assert.Greater(t, dash, 0, "expected a timestamp prefix")
	assert.NotContains(t, rest[dash+1:], " ")
	assert.NotContains(t, rest[dash+1:], "(")
}

func TestObjectNameCapsLength(t *testing.T) {
	long := strings.Repeat("a", 300) + ".mp3"
	name := ObjectName("audio", long)

	rest := strings.TrimPrefix(name, "audio/")
	dash := strings.Index(rest, "-")
	assert.LessOrEqual(t, len(rest[dash+1:]), 140)
}

func TestObjectNameEmptyFilename(t *testing.T) {
	name := ObjectName("covers", "!!!")
	// Sanitizing leaves underscores, never an empty object name.
	assert.True(t, strings.HasPrefix(name, "covers/"))
	assert.NotEqual(t, "covers/", name)
}

func TestPublicURLUsesConfiguredBase(t *testing.T) {
	cfg := &config.Config{
		MinioBucket:    "massilia",
		MinioPublicURL: "https://media.massiliaradio.com/",
	}
	url := PublicURL(cfg, "audio/track.mp3")
	assert.Equal(t, "https://media.massiliaradio.com/massilia/audio/track.mp3", url)
}

func TestPublicURLFallsBackToEndpoint(t *testing.T) {
	cfg := &config.Config{
		MinioBucket:   "massilia",
		MinioEndpoint: "localhost:9000",
	}
	url := PublicURL(cfg, "audio/track.mp3")
	assert.Equal(t, "http://localhost:9000/massilia/audio/track.mp3", url)
}

func TestObjectPathFromURL(t *testing.T) {
	cfg := &config.Config{MinioBucket: "massilia"}

	path := ObjectPathFromURL(cfg, "https://media.massiliaradio.com/massilia/audio/track.mp3")
	assert.Equal(t, "audio/track.mp3", path)

	// Foreign URLs yield nothing to delete.
	assert.Equal(t, "", ObjectPathFromURL(cfg, "https://cdn.example.com/other/track.mp3"))
}
