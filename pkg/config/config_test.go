package config

import (
	"errors"
	"testing"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DSN", "")
	cfg, err := Load("test", nil)
	require.NoError(t, err)
	assert.Equal(t, ":8081", cfg.Addr)
	assert.True(t, cfg.AutoMigrate)
	assert.True(t, cfg.OCRFallback)
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL)
	assert.Equal(t, 30*time.Second, cfg.OCRTimeout)
	assert.Equal(t, 300*time.Millisecond, cfg.PingInterval)
	assert.Equal(t, int64(5*1024*1024), cfg.MaxUploadBytes)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, "eng", cfg.OCRLanguage)
	assert.ErrorIs(t, cfg.RequireDSN(), ErrMissingDSN)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://u:p@localhost/deskdir")
	t.Setenv("DB_AUTO_MIGRATE", "no")
	t.Setenv("OCR_TIMEOUT", "5s")
	t.Setenv("CORS_ORIGINS", "http://a.example, http://b.example")
	t.Setenv("NO_OCR_DIGIT_FALLBACK", "true")

	cfg, err := Load("test", nil)
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@localhost/deskdir", cfg.DBDSN)
	assert.False(t, cfg.AutoMigrate)
	assert.Equal(t, 5*time.Second, cfg.OCRTimeout)
	assert.False(t, cfg.OCRFallback)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.CORSOrigins)
	assert.NoError(t, cfg.RequireDSN())
}

func TestLoadFlagsAndArgs(t *testing.T) {
	cfg, err := Load("test", []string{"--addr", ":9000", "--ocr-min-height", "600", "migrate"})
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, 600, cfg.OCRMinHeight)
	assert.Equal(t, []string{"migrate"}, cfg.Args)
}

func TestLoadExtraFlags(t *testing.T) {
	var dir *string
	_, err := Load("test", []string{"--dir", "shots"}, func(fs *ff.FlagSet) {
		dir = fs.StringLong("dir", "public/anydesk", "drop folder")
	})
	require.NoError(t, err)
	assert.Equal(t, "shots", *dir)
}

func TestLoadRejectsBadValues(t *testing.T) {
	_, err := Load("test", []string{"--cache-ttl", "forever"})
	assert.Error(t, err)

	_, err = Load("test", []string{"--max-upload-bytes", "0"})
	assert.Error(t, err)

	_, err = Load("test", []string{"--no-such-flag"})
	assert.Error(t, err)
}

func TestLoadHelp(t *testing.T) {
	_, err := Load("test", []string{"--help"})
	assert.True(t, errors.Is(err, ff.ErrHelp))
}

func TestLoadDurationsAndFallbackSwitch(t *testing.T) {
	t.Setenv("PING_INTERVAL", "1s")
	cfg, err := Load("test", []string{"--cache-ttl", "90m", "--ocr-timeout", "0s", "--no-ocr-digit-fallback"})
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, cfg.CacheTTL)
	assert.Zero(t, cfg.OCRTimeout)
	assert.Equal(t, time.Second, cfg.PingInterval)
	assert.False(t, cfg.OCRFallback)

	_, err = Load("test", []string{"--ping-interval=-1s"})
	assert.Error(t, err, "negative durations are rejected")
}

func TestParseBool(t *testing.T) {
	assert.True(t, parseBool("", true))
	assert.False(t, parseBool("", false))
	assert.False(t, parseBool("FALSE", true))
	assert.False(t, parseBool("0", true))
	assert.True(t, parseBool("yes", false))
	assert.True(t, parseBool("1", false))
}
