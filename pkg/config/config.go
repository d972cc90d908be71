// Package config loads settings from flags, the environment and an optional
// .env file. Flag names map to environment variables by upper-casing and
// replacing dashes, so --db-dsn is also read from DB_DSN.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
)

// ErrMissingDSN is returned by RequireDSN when no database is configured.
var ErrMissingDSN = errors.New("DB_DSN is not set; a Postgres DSN is required")

// Config is shared by the server and the CLI tools.
type Config struct {
	Addr           string
	DBDSN          string
	AutoMigrate    bool
	RedisURL       string
	CacheTTL       time.Duration
	OCRLanguage    string
	OCRTimeout     time.Duration
	OCRMinHeight   int
	OCRFallback    bool
	MaxUploadBytes int64
	CORSOrigins    []string
	LogLevel       string
	PingInterval   time.Duration

	// Args holds positional arguments left after flag parsing.
	Args []string
}

// Load parses args (usually os.Args[1:]). Extra flags for a specific tool can
// be added through register; their values are available once Load returns.
// A .env file in the working directory is read first and never overrides
// variables that are already set.
func Load(name string, args []string, register ...func(fs *ff.FlagSet)) (*Config, error) {
	_ = godotenv.Load()

	fs := ff.NewFlagSet(name)
	var (
		addr         = fs.StringLong("addr", ":8081", "HTTP listen address")
		dsn          = fs.StringLong("db-dsn", "", "Postgres DSN")
		autoMigrate  = fs.StringLong("db-auto-migrate", "true", "run schema migrations on start (true/false)")
		redisURL     = fs.StringLong("redis-url", "", "redis URL for the extraction cache (in-memory when empty)")
		cacheTTL     = fs.DurationLong("cache-ttl", 24*time.Hour, "how long extraction results are cached")
		ocrLang      = fs.StringLong("ocr-language", "eng", "tesseract language")
		ocrTimeout   = fs.DurationLong("ocr-timeout", 30*time.Second, "per-image OCR timeout (0 disables)")
		ocrMinHeight = fs.IntLong("ocr-min-height", 0, "upscale binarized images shorter than this before OCR (0 disables)")
		noFallback   = fs.BoolLong("no-ocr-digit-fallback", "disable the digits-only retry pass used when nothing is found")
		maxUpload    = fs.IntLong("max-upload-bytes", 5*1024*1024, "maximum accepted image size")
		corsOrigins  = fs.StringLong("cors-origins", "*", "comma separated allowed CORS origins")
		logLevel     = fs.StringLong("log-level", "info", "debug, info, warn or error")
		pingInterval = fs.DurationLong("ping-interval", 300*time.Millisecond, "pause between customers when pinging all")
	)
	for _, r := range register {
		r(fs)
	}

	if err := ff.Parse(fs, args, ff.WithEnvVars()); err != nil {
		return nil, fmt.Errorf("%s\n%w", ffhelp.Flags(fs), err)
	}

	cfg := &Config{
		Addr:           *addr,
		DBDSN:          strings.TrimSpace(*dsn),
		AutoMigrate:    parseBool(*autoMigrate, true),
		RedisURL:       strings.TrimSpace(*redisURL),
		OCRLanguage:    *ocrLang,
		OCRMinHeight:   *ocrMinHeight,
		OCRFallback:    !*noFallback,
		CacheTTL:       *cacheTTL,
		OCRTimeout:     *ocrTimeout,
		PingInterval:   *pingInterval,
		MaxUploadBytes: int64(*maxUpload),
		CORSOrigins:    splitList(*corsOrigins),
		LogLevel:       *logLevel,
		Args:           fs.GetArgs(),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges. The DSN is checked separately by RequireDSN
// because some tools run without a database.
func (c *Config) Validate() error {
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max-upload-bytes must be positive, got %d", c.MaxUploadBytes)
	}
	if c.OCRMinHeight < 0 {
		return fmt.Errorf("ocr-min-height must not be negative, got %d", c.OCRMinHeight)
	}
	if c.OCRTimeout < 0 || c.CacheTTL < 0 || c.PingInterval < 0 {
		return errors.New("durations must not be negative")
	}
	return nil
}

// RequireDSN returns ErrMissingDSN when no database is configured.
func (c *Config) RequireDSN() error {
	if c.DBDSN == "" {
		return ErrMissingDSN
	}
	return nil
}

// parseBool keeps DB_AUTO_MIGRATE lenient, as it always was:
// false, 0 and no disable; anything else enables.
func parseBool(s string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return def
	case "false", "0", "no", "off":
		return false
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return true
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
