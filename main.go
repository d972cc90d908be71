package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"deskdir/pkg/api"
	"deskdir/pkg/cache"
	"deskdir/pkg/config"
	"deskdir/pkg/customers"
	"deskdir/pkg/liveness"
	"deskdir/pkg/logging"
	"deskdir/pkg/ocr"
	"deskdir/pkg/ocr/tesseract"
)

func main() {
	cfg, err := config.Load("deskdir", os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log := logging.New(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	if err := cfg.RequireDSN(); err != nil {
		log.Fatalw("configuration", "error", err)
	}

	// `deskdir migrate` runs AutoMigrate and exits. Useful for CI or manual DB setup.
	if len(cfg.Args) > 0 && cfg.Args[0] == "migrate" {
		if _, err := customers.Open(cfg.DBDSN, true, log); err != nil {
			log.Fatalw("migration failed", "error", err)
		}
		log.Infow("migration completed")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatalw("server stopped", "error", err)
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) error {
	db, err := customers.Open(cfg.DBDSN, cfg.AutoMigrate, log)
	if err != nil {
		return err
	}

	extractCache, closeCache := newCache(ctx, cfg, log)
	defer closeCache()

	rec := tesseract.New(cfg.OCRLanguage, cfg.OCRTimeout)
	opts := []ocr.Option{
		ocr.WithCache(extractCache),
		ocr.WithLogger(log.Named("ocr")),
		ocr.WithMinHeight(cfg.OCRMinHeight),
	}
	if cfg.OCRFallback {
		opts = append(opts, ocr.WithFallback(rec.Digits()))
	}
	extractor := ocr.NewExtractor(rec, opts...)

	if logging.Level() > zap.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := api.New(api.Options{
		Repo:         customers.NewStore(db),
		Extractor:    extractor,
		Tracker:      liveness.NewTracker(liveness.NewRandomProber()),
		Logger:       log.Named("http"),
		MaxUpload:    cfg.MaxUploadBytes,
		PingInterval: cfg.PingInterval,
		CORSOrigins:  cfg.CORSOrigins,
	})

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Infow("listening", "addr", cfg.Addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// newCache prefers redis when configured and falls back to process memory
// when it is unset or unreachable.
func newCache(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (ocr.Cache, func()) {
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedis(ctx, cfg.RedisURL, cfg.CacheTTL, log.Named("cache"))
		if err == nil {
			return rc, func() { _ = rc.Close() }
		}
		log.Warnw("redis unavailable, using in-memory cache", "error", err)
	}
	return cache.NewMemory(cfg.CacheTTL), func() {}
}
