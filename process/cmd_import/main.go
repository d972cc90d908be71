// Command cmd_import creates customers from a folder of AnyDesk screenshots.
//
//	go run ./process/cmd_import --dir public/screenshots --category Imported --watch
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/peterbourgon/ff/v4"

	"deskdir/pkg/config"
	"deskdir/pkg/customers"
	"deskdir/pkg/logging"
	"deskdir/pkg/ocr"
	"deskdir/pkg/ocr/tesseract"
	"deskdir/process/importer"
)

func main() {
	var (
		dir, processed, category *string
		workers                  *int
		dryRun, watch, move      *bool
	)
	cfg, err := config.Load("cmd_import", os.Args[1:], func(fs *ff.FlagSet) {
		dir = fs.StringLong("dir", "public/screenshots", "directory to scan for screenshots")
		processed = fs.StringLong("processed-dir", "", "where handled files are moved (default <dir>/processed)")
		category = fs.StringLong("category", "", "category for created customers")
		workers = fs.IntLong("workers", 0, "worker pool size (default NumCPU)")
		dryRun = fs.BoolLong("dry-run", "skip all DB writes; customers are kept in memory")
		watch = fs.BoolLong("watch", "keep watching the directory for new files")
		move = fs.BoolLong("move", "move files that produced customers to the processed directory")
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log := logging.New(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	var repo customers.Repository
	if *dryRun {
		log.Infow("dry-run: no DB interaction", "dir", *dir)
		repo = customers.NewMemory()
	} else {
		if err := cfg.RequireDSN(); err != nil {
			log.Fatalw("configuration", "error", err)
		}
		db, err := customers.Open(cfg.DBDSN, cfg.AutoMigrate, log)
		if err != nil {
			log.Fatalw("open db", "error", err)
		}
		repo = customers.NewStore(db)
	}

	rec := tesseract.New(cfg.OCRLanguage, cfg.OCRTimeout)
	opts := []ocr.Option{
		ocr.WithLogger(log.Named("ocr")),
		ocr.WithMinHeight(cfg.OCRMinHeight),
	}
	if cfg.OCRFallback {
		opts = append(opts, ocr.WithFallback(rec.Digits()))
	}
	extractor := ocr.NewExtractor(rec, opts...)
	im := importer.New(repo, extractor, importer.Options{
		Dir:          *dir,
		ProcessedDir: *processed,
		Category:     *category,
		Workers:      *workers,
		Move:         *move && !*dryRun,
	}, log.Named("import"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sum, err := im.Scan(ctx)
	if err != nil {
		log.Fatalw("scan failed", "error", err)
	}
	fmt.Printf("files=%d created=%d skipped=%d empty=%d failed=%d\n", sum.Files, sum.Created, sum.Skipped, sum.Empty, sum.Failed)

	if *watch {
		if err := im.Watch(ctx); err != nil {
			log.Fatalw("watch failed", "error", err)
		}
	}
}
