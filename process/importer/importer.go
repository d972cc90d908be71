// Package importer bulk-creates customers from a folder of AnyDesk
// screenshots. Each file runs through the extraction pipeline and every
// identifier found becomes a customer named after the file.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"deskdir/pkg/customers"
	"deskdir/pkg/ocr"
)

// Extractor is the part of ocr.Extractor the importer needs.
type Extractor interface {
	Extract(ctx context.Context, r io.Reader) (*ocr.Result, error)
}

// Options configures an Importer.
type Options struct {
	// Dir is scanned for screenshots.
	Dir string
	// ProcessedDir receives files after at least one customer was created
	// from them, when Move is set. Defaults to Dir/processed.
	ProcessedDir string
	// Category is assigned to created customers.
	Category string
	// Workers bounds concurrent extractions. Defaults to NumCPU.
	Workers int
	Move    bool
	// MaxProcessedBytes is the size budget for moved files; larger images
	// are downscaled. Zero means DefaultMaxProcessedBytes.
	MaxProcessedBytes int64
}

// FileResult is the outcome for one screenshot.
type FileResult struct {
	Name    string
	IDs     []string
	Created []string
	Skipped []string
	Err     error
}

// Summary aggregates a scan.
type Summary struct {
	Files   int
	Created int
	Skipped int
	Empty   int
	Failed  int
}

func (s *Summary) add(r FileResult) {
	s.Files++
	s.Created += len(r.Created)
	s.Skipped += len(r.Skipped)
	switch {
	case r.Err != nil:
		s.Failed++
	case len(r.IDs) == 0:
		s.Empty++
	}
}

// Importer turns screenshots into customers.
type Importer struct {
	repo      customers.Repository
	extractor Extractor
	opts      Options
	log       *zap.SugaredLogger
}

// New returns an Importer. Missing options get defaults.
func New(repo customers.Repository, ext Extractor, opts Options, log *zap.SugaredLogger) *Importer {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.ProcessedDir == "" {
		opts.ProcessedDir = filepath.Join(opts.Dir, "processed")
	}
	if opts.MaxProcessedBytes <= 0 {
		opts.MaxProcessedBytes = DefaultMaxProcessedBytes
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Importer{repo: repo, extractor: ext, opts: opts, log: log}
}

// Scan processes every supported file currently in Dir.
func (im *Importer) Scan(ctx context.Context) (Summary, error) {
	files, err := ListImageFiles(im.opts.Dir)
	if err != nil {
		return Summary{}, err
	}
	im.log.Infow("scanning", "dir", im.opts.Dir, "files", len(files), "workers", im.opts.Workers)

	var (
		mu  sync.Mutex
		sum Summary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.opts.Workers)
	for _, name := range files {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			r := im.ProcessFile(gctx, name)
			mu.Lock()
			sum.add(r)
			mu.Unlock()
			return nil
		})
	}
	err = g.Wait()
	im.log.Infow("scan finished",
		"files", sum.Files, "created", sum.Created, "skipped", sum.Skipped,
		"empty", sum.Empty, "failed", sum.Failed)
	return sum, err
}

// ProcessFile extracts identifiers from one file in Dir and creates the
// customers that do not exist yet. Existing identifiers are skipped.
func (im *Importer) ProcessFile(ctx context.Context, name string) FileResult {
	res := FileResult{Name: name}
	path := filepath.Join(im.opts.Dir, name)

	f, err := os.Open(path)
	if err != nil {
		res.Err = err
		im.log.Warnw("open failed", "file", name, "error", err)
		return res
	}
	out, err := im.extractor.Extract(ctx, f)
	f.Close()
	if err != nil {
		res.Err = err
		im.log.Warnw("extraction failed", "file", name, "error", err)
		return res
	}
	res.IDs = out.IDs
	if len(out.IDs) == 0 {
		im.log.Infow("no identifiers", "file", name)
		return res
	}

	stem := strings.TrimSuffix(name, filepath.Ext(name))
	for i, id := range out.IDs {
		if _, err := im.repo.FindByIdentifier(ctx, id); err == nil {
			res.Skipped = append(res.Skipped, id)
			im.log.Debugw("skip existing identifier", "file", name, "anydeskId", id)
			continue
		}
		customerName := stem
		if i > 0 {
			customerName = fmt.Sprintf("%s #%d", stem, i+1)
		}
		c, err := im.repo.Create(ctx, customers.Input{
			Name:      customerName,
			AnydeskID: id,
			Category:  im.opts.Category,
		})
		switch {
		case errors.Is(err, customers.ErrDuplicateIdentifier):
			// created concurrently by another worker
			res.Skipped = append(res.Skipped, id)
			continue
		case err != nil:
			res.Err = err
			im.log.Errorw("create customer failed", "file", name, "anydeskId", id, "error", err)
			return res
		}
		res.Created = append(res.Created, id)
		im.log.Infow("customer created", "file", name, "id", c.ID, "anydeskId", c.AnydeskID)
	}

	if im.opts.Move && len(res.Created) > 0 {
		if err := moveToProcessed(path, filepath.Join(im.opts.ProcessedDir, name), im.opts.MaxProcessedBytes); err != nil {
			im.log.Warnw("failed to move processed file", "file", name, "error", err)
		}
	}
	return res
}

// Watch processes files as they appear in Dir until ctx is done. Events are
// debounced so half-written files are not picked up.
func (im *Importer) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(im.opts.Dir); err != nil {
		return err
	}
	im.log.Infow("watching", "dir", im.opts.Dir)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.opts.Workers + 1)

	const settle = 300 * time.Millisecond
	pending := map[string]time.Time{}
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-gctx.Done():
			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return g.Wait()
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			name := filepath.Base(ev.Name)
			if filepath.Dir(ev.Name) != filepath.Clean(im.opts.Dir) || !IsSupportedExt(name) {
				continue
			}
			pending[name] = time.Now()
		case err, ok := <-w.Errors:
			if !ok {
				return g.Wait()
			}
			im.log.Warnw("watch error", "error", err)
		case now := <-ticker.C:
			for name, t := range pending {
				if now.Sub(t) <= settle {
					continue
				}
				delete(pending, name)
				g.Go(func() error {
					im.ProcessFile(gctx, name)
					return nil
				})
			}
		}
	}
}

// ListImageFiles returns the supported files in dir, sorted by name.
func ListImageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !IsSupportedExt(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out, nil
}

// IsSupportedExt reports whether name looks like a screenshot the pipeline
// can decode. Debug output (".preproc.") is ignored.
func IsSupportedExt(name string) bool {
	if strings.Contains(name, ".preproc.") || strings.HasPrefix(name, ".") {
		return false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".heic", ".heif":
		return true
	}
	return false
}
