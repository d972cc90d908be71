package ocr

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

// Recognizer turns an image into raw text. Implementations wrap an OCR
// engine and may block; they should honour ctx.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// Cache stores extraction results keyed by a digest of the source bytes.
type Cache interface {
	Get(ctx context.Context, key string) ([]string, bool)
	Set(ctx context.Context, key string, ids []string)
}

// Result is the outcome of one extraction.
type Result struct {
	IDs       []string
	RawText   string
	Processed *image.NRGBA // nil when served from cache
	Cached    bool
}

// Extractor runs decode -> preprocess -> recognize -> extract.
type Extractor struct {
	recognizer Recognizer
	fallback   Recognizer
	cache      Cache
	log        *zap.SugaredLogger
	minHeight  int
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithCache enables result caching.
func WithCache(c Cache) Option {
	return func(e *Extractor) { e.cache = c }
}

// WithFallback adds a second recognition pass, typically restricted to
// digits, used only when the first pass finds no identifier.
func WithFallback(r Recognizer) Option {
	return func(e *Extractor) { e.fallback = r }
}

// WithLogger sets the logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(e *Extractor) { e.log = l }
}

// WithMinHeight upscales binarized images shorter than h pixels before
// recognition. Nearest-neighbour keeps the image strictly black/white.
func WithMinHeight(h int) Option {
	return func(e *Extractor) { e.minHeight = h }
}

// NewExtractor returns an Extractor backed by rec.
func NewExtractor(rec Recognizer, opts ...Option) *Extractor {
	e := &Extractor{recognizer: rec, log: zap.NewNop().Sugar()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract reads an encoded image from r and returns the identifiers in it.
// Decode failures wrap ErrDecode and engine failures wrap ErrRecognition.
// Finding nothing is not an error.
func (e *Extractor) Extract(ctx context.Context, r io.Reader) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read: %w", ErrDecode, err)
	}
	key := digest(data)
	if e.cache != nil {
		if ids, ok := e.cache.Get(ctx, key); ok {
			e.log.Debugw("extraction cache hit", "key", key, "ids", ids)
			return &Result{IDs: ids, Cached: true}, nil
		}
	}
	img, err := DecodeImage(data)
	if err != nil {
		return nil, err
	}
	res, err := e.ExtractImage(ctx, img)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.cache.Set(ctx, key, res.IDs)
	}
	return res, nil
}

// ExtractImage runs the pipeline on an already decoded image.
func (e *Extractor) ExtractImage(ctx context.Context, img image.Image) (*Result, error) {
	start := time.Now()
	processed := Preprocess(img)

	var input image.Image = processed
	if h := processed.Bounds().Dy(); e.minHeight > 0 && h > 0 && h < e.minHeight {
		input = imaging.Resize(processed, 0, e.minHeight, imaging.NearestNeighbor)
	}

	text, err := e.recognizer.Recognize(ctx, input)
	if err != nil {
		e.log.Warnw("recognition failed", "error", err)
		return nil, recognitionError(err)
	}
	ids := ExtractIdentifiers(text)
	pass := "primary"
	if len(ids) == 0 && e.fallback != nil {
		if alt, err := e.fallback.Recognize(ctx, input); err != nil {
			e.log.Warnw("fallback recognition failed", "error", err)
		} else if altIDs := ExtractIdentifiers(alt); len(altIDs) > 0 {
			text, ids, pass = alt, altIDs, "fallback"
		}
	}
	e.log.Infow("extraction finished",
		"ids", ids,
		"pass", pass,
		"cleaned", snippet(CleanText(text), 120),
		"duration", time.Since(start),
	)
	return &Result{IDs: ids, RawText: text, Processed: processed}, nil
}

func recognitionError(err error) error {
	if errors.Is(err, ErrRecognition) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrRecognition, err)
}

func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
