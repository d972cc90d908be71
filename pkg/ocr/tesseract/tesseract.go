// Package tesseract binds the ocr.Recognizer interface to libtesseract via
// gosseract. It is kept apart from package ocr because it needs cgo.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"time"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	"deskdir/pkg/ocr"
)

// DigitsWhitelist limits recognition to digits, spaces and the glyphs
// commonly misread for 1.
const DigitsWhitelist = "0123456789Il|!' "

// Recognizer runs tesseract on in-memory images. A fresh client is created
// per call, so a Recognizer may be shared between goroutines.
type Recognizer struct {
	Language    string
	PageSegMode gosseract.PageSegMode
	Whitelist   string
	Timeout     time.Duration
}

// New returns a Recognizer for language (default "eng") using single block
// page segmentation.
func New(language string, timeout time.Duration) *Recognizer {
	if language == "" {
		language = "eng"
	}
	return &Recognizer{
		Language:    language,
		PageSegMode: gosseract.PSM_SINGLE_BLOCK,
		Timeout:     timeout,
	}
}

// Digits returns a copy of r restricted to DigitsWhitelist.
func (r *Recognizer) Digits() *Recognizer {
	d := *r
	d.Whitelist = DigitsWhitelist
	return &d
}

// Recognize implements ocr.Recognizer. The tesseract call itself cannot be
// interrupted; on cancellation the result is discarded.
func (r *Recognizer) Recognize(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", ocr.ErrRecognition, err)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	type outcome struct {
		text string
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		text, err := r.run(buf.Bytes())
		done <- outcome{text, err}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %w", ocr.ErrRecognition, ctx.Err())
	case o := <-done:
		if o.err != nil {
			return "", fmt.Errorf("%w: %w", ocr.ErrRecognition, o.err)
		}
		return o.text, nil
	}
}

func (r *Recognizer) run(png []byte) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	lang := r.Language
	if lang == "" {
		lang = "eng"
	}
	if err := client.SetLanguage(lang); err != nil {
		return "", fmt.Errorf("set language %q: %w", lang, err)
	}
	// The block splitter relies on wide gaps surviving as repeated spaces.
	if err := client.SetVariable("preserve_interword_spaces", "1"); err != nil {
		return "", fmt.Errorf("set preserve_interword_spaces: %w", err)
	}
	psm := r.PageSegMode
	if psm == gosseract.PSM_OSD_ONLY {
		psm = gosseract.PSM_SINGLE_BLOCK
	}
	if err := client.SetPageSegMode(psm); err != nil {
		return "", fmt.Errorf("set page seg mode: %w", err)
	}
	if r.Whitelist != "" {
		if err := client.SetWhitelist(r.Whitelist); err != nil {
			return "", fmt.Errorf("set whitelist: %w", err)
		}
	}
	if err := client.SetImageFromBytes(png); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	return client.Text()
}
