package importer

import (
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// DefaultMaxProcessedBytes is the size budget for archived screenshots.
const DefaultMaxProcessedBytes = 1_000_000

// moveToProcessed moves src to dst. Files over maxBytes are downscaled on
// the way; anything that cannot be decoded or re-encoded is moved as is.
func moveToProcessed(src, dst string, maxBytes int64) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	fi, err := os.Stat(src)
	if err != nil {
		return err
	}
	if fi.Size() <= maxBytes {
		return rename(src, dst)
	}

	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return rename(src, dst)
	}
	// encoded size scales roughly with area
	scale := math.Sqrt(float64(maxBytes) / float64(fi.Size()))
	scale = math.Max(0.1, math.Min(scale, 0.95))
	w := int(math.Max(1, math.Round(float64(img.Bounds().Dx())*scale)))
	img = imaging.Resize(img, w, 0, imaging.Lanczos)
	if err := imaging.Save(img, dst); err != nil {
		_ = os.Remove(dst)
		return rename(src, dst)
	}
	return os.Remove(src)
}

func rename(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	return copyRemove(src, dst)
}

func copyRemove(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
