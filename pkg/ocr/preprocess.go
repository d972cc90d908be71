package ocr

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// minTextRed is the red channel floor for a pixel to count as red text.
const minTextRed = 100

// Preprocess isolates red text: pixels whose red channel exceeds 100 and is
// more than 1.5 times both green and blue become black, everything else
// becomes white. Alpha is copied unchanged. The result has the same
// dimensions as img, with its bounds rebased to start at (0,0); the input is
// never modified.
func Preprocess(img image.Image) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		if isRedText(c.R, c.G, c.B) {
			return color.NRGBA{R: 0, G: 0, B: 0, A: c.A}
		}
		return color.NRGBA{R: 255, G: 255, B: 255, A: c.A}
	})
}

// isRedText compares in integers: r > 1.5*g  <=>  2r > 3g.
func isRedText(r, g, b uint8) bool {
	ri, gi, bi := int(r), int(g), int(b)
	return ri > minTextRed && 2*ri > 3*gi && 2*ri > 3*bi
}
