package ocr

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	black = color.NRGBA{0, 0, 0, 255}
	white = color.NRGBA{255, 255, 255, 255}
)

func TestPreprocessClassification(t *testing.T) {
	tests := []struct {
		name string
		in   color.NRGBA
		want color.NRGBA
	}{
		{"pure red", color.NRGBA{255, 0, 0, 255}, black},
		{"just above ratio", color.NRGBA{101, 67, 67, 255}, black},
		{"green at ratio limit", color.NRGBA{101, 68, 0, 255}, white},
		{"blue at ratio limit", color.NRGBA{101, 0, 68, 255}, white},
		{"red at floor", color.NRGBA{100, 0, 0, 255}, white},
		{"orange", color.NRGBA{255, 170, 0, 255}, white},
		{"dark red text", color.NRGBA{180, 40, 50, 255}, black},
		{"black", black, white},
		{"white", white, white},
		{"grey", color.NRGBA{128, 128, 128, 255}, white},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
			img.SetNRGBA(0, 0, tt.in)
			out := Preprocess(img)
			assert.Equal(t, tt.want, out.NRGBAAt(0, 0))
		})
	}
}

func TestPreprocessKeepsAlphaAndSize(t *testing.T) {
	img := image.NewNRGBA(image.Rect(10, 10, 30, 25))
	img.SetNRGBA(10, 10, color.NRGBA{200, 0, 0, 128})
	img.SetNRGBA(11, 10, color.NRGBA{0, 200, 0, 77})
	// the rest stays fully transparent

	out := Preprocess(img)
	require.Equal(t, image.Rect(0, 0, 20, 15), out.Bounds())
	assert.Equal(t, color.NRGBA{0, 0, 0, 128}, out.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{255, 255, 255, 77}, out.NRGBAAt(1, 0))
	assert.Equal(t, color.NRGBA{255, 255, 255, 0}, out.NRGBAAt(5, 5))

	// input untouched
	assert.Equal(t, color.NRGBA{200, 0, 0, 128}, img.NRGBAAt(10, 10))
}

func TestPreprocessOutputIsBinary(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x * 4), uint8(y * 4), uint8((x + y) * 2), 255})
		}
	}
	out := Preprocess(img)
	blacks := 0
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			c := out.NRGBAAt(x, y)
			isBlack := c.R == 0 && c.G == 0 && c.B == 0
			isWhite := c.R == 255 && c.G == 255 && c.B == 255
			require.True(t, isBlack || isWhite, "pixel (%d,%d) = %v", x, y, c)
			if isBlack {
				blacks++
			}
		}
	}
	assert.Positive(t, blacks)
}

func TestPreprocessUniformImages(t *testing.T) {
	for name, fill := range map[string]color.NRGBA{
		"all red":         {220, 20, 20, 255},
		"all blue":        {20, 20, 220, 255},
		"all transparent": {0, 0, 0, 0},
	} {
		t.Run(name, func(t *testing.T) {
			img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
			for i := 0; i < len(img.Pix); i += 4 {
				img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = fill.R, fill.G, fill.B, fill.A
			}
			out := Preprocess(img)
			want := white
			if isRedText(fill.R, fill.G, fill.B) {
				want = black
			}
			want.A = fill.A
			for y := 0; y < 8; y++ {
				for x := 0; x < 8; x++ {
					require.Equal(t, want, out.NRGBAAt(x, y))
				}
			}
		})
	}
}

func TestPreprocessEmptyImage(t *testing.T) {
	out := Preprocess(image.NewNRGBA(image.Rect(0, 0, 0, 0)))
	assert.True(t, out.Bounds().Empty())
}

func TestPreprocessReapplied(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{255, 0, 0, 255})
	img.SetNRGBA(1, 0, color.NRGBA{0, 0, 255, 255})

	once := Preprocess(img)
	twice := Preprocess(once)
	thrice := Preprocess(twice)

	// Neither black nor white classifies as red text, so a second pass is
	// all white and further passes are stable.
	assert.Equal(t, white, twice.NRGBAAt(0, 0))
	assert.Equal(t, white, twice.NRGBAAt(1, 0))
	assert.Equal(t, twice.Pix, thrice.Pix)
}
