package imageproc

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNormalizeCoverDownscalesWideImages(t *testing.T) {
	data := encodePNG(t, 1200, 800)

	out, err := NormalizeCover(data)
	require.NoError(t, err)

	w, h, err := Bounds(out)
	require.NoError(t, err)
	assert.Equal(t, CoverMaxWidth, w)
	assert.Equal(t, 400, h, "aspect ratio preserved")
}

func TestNormalizeCoverKeepsSmallImages(t *testing.T) {
	data := encodePNG(t, 300, 450)

	out, err := NormalizeCover(data)
	require.NoError(t, err)

	w, h, err := Bounds(out)
	require.NoError(t, err)
	assert.Equal(t, 300, w)
	assert.Equal(t, 450, h)
}

func TestNormalizeCoverRejectsGarbage(t *testing.T) {
	_, err := NormalizeCover([]byte("not an image"))
	require.Error(t, err)
}

func TestBoundsReadsDimensionsWithoutFullDecode(t *testing.T) {
	data := encodePNG(t, 64, 32)

	w, h, err := Bounds(data)
	require.NoError(t, err)
	assert.Equal(t, 64, w)
	assert.Equal(t, 32, h)
}
