package imageproc

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// CoverMaxWidth is the width covers are normalized to before storage.
// Wider uploads are downscaled; smaller ones are stored as-is.
const CoverMaxWidth = 600

// NormalizeCover decodes a cover image upload, downscales it to CoverMaxWidth
// when necessary and re-encodes it as JPEG. Page images are never touched;
// only covers go through this path.
func NormalizeCover(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode cover image: %w", err)
	}

	if img.Bounds().Dx() > CoverMaxWidth {
		img = imaging.Resize(img, CoverMaxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("failed to encode cover image: %w", err)
	}
	return buf.Bytes(), nil
}

// Bounds reports the pixel dimensions of an encoded image.
func Bounds(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read image dimensions: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}
