package storage

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
)

const (
	maxPhotoWidth  = 800
	maxPhotoHeight = 600
	jpegQuality    = 85
)

// NormalizeImage flattens alpha onto white, bounds the image to
// maxPhotoWidth x maxPhotoHeight preserving aspect ratio, and re-encodes as
// JPEG. Every stored photo ends up in the same format regardless of what the
// lister uploaded.
func NormalizeImage(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	flattened := flatten(img)
	bounded := imaging.Fit(flattened, maxPhotoWidth, maxPhotoHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, bounded, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

func flatten(img image.Image) image.Image {
	bounds := img.Bounds()
	flat := image.NewRGBA(bounds)
	draw.Draw(flat, bounds, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(flat, bounds, img, bounds.Min, draw.Over)
	return flat
}
