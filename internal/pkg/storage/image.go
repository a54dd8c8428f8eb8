package storage

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"

	"github.com/disintegration/imaging"
)

// ImageProcessor decodes images and re-encodes them as bounded JPEGs.
type ImageProcessor struct {
	Quality int
}

func NewImageProcessor() *ImageProcessor {
	return &ImageProcessor{Quality: 80}
}

// GenerateThumbnail fits the source image into maxWidth x maxHeight and returns it as a JPEG.
func (p *ImageProcessor) GenerateThumbnail(content io.Reader, maxWidth, maxHeight int) (io.Reader, error) {
	b, err := p.fit(content, maxWidth, maxHeight)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(b), nil
}

// Resize works like GenerateThumbnail but returns the encoded bytes.
// Images already inside the bounds keep their dimensions.
func (p *ImageProcessor) Resize(content io.Reader, maxWidth, maxHeight int) ([]byte, error) {
	return p.fit(content, maxWidth, maxHeight)
}

func (p *ImageProcessor) fit(content io.Reader, maxWidth, maxHeight int) ([]byte, error) {
	img, _, err := image.Decode(content)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	out := imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)

	quality := p.Quality
	if quality <= 0 {
		quality = jpeg.DefaultQuality
	}
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, out, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
