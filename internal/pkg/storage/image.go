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

// ImageProcessor re-encodes uploaded photos as JPEG within a bounding box.
type ImageProcessor struct {
	quality int
}

// NewImageProcessor creates an ImageProcessor encoding at quality 85.
func NewImageProcessor() *ImageProcessor {
	return &ImageProcessor{quality: 85}
}

// Decode reads an image and applies its EXIF orientation.
func (p *ImageProcessor) Decode(content io.Reader) (image.Image, error) {
	img, err := imaging.Decode(content, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// Fit scales img down to fit maxWidth x maxHeight and returns JPEG bytes.
// Images already inside the box keep their size.
func (p *ImageProcessor) Fit(img image.Image, maxWidth, maxHeight int) (*bytes.Buffer, error) {
	out := imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)
	return p.encode(out)
}

// Thumbnail crops img to a centered square of size x size and returns JPEG bytes.
func (p *ImageProcessor) Thumbnail(img image.Image, size int) (*bytes.Buffer, error) {
	out := imaging.Fill(img, size, size, imaging.Center, imaging.Lanczos)
	return p.encode(out)
}

func (p *ImageProcessor) encode(img image.Image) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: p.quality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf, nil
}
