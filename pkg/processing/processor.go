package processing

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"github.com/menta2k/image-splitter/pkg/types"
)

// Format is an output encoding.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	WebP Format = "webp"
)

// ParseFormat maps a format name to a Format. "jpg" is accepted for JPEG and
// anything unrecognised falls back to PNG.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "jpeg", "jpg":
		return JPEG
	case "webp":
		return WebP
	default:
		return PNG
	}
}

// Extension returns the file extension used for the format, without the dot.
func (f Format) Extension() string {
	return string(f)
}

// MIMEType returns the format's media type.
func (f Format) MIMEType() string {
	switch f {
	case JPEG:
		return "image/jpeg"
	case WebP:
		return "image/webp"
	default:
		return "image/png"
	}
}

// Processor encodes images
type Processor struct{}

// NewProcessor creates a new image processor
func NewProcessor() *Processor {
	return &Processor{}
}

// Encode writes img to w in the given format. Quality is in [0,1] and is
// ignored for PNG.
func (p *Processor) Encode(w io.Writer, img image.Image, format Format, quality float64) error {
	if quality < 0 || quality > 1 || math.IsNaN(quality) {
		return fmt.Errorf("quality %v: %w", quality, types.ErrInvalidQuality)
	}

	switch format {
	case WebP:
		opts := &webp.Options{Quality: float32(quality * 100)}
		if err := webp.Encode(w, img, opts); err != nil {
			return fmt.Errorf("failed to encode webp: %w", err)
		}
	case JPEG:
		if err := imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality(quality))); err != nil {
			return fmt.Errorf("failed to encode jpeg: %w", err)
		}
	default:
		if err := imaging.Encode(w, img, imaging.PNG); err != nil {
			return fmt.Errorf("failed to encode png: %w", err)
		}
	}
	return nil
}

// EncodeBytes is Encode into a fresh buffer.
func (p *Processor) EncodeBytes(img image.Image, format Format, quality float64) ([]byte, error) {
	var buf bytes.Buffer
	if err := p.Encode(&buf, img, format, quality); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SaveImage saves an image to a file with the specified format and quality
func (p *Processor) SaveImage(img image.Image, path string, format Format, quality float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w: %w", types.ErrIOFailure, err)
	}
	defer f.Close()

	if err := p.Encode(f, img, format, quality); err != nil {
		return err
	}
	return f.Close()
}

// SubImage copies region r (in img's coordinate space) into a new image
// whose bounds start at the origin.
func (p *Processor) SubImage(img image.Image, r image.Rectangle) *image.NRGBA {
	return imaging.Crop(img, r)
}

// jpegQuality maps [0,1] onto the encoder's 1..100 scale.
func jpegQuality(q float64) int {
	v := int(math.Round(q * 100))
	if v < 1 {
		return 1
	}
	if v > 100 {
		return 100
	}
	return v
}
