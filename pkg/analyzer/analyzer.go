package analyzer

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/image-splitter/internal/utils"
	"github.com/menta2k/image-splitter/pkg/types"
)

// Upload ceilings. The crop and slice flows have always used different
// limits and are kept separate.
const (
	CropFlowMaxSize  int64 = 30 << 20
	SliceFlowMaxSize int64 = 50 << 20
)

// MIME types accepted by the pre-decode type check. Being listed here does
// not guarantee the bytes can be decoded (SVG cannot).
var recognizedMIMETypes = []string{
	"image/jpeg",
	"image/jpg",
	"image/png",
	"image/gif",
	"image/webp",
	"image/bmp",
	"image/tiff",
	"image/svg+xml",
}

var extensionMIMETypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"bmp":  "image/bmp",
	"tif":  "image/tiff",
	"tiff": "image/tiff",
	"svg":  "image/svg+xml",
}

// ImageAnalyzer validates and decodes source images
type ImageAnalyzer struct {
	config Config
}

// Config holds configuration for the image analyzer
type Config struct {
	SupportedMIMETypes []string
	MaxFileSize        int64
	AutoOrientation    bool
}

// Bitmap is a decoded source image.
type Bitmap struct {
	Image         image.Image
	Format        string
	NaturalWidth  int
	NaturalHeight int
}

// ImageInfo contains basic image metadata
type ImageInfo struct {
	Width       int
	Height      int
	AspectRatio float64
	Area        int
}

// New creates a new ImageAnalyzer with default configuration, using the
// slicing flow's size ceiling.
func New() *ImageAnalyzer {
	return NewForFlow(SliceFlowMaxSize)
}

// NewForFlow creates an ImageAnalyzer with the default MIME types and the
// given size ceiling.
func NewForFlow(maxFileSize int64) *ImageAnalyzer {
	return &ImageAnalyzer{
		config: Config{
			SupportedMIMETypes: append([]string(nil), recognizedMIMETypes...),
			MaxFileSize:        maxFileSize,
			AutoOrientation:    true,
		},
	}
}

// NewWithConfig creates a new ImageAnalyzer with custom configuration
func NewWithConfig(config Config) *ImageAnalyzer {
	return &ImageAnalyzer{config: config}
}

// MIMETypeFromName guesses the media type from a file name's extension.
func MIMETypeFromName(name string) string {
	if !utils.IsImageFile(name) {
		return ""
	}
	return extensionMIMETypes[utils.GetFileExtension(name)]
}

// ValidateFile runs the pre-decode checks on a file's declared type and
// size. An empty or generic mimeType is derived from the name.
func (a *ImageAnalyzer) ValidateFile(name, mimeType string, size int64) error {
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = MIMETypeFromName(name)
	}
	if !a.isMIMETypeSupported(mimeType) {
		return fmt.Errorf("%s (%q): %w", name, mimeType, types.ErrUnsupportedFormat)
	}
	if a.config.MaxFileSize > 0 && size > a.config.MaxFileSize {
		return fmt.Errorf("%s is %d bytes, limit %d: %w", name, size, a.config.MaxFileSize, types.ErrFileTooLarge)
	}
	return nil
}

// LoadImage validates and decodes an image file
func (a *ImageAnalyzer) LoadImage(path string) (*Bitmap, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w: %w", types.ErrIOFailure, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat image file: %w: %w", types.ErrIOFailure, err)
	}
	if err := a.ValidateFile(filepath.Base(path), "", info.Size()); err != nil {
		return nil, err
	}

	return a.decode(file, MIMETypeFromName(path))
}

// LoadImageFromReader decodes an image from r. The size ceiling is enforced
// while reading.
func (a *ImageAnalyzer) LoadImageFromReader(reader io.Reader) (*Bitmap, error) {
	if a.config.MaxFileSize > 0 {
		data, err := io.ReadAll(io.LimitReader(reader, a.config.MaxFileSize+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read image: %w: %w", types.ErrIOFailure, err)
		}
		if int64(len(data)) > a.config.MaxFileSize {
			return nil, fmt.Errorf("more than %d bytes: %w", a.config.MaxFileSize, types.ErrFileTooLarge)
		}
		reader = bytes.NewReader(data)
	}
	return a.decode(reader, "")
}

func (a *ImageAnalyzer) decode(r io.Reader, mimeType string) (*Bitmap, error) {
	if mimeType == "image/svg+xml" {
		return nil, fmt.Errorf("svg cannot be rasterised: %w", types.ErrUnsupportedFormat)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w: %w", types.ErrIOFailure, err)
	}
	if looksLikeSVG(data) {
		return nil, fmt.Errorf("svg cannot be rasterised: %w", types.ErrUnsupportedFormat)
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		// Fallback: explicit WebP decode
		if img, werr := webp.Decode(bytes.NewReader(data)); werr == nil {
			return newBitmap(img, "webp"), nil
		}
		return nil, fmt.Errorf("failed to decode image: %w: %w", types.ErrCorruptFile, err)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(a.config.AutoOrientation))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w: %w", types.ErrCorruptFile, err)
	}
	return newBitmap(img, format), nil
}

// looksLikeSVG reports whether data starts like an SVG document, optionally
// behind an XML declaration, comments or a doctype.
func looksLikeSVG(data []byte) bool {
	head := data[:min(len(data), 1024)]
	head = bytes.TrimPrefix(head, []byte("\xef\xbb\xbf"))
	head = bytes.TrimSpace(head)
	if !bytes.HasPrefix(head, []byte("<")) {
		return false
	}
	return bytes.Contains(bytes.ToLower(head), []byte("<svg"))
}

func newBitmap(img image.Image, format string) *Bitmap {
	b := img.Bounds()
	return &Bitmap{Image: img, Format: format, NaturalWidth: b.Dx(), NaturalHeight: b.Dy()}
}

// GetImageInfo returns basic information about an image
func (a *ImageAnalyzer) GetImageInfo(img image.Image) ImageInfo {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	info := ImageInfo{Width: width, Height: height, Area: width * height}
	if height > 0 {
		info.AspectRatio = float64(width) / float64(height)
	}
	return info
}

// ValidateImage rejects missing or zero-sized images.
func (a *ImageAnalyzer) ValidateImage(img image.Image) error {
	if img == nil {
		return types.ErrEmptySource
	}
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return fmt.Errorf("image is %dx%d: %w", bounds.Dx(), bounds.Dy(), types.ErrDegenerateImage)
	}
	return nil
}

func (a *ImageAnalyzer) isMIMETypeSupported(mimeType string) bool {
	for _, supported := range a.config.SupportedMIMETypes {
		if strings.EqualFold(mimeType, supported) {
			return true
		}
	}
	return false
}
