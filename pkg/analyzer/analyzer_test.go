package analyzer

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/bmp"

	"github.com/menta2k/image-splitter/pkg/types"
)

// createTestImage creates a simple test image
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	// Fill with a gradient pattern
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r := uint8((x * 255) / width)
			g := uint8((y * 255) / height)
			b := uint8(128)
			img.Set(x, y, color.RGBA{r, g, b, 255})
		}
	}

	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

func TestNew(t *testing.T) {
	analyzer := New()
	if analyzer == nil {
		t.Fatal("New() returned nil")
	}

	if analyzer.config.MaxFileSize != SliceFlowMaxSize {
		t.Errorf("Expected slice flow ceiling %d, got %d", SliceFlowMaxSize, analyzer.config.MaxFileSize)
	}
}

func TestFlowCeilingsStayDistinct(t *testing.T) {
	if CropFlowMaxSize != 30*1024*1024 {
		t.Errorf("Expected 30MB crop ceiling, got %d", CropFlowMaxSize)
	}
	if SliceFlowMaxSize != 50*1024*1024 {
		t.Errorf("Expected 50MB slice ceiling, got %d", SliceFlowMaxSize)
	}

	size := int64(40 << 20)
	if err := NewForFlow(CropFlowMaxSize).ValidateFile("a.png", "", size); !errors.Is(err, types.ErrFileTooLarge) {
		t.Errorf("Expected 40MB to exceed the crop ceiling, got %v", err)
	}
	if err := NewForFlow(SliceFlowMaxSize).ValidateFile("a.png", "", size); err != nil {
		t.Errorf("Expected 40MB to pass the slice ceiling, got %v", err)
	}
}

func TestNewWithConfig(t *testing.T) {
	cfg := Config{
		SupportedMIMETypes: []string{"image/png"},
		MaxFileSize:        1024,
	}

	analyzer := NewWithConfig(cfg)
	if analyzer.config.MaxFileSize != 1024 {
		t.Errorf("Expected max size 1024, got %d", analyzer.config.MaxFileSize)
	}
	if err := analyzer.ValidateFile("a.jpg", "", 10); !errors.Is(err, types.ErrUnsupportedFormat) {
		t.Errorf("Expected jpeg to be rejected, got %v", err)
	}
}

func TestValidateFile(t *testing.T) {
	analyzer := New()

	for _, name := range []string{"a.jpg", "b.JPEG", "c.png", "d.gif", "e.webp", "f.bmp", "g.tiff", "h.svg"} {
		if err := analyzer.ValidateFile(name, "", 100); err != nil {
			t.Errorf("%s should pass the type check: %v", name, err)
		}
	}

	for _, name := range []string{"a.txt", "b.pdf", "noext"} {
		if err := analyzer.ValidateFile(name, "", 100); !errors.Is(err, types.ErrUnsupportedFormat) {
			t.Errorf("%s: expected ErrUnsupportedFormat, got %v", name, err)
		}
	}

	if err := analyzer.ValidateFile("upload", "image/jpg", 100); err != nil {
		t.Errorf("Declared MIME type should win over the name: %v", err)
	}
	if err := analyzer.ValidateFile("scan.TIF", "application/octet-stream", 100); err != nil {
		t.Errorf("Generic MIME type should fall back to the extension: %v", err)
	}
	if err := analyzer.ValidateFile("notes.txt", "application/octet-stream", 100); !errors.Is(err, types.ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
	if err := analyzer.ValidateFile("big.png", "", SliceFlowMaxSize+1); !errors.Is(err, types.ErrFileTooLarge) {
		t.Errorf("Expected ErrFileTooLarge, got %v", err)
	}
	if types.KindOf(analyzer.ValidateFile("big.png", "", SliceFlowMaxSize+1)) != types.KindInvalidInput {
		t.Error("Oversize files should classify as invalid input")
	}
}

func TestLoadImageFromReader(t *testing.T) {
	analyzer := New()

	bm, err := analyzer.LoadImageFromReader(bytes.NewReader(encodePNG(t, createTestImage(120, 80))))
	if err != nil {
		t.Fatalf("LoadImageFromReader failed: %v", err)
	}
	if bm.NaturalWidth != 120 || bm.NaturalHeight != 80 {
		t.Errorf("Expected 120x80, got %dx%d", bm.NaturalWidth, bm.NaturalHeight)
	}
	if bm.Format != "png" {
		t.Errorf("Expected png format, got %s", bm.Format)
	}
}

func TestLoadImageFromReaderFormats(t *testing.T) {
	analyzer := New()
	img := createTestImage(16, 8)

	var gifBuf, bmpBuf bytes.Buffer
	if err := gif.Encode(&gifBuf, img, nil); err != nil {
		t.Fatalf("gif encode: %v", err)
	}
	if err := bmp.Encode(&bmpBuf, img); err != nil {
		t.Fatalf("bmp encode: %v", err)
	}

	for name, data := range map[string][]byte{"gif": gifBuf.Bytes(), "bmp": bmpBuf.Bytes()} {
		bm, err := analyzer.LoadImageFromReader(bytes.NewReader(data))
		if err != nil {
			t.Errorf("%s: decode failed: %v", name, err)
			continue
		}
		if bm.Format != name || bm.NaturalWidth != 16 || bm.NaturalHeight != 8 {
			t.Errorf("%s: unexpected bitmap %+v", name, bm)
		}
	}
}

func TestLoadImageFromReaderCorrupt(t *testing.T) {
	_, err := New().LoadImageFromReader(strings.NewReader("definitely not an image"))
	if !errors.Is(err, types.ErrCorruptFile) {
		t.Errorf("Expected ErrCorruptFile, got %v", err)
	}
	if types.KindOf(err) != types.KindIOFailure {
		t.Errorf("Expected io failure kind, got %v", types.KindOf(err))
	}
}

func TestLoadSVGIsUnsupportedEverywhere(t *testing.T) {
	docs := []string{
		`<svg xmlns="http://www.w3.org/2000/svg"/>`,
		"\n  <?xml version=\"1.0\"?>\n<!DOCTYPE svg>\n<SVG width=\"10\" height=\"10\"></SVG>",
	}
	dir := t.TempDir()

	for i, doc := range docs {
		_, readerErr := New().LoadImageFromReader(strings.NewReader(doc))
		if !errors.Is(readerErr, types.ErrUnsupportedFormat) {
			t.Errorf("doc %d: expected ErrUnsupportedFormat from reader, got %v", i, readerErr)
		}

		path := filepath.Join(dir, "vector.svg")
		if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
			t.Fatal(err)
		}
		_, fileErr := New().LoadImage(path)
		if types.KindOf(readerErr) != types.KindOf(fileErr) {
			t.Errorf("doc %d: reader and file loads disagree: %v vs %v", i, readerErr, fileErr)
		}
	}
}

func TestLoadImageFromReaderTooLarge(t *testing.T) {
	analyzer := NewWithConfig(Config{SupportedMIMETypes: recognizedMIMETypes, MaxFileSize: 64})
	_, err := analyzer.LoadImageFromReader(bytes.NewReader(encodePNG(t, createTestImage(50, 50))))
	if !errors.Is(err, types.ErrFileTooLarge) {
		t.Errorf("Expected ErrFileTooLarge, got %v", err)
	}
}

func TestLoadImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	if err := os.WriteFile(path, encodePNG(t, createTestImage(30, 20)), 0o644); err != nil {
		t.Fatal(err)
	}

	bm, err := New().LoadImage(path)
	if err != nil {
		t.Fatalf("LoadImage failed: %v", err)
	}
	if bm.NaturalWidth != 30 || bm.NaturalHeight != 20 {
		t.Errorf("Expected 30x20, got %dx%d", bm.NaturalWidth, bm.NaturalHeight)
	}

	if _, err := New().LoadImage(filepath.Join(dir, "missing.png")); !errors.Is(err, types.ErrIOFailure) {
		t.Errorf("Expected ErrIOFailure for missing file, got %v", err)
	}

	svg := filepath.Join(dir, "vector.svg")
	_ = os.WriteFile(svg, []byte(`<svg xmlns="http://www.w3.org/2000/svg"/>`), 0o644)
	if _, err := New().LoadImage(svg); !errors.Is(err, types.ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat for svg, got %v", err)
	}
}

func TestGetImageInfo(t *testing.T) {
	analyzer := New()
	img := createTestImage(400, 300)

	info := analyzer.GetImageInfo(img)

	if info.Width != 400 {
		t.Errorf("Expected width 400, got %d", info.Width)
	}

	if info.Height != 300 {
		t.Errorf("Expected height 300, got %d", info.Height)
	}

	expectedRatio := float64(400) / float64(300)
	if info.AspectRatio != expectedRatio {
		t.Errorf("Expected aspect ratio %f, got %f", expectedRatio, info.AspectRatio)
	}

	if info.Area != 120000 {
		t.Errorf("Expected area 120000, got %d", info.Area)
	}
}

func TestValidateImage(t *testing.T) {
	analyzer := New()

	if err := analyzer.ValidateImage(createTestImage(1, 1)); err != nil {
		t.Errorf("1x1 image should pass validation: %v", err)
	}
	if err := analyzer.ValidateImage(image.NewRGBA(image.Rect(0, 0, 0, 10))); !errors.Is(err, types.ErrDegenerateImage) {
		t.Errorf("Expected ErrDegenerateImage, got %v", err)
	}
	if err := analyzer.ValidateImage(nil); !errors.Is(err, types.ErrEmptySource) {
		t.Errorf("Expected ErrEmptySource, got %v", err)
	}
}

func BenchmarkGetImageInfo(b *testing.B) {
	analyzer := New()
	img := createTestImage(1920, 1080)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		analyzer.GetImageInfo(img)
	}
}
