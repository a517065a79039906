package processing

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/chai2010/webp"

	"github.com/menta2k/image-splitter/pkg/types"
)

func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8((x * 255) / width), uint8((y * 255) / height), 128, 255})
		}
	}
	return img
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"png":  PNG,
		"PNG":  PNG,
		"jpeg": JPEG,
		"jpg":  JPEG,
		"JPG":  JPEG,
		"webp": WebP,
		"gif":  PNG,
		"":     PNG,
	}
	for in, want := range tests {
		if got := ParseFormat(in); got != want {
			t.Errorf("ParseFormat(%q) = %q, expected %q", in, got, want)
		}
	}
}

func TestFormatMetadata(t *testing.T) {
	if JPEG.MIMEType() != "image/jpeg" || WebP.MIMEType() != "image/webp" || PNG.MIMEType() != "image/png" {
		t.Error("Unexpected MIME types")
	}
	if JPEG.Extension() != "jpeg" {
		t.Errorf("Expected jpeg extension, got %s", JPEG.Extension())
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	p := NewProcessor()
	img := createTestImage(64, 48)

	decoders := map[Format]func([]byte) (image.Image, error){
		PNG:  func(b []byte) (image.Image, error) { return png.Decode(bytes.NewReader(b)) },
		JPEG: func(b []byte) (image.Image, error) { return jpeg.Decode(bytes.NewReader(b)) },
		WebP: func(b []byte) (image.Image, error) { return webp.Decode(bytes.NewReader(b)) },
	}

	for format, decode := range decoders {
		data, err := p.EncodeBytes(img, format, 0.9)
		if err != nil {
			t.Fatalf("EncodeBytes(%s) failed: %v", format, err)
		}
		out, err := decode(data)
		if err != nil {
			t.Fatalf("decode %s failed: %v", format, err)
		}
		if out.Bounds().Dx() != 64 || out.Bounds().Dy() != 48 {
			t.Errorf("%s: expected 64x48, got %v", format, out.Bounds())
		}
	}
}

func TestEncodeRejectsBadQuality(t *testing.T) {
	p := NewProcessor()
	for _, q := range []float64{-0.1, 1.01} {
		if _, err := p.EncodeBytes(createTestImage(4, 4), JPEG, q); !errors.Is(err, types.ErrInvalidQuality) {
			t.Errorf("quality %v: expected ErrInvalidQuality, got %v", q, err)
		}
	}
}

func TestJPEGQuality(t *testing.T) {
	if jpegQuality(0) != 1 || jpegQuality(1) != 100 || jpegQuality(0.8) != 80 {
		t.Errorf("Unexpected quality mapping: %d %d %d", jpegQuality(0), jpegQuality(1), jpegQuality(0.8))
	}
}

func TestSaveImage(t *testing.T) {
	p := NewProcessor()
	path := filepath.Join(t.TempDir(), "out.png")

	if err := p.SaveImage(createTestImage(10, 10), path, PNG, 1); err != nil {
		t.Fatalf("SaveImage failed: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open saved image: %v", err)
	}
	defer f.Close()
	if _, err := png.Decode(f); err != nil {
		t.Errorf("saved file is not a PNG: %v", err)
	}
}

func TestSubImage(t *testing.T) {
	p := NewProcessor()
	sub := p.SubImage(createTestImage(100, 100), image.Rect(10, 20, 40, 60))
	if sub.Bounds() != image.Rect(0, 0, 30, 40) {
		t.Errorf("Expected origin-based 30x40 bounds, got %v", sub.Bounds())
	}
}

func BenchmarkEncodePNG(b *testing.B) {
	p := NewProcessor()
	img := createTestImage(400, 400)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = p.EncodeBytes(img, PNG, 1)
	}
}
