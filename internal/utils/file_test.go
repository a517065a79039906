package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGenerateTileFilename(t *testing.T) {
	tests := []struct {
		base  string
		index int
		ext   string
		want  string
	}{
		{"cut_image", 0, "png", "cut_image_1.png"},
		{"cut_image", 5, "jpeg", "cut_image_6.jpeg"},
		{"holiday.jpg", 2, "webp", "holiday_3.webp"},
	}

	for _, tt := range tests {
		if got := GenerateTileFilename(tt.base, tt.index, tt.ext); got != tt.want {
			t.Errorf("GenerateTileFilename(%q, %d, %q) = %q, expected %q", tt.base, tt.index, tt.ext, got, tt.want)
		}
	}
}

func TestCroppedFilename(t *testing.T) {
	tests := map[string]string{
		"photo.jpg":          "photo-cropped.png",
		"/tmp/a/scan.v2.png": "scan.v2-cropped.png",
		"noext":              "noext-cropped.png",
		"":                   "image-cropped.png",
	}
	for in, want := range tests {
		if got := CroppedFilename(in); got != want {
			t.Errorf("CroppedFilename(%q) = %q, expected %q", in, got, want)
		}
	}
}

func TestGenerateOutputFilename(t *testing.T) {
	got := GenerateOutputFilename("/in/photo.jpg", "/out", "-loupe", "png")
	if got != filepath.Join("/out", "photo-loupe.png") {
		t.Errorf("Unexpected output filename %s", got)
	}

	got = GenerateOutputFilename("photo.webp", "out", "", "")
	if got != filepath.Join("out", "photo.webp") {
		t.Errorf("Expected input extension to be kept, got %s", got)
	}
}

func TestIsImageFile(t *testing.T) {
	for _, name := range []string{"a.JPG", "b.png", "c.webp", "d.tif", "e.svg"} {
		if !IsImageFile(name) {
			t.Errorf("Expected %s to be an image file", name)
		}
	}
	for _, name := range []string{"a.txt", "b", "c.zip"} {
		if IsImageFile(name) {
			t.Errorf("Expected %s not to be an image file", name)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	if got := SanitizeFilename(` a/b:c*d?.png. `); got != "a_b_c_d_.png" {
		t.Errorf("Unexpected sanitized name %q", got)
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := map[int64]string{
		0:        "0 B",
		512:      "512 B",
		30 << 20: "30 MiB",
		-1:       "0 B",
	}
	for size, want := range tests {
		if got := FormatFileSize(size); got != want {
			t.Errorf("FormatFileSize(%d) = %q, expected %q", size, got, want)
		}
	}
}

func TestEnsureDirAndExists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir failed: %v", err)
	}
	if !DirExists(dir) {
		t.Error("Expected directory to exist")
	}

	file := filepath.Join(dir, "x.png")
	if FileExists(file) {
		t.Error("File should not exist yet")
	}
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if !FileExists(file) || FileExists(dir) {
		t.Error("FileExists should be true for files only")
	}
	if err := EnsureDir(file); err == nil {
		t.Error("EnsureDir should fail when the path is a file")
	}
}
