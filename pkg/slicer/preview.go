package slicer

import (
	"bytes"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/image-splitter/pkg/types"
)

// Thumbnail bounds used for tile previews.
const (
	PreviewMaxWidth  = 300
	PreviewMaxHeight = 200
)

// PreviewSize fits width × height inside maxWidth × maxHeight keeping the
// aspect ratio. Sizes already inside the bounds are returned unchanged and
// each side is at least one pixel.
func PreviewSize(width, height, maxWidth, maxHeight int) (int, int) {
	if width <= 0 || height <= 0 {
		return 0, 0
	}

	ratio := float64(width) / float64(height)
	w, h := float64(width), float64(height)
	if maxWidth > 0 && w > float64(maxWidth) {
		w = float64(maxWidth)
		h = w / ratio
	}
	if maxHeight > 0 && h > float64(maxHeight) {
		h = float64(maxHeight)
		w = h * ratio
	}
	return max(int(math.Round(w)), 1), max(int(math.Round(h)), 1)
}

// Preview decodes the tile and scales it to fit maxWidth × maxHeight.
func (t Tile) Preview(maxWidth, maxHeight int) (*image.NRGBA, error) {
	if len(t.Data) == 0 {
		return nil, fmt.Errorf("tile %d: %w", t.Index+1, types.ErrEmptySource)
	}
	img, err := imaging.Decode(bytes.NewReader(t.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode tile %d: %w: %w", t.Index+1, types.ErrCorruptFile, err)
	}

	b := img.Bounds()
	w, h := PreviewSize(b.Dx(), b.Dy(), maxWidth, maxHeight)
	if w == b.Dx() && h == b.Dy() {
		return imaging.Clone(img), nil
	}
	return imaging.Resize(img, w, h, imaging.Lanczos), nil
}
