package cropper

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"

	"github.com/menta2k/image-splitter/pkg/geometry"
	"github.com/menta2k/image-splitter/pkg/types"
)

// Loupe outline style
var (
	OutlineColor  = color.NRGBA{0x3b, 0x82, 0xf6, 0xff}
	OutlineStroke = 3
	OutlineDash   = 8
	OutlineGap    = 4
)

// RenderCrop cuts the source-space sample rectangle out of img. The
// rectangle is rounded to whole pixels and clipped to the bitmap.
func RenderCrop(img image.Image, sample geometry.Rect) (*image.NRGBA, error) {
	if img == nil {
		return nil, types.ErrEmptySource
	}
	b := img.Bounds()
	r := pixelRect(sample).Add(b.Min).Intersect(b)
	if r.Empty() {
		return nil, fmt.Errorf("crop %v outside %v: %w", sample, b, types.ErrDegenerateImage)
	}
	return imaging.Crop(img, r), nil
}

// PreviewSize reports the whole-pixel size of a sample rectangle, which is
// what the crop preview displays.
func PreviewSize(sample geometry.Rect) (width, height int) {
	return int(math.Round(sample.Width)), int(math.Round(sample.Height))
}

// RenderMagnifier draws the loupe for view. Parts of the sampled region that
// fall outside img stay transparent.
func RenderMagnifier(img image.Image, view MagnifierView) *image.NRGBA {
	size := int(math.Round(view.CanvasSize))
	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	if !view.Visible || img == nil || view.Source.Width <= 0 || view.Source.Height <= 0 {
		return dst
	}

	b := img.Bounds()
	src := view.Source
	visible := intersect(src, geometry.Rect{Width: float64(b.Dx()), Height: float64(b.Dy())})
	if visible.Width > 0 && visible.Height > 0 {
		kx := view.CanvasSize / src.Width
		ky := view.CanvasSize / src.Height
		dstRect := pixelRect(visible.Translate(-src.X, -src.Y).Scale(kx, ky)).Intersect(dst.Bounds())
		srcRect := pixelRect(visible).Add(b.Min).Intersect(b)
		if !dstRect.Empty() && !srcRect.Empty() {
			draw.ApproxBiLinear.Scale(dst, dstRect, img, srcRect, draw.Over, nil)
		}
	}

	drawDashedRect(dst, view.Outline, OutlineColor)
	return dst
}

func pixelRect(r geometry.Rect) image.Rectangle {
	return image.Rect(
		int(math.Round(r.X)),
		int(math.Round(r.Y)),
		int(math.Round(r.Right())),
		int(math.Round(r.Bottom())),
	)
}

func intersect(a, b geometry.Rect) geometry.Rect {
	x0 := math.Max(a.X, b.X)
	y0 := math.Max(a.Y, b.Y)
	x1 := math.Min(a.Right(), b.Right())
	y1 := math.Min(a.Bottom(), b.Bottom())
	if x1 <= x0 || y1 <= y0 {
		return geometry.Rect{}
	}
	return geometry.Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

func drawDashedRect(img *image.NRGBA, r geometry.Rect, c color.NRGBA) {
	pr := pixelRect(r)
	half := OutlineStroke / 2
	for s := -half; s < OutlineStroke-half; s++ {
		drawDashedHLine(img, pr.Min.Y+s, pr.Min.X, pr.Max.X, c)
		drawDashedHLine(img, pr.Max.Y+s, pr.Min.X, pr.Max.X, c)
		drawDashedVLine(img, pr.Min.X+s, pr.Min.Y, pr.Max.Y, c)
		drawDashedVLine(img, pr.Max.X+s, pr.Min.Y, pr.Max.Y, c)
	}
}

func onDash(offset int) bool {
	return offset%(OutlineDash+OutlineGap) < OutlineDash
}

func drawDashedHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	for x := x0; x <= x1; x++ {
		if onDash(x - x0) {
			setPixel(img, x, y, c)
		}
	}
}

func drawDashedVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		if onDash(y - y0) {
			setPixel(img, x, y, c)
		}
	}
}

func setPixel(img *image.NRGBA, x, y int, c color.NRGBA) {
	if !(image.Point{X: x, Y: y}).In(img.Rect) {
		return
	}
	i := img.PixOffset(x, y)
	img.Pix[i+0] = c.R
	img.Pix[i+1] = c.G
	img.Pix[i+2] = c.B
	img.Pix[i+3] = c.A
}
