package cropper

import (
	"fmt"

	"github.com/menta2k/image-splitter/pkg/geometry"
	"github.com/menta2k/image-splitter/pkg/types"
)

// NaturalSize is the pixel size of the decoded source bitmap.
type NaturalSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (n NaturalSize) size() geometry.Size {
	return geometry.Size{Width: n.Width, Height: n.Height}
}

// ComputeSourceSampleRect maps the crop rectangle from displayed space into
// source-pixel space. Preview rendering and the final export both use it.
func (e *Engine) ComputeSourceSampleRect(natural NaturalSize, displayed DisplayedGeometry) (geometry.Rect, error) {
	sx, sy, err := sourceScale(natural, displayed)
	if err != nil {
		return geometry.Rect{}, err
	}
	return e.rect.Scale(sx, sy), nil
}

// ToDisplayed maps a source-space rectangle back into displayed space.
func ToDisplayed(sample geometry.Rect, natural NaturalSize, displayed DisplayedGeometry) (geometry.Rect, error) {
	sx, sy, err := sourceScale(natural, displayed)
	if err != nil {
		return geometry.Rect{}, err
	}
	return sample.Scale(1/sx, 1/sy), nil
}

func sourceScale(natural NaturalSize, displayed DisplayedGeometry) (float64, float64, error) {
	if natural.size().Degenerate() || displayed.size().Degenerate() {
		return 0, 0, fmt.Errorf("natural %gx%g, displayed %gx%g: %w",
			natural.Width, natural.Height, displayed.Width, displayed.Height, types.ErrDegenerateImage)
	}
	sx, sy := geometry.ScaleFactors(displayed.size(), natural.size())
	return sx, sy, nil
}

// MagnifierInput describes a pointer hovering over the crop container.
type MagnifierInput struct {
	// Pointer position relative to the container's top-left corner.
	PointerX float64
	PointerY float64

	ContainerWidth  float64
	ContainerHeight float64

	// Where the image's top-left corner sits inside the container.
	ImageOffsetX float64
	ImageOffsetY float64

	Natural   NaturalSize
	Displayed DisplayedGeometry
}

// MagnifierView is everything a renderer needs to draw the loupe.
type MagnifierView struct {
	Visible bool

	// Box is the loupe square in container coordinates.
	Box geometry.Rect
	// Source is the region of the natural image shown in the loupe. It may
	// extend past the image edges.
	Source geometry.Rect
	// Outline is the crop rectangle in loupe-canvas coordinates.
	Outline geometry.Rect
	// CanvasSize is the loupe canvas edge length in pixels.
	CanvasSize float64
}

// ComputeMagnifierView works out the loupe for the given pointer position.
// The view is hidden when the pointer is outside the crop rectangle.
func (e *Engine) ComputeMagnifierView(in MagnifierInput) (MagnifierView, error) {
	sx, sy, err := sourceScale(in.Natural, in.Displayed)
	if err != nil {
		return MagnifierView{}, err
	}
	if !e.ready {
		return MagnifierView{}, types.ErrNotInitialized
	}

	imagePt := geometry.Point{X: in.PointerX - in.ImageOffsetX, Y: in.PointerY - in.ImageOffsetY}
	if !e.rect.Contains(imagePt) {
		return MagnifierView{}, nil
	}

	size := e.config.MagnifierSize
	zoom := e.config.MagnifierZoom
	half := size / 2

	box := geometry.Rect{
		X:      geometry.Clamp(in.PointerX-half, 0, in.ContainerWidth-size),
		Y:      geometry.Clamp(in.PointerY-half, 0, in.ContainerHeight-size),
		Width:  size,
		Height: size,
	}

	sourceSize := size / zoom
	source := geometry.Rect{
		X:      imagePt.X*sx - sourceSize*sx/2,
		Y:      imagePt.Y*sy - sourceSize*sy/2,
		Width:  sourceSize * sx,
		Height: sourceSize * sy,
	}

	// source space -> loupe view -> loupe canvas
	cropSource := e.rect.Scale(sx, sy)
	canvasX := size / source.Width
	canvasY := size / source.Height
	outline := cropSource.Translate(-source.X, -source.Y).Scale(canvasX, canvasY)

	return MagnifierView{
		Visible:    true,
		Box:        box,
		Source:     source,
		Outline:    outline,
		CanvasSize: size,
	}, nil
}
