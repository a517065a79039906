package cropper

import (
	"fmt"
	"math"
	"strings"

	"github.com/menta2k/image-splitter/pkg/geometry"
	"github.com/menta2k/image-splitter/pkg/types"
)

// Engine owns the crop rectangle for one loaded image and turns pointer
// gestures into new rectangle state. All coordinates are in displayed-pixel
// space unless a method says otherwise.
type Engine struct {
	config    CropConfig
	displayed DisplayedGeometry
	rect      geometry.Rect
	ready     bool
	session   *DragSession
}

// CropConfig holds configuration for the crop engine
type CropConfig struct {
	MinCropSize      float64 `json:"min_crop_size" yaml:"min_crop_size"`
	InitialCropRatio float64 `json:"initial_crop_ratio" yaml:"initial_crop_ratio"`
	MagnifierSize    float64 `json:"magnifier_size" yaml:"magnifier_size"`
	MagnifierZoom    float64 `json:"magnifier_zoom" yaml:"magnifier_zoom"`
}

// DefaultConfig returns the stock engine configuration.
func DefaultConfig() CropConfig {
	return CropConfig{
		MinCropSize:      50,
		InitialCropRatio: 0.8,
		MagnifierSize:    100,
		MagnifierZoom:    4,
	}
}

// WithDefaults returns a copy of c with every zero field taken from
// DefaultConfig.
func (c CropConfig) WithDefaults() CropConfig {
	d := DefaultConfig()
	if c.MinCropSize == 0 {
		c.MinCropSize = d.MinCropSize
	}
	if c.InitialCropRatio == 0 {
		c.InitialCropRatio = d.InitialCropRatio
	}
	if c.MagnifierSize == 0 {
		c.MagnifierSize = d.MagnifierSize
	}
	if c.MagnifierZoom == 0 {
		c.MagnifierZoom = d.MagnifierZoom
	}
	return c
}

// Validate checks that every setting is finite and in range.
func (c CropConfig) Validate() error {
	for _, v := range []float64{c.MinCropSize, c.InitialCropRatio, c.MagnifierSize, c.MagnifierZoom} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: crop settings must be finite", types.ErrInvalidInput)
		}
	}
	if c.MinCropSize <= 0 {
		return fmt.Errorf("%w: min_crop_size must be positive", types.ErrInvalidInput)
	}
	if c.InitialCropRatio <= 0 || c.InitialCropRatio > 1 {
		return fmt.Errorf("%w: initial_crop_ratio must be in (0, 1]", types.ErrInvalidInput)
	}
	if c.MagnifierSize <= 0 || c.MagnifierZoom <= 0 {
		return fmt.Errorf("%w: magnifier_size and magnifier_zoom must be positive", types.ErrInvalidInput)
	}
	return nil
}

// DisplayedGeometry is the size the image is rendered at on screen.
type DisplayedGeometry struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (d DisplayedGeometry) size() geometry.Size {
	return geometry.Size{Width: d.Width, Height: d.Height}
}

// Handle names the edge or corner a resize gesture drags.
type Handle string

const (
	HandleN  Handle = "n"
	HandleS  Handle = "s"
	HandleE  Handle = "e"
	HandleW  Handle = "w"
	HandleNE Handle = "ne"
	HandleNW Handle = "nw"
	HandleSE Handle = "se"
	HandleSW Handle = "sw"
)

// Handles lists all eight resize handles.
func Handles() []Handle {
	return []Handle{HandleN, HandleS, HandleE, HandleW, HandleNE, HandleNW, HandleSE, HandleSW}
}

// ParseHandle converts a handle name such as "se" into a Handle.
func ParseHandle(s string) (Handle, error) {
	h := Handle(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Handles() {
		if h == known {
			return h, nil
		}
	}
	return "", fmt.Errorf("%w: %q", types.ErrInvalidHandle, s)
}

func (h Handle) east() bool  { return strings.Contains(string(h), "e") }
func (h Handle) west() bool  { return strings.Contains(string(h), "w") }
func (h Handle) south() bool { return strings.Contains(string(h), "s") }
func (h Handle) north() bool { return strings.Contains(string(h), "n") }

// DragMode says whether a session moves or resizes the rectangle.
type DragMode int

const (
	ModeMove DragMode = iota
	ModeResize
)

func (m DragMode) String() string {
	if m == ModeResize {
		return "resize"
	}
	return "move"
}

// DragSession is the snapshot taken when a gesture starts. Every update is
// computed against StartRect, never against the previous update.
type DragSession struct {
	StartX    float64
	StartY    float64
	StartRect geometry.Rect
	Mode      DragMode
	Handle    Handle
}

// New creates a new Engine with default configuration
func New() *Engine {
	return &Engine{config: DefaultConfig()}
}

// NewWithConfig creates a new Engine with custom configuration. Zero fields
// take their default values; out-of-range values make Initialize fail.
func NewWithConfig(config CropConfig) *Engine {
	return &Engine{config: config.WithDefaults()}
}

// Config returns the engine configuration.
func (e *Engine) Config() CropConfig {
	return e.config
}

// Initialize centres a crop box of InitialCropRatio × the displayed size.
// The box is never smaller than MinCropSize unless the display itself is,
// in which case it spans that axis completely.
func (e *Engine) Initialize(displayed DisplayedGeometry) (geometry.Rect, error) {
	if err := e.config.Validate(); err != nil {
		return geometry.Rect{}, err
	}
	if displayed.size().Degenerate() {
		return geometry.Rect{}, fmt.Errorf("initialize %gx%g: %w", displayed.Width, displayed.Height, types.ErrDegenerateImage)
	}

	e.displayed = displayed
	minW, minH := e.minSize()
	w := geometry.Clamp(displayed.Width*e.config.InitialCropRatio, minW, displayed.Width)
	h := geometry.Clamp(displayed.Height*e.config.InitialCropRatio, minH, displayed.Height)

	e.rect = geometry.Rect{
		X:      (displayed.Width - w) / 2,
		Y:      (displayed.Height - h) / 2,
		Width:  w,
		Height: h,
	}
	e.ready = true
	e.session = nil
	return e.rect, nil
}

// Reset restores the rectangle Initialize produced for the last known
// displayed geometry.
func (e *Engine) Reset() (geometry.Rect, error) {
	if !e.ready {
		return geometry.Rect{}, types.ErrNotInitialized
	}
	return e.Initialize(e.displayed)
}

// Rect returns the current crop rectangle.
func (e *Engine) Rect() geometry.Rect {
	return e.rect
}

// Displayed returns the displayed geometry the engine was initialised with.
func (e *Engine) Displayed() DisplayedGeometry {
	return e.displayed
}

// Dragging reports whether a drag session is open.
func (e *Engine) Dragging() bool {
	return e.session != nil
}

// Session returns a copy of the active drag session, if any.
func (e *Engine) Session() (DragSession, bool) {
	if e.session == nil {
		return DragSession{}, false
	}
	return *e.session, true
}

// BeginDrag opens a drag session at the given pointer position. A nil handle
// moves the box; otherwise the box is resized from that handle.
func (e *Engine) BeginDrag(x, y float64, handle *Handle) error {
	if !e.ready {
		return types.ErrNotInitialized
	}
	if e.session != nil {
		return types.ErrDragInProgress
	}

	s := &DragSession{StartX: x, StartY: y, StartRect: e.rect, Mode: ModeMove}
	if handle != nil {
		h, err := ParseHandle(string(*handle))
		if err != nil {
			return err
		}
		s.Mode = ModeResize
		s.Handle = h
	}
	e.session = s
	return nil
}

// UpdateDrag applies the pointer delta since BeginDrag and returns the new
// rectangle. Without an active session it returns the current rectangle.
func (e *Engine) UpdateDrag(x, y float64) geometry.Rect {
	if e.session == nil {
		return e.rect
	}

	dx := x - e.session.StartX
	dy := y - e.session.StartY

	if e.session.Mode == ModeMove {
		e.rect = e.move(e.session.StartRect, dx, dy)
	} else {
		e.rect = e.resize(e.session.StartRect, e.session.Handle, dx, dy)
	}
	return e.rect
}

// EndDrag closes the session; the rectangle keeps its last value.
func (e *Engine) EndDrag() {
	e.session = nil
}

func (e *Engine) move(start geometry.Rect, dx, dy float64) geometry.Rect {
	return geometry.Rect{
		X:      geometry.Clamp(start.X+dx, 0, e.displayed.Width-start.Width),
		Y:      geometry.Clamp(start.Y+dy, 0, e.displayed.Height-start.Height),
		Width:  start.Width,
		Height: start.Height,
	}
}

func (e *Engine) resize(start geometry.Rect, h Handle, dx, dy float64) geometry.Rect {
	r := start
	minW, minH := e.minSize()

	if h.east() {
		r.Width = geometry.Clamp(start.Width+dx, minW, e.displayed.Width-start.X)
	}
	// West and north move the origin: outward travel stops at the image
	// edge, inward travel stops when the box reaches minSize.
	if h.west() {
		d := geometry.Clamp(dx, -start.X, start.Width-minW)
		r.X = start.X + d
		r.Width = start.Width - d
	}
	if h.south() {
		r.Height = geometry.Clamp(start.Height+dy, minH, e.displayed.Height-start.Y)
	}
	if h.north() {
		d := geometry.Clamp(dy, -start.Y, start.Height-minH)
		r.Y = start.Y + d
		r.Height = start.Height - d
	}
	return r
}

// minSize is MinCropSize capped per axis at the displayed size.
func (e *Engine) minSize() (w, h float64) {
	return math.Min(e.config.MinCropSize, e.displayed.Width), math.Min(e.config.MinCropSize, e.displayed.Height)
}
