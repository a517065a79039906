package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/menta2k/image-splitter/pkg/cropper"
	"github.com/menta2k/image-splitter/pkg/geometry"
	"github.com/menta2k/image-splitter/pkg/types"
)

// parseSize parses "WIDTHxHEIGHT".
func parseSize(s string) (cropper.DisplayedGeometry, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return cropper.DisplayedGeometry{}, fmt.Errorf("size %q is not WIDTHxHEIGHT: %w", s, types.ErrInvalidInput)
	}
	width, err1 := strconv.ParseFloat(w, 64)
	height, err2 := strconv.ParseFloat(h, 64)
	if err1 != nil || err2 != nil {
		return cropper.DisplayedGeometry{}, fmt.Errorf("size %q is not WIDTHxHEIGHT: %w", s, types.ErrInvalidInput)
	}
	return cropper.DisplayedGeometry{Width: width, Height: height}, nil
}

// parsePoint parses "X,Y".
func parsePoint(s string) (geometry.Point, error) {
	x, y, ok := strings.Cut(strings.TrimSpace(s), ",")
	if !ok {
		return geometry.Point{}, fmt.Errorf("point %q is not X,Y: %w", s, types.ErrInvalidInput)
	}
	px, err1 := strconv.ParseFloat(strings.TrimSpace(x), 64)
	py, err2 := strconv.ParseFloat(strings.TrimSpace(y), 64)
	if err1 != nil || err2 != nil {
		return geometry.Point{}, fmt.Errorf("point %q is not X,Y: %w", s, types.ErrInvalidInput)
	}
	return geometry.Point{X: px, Y: py}, nil
}

// gesture is one scripted drag: a move when handle is nil, else a resize.
type gesture struct {
	handle *cropper.Handle
	delta  geometry.Point
}

// parseGesture parses "move:DX,DY" or "<handle>:DX,DY", e.g. "se:40,-10".
func parseGesture(s string) (gesture, error) {
	name, delta, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return gesture{}, fmt.Errorf("drag %q is not NAME:DX,DY: %w", s, types.ErrInvalidInput)
	}
	d, err := parsePoint(delta)
	if err != nil {
		return gesture{}, err
	}
	if strings.EqualFold(name, "move") {
		return gesture{delta: d}, nil
	}
	h, err := cropper.ParseHandle(name)
	if err != nil {
		return gesture{}, err
	}
	return gesture{handle: &h, delta: d}, nil
}

// apply runs the gesture through the engine as one pointer drag.
func (g gesture) apply(e *cropper.Engine) (geometry.Rect, error) {
	r := e.Rect()
	start := geometry.Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
	if err := e.BeginDrag(start.X, start.Y, g.handle); err != nil {
		return geometry.Rect{}, err
	}
	defer e.EndDrag()
	return e.UpdateDrag(start.X+g.delta.X, start.Y+g.delta.Y), nil
}
