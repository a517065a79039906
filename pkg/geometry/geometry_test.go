package geometry

import (
	"math"
	"testing"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		v, lo, hi, want float64
	}{
		{5, 0, 10, 5},
		{-3, 0, 10, 0},
		{42, 0, 10, 10},
		{0, 0, 0, 0},
		// Inverted bounds resolve to hi.
		{5, 10, 2, 2},
		{-5, 10, 2, 2},
	}

	for _, tt := range tests {
		if got := Clamp(tt.v, tt.lo, tt.hi); got != tt.want {
			t.Errorf("Clamp(%v, %v, %v) = %v, expected %v", tt.v, tt.lo, tt.hi, got, tt.want)
		}
	}
}

func TestClampInt(t *testing.T) {
	if got := ClampInt(25, 1, 20); got != 20 {
		t.Errorf("Expected 20, got %d", got)
	}
	if got := ClampInt(0, 1, 20); got != 1 {
		t.Errorf("Expected 1, got %d", got)
	}
	if got := ClampInt(5, 10, 2); got != 2 {
		t.Errorf("Expected inverted bounds to resolve to hi, got %d", got)
	}
}

func TestSizeDegenerate(t *testing.T) {
	tests := []struct {
		size Size
		want bool
	}{
		{Size{100, 50}, false},
		{Size{0, 50}, true},
		{Size{100, 0}, true},
		{Size{-1, 50}, true},
		{Size{math.NaN(), 50}, true},
		{Size{math.Inf(1), 50}, true},
	}

	for _, tt := range tests {
		if got := tt.size.Degenerate(); got != tt.want {
			t.Errorf("%+v.Degenerate() = %v, expected %v", tt.size, got, tt.want)
		}
	}
}

func TestRect(t *testing.T) {
	r := Rect{X: 10, Y: 20, Width: 100, Height: 50}

	if r.Right() != 110 || r.Bottom() != 70 {
		t.Errorf("Unexpected edges right=%v bottom=%v", r.Right(), r.Bottom())
	}

	for _, p := range []Point{{10, 20}, {110, 70}, {50, 40}} {
		if !r.Contains(p) {
			t.Errorf("Expected %+v inside %+v", p, r)
		}
	}
	for _, p := range []Point{{9.9, 20}, {110.1, 70}, {50, 71}} {
		if r.Contains(p) {
			t.Errorf("Expected %+v outside %+v", p, r)
		}
	}

	if got := r.Scale(2, 0.5); got != (Rect{20, 10, 200, 25}) {
		t.Errorf("Unexpected scaled rect %+v", got)
	}
	if got := r.Translate(-10, 5); got != (Rect{0, 25, 100, 50}) {
		t.Errorf("Unexpected translated rect %+v", got)
	}
}

func TestScaleFactors(t *testing.T) {
	sx, sy := ScaleFactors(Size{1000, 800}, Size{2000, 1200})
	if sx != 2 || sy != 1.5 {
		t.Errorf("Expected (2, 1.5), got (%v, %v)", sx, sy)
	}

	// Round trip through the inverse factors.
	r := Rect{X: 100, Y: 100, Width: 200, Height: 200}
	ix, iy := ScaleFactors(Size{2000, 1200}, Size{1000, 800})
	if got := r.Scale(sx, sy).Scale(ix, iy); math.Abs(got.X-r.X) > 1e-9 || math.Abs(got.Height-r.Height) > 1e-9 {
		t.Errorf("Round trip drifted: %+v", got)
	}
}
