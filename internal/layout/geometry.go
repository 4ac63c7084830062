package layout

import "math"

// Size is a width/height pair, in pixels for canvases and points for PDF pages
type Size struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// IsZero reports whether either dimension is unset
func (s Size) IsZero() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Scale multiplies both dimensions by k
func (s Size) Scale(k float64) Size {
	return Size{Width: s.Width * k, Height: s.Height * k}
}

// Point is a position in canvas or client space
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis aligned box. In canvas space (X, Y) is the top-left corner;
// in PDF space it is the bottom-left corner.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains reports whether p lies inside r, edges included
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Within reports whether r lies fully inside a box of the given size anchored at the origin
func (r Rect) Within(bounds Size) bool {
	return r.X >= 0 && r.Y >= 0 && r.X+r.Width <= bounds.Width && r.Y+r.Height <= bounds.Height
}

// ExportCoordinates maps a field from canvas space (top-left origin, pixels)
// to PDF page space (bottom-left origin, points). The vertical axis flips.
func ExportCoordinates(f *Field, canvas, page Size) Rect {
	scaleX := page.Width / canvas.Width
	scaleY := page.Height / canvas.Height

	return Rect{
		X:      f.X * scaleX,
		Y:      page.Height - f.Y*scaleY - f.Height*scaleY,
		Width:  f.Width * scaleX,
		Height: f.Height * scaleY,
	}
}

// PointerToCanvas converts a pointer position in client space to
// canvas-local coordinates given the canvas' top-left corner in client space
func PointerToCanvas(client, canvasOrigin Point) Point {
	return Point{X: client.X - canvasOrigin.X, Y: client.Y - canvasOrigin.Y}
}

// clamp limits v to [lo, hi]; when hi < lo the result is lo
func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
