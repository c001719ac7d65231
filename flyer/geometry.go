// Package flyer holds the layered poster document: page geometry, image and text
// layers, their stacking order and the drag gesture that repositions them.
//
// A Document is owned by exactly one caller at a time. Nothing in this package
// locks; callers that share a Document across goroutines serialize access
// themselves (see package sessions).
package flyer

import (
	"errors"
	"math"
)

// DefaultMarginReserve keeps a dragged layer's origin this many units inside the
// right and bottom page edges.
const DefaultMarginReserve = 10.0

var ErrInvalidScale = errors.New("viewport scale must be a finite number greater than zero")

type (
	// Point is a position in document space unless stated otherwise.
	Point struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}

	Size struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	}

	// Viewport describes how the page is shown on screen: where its top-left
	// corner sits in pointer coordinates and how much it is zoomed.
	Viewport struct {
		Origin Point   `json:"origin"`
		Scale  float64 `json:"scale"`
	}
)

func (p Point) Sub(o Point) Point { return Point{X: p.X - o.X, Y: p.Y - o.Y} }

func (p Point) Add(o Point) Point { return Point{X: p.X + o.X, Y: p.Y + o.Y} }

// Finite reports whether both coordinates are ordinary numbers.
func (p Point) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// NewViewport validates scale before building a Viewport. The scale and its
// reciprocal must both be finite, so subnormal zoom levels are rejected too.
func NewViewport(origin Point, scale float64) (Viewport, error) {
	if !(scale > 0) || math.IsInf(scale, 0) || math.IsInf(1/scale, 0) {
		return Viewport{}, ErrInvalidScale
	}
	return Viewport{Origin: origin, Scale: scale}, nil
}

// ToDocumentSpace maps a pointer position into document space.
func (v Viewport) ToDocumentSpace(pointer Point) Point {
	return ToDocumentSpace(pointer, v.Origin, v.Scale)
}

// ToViewportSpace maps a document position back to pointer coordinates.
func (v Viewport) ToViewportSpace(doc Point) Point {
	return ToViewportSpace(doc, v.Origin, v.Scale)
}

// ToDocumentSpace returns (pointer - origin) / scale. scale must be > 0.
func ToDocumentSpace(pointer, origin Point, scale float64) Point {
	return Point{
		X: (pointer.X - origin.X) / scale,
		Y: (pointer.Y - origin.Y) / scale,
	}
}

// ToViewportSpace is the inverse of ToDocumentSpace.
func ToViewportSpace(doc, origin Point, scale float64) Point {
	return Point{
		X: doc.X*scale + origin.X,
		Y: doc.Y*scale + origin.Y,
	}
}

// ClampPosition bounds each axis of p to [0, dimension-margin]. Only the origin is
// bounded; the layer's own extent may still run past the page edge. A NaN axis
// becomes 0.
func ClampPosition(p Point, page Size, margin float64) Point {
	return Point{
		X: clamp(p.X, page.Width-margin),
		Y: clamp(p.Y, page.Height-margin),
	}
}

func clamp(v, upper float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return max(0, min(upper, v))
}
