// Package geom defines the coordinate primitives shared by the viewport,
// coordinate-service, and drag packages. Every point and rectangle is tagged
// with the space it lives in; values are never passed between spaces without
// an explicit conversion through the coords package.
package geom

import (
	"math"

	"github.com/golang/geo/r2"
)

// Panel identifies one of the two independently scrolling screen regions.
type Panel string

const (
	PanelPdf       Panel = "pdf"
	PanelWorkspace Panel = "workspace"
)

// ScreenPoint is an absolute window-pixel coordinate, origin at the top-left
// of the application viewport.
type ScreenPoint struct {
	X, Y float64
}

// PanelPoint is a pixel coordinate relative to one panel's top-left corner.
type PanelPoint struct {
	X, Y  float64
	Panel Panel
}

// WorldPoint is a canvas/world-space coordinate. The world origin is fixed;
// it does not move when the workspace pans or zooms.
type WorldPoint struct {
	X, Y float64
}

// PdfPointKind discriminates the two PDF point encodings. The upstream
// heuristic of range-checking x and y against [0,1] misclassifies absolute
// points near the page origin, so the kind is an explicit field here.
type PdfPointKind string

const (
	// PdfAbsolute means x and y are PDF units at 72 DPI.
	PdfAbsolute PdfPointKind = "absolute"
	// PdfNormalized means x and y are fractions of the page width and height,
	// each in [0, 1].
	PdfNormalized PdfPointKind = "normalized"
)

// PdfPoint is a position on one page of one document.
type PdfPoint struct {
	DocumentID string       `json:"documentId"`
	PageIndex  int          `json:"pageIndex"`
	X          float64      `json:"x"`
	Y          float64      `json:"y"`
	Kind       PdfPointKind `json:"kind"`
}

// Valid reports whether the point satisfies its kind's invariants.
func (p PdfPoint) Valid() bool {
	if p.PageIndex < 0 {
		return false
	}
	if p.Kind == PdfNormalized {
		return p.X >= 0 && p.X <= 1 && p.Y >= 0 && p.Y <= 1
	}
	return p.Kind == PdfAbsolute
}

// Size is a width/height pair in whatever space its owner lives in.
type Size struct {
	Width, Height float64
}

// NormalizedRect is a rectangle in page-fraction units. Width and height are
// non-negative; x+w and y+h are expected, but not enforced, to stay <= 1.
type NormalizedRect struct {
	X, Y, W, H float64
}

// Valid reports whether the rect has non-negative extent and an origin
// inside the unit square.
func (r NormalizedRect) Valid() bool {
	return r.W >= 0 && r.H >= 0 &&
		r.X >= 0 && r.X <= 1 && r.Y >= 0 && r.Y <= 1
}

// NormalizedRectFromCorners builds a rect from two opposite corners in any
// order, so a selection dragged up-left yields the same rect as one dragged
// down-right.
func NormalizedRectFromCorners(x1, y1, x2, y2 float64) NormalizedRect {
	return NormalizedRect{
		X: math.Min(x1, x2),
		Y: math.Min(y1, y2),
		W: math.Abs(x2 - x1),
		H: math.Abs(y2 - y1),
	}
}

// ScreenRect is an axis-aligned rectangle in screen space.
type ScreenRect struct {
	X, Y, W, H float64
}

// Right returns the x coordinate of the right edge.
func (r ScreenRect) Right() float64 { return r.X + r.W }

// Bottom returns the y coordinate of the bottom edge.
func (r ScreenRect) Bottom() float64 { return r.Y + r.H }

// Center returns the rect's midpoint.
func (r ScreenRect) Center() ScreenPoint {
	return ScreenPoint{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// ContainsPoint reports whether p lies inside the rect, edges inclusive.
func (r ScreenRect) ContainsPoint(p ScreenPoint) bool {
	return p.X >= r.X && p.X <= r.Right() &&
		p.Y >= r.Y && p.Y <= r.Bottom()
}

// r2Rect converts to an r2 rectangle for interval math.
func (r ScreenRect) r2Rect() r2.Rect {
	return r2.RectFromPoints(
		r2.Point{X: r.X, Y: r.Y},
		r2.Point{X: r.Right(), Y: r.Bottom()},
	)
}

// Contains reports whether other lies entirely inside r, edges inclusive.
func (r ScreenRect) Contains(other ScreenRect) bool {
	return r.r2Rect().Contains(other.r2Rect())
}

// Intersects reports whether r and other overlap, edge contact included.
func (r ScreenRect) Intersects(other ScreenRect) bool {
	return r.r2Rect().Intersects(other.r2Rect())
}

// Equal reports value equality. Used by the viewport stores to suppress
// redundant panel-rect notifications.
func (r ScreenRect) Equal(other ScreenRect) bool {
	return r.X == other.X && r.Y == other.Y && r.W == other.W && r.H == other.H
}

// WorldRect is an axis-aligned rectangle in world space.
type WorldRect struct {
	X, Y, W, H float64
}

// ConnectionPoint names where on a canvas object an anchor attaches.
type ConnectionPoint string

const (
	ConnectLeft   ConnectionPoint = "left"
	ConnectRight  ConnectionPoint = "right"
	ConnectTop    ConnectionPoint = "top"
	ConnectBottom ConnectionPoint = "bottom"
	ConnectCenter ConnectionPoint = "center"
)
