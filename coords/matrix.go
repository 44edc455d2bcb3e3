package coords

import (
	"errors"
	"math"

	"github.com/wudi/excerptkit/geom"
)

// Matrix is a 2D affine transform in the usual [a b c d e f] layout:
//
//	x' = a*x + c*y + e
//	y' = b*x + d*y + f
//
// The panels never rotate or skew, so only translate and scale constructors
// exist, but composition and inversion are general.
type Matrix [6]float64

// Identity returns the identity transform.
func Identity() Matrix { return Matrix{1, 0, 0, 1, 0, 0} }

// Translate returns a transform that shifts by (tx, ty).
func Translate(tx, ty float64) Matrix { return Matrix{1, 0, 0, 1, tx, ty} }

// Scale returns a transform that scales by (sx, sy) about the origin.
func Scale(sx, sy float64) Matrix { return Matrix{sx, 0, 0, sy, 0, 0} }

// Mul returns the transform that applies m first, then o.
func (m Matrix) Mul(o Matrix) Matrix {
	return Matrix{
		m[0]*o[0] + m[1]*o[2],
		m[0]*o[1] + m[1]*o[3],
		m[2]*o[0] + m[3]*o[2],
		m[2]*o[1] + m[3]*o[3],
		m[4]*o[0] + m[5]*o[2] + o[4],
		m[4]*o[1] + m[5]*o[3] + o[5],
	}
}

// Apply transforms an (x, y) pair.
func (m Matrix) Apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// ApplyRect transforms an axis-aligned rect. With no rotation in play the
// result stays axis-aligned; corners are re-sorted so a negative scale still
// yields non-negative extent.
func (m Matrix) ApplyRect(x, y, w, h float64) geom.ScreenRect {
	x1, y1 := m.Apply(x, y)
	x2, y2 := m.Apply(x+w, y+h)
	return geom.ScreenRect{
		X: math.Min(x1, x2),
		Y: math.Min(y1, y2),
		W: math.Abs(x2 - x1),
		H: math.Abs(y2 - y1),
	}
}

var errSingular = errors.New("coords: singular matrix")

// Inverse returns the inverse transform, or an error for a degenerate
// (zero-scale) matrix.
func (m Matrix) Inverse() (Matrix, error) {
	det := m[0]*m[3] - m[1]*m[2]
	if math.Abs(det) < 1e-12 {
		return Matrix{}, errSingular
	}
	return Matrix{
		m[3] / det,
		-m[1] / det,
		-m[2] / det,
		m[0] / det,
		(m[2]*m[5] - m[3]*m[4]) / det,
		(m[1]*m[4] - m[0]*m[5]) / det,
	}, nil
}
