package geom

import "math"

// Matrix2D is an affine transform stored column-major as [a, b, c, d, e, f]:
//
//	x' = a*x + c*y + e
//	y' = b*x + d*y + f
//
// It is the layout canvas 2D contexts take in setTransform.
type Matrix2D [6]float64

func Identity() Matrix2D {
	return Matrix2D{1, 0, 0, 1, 0, 0}
}

func Translate(tx, ty float64) Matrix2D {
	return Matrix2D{1, 0, 0, 1, tx, ty}
}

func Scale(sx, sy float64) Matrix2D {
	return Matrix2D{sx, 0, 0, sy, 0, 0}
}

// RotateAbout rotates by degrees around pivot p. Positive angles turn
// clockwise on a y-down canvas.
func RotateAbout(degrees float64, p Point) Matrix2D {
	sin, cos := math.Sincos(degrees * math.Pi / 180)
	// T(p) * R * T(-p), expanded.
	return Matrix2D{
		cos, sin,
		-sin, cos,
		p.X - cos*p.X + sin*p.Y,
		p.Y - sin*p.X - cos*p.Y,
	}
}

// Multiply returns m * other: other is applied first.
func (m Matrix2D) Multiply(other Matrix2D) Matrix2D {
	a, b, c, d, e, f := other[0], other[1], other[2], other[3], other[4], other[5]
	return Matrix2D{
		m[0]*a + m[2]*b,
		m[1]*a + m[3]*b,
		m[0]*c + m[2]*d,
		m[1]*c + m[3]*d,
		m[0]*e + m[2]*f + m[4],
		m[1]*e + m[3]*f + m[5],
	}
}

func (m Matrix2D) TransformPoint(p Point) Point {
	return Point{
		X: m[0]*p.X + m[2]*p.Y + m[4],
		Y: m[1]*p.X + m[3]*p.Y + m[5],
	}
}

// TransformRect returns the axis-aligned bounds of r after m.
func (m Matrix2D) TransformRect(r Rect) Rect {
	out, _ := BoundsOf([]Point{
		m.TransformPoint(r.Origin()),
		m.TransformPoint(Pt(r.Right(), r.Y)),
		m.TransformPoint(Pt(r.Right(), r.Bottom())),
		m.TransformPoint(Pt(r.X, r.Bottom())),
	})
	return out
}

// Invert returns the inverse of m. It reports false for a singular matrix.
func (m Matrix2D) Invert() (Matrix2D, bool) {
	det := m[0]*m[3] - m[1]*m[2]
	if det == 0 {
		return Identity(), false
	}
	k := 1 / det
	return Matrix2D{
		m[3] * k,
		-m[1] * k,
		-m[2] * k,
		m[0] * k,
		(m[2]*m[5] - m[3]*m[4]) * k,
		(m[1]*m[4] - m[0]*m[5]) * k,
	}, true
}

// ToSlice copies m for JSON encoding as a plain array.
func (m Matrix2D) ToSlice() []float64 {
	return m[:]
}

// IsIdentity reports whether m is the identity within a small tolerance.
func (m Matrix2D) IsIdentity() bool {
	const eps = 1e-10
	id := Identity()
	for i := range m {
		if math.Abs(m[i]-id[i]) >= eps {
			return false
		}
	}
	return true
}
