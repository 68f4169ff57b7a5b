package geometry

import (
	"fmt"
	"math"
)

// Epsilon is the precision floor for float64 comparisons and for deciding
// whether a vector is short enough to be treated as zero.
const Epsilon = 1e-9

// Vector2D represents a 2D vector or point in cartesian space.
// Fields are public because they are fundamental data, not internal state;
// this allows clean literal initialization: v := Vector2D{1, 2}.
type Vector2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewVectorPolar creates a Vector2D from polar coordinates. theta is in radians.
func NewVectorPolar(radius, theta float64) Vector2D {
	x := radius * math.Cos(theta)
	y := radius * math.Sin(theta)
	if math.Abs(x) < Epsilon {
		x = 0
	}
	if math.Abs(y) < Epsilon {
		y = 0
	}
	return Vector2D{X: x, Y: y}
}

// String implements fmt.Stringer for clean debug printing.
func (v Vector2D) String() string {
	return fmt.Sprintf("(%.2f, %.2f)", v.X, v.Y)
}

// ---------------------------------------------------------------------
// Arithmetic
// Value receivers returning new values: immutable and cheap for a 16-byte struct.
// ---------------------------------------------------------------------

// Add adds two vectors and returns the result.
func (v Vector2D) Add(other Vector2D) Vector2D {
	return Vector2D{v.X + other.X, v.Y + other.Y}
}

// Sub subtracts the other vector from the current vector.
func (v Vector2D) Sub(other Vector2D) Vector2D {
	return Vector2D{v.X - other.X, v.Y - other.Y}
}

// Mul scales the vector by a scalar value.
func (v Vector2D) Mul(scalar float64) Vector2D {
	return Vector2D{v.X * scalar, v.Y * scalar}
}

// Dot calculates the dot product of two vectors.
func (v Vector2D) Dot(other Vector2D) float64 {
	return v.X*other.X + v.Y*other.Y
}

// ---------------------------------------------------------------------
// Magnitude and normalization
// ---------------------------------------------------------------------

// LenSqr calculates the squared magnitude. Faster than Len for comparisons.
func (v Vector2D) LenSqr() float64 {
	return v.X*v.X + v.Y*v.Y
}

// Len calculates the magnitude (length) of the vector.
func (v Vector2D) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// Normalize returns a unit vector in the same direction.
// Returns a zero vector if the length is effectively zero, so callers
// composing steering forces never see a NaN from a 0/0 division.
func (v Vector2D) Normalize() Vector2D {
	l := v.Len()
	if l < Epsilon {
		return Vector2D{}
	}
	return v.Mul(1 / l)
}

// Limit clamps the magnitude of the vector to max, preserving direction.
// A non-positive max yields the zero vector.
func (v Vector2D) Limit(max float64) Vector2D {
	if max <= 0 {
		return Vector2D{}
	}
	lsq := v.LenSqr()
	if lsq <= max*max {
		return v
	}
	return v.Mul(max / math.Sqrt(lsq))
}

// ---------------------------------------------------------------------
// Geometric utilities
// ---------------------------------------------------------------------

// DistanceTo calculates the Euclidean distance to another vector.
func (v Vector2D) DistanceTo(other Vector2D) float64 {
	return v.Sub(other).Len()
}

// DistanceSquaredTo calculates the squared Euclidean distance to another vector.
func (v Vector2D) DistanceSquaredTo(other Vector2D) float64 {
	return v.Sub(other).LenSqr()
}

// Angle returns the angle (in radians) of the vector relative to the X-axis.
// Range: [-Pi, Pi]
func (v Vector2D) Angle() float64 {
	return math.Atan2(v.Y, v.X)
}

// Lerp calculates a point between v and target based on t in [0, 1].
func (v Vector2D) Lerp(target Vector2D, t float64) Vector2D {
	return v.Add(target.Sub(v).Mul(t))
}

// IsFinite reports whether both components are finite numbers.
// Steering math must never leak NaN or Inf into positions; see World.Step.
func (v Vector2D) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}

// Eq checks if two vectors are approximately equal using the Epsilon constant.
func (v Vector2D) Eq(other Vector2D) bool {
	return math.Abs(v.X-other.X) <= Epsilon && math.Abs(v.Y-other.Y) <= Epsilon
}
