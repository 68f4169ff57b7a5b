package simulation

import (
	"math"

	"github.com/lao-tseu-is-alive/go-murmuration/pkg/geometry"
)

// Attractor is a transient user-placed point force. A positive Strength pulls
// birds toward Pos; setting Repulsor pushes them away instead. The steering
// engine only ever reads attractors; the world ages and removes them.
type Attractor struct {
	Pos       geometry.Vector2D `json:"pos"`
	Strength  float64           `json:"strength"`
	Radius    float64           `json:"radius"`
	Repulsor  bool              `json:"repulsor"`
	Life      float64           `json:"life"`      // seconds remaining
	TotalLife float64           `json:"totalLife"` // seconds at creation
}

// force returns the inverse-distance weighted pull (or push) on a point
// inside the attractor's radius, or a zero vector outside it.
func (a *Attractor) force(p geometry.Vector2D) geometry.Vector2D {
	delta := a.Pos.Sub(p)
	dist := delta.Len()
	if dist >= a.Radius || a.Radius <= 0 {
		return geometry.Vector2D{}
	}
	// Inverse-distance weighting: closer means stronger. The floor keeps a
	// bird sitting exactly on the attractor from seeing an infinite force.
	falloff := 1 / math.Max(dist, 10)
	dir := delta.Normalize()
	if a.Repulsor {
		dir = dir.Mul(-1)
	}
	return dir.Mul(a.Strength * falloff)
}

// age advances the attractor's clock and reports whether it expired.
func (a *Attractor) age(dt float64) bool {
	a.Life -= dt
	return a.Life <= 0
}
