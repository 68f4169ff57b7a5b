package simulation

import (
	"math"
	"sort"

	"github.com/lao-tseu-is-alive/go-murmuration/pkg/geometry"
)

const (
	// panicCohesionCut is how strongly panic suppresses the grouping rules.
	// A fully panicked bird keeps 30% of its cohesion/alignment drive while
	// separation and flee are boosted by (1 + panic). This realizes the
	// weight-interpolation variant of the panic/steering coupling.
	panicCohesionCut = 0.7

	// multiPredatorDamping scales each additional simultaneous predator's
	// panic contribution, strongest first, so stacked threats cannot push
	// panic arbitrarily fast. A single predator is never damped.
	multiPredatorDamping = 0.8
)

// steerToward converts a desired direction into a bounded steering force:
// desired velocity at max speed, minus the current velocity, clamped to the
// acceleration limit. A zero direction yields a zero force.
func steerToward(dir, vel geometry.Vector2D, cfg *Config) geometry.Vector2D {
	n := dir.Normalize()
	if n.LenSqr() == 0 {
		return geometry.Vector2D{}
	}
	return n.Mul(cfg.MaxSpeed).Sub(vel).Limit(cfg.MaxForce)
}

// flockingForce computes the separation/alignment/cohesion triad for one bird
// from its candidate neighborhood. Candidates come from the grid and include
// false positives; the exact perception-radius filter happens here.
func flockingForce(me *Bird, candidates []int, birds []Bird, cfg *Config) geometry.Vector2D {
	var sepSum, velSum, posSum geometry.Vector2D
	neighbors := 0.0

	percSq := cfg.PerceptionRadius * cfg.PerceptionRadius
	sepSq := cfg.SeparationRadius * cfg.SeparationRadius

	for _, j := range candidates {
		if j == me.Index {
			continue
		}
		other := &birds[j]
		diff := me.Pos.Sub(other.Pos)
		dsq := diff.LenSqr()
		if dsq > percSq {
			continue // grid false positive
		}

		velSum = velSum.Add(other.Vel)
		posSum = posSum.Add(other.Pos)
		neighbors++

		// Separation: inverse-distance weighting, so the closest birds
		// dominate and a midfield neighbor barely registers.
		if dsq < sepSq {
			sepSum = sepSum.Add(diff.Mul(1 / math.Max(dsq, 1e-6)))
		}
	}

	// Panic shifts the balance from grouping toward escape.
	grouping := 1 - panicCohesionCut*me.Panic
	repulsion := 1 + me.Panic

	force := steerToward(sepSum, me.Vel, cfg).Mul(cfg.SeparationWeight * repulsion)

	if neighbors > 0 {
		avgVel := velSum.Mul(1 / neighbors)
		center := posSum.Mul(1 / neighbors)

		force = force.Add(steerToward(avgVel, me.Vel, cfg).Mul(cfg.AlignmentWeight * grouping))
		force = force.Add(steerToward(center.Sub(me.Pos), me.Vel, cfg).Mul(cfg.CohesionWeight * grouping))
	}
	return force
}

// boundaryForce pushes a bird back toward the interior as it enters the edge
// margin, growing linearly to full strength at the edge itself. The area is
// bounded; there is no wrap-around.
func boundaryForce(pos geometry.Vector2D, cfg *Config) geometry.Vector2D {
	m := cfg.BoundaryMargin
	if m <= 0 {
		return geometry.Vector2D{}
	}
	var push geometry.Vector2D
	if pos.X < m {
		push.X += (m - pos.X) / m
	}
	if pos.X > cfg.WorldWidth-m {
		push.X -= (pos.X - (cfg.WorldWidth - m)) / m
	}
	if pos.Y < m {
		push.Y += (m - pos.Y) / m
	}
	if pos.Y > cfg.WorldHeight-m {
		push.Y -= (pos.Y - (cfg.WorldHeight - m)) / m
	}
	return push.Mul(cfg.MaxForce * cfg.BoundaryWeight)
}

// windForce is the uniform environment force plus this bird's turbulence
// jitter (drawn once per bird per tick by the world, so the parallel pass
// stays free of shared RNG state).
func windForce(jitter geometry.Vector2D, cfg *Config) geometry.Vector2D {
	base := geometry.NewVectorPolar(cfg.WindSpeed, cfg.WindDirection)
	return base.Add(jitter.Mul(cfg.WindTurbulence))
}

// attractorForce sums the pull/push of every active attractor covering pos.
func attractorForce(pos geometry.Vector2D, attractors []Attractor, cfg *Config) geometry.Vector2D {
	var total geometry.Vector2D
	for i := range attractors {
		total = total.Add(attractors[i].force(pos))
	}
	return total.Limit(cfg.MaxForce)
}

// threatForce computes the combined flee force away from every predator whose
// effective panic radius covers the bird, plus the resulting panic rise.
// Each threat contributes proximity = 1 - d/r to both. Flee contributions add
// directly; panic contributions are sorted strongest-first and damped by
// multiPredatorDamping^i so simultaneous predators stack sublinearly.
func threatForce(me *Bird, threats []PredatorSnapshot, cfg *Config) (geometry.Vector2D, float64) {
	var flee geometry.Vector2D
	var buf [8]float64
	contribs := buf[:0]

	for i := range threats {
		t := &threats[i]
		if t.EffectiveRadius <= 0 {
			continue
		}
		d := me.Pos.DistanceTo(t.Pos)
		if d >= t.EffectiveRadius {
			continue
		}
		proximity := 1 - d/t.EffectiveRadius

		away := me.Pos.Sub(t.Pos).Normalize()
		if away.LenSqr() == 0 {
			away = geometry.Vector2D{X: 1} // bird exactly on the predator
		}
		flee = flee.Add(away.Mul(proximity))
		contribs = append(contribs, proximity)
	}

	if len(contribs) == 0 {
		return geometry.Vector2D{}, 0
	}

	sort.Sort(sort.Reverse(sort.Float64Slice(contribs)))
	rise := 0.0
	scale := 1.0
	for _, c := range contribs {
		rise += c * scale
		scale *= multiPredatorDamping
	}

	force := steerToward(flee, me.Vel, cfg).Mul(cfg.FleeWeight * (1 + me.Panic))
	return force, rise
}
