package simulation

import "github.com/lao-tseu-is-alive/go-murmuration/pkg/geometry"

// Bird is one agent slot in the flock. The Index is stable for the lifetime
// of the slot; slots are only freed from the top when the population shrinks,
// never by in-simulation events.
type Bird struct {
	Index  int
	Pos    geometry.Vector2D
	Vel    geometry.Vector2D
	Panic  float64 // [0,1], decays toward 0 absent threat
	Energy float64 // [0, cfg.BirdMaxEnergy]
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
