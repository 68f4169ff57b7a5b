package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/lao-tseu-is-alive/go-murmuration/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-murmuration/pkg/simulation"
)

// FrameStats holds the aggregate flock measurements for one sampled tick.
type FrameStats struct {
	Tick       uint64  `csv:"tick"`
	SimTimeSec float64 `csv:"sim_time"`

	BirdCount int `csv:"birds"`

	SpeedMean float64 `csv:"speed_mean"`
	SpeedStd  float64 `csv:"speed_std"`

	// Polarization is the magnitude of the mean normalized heading: 1 when
	// every bird flies the same direction, near 0 for a disordered flock.
	Polarization float64 `csv:"polarization"`

	CentroidX float64 `csv:"centroid_x"`
	CentroidY float64 `csv:"centroid_y"`

	PanicMean float64 `csv:"panic_mean"`
	PanicMax  float64 `csv:"panic_max"`

	EnergyMean float64 `csv:"energy_mean"`
	EnergyP10  float64 `csv:"energy_p10"`
	EnergyP50  float64 `csv:"energy_p50"`
	EnergyP90  float64 `csv:"energy_p90"`

	// Predators actively engaged (any state but idle).
	ActivePredators int `csv:"active_predators"`

	FoodSources   int     `csv:"food_sources"`
	FoodRemaining float64 `csv:"food_remaining"`
	Feeders       int     `csv:"feeders"`
}

// Collect samples the world's current state into one FrameStats record.
// Read-only; call it between ticks, from the tick goroutine.
func Collect(w *simulation.World, simTime float64) FrameStats {
	birds := w.Birds()
	s := FrameStats{
		Tick:       w.Tick(),
		SimTimeSec: simTime,
		BirdCount:  len(birds),
	}

	if len(birds) > 0 {
		speeds := make([]float64, len(birds))
		energies := make([]float64, len(birds))
		var headingSumX, headingSumY float64
		for i := range birds {
			speeds[i] = birds[i].Vel.Len()
			energies[i] = birds[i].Energy
			h := birds[i].Vel.Normalize()
			headingSumX += h.X
			headingSumY += h.Y
			s.PanicMean += birds[i].Panic
			if birds[i].Panic > s.PanicMax {
				s.PanicMax = birds[i].Panic
			}
		}
		n := float64(len(birds))
		s.PanicMean /= n

		s.SpeedMean = stat.Mean(speeds, nil)
		if len(speeds) > 1 {
			s.SpeedStd = stat.StdDev(speeds, nil)
		}

		mean := geometry.Vector2D{X: headingSumX / n, Y: headingSumY / n}
		s.Polarization = mean.Len()

		c := w.Centroid()
		s.CentroidX, s.CentroidY = c.X, c.Y

		s.EnergyMean = stat.Mean(energies, nil)
		sort.Float64s(energies)
		s.EnergyP10 = percentile(energies, 0.10)
		s.EnergyP50 = percentile(energies, 0.50)
		s.EnergyP90 = percentile(energies, 0.90)
	}

	for _, p := range w.PredatorSnapshots() {
		if p.State != simulation.StateIdle {
			s.ActivePredators++
		}
	}
	for _, f := range w.FoodSources() {
		s.FoodSources++
		s.FoodRemaining += f.Amount
		s.Feeders += f.FeederCount
	}
	return s
}

// percentile interpolates the p-th percentile of a sorted slice, p in [0,1].
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// LogValue implements slog.LogValuer for structured logging.
func (s FrameStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("tick", s.Tick),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("birds", s.BirdCount),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_std", s.SpeedStd),
		slog.Float64("polarization", s.Polarization),
		slog.Float64("panic_mean", s.PanicMean),
		slog.Float64("panic_max", s.PanicMax),
		slog.Float64("energy_mean", s.EnergyMean),
		slog.Int("active_predators", s.ActivePredators),
		slog.Float64("food_remaining", s.FoodRemaining),
	)
}
