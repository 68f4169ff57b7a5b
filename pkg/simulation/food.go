package simulation

import (
	"math"
	"math/rand/v2"

	"github.com/lao-tseu-is-alive/go-murmuration/pkg/geometry"
)

const (
	// captureDistance is how close a bird must be to a source to withdraw
	// from it (and to count as a feeder).
	captureDistance = 8.0

	// depletedCutoff is the remaining amount below which a source is
	// considered exhausted and removed on the next Update.
	depletedCutoff = 1e-3

	// foodPullFraction scales food attraction relative to the direct
	// steering forces; foraging is a bias, not a command.
	foodPullFraction = 0.3
)

// FoodSource is a decaying resource node contested by nearby birds.
// The feeder set is a transient per-tick membership snapshot: it is cleared on
// every Update and re-populated by Consume, never carried across ticks.
type FoodSource struct {
	ID        uint64
	Pos       geometry.Vector2D
	Radius    float64 // attraction zone
	Amount    float64 // never negative
	MaxAmount float64
	Rate      float64 // withdrawal per feeder per second
	feeders   map[int]struct{}
}

// FeederCount reports how many birds withdrew from the source this tick.
func (s *FoodSource) FeederCount() int {
	return len(s.feeders)
}

// FoodSourceState is the read-only view handed to presentation and telemetry.
type FoodSourceState struct {
	ID          uint64
	Pos         geometry.Vector2D
	Radius      float64
	Amount      float64
	MaxAmount   float64
	Rate        float64
	FeederCount int
}

// FoodManager owns the food-source population: spawning, aging, contested
// consumption. All mutation happens on the tick goroutine; the parallel bird
// pass only accumulates claims that the world applies through Consume in one
// sequential reduction.
type FoodManager struct {
	sources []*FoodSource
	nextID  uint64
	rng     *rand.Rand
}

func NewFoodManager(rng *rand.Rand) *FoodManager {
	return &FoodManager{rng: rng}
}

// Init replaces the population with n freshly spawned sources.
func (m *FoodManager) Init(n int, cfg *Config) {
	m.sources = m.sources[:0]
	for i := 0; i < n; i++ {
		m.spawn(cfg)
	}
}

// Clear drops every source.
func (m *FoodManager) Clear() {
	m.sources = m.sources[:0]
}

func (m *FoodManager) spawn(cfg *Config) {
	m.nextID++
	m.sources = append(m.sources, &FoodSource{
		ID:        m.nextID,
		Pos:       randomPoint(m.rng, cfg.WorldWidth, cfg.WorldHeight),
		Radius:    cfg.FoodAttractionRadius,
		Amount:    cfg.FoodMaxAmount,
		MaxAmount: cfg.FoodMaxAmount,
		Rate:      cfg.FoodConsumptionRate,
		feeders:   make(map[int]struct{}),
	})
}

// Update clears the transient feeder sets, removes exhausted sources and
// respawns up to the configured population when enabled.
func (m *FoodManager) Update(dt float64, cfg *Config) {
	kept := m.sources[:0]
	for _, s := range m.sources {
		if s.Amount <= depletedCutoff {
			continue
		}
		clear(s.feeders)
		kept = append(kept, s)
	}
	m.sources = kept

	if cfg.FoodRespawn {
		for len(m.sources) < cfg.NumFoodSources {
			m.spawn(cfg)
		}
	}
}

// Attraction returns the pull toward the nearest non-empty source whose
// attraction zone covers pos, already scaled by foodPullFraction. The second
// return value signals whether any source applies. strength and radius come
// from the caller so the environment config can be swapped without touching
// the sources.
func (m *FoodManager) Attraction(pos geometry.Vector2D, strength, radius float64) (geometry.Vector2D, bool) {
	s := m.nearest(pos, radius)
	if s == nil {
		return geometry.Vector2D{}, false
	}
	dir := s.Pos.Sub(pos).Normalize()
	return dir.Mul(strength * foodPullFraction), true
}

// InCaptureRange reports whether pos is close enough to a non-empty source to
// withdraw from it. Read-only; safe to call from the parallel bird pass while
// no consumption is being applied.
func (m *FoodManager) InCaptureRange(pos geometry.Vector2D) bool {
	return m.nearest(pos, captureDistance) != nil
}

// Consume withdraws up to amount from the nearest source within capture
// distance of pos, floored at zero, and registers the bird as a feeder for
// the current tick. Returns the quantity actually withdrawn.
func (m *FoodManager) Consume(pos geometry.Vector2D, birdIndex int, amount float64) float64 {
	s := m.nearest(pos, captureDistance)
	if s == nil || amount <= 0 {
		return 0
	}
	taken := math.Min(amount, s.Amount)
	s.Amount -= taken
	if s.Amount < 0 {
		s.Amount = 0
	}
	if taken > 0 {
		s.feeders[birdIndex] = struct{}{}
	}
	return taken
}

// nearest returns the closest source with remaining amount within maxDist of
// pos, or nil. For source radii the per-source zone still applies: a source
// whose own Radius is smaller than maxDist only attracts inside its zone.
func (m *FoodManager) nearest(pos geometry.Vector2D, maxDist float64) *FoodSource {
	var best *FoodSource
	bestSq := math.MaxFloat64
	for _, s := range m.sources {
		if s.Amount <= 0 {
			continue
		}
		dsq := s.Pos.DistanceSquaredTo(pos)
		limit := math.Min(maxDist, s.Radius)
		if dsq > limit*limit {
			continue
		}
		if dsq < bestSq {
			bestSq = dsq
			best = s
		}
	}
	return best
}

// Sources returns a read-only snapshot of the current population.
func (m *FoodManager) Sources() []FoodSourceState {
	out := make([]FoodSourceState, 0, len(m.sources))
	for _, s := range m.sources {
		out = append(out, FoodSourceState{
			ID:          s.ID,
			Pos:         s.Pos,
			Radius:      s.Radius,
			Amount:      s.Amount,
			MaxAmount:   s.MaxAmount,
			Rate:        s.Rate,
			FeederCount: s.FeederCount(),
		})
	}
	return out
}

func randomPoint(rng *rand.Rand, w, h float64) geometry.Vector2D {
	return geometry.Vector2D{X: rng.Float64() * w, Y: rng.Float64() * h}
}
