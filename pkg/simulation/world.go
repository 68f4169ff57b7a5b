package simulation

import (
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"sync"
	"time"

	"github.com/lao-tseu-is-alive/go-murmuration/pkg/geometry"
)

// parallelThreshold is the flock size above which the per-bird pass fans out
// to worker goroutines. Below it the goroutine overhead outweighs the work.
const parallelThreshold = 64

// StrictNumerics makes a non-finite position or velocity reaching integration
// panic instead of being clamped to a safe default. Property tests enable it;
// interactive runs keep the clamping behavior so one bad bird cannot corrupt
// the whole population.
var StrictNumerics = false

// birdIntent is the output of one bird's (possibly parallel) force pass,
// applied sequentially afterwards. Food claims are only recorded here and
// resolved in the single reduction pass, which keeps per-source amounts and
// feeder sets free of intra-tick races.
type birdIntent struct {
	vel    geometry.Vector2D
	pos    geometry.Vector2D
	panic  float64
	energy float64
	feed   bool
}

// World owns the entire simulation state and advances it tick by tick.
// Step and every mutating entry point must be called from the same goroutine
// (the tick loop); ticks are atomic from the caller's perspective.
type World struct {
	cfg  *Config
	rng  *rand.Rand
	tick uint64

	birds      []Bird
	grid       *Grid
	predators  []*Predator
	attractors []Attractor
	food       *FoodManager

	// Per-tick scratch, reused across ticks to keep steady-state allocation
	// near zero (same trick as the grid's cell slices).
	view     FlockView
	threats  []PredatorSnapshot
	intents  []birdIntent
	jitters  []geometry.Vector2D
	queryBuf []int
}

// Option configures a World at construction time.
type Option func(*World)

// WithRandSource injects a deterministic random source, used by property
// tests; the default is time-seeded.
func WithRandSource(src rand.Source) Option {
	return func(w *World) {
		w.rng = rand.New(src)
	}
}

// NewWorld validates cfg and builds a fully initialized world. The world
// takes ownership of cfg; external control surfaces mutate it only through
// the World's entry points, between ticks.
func NewWorld(cfg *Config, opts ...Option) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid simulation config: %w", err)
	}

	w := &World{cfg: cfg}
	for _, opt := range opts {
		opt(w)
	}
	if w.rng == nil {
		w.rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15))
	}
	w.grid = NewGrid(cfg.PerceptionRadius)
	w.food = NewFoodManager(w.rng)

	if cfg.PredatorsEnabled {
		kind, err := ParsePredatorKind(cfg.PredatorKind)
		if err != nil {
			return nil, err
		}
		w.SetPredators(kind, cfg.NumPredators)
	}
	w.Reset()
	return w, nil
}

// ----------------------------------------------------------------------
// Tick
// ----------------------------------------------------------------------

// Step advances the simulation by dt seconds. dt is expected to be
// pre-clamped by the caller; a zero or negative dt is a no-op (the tick is
// simply not started). Ordering within one tick: spatial index rebuild, then
// predator stepping and signature publication, then food aging, then the bird
// force/panic/integration pass, then consumption, then attractor aging.
func (w *World) Step(dt float64) {
	if dt <= 0 {
		return
	}
	cfg := w.cfg

	// 1. Rebuild and freeze the spatial index.
	w.grid.SetCellSize(cfg.PerceptionRadius)
	w.grid.Rebuild(w.birds)

	// 2. Snapshot the flock for the predator controllers.
	w.rebuildView()

	// 3. Advance every predator, then publish all signatures. Publication
	// completes before any bird reads them: panic reflects this tick's
	// predator positions, never the previous tick's.
	for _, p := range w.predators {
		p.step(&w.view, dt)
	}
	w.threats = w.threats[:0]
	for _, p := range w.predators {
		w.threats = append(w.threats, p.Snapshot())
	}

	// 4. Age/respawn food sources; clears the transient feeder sets.
	if cfg.FoodEnabled {
		w.food.Update(dt, cfg)
	}

	// 5. Pre-draw turbulence jitter sequentially so an injected
	// deterministic source stays deterministic regardless of worker count.
	w.drawJitter()

	// 6. Per-bird pass: forces, integration, panic, energy. Each bird writes
	// only its own intent, so the pass parallelizes safely.
	w.computeIntents(dt)
	w.applyIntents(dt)

	// 7. Attractors decay last; birds saw this tick's strengths.
	w.ageAttractors(dt)

	w.tick++
}

func (w *World) rebuildView() {
	w.view.Positions = w.view.Positions[:0]
	w.view.Velocities = w.view.Velocities[:0]
	var sum geometry.Vector2D
	for i := range w.birds {
		w.view.Positions = append(w.view.Positions, w.birds[i].Pos)
		w.view.Velocities = append(w.view.Velocities, w.birds[i].Vel)
		sum = sum.Add(w.birds[i].Pos)
	}
	w.view.Count = len(w.birds)
	if w.view.Count > 0 {
		w.view.Centroid = sum.Mul(1 / float64(w.view.Count))
	} else {
		w.view.Centroid = geometry.Vector2D{}
	}
}

// drawJitter pre-draws per-bird turbulence on the tick goroutine.
func (w *World) drawJitter() {
	if cap(w.jitters) < len(w.birds) {
		w.jitters = make([]geometry.Vector2D, len(w.birds))
	}
	w.jitters = w.jitters[:len(w.birds)]
	if w.cfg.WindTurbulence <= 0 {
		for i := range w.jitters {
			w.jitters[i] = geometry.Vector2D{}
		}
		return
	}
	amp := w.cfg.MaxForce * 0.5
	for i := range w.jitters {
		w.jitters[i] = geometry.Vector2D{
			X: (w.rng.Float64()*2 - 1) * amp,
			Y: (w.rng.Float64()*2 - 1) * amp,
		}
	}
}

func (w *World) computeIntents(dt float64) {
	n := len(w.birds)
	if cap(w.intents) < n {
		w.intents = make([]birdIntent, n)
	}
	w.intents = w.intents[:n]

	workers := runtime.GOMAXPROCS(0)
	if n < parallelThreshold || workers < 2 {
		buf := w.queryBuf
		for i := 0; i < n; i++ {
			buf = w.computeIntent(i, dt, buf)
		}
		w.queryBuf = buf
		return
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			var buf []int
			for i := s; i < e; i++ {
				buf = w.computeIntent(i, dt, buf)
			}
		}(start, end)
	}
	wg.Wait()
}

// computeIntent runs the full steering pipeline for bird i against the frozen
// tick state and records the result in the intent slot. buf is the reusable
// neighbor-query scratch; the (possibly grown) slice is returned.
func (w *World) computeIntent(i int, dt float64, buf []int) []int {
	cfg := w.cfg
	b := &w.birds[i]

	buf = w.grid.QueryInto(buf[:0], b.Pos, cfg.PerceptionRadius)

	force := flockingForce(b, buf, w.birds, cfg)
	force = force.Add(boundaryForce(b.Pos, cfg))
	force = force.Add(windForce(w.jitters[i], cfg))
	force = force.Add(attractorForce(b.Pos, w.attractors, cfg))

	threat, rise := threatForce(b, w.threats, cfg)
	force = force.Add(threat)

	it := &w.intents[i]
	it.feed = false
	if cfg.FoodEnabled {
		if pull, ok := w.food.Attraction(b.Pos, cfg.FoodAttractionStrength*cfg.MaxForce, cfg.FoodAttractionRadius); ok {
			force = force.Add(pull)
		}
		it.feed = w.food.InCaptureRange(b.Pos)
	}

	force = force.Limit(cfg.MaxForce)
	newVel := b.Vel.Add(force.Mul(dt)).Limit(cfg.MaxSpeed)
	newPos := b.Pos.Add(newVel.Mul(dt))

	// Panic: rise immediately under threat, otherwise decay toward zero.
	newPanic := b.Panic
	if rise > 0 {
		newPanic = clamp01(newPanic + rise)
	} else if newPanic > 0 {
		newPanic *= math.Exp(-cfg.PanicDecayRate * dt)
		if newPanic < 1e-4 {
			newPanic = 0
		}
	}

	// Energy drains with exertion; feeding replenishes it in the reduction.
	speedFrac := newVel.Len() / cfg.MaxSpeed
	newEnergy := clamp(b.Energy-cfg.BirdEnergyDrain*speedFrac*dt, 0, cfg.BirdMaxEnergy)

	if !newPos.IsFinite() || !newVel.IsFinite() {
		if StrictNumerics {
			panic(fmt.Sprintf("non-finite state for bird %d: pos=%v vel=%v", i, newPos, newVel))
		}
		newPos = geometry.Vector2D{X: cfg.WorldWidth / 2, Y: cfg.WorldHeight / 2}
		newVel = geometry.Vector2D{}
	}

	it.vel = newVel
	it.pos = newPos
	it.panic = newPanic
	it.energy = newEnergy
	return buf
}

// applyIntents commits every bird's intent and resolves food claims in one
// sequential reduction, so concurrent force computation can never drive a
// source negative or leave a stale feeder registration.
func (w *World) applyIntents(dt float64) {
	cfg := w.cfg
	for i := range w.birds {
		b := &w.birds[i]
		it := &w.intents[i]

		b.Vel = it.vel
		b.Pos = it.pos
		b.Panic = it.panic
		b.Energy = it.energy

		if it.feed {
			taken := w.food.Consume(b.Pos, i, cfg.FoodConsumptionRate*dt)
			b.Energy = clamp(b.Energy+taken*cfg.FeedEfficiency, 0, cfg.BirdMaxEnergy)
		}

		w.contain(b)
	}
}

// contain hard-clamps a bird into the bounded area with a damped bounce.
// Boundary avoidance does the real work; this is the backstop that makes
// escape impossible even under extreme transient forces.
func (w *World) contain(b *Bird) {
	if b.Pos.X < 0 {
		b.Pos.X = 0
		b.Vel.X = math.Abs(b.Vel.X) * 0.5
	} else if b.Pos.X > w.cfg.WorldWidth {
		b.Pos.X = w.cfg.WorldWidth
		b.Vel.X = -math.Abs(b.Vel.X) * 0.5
	}
	if b.Pos.Y < 0 {
		b.Pos.Y = 0
		b.Vel.Y = math.Abs(b.Vel.Y) * 0.5
	} else if b.Pos.Y > w.cfg.WorldHeight {
		b.Pos.Y = w.cfg.WorldHeight
		b.Vel.Y = -math.Abs(b.Vel.Y) * 0.5
	}
}

func (w *World) ageAttractors(dt float64) {
	kept := w.attractors[:0]
	for i := range w.attractors {
		if !w.attractors[i].age(dt) {
			kept = append(kept, w.attractors[i])
		}
	}
	w.attractors = kept
}

// ----------------------------------------------------------------------
// External entry points (control surface; call between ticks only)
// ----------------------------------------------------------------------

// Reset reinitializes agents, returns predators to idle without destroying
// them, respawns food and clears attractors. The process stays up.
func (w *World) Reset() {
	w.birds = w.birds[:0]
	for i := 0; i < w.cfg.NumBirds; i++ {
		w.birds = append(w.birds, w.spawnBird(i))
	}
	for _, p := range w.predators {
		p.reset(randomPoint(w.rng, w.cfg.WorldWidth, w.cfg.WorldHeight))
	}
	w.attractors = w.attractors[:0]
	if w.cfg.FoodEnabled {
		w.food.Init(w.cfg.NumFoodSources, w.cfg)
	} else {
		w.food.Clear()
	}
	w.tick = 0
}

func (w *World) spawnBird(index int) Bird {
	return Bird{
		Index:  index,
		Pos:    randomPoint(w.rng, w.cfg.WorldWidth, w.cfg.WorldHeight),
		Vel:    geometry.NewVectorPolar(w.rng.Float64()*w.cfg.MaxSpeed*0.1, w.rng.Float64()*2*math.Pi),
		Energy: w.cfg.BirdMaxEnergy,
	}
}

// Resize changes the simulation bounds. Existing birds are pulled back inside
// on the next tick by containment; nothing else is disturbed.
func (w *World) Resize(width, height float64) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("bounds must be positive, got %gx%g", width, height)
	}
	w.cfg.WorldWidth = width
	w.cfg.WorldHeight = height
	return nil
}

// SetBirdCount grows or shrinks the population. Growth spawns fresh birds;
// shrinking frees slots from the top. Existing birds keep their state.
func (w *World) SetBirdCount(n int) {
	if n < 0 {
		n = 0
	}
	w.cfg.NumBirds = n
	for len(w.birds) < n {
		w.birds = append(w.birds, w.spawnBird(len(w.birds)))
	}
	if len(w.birds) > n {
		w.birds = w.birds[:n]
	}
}

func (w *World) BirdCount() int {
	return len(w.birds)
}

func (w *World) SetPerceptionRadius(r float64) error {
	if r < 0 {
		return fmt.Errorf("perception radius must not be negative, got %g", r)
	}
	w.cfg.PerceptionRadius = r
	return nil
}

// AddAttractor places a transient point force. repulsor flips the sign.
func (w *World) AddAttractor(pos geometry.Vector2D, strength, radius, lifetime float64, repulsor bool) {
	if strength <= 0 || radius <= 0 || lifetime <= 0 {
		return
	}
	w.attractors = append(w.attractors, Attractor{
		Pos:       pos,
		Strength:  strength,
		Radius:    radius,
		Repulsor:  repulsor,
		Life:      lifetime,
		TotalLife: lifetime,
	})
}

// SetPredators replaces the whole roster with count predators of one kind at
// random positions. Predators are created and destroyed only in bulk.
func (w *World) SetPredators(kind PredatorKind, count int) {
	w.predators = w.predators[:0]
	if count <= 0 {
		w.cfg.PredatorsEnabled = false
		w.cfg.NumPredators = 0
		return
	}
	for i := 0; i < count; i++ {
		w.predators = append(w.predators,
			newPredator(kind, randomPoint(w.rng, w.cfg.WorldWidth, w.cfg.WorldHeight), w.rng))
	}
	w.cfg.PredatorsEnabled = true
	w.cfg.PredatorKind = kind.String()
	w.cfg.NumPredators = count
}

func (w *World) ClearPredators() {
	w.SetPredators(Hawk, 0)
}

// InitFood (re)creates the food-source population and enables foraging.
func (w *World) InitFood(n int) {
	if n < 0 {
		n = 0
	}
	w.cfg.FoodEnabled = n > 0
	w.cfg.NumFoodSources = n
	w.food.Init(n, w.cfg)
}

func (w *World) ClearFood() {
	w.cfg.FoodEnabled = false
	w.food.Clear()
}

// ----------------------------------------------------------------------
// Read-only views for presentation and telemetry
// ----------------------------------------------------------------------

// Birds returns the live slice; callers must treat it as read-only.
func (w *World) Birds() []Bird {
	return w.birds
}

// PredatorSnapshots builds fresh signatures for every predator.
func (w *World) PredatorSnapshots() []PredatorSnapshot {
	out := make([]PredatorSnapshot, 0, len(w.predators))
	for _, p := range w.predators {
		out = append(out, p.Snapshot())
	}
	return out
}

func (w *World) FoodSources() []FoodSourceState {
	return w.food.Sources()
}

func (w *World) Attractors() []Attractor {
	return w.attractors
}

// Centroid returns the flock's mean position, or the zero vector for an
// empty flock.
func (w *World) Centroid() geometry.Vector2D {
	var sum geometry.Vector2D
	if len(w.birds) == 0 {
		return sum
	}
	for i := range w.birds {
		sum = sum.Add(w.birds[i].Pos)
	}
	return sum.Mul(1 / float64(len(w.birds)))
}

// Config returns a copy of the active configuration.
func (w *World) Config() Config {
	return *w.cfg
}

// Tick reports how many ticks have been applied since the last Reset.
func (w *World) Tick() uint64 {
	return w.tick
}
