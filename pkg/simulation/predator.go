package simulation

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/lao-tseu-is-alive/go-murmuration/pkg/geometry"
)

// PredatorKind is a closed enumeration; every kind shares one state-machine
// topology and differs only in tuning constants and which sub-state it uses.
type PredatorKind uint8

const (
	Hawk PredatorKind = iota
	Falcon
	Eagle
	Owl
	Shark
	Orca
	Barracuda
	SeaLion
)

var kindNames = map[PredatorKind]string{
	Hawk:      "hawk",
	Falcon:    "falcon",
	Eagle:     "eagle",
	Owl:       "owl",
	Shark:     "shark",
	Orca:      "orca",
	Barracuda: "barracuda",
	SeaLion:   "sea_lion",
}

func (k PredatorKind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("PredatorKind(%d)", k)
}

// ParsePredatorKind maps a config string to its kind.
func ParsePredatorKind(s string) (PredatorKind, error) {
	for k, n := range kindNames {
		if n == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown predator kind %q", s)
}

// PredatorState is the discrete behavior state of a controller.
type PredatorState uint8

const (
	StateIdle PredatorState = iota
	StateHunting
	StateCircling // shark approach orbit
	StateAttacking
	StateDiving // falcon altitude strike
)

func (s PredatorState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateHunting:
		return "hunting"
	case StateCircling:
		return "circling"
	case StateAttacking:
		return "attacking"
	case StateDiving:
		return "diving"
	}
	return fmt.Sprintf("PredatorState(%d)", s)
}

// predatorTuning carries the per-kind constants. Keeping behavior in one
// table (instead of a type hierarchy) keeps the state machine exhaustively
// checkable and dispatch-free.
type predatorTuning struct {
	detectionRadius float64
	strikeRange     float64
	panicRadius     float64 // base; effective radius depends on state
	cruiseSpeed     float64
	burstMultiplier float64
	attackDuration  float64 // seconds before a strike resolves

	maxEnergy      float64
	burstThreshold float64 // minimum energy to launch a strike
	minEnergy      float64 // below this mid-hunt, forced cooldown to idle
	drainHunting   float64 // energy per second
	drainStrike    float64
	recoverIdle    float64

	strikeBoost float64 // effective-radius multiplier while striking
	stealth     bool    // owl: reduced radius while not actively attacking
	climbs      bool    // falcon: builds altitude, strikes by diving
	circles     bool    // shark: orbits before committing
}

var predatorTunings = map[PredatorKind]predatorTuning{
	Hawk: {
		detectionRadius: 260, strikeRange: 60, panicRadius: 120,
		cruiseSpeed: 200, burstMultiplier: 2.2, attackDuration: 1.2,
		maxEnergy: 100, burstThreshold: 30, minEnergy: 10,
		drainHunting: 4, drainStrike: 25, recoverIdle: 12,
		strikeBoost: 1.2,
	},
	Falcon: {
		detectionRadius: 320, strikeRange: 90, panicRadius: 110,
		cruiseSpeed: 190, burstMultiplier: 3.0, attackDuration: 1.0,
		maxEnergy: 100, burstThreshold: 35, minEnergy: 12,
		drainHunting: 5, drainStrike: 30, recoverIdle: 12,
		strikeBoost: 1.4, climbs: true,
	},
	Eagle: {
		detectionRadius: 380, strikeRange: 110, panicRadius: 150,
		cruiseSpeed: 160, burstMultiplier: 1.8, attackDuration: 1.6,
		maxEnergy: 120, burstThreshold: 30, minEnergy: 10,
		drainHunting: 4, drainStrike: 22, recoverIdle: 10,
		strikeBoost: 1.6,
	},
	Owl: {
		detectionRadius: 240, strikeRange: 55, panicRadius: 110,
		cruiseSpeed: 170, burstMultiplier: 2.0, attackDuration: 1.1,
		maxEnergy: 100, burstThreshold: 28, minEnergy: 10,
		drainHunting: 3.5, drainStrike: 24, recoverIdle: 12,
		strikeBoost: 1.2, stealth: true,
	},
	Shark: {
		detectionRadius: 300, strikeRange: 70, panicRadius: 130,
		cruiseSpeed: 150, burstMultiplier: 2.0, attackDuration: 1.4,
		maxEnergy: 110, burstThreshold: 30, minEnergy: 10,
		drainHunting: 3.5, drainStrike: 20, recoverIdle: 10,
		strikeBoost: 1.3, circles: true,
	},
	Orca: {
		detectionRadius: 340, strikeRange: 90, panicRadius: 170,
		cruiseSpeed: 140, burstMultiplier: 1.7, attackDuration: 1.8,
		maxEnergy: 140, burstThreshold: 32, minEnergy: 12,
		drainHunting: 4, drainStrike: 20, recoverIdle: 10,
		strikeBoost: 1.3,
	},
	Barracuda: {
		detectionRadius: 260, strikeRange: 60, panicRadius: 100,
		cruiseSpeed: 180, burstMultiplier: 2.8, attackDuration: 0.9,
		maxEnergy: 90, burstThreshold: 28, minEnergy: 8,
		drainHunting: 4.5, drainStrike: 28, recoverIdle: 12,
		strikeBoost: 1.2,
	},
	SeaLion: {
		detectionRadius: 220, strikeRange: 55, panicRadius: 80,
		cruiseSpeed: 150, burstMultiplier: 1.8, attackDuration: 1.2,
		maxEnergy: 100, burstThreshold: 26, minEnergy: 8,
		drainHunting: 3.5, drainStrike: 18, recoverIdle: 12,
		strikeBoost: 1.1,
	},
}

const (
	stealthFactor = 0.45 // owl effective-radius reduction outside strikes
	idleFactor    = 0.5  // a loitering predator is half as frightening

	climbRate    = 0.4 // falcon altitude gain per second while hunting
	diveRate     = 1.5 // falcon altitude loss per second while diving
	diveAltitude = 0.7 // minimum altitude to commit to a dive

	huntTurnRate   = 3.0 // pursuit steering responsiveness, 1/s
	strikeTurnRate = 6.0
	idleDamping    = 0.8 // velocity retained per second while idle

	circleMinTime = 1.0 // seconds a shark orbits before it may commit
	circleSpeed   = 0.8 // fraction of cruise speed while orbiting
)

// FlockView is the read-only flock state handed to predator controllers each
// tick. Predators never mutate birds; they only publish threat signatures.
type FlockView struct {
	Positions  []geometry.Vector2D
	Velocities []geometry.Vector2D
	Centroid   geometry.Vector2D
	Count      int
}

// PredatorSnapshot is the published, read-only controller state consumed by
// the flock's panic pass (same tick, after every controller stepped) and by
// presentation.
type PredatorSnapshot struct {
	Kind            PredatorKind
	State           PredatorState
	Pos             geometry.Vector2D
	Vel             geometry.Vector2D
	Energy          float64
	MaxEnergy       float64
	EffectiveRadius float64
	Altitude        float64 // falcon only; drives visual alpha upstream
	Target          geometry.Vector2D
	HasTarget       bool
}

// Predator is one hunting controller. Owned exclusively by the world's
// predator pass; everything else sees only Snapshot values.
type Predator struct {
	kind PredatorKind
	pos  geometry.Vector2D
	vel  geometry.Vector2D

	state     PredatorState
	stateTime float64
	energy    float64
	altitude  float64 // [0,1], falcon
	orbitDir  float64 // +1/-1, shark circling winding

	target    geometry.Vector2D
	hasTarget bool
}

func newPredator(kind PredatorKind, pos geometry.Vector2D, rng *rand.Rand) *Predator {
	tun := predatorTunings[kind]
	dir := 1.0
	if rng.Float64() < 0.5 {
		dir = -1.0
	}
	return &Predator{
		kind:     kind,
		pos:      pos,
		state:    StateIdle,
		energy:   tun.maxEnergy,
		orbitDir: dir,
	}
}

// reset returns the controller to its initial idle state at pos without
// destroying it.
func (p *Predator) reset(pos geometry.Vector2D) {
	tun := predatorTunings[p.kind]
	p.pos = pos
	p.vel = geometry.Vector2D{}
	p.state = StateIdle
	p.stateTime = 0
	p.energy = tun.maxEnergy
	p.altitude = 0
	p.hasTarget = false
}

func (p *Predator) setState(s PredatorState) {
	p.state = s
	p.stateTime = 0
}

// step advances the state machine by dt. It never errors: an empty flock
// resolves to idle and the predator holds position.
func (p *Predator) step(view *FlockView, dt float64) {
	tun := predatorTunings[p.kind]
	p.stateTime += dt

	if view.Count == 0 {
		if p.state != StateIdle {
			p.setState(StateIdle)
		}
		p.hasTarget = false
		p.idleDrift(tun, dt)
		p.pos = p.pos.Add(p.vel.Mul(dt))
		return
	}

	p.target, p.hasTarget = p.selectTarget(view, tun)
	dist := p.pos.DistanceTo(p.target)

	switch p.state {
	case StateIdle:
		p.idleDrift(tun, dt)
		if dist < tun.detectionRadius && p.energy > tun.minEnergy {
			p.setState(StateHunting)
		}

	case StateHunting:
		p.energy -= tun.drainHunting * dt
		if p.energy <= tun.minEnergy {
			p.setState(StateIdle)
			break
		}
		if tun.climbs {
			p.altitude = math.Min(1, p.altitude+climbRate*dt)
		}
		p.pursue(p.target, tun.cruiseSpeed, huntTurnRate, dt)

		switch {
		case tun.climbs:
			if p.altitude >= diveAltitude && p.energy >= tun.burstThreshold && dist < tun.strikeRange*2 {
				p.setState(StateDiving)
			}
		case tun.circles:
			if dist < tun.strikeRange*2.5 {
				p.setState(StateCircling)
			}
		default:
			if dist < tun.strikeRange && p.energy >= tun.burstThreshold {
				p.setState(StateAttacking)
			}
		}
		if dist > tun.detectionRadius*1.5 {
			p.setState(StateIdle)
		}

	case StateCircling:
		p.energy -= tun.drainHunting * dt
		if p.energy <= tun.minEnergy {
			p.setState(StateIdle)
			break
		}
		p.orbit(p.target, tun, dt)
		if dist < tun.strikeRange && p.energy >= tun.burstThreshold && p.stateTime >= circleMinTime {
			p.setState(StateAttacking)
		} else if dist > tun.detectionRadius {
			p.setState(StateHunting)
		}

	case StateAttacking:
		p.energy -= tun.drainStrike * dt
		p.pursue(p.target, tun.cruiseSpeed*tun.burstMultiplier, strikeTurnRate, dt)
		if p.stateTime >= tun.attackDuration || p.energy <= tun.minEnergy {
			// Strike resolves regardless of success.
			p.setState(StateIdle)
		}

	case StateDiving:
		p.energy -= tun.drainStrike * dt
		speed := tun.cruiseSpeed * tun.burstMultiplier * (0.6 + 0.4*p.altitude)
		p.altitude = math.Max(0, p.altitude-diveRate*dt)
		p.pursue(p.target, speed, strikeTurnRate, dt)
		if p.stateTime >= tun.attackDuration || p.altitude <= 0 || p.energy <= tun.minEnergy {
			p.setState(StateIdle)
		}
	}

	p.energy = clamp(p.energy, 0, tun.maxEnergy)
	p.pos = p.pos.Add(p.vel.Mul(dt))
}

// selectTarget picks the nearest bird inside the detection radius, falling
// back to the flock centroid. The bool reports whether a concrete bird (as
// opposed to the centroid) is targeted.
func (p *Predator) selectTarget(view *FlockView, tun predatorTuning) (geometry.Vector2D, bool) {
	bestSq := math.MaxFloat64
	bestIdx := -1
	for i := range view.Positions {
		dsq := p.pos.DistanceSquaredTo(view.Positions[i])
		if dsq < bestSq {
			bestSq = dsq
			bestIdx = i
		}
	}
	if bestIdx >= 0 && bestSq < tun.detectionRadius*tun.detectionRadius {
		return view.Positions[bestIdx], true
	}
	return view.Centroid, false
}

// pursue steers toward target at the given speed with bounded turn responsiveness.
func (p *Predator) pursue(target geometry.Vector2D, speed, turnRate, dt float64) {
	desired := target.Sub(p.pos).Normalize().Mul(speed)
	p.vel = p.vel.Lerp(desired, math.Min(1, turnRate*dt))
}

// orbit keeps a circling predator on a tangential path around its target,
// with a slow inward drift so the orbit tightens toward strike range.
func (p *Predator) orbit(target geometry.Vector2D, tun predatorTuning, dt float64) {
	toTarget := target.Sub(p.pos)
	inward := toTarget.Normalize()
	tangent := geometry.Vector2D{X: -inward.Y * p.orbitDir, Y: inward.X * p.orbitDir}
	desired := tangent.Mul(tun.cruiseSpeed * circleSpeed).Add(inward.Mul(tun.cruiseSpeed * 0.25))
	p.vel = p.vel.Lerp(desired, math.Min(1, huntTurnRate*dt))
}

// idleDrift recovers energy and bleeds off speed. Integration happens in step.
func (p *Predator) idleDrift(tun predatorTuning, dt float64) {
	p.energy = clamp(p.energy+tun.recoverIdle*dt, 0, tun.maxEnergy)
	p.vel = p.vel.Mul(math.Pow(idleDamping, dt))
}

// effectiveRadius derives the threat signature radius from the base panic
// radius and the current state: loitering is less frightening, strikes more,
// owl stealth suppresses the signature outside strikes and falcon altitude
// shrinks it while climbing.
func (p *Predator) effectiveRadius() float64 {
	tun := predatorTunings[p.kind]
	r := tun.panicRadius
	striking := p.state == StateAttacking || p.state == StateDiving

	switch p.state {
	case StateIdle:
		r *= idleFactor
	case StateHunting, StateCircling:
		if tun.climbs {
			r *= 1 - 0.4*p.altitude
		}
	case StateAttacking, StateDiving:
		r *= tun.strikeBoost
	}
	if tun.stealth && !striking {
		r *= stealthFactor
	}
	return r
}

// Snapshot publishes the read-only controller state.
func (p *Predator) Snapshot() PredatorSnapshot {
	tun := predatorTunings[p.kind]
	return PredatorSnapshot{
		Kind:            p.kind,
		State:           p.state,
		Pos:             p.pos,
		Vel:             p.vel,
		Energy:          p.energy,
		MaxEnergy:       tun.maxEnergy,
		EffectiveRadius: p.effectiveRadius(),
		Altitude:        p.altitude,
		Target:          p.target,
		HasTarget:       p.hasTarget,
	}
}
