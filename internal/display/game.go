package display

import (
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/lao-tseu-is-alive/go-murmuration/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-murmuration/pkg/simulation"
	"github.com/lao-tseu-is-alive/go-murmuration/pkg/telemetry"
)

// Fixed simulation step; ebiten drives Update at 60 TPS.
const tickDt = 1.0 / 60.0

// Attractor placement defaults for mouse clicks.
const (
	clickStrength = 600.0
	clickRadius   = 250.0
	clickLifetime = 5.0
)

var whiteImage = ebiten.NewImage(3, 3)

func init() {
	whiteImage.Fill(color.White)
}

// Game renders a murmuration world and forwards user input to it.
type Game struct {
	world    *simulation.World
	recorder *telemetry.Recorder

	paused  bool
	simTime float64
	stats   telemetry.FrameStats

	// Timing instrumentation
	lastUpdateDuration time.Duration
	lastDrawDuration   time.Duration
	updateAvg          float64 // Rolling average in ms
	drawAvg            float64 // Rolling average in ms
}

// NewGame wraps an initialized world. recorder may be nil (recording off).
func NewGame(world *simulation.World, recorder *telemetry.Recorder) *Game {
	return &Game{world: world, recorder: recorder}
}

func (g *Game) Update() error {
	start := time.Now()
	defer func() {
		g.lastUpdateDuration = time.Since(start)
		g.updateAvg = g.updateAvg*0.95 + float64(g.lastUpdateDuration.Microseconds())/1000.0*0.05
	}()

	g.handleInput()

	if !g.paused {
		g.world.Step(tickDt)
		g.simTime += tickDt

		// Sample once per second of simulated time.
		if g.world.Tick()%60 == 0 {
			g.stats = telemetry.Collect(g.world, g.simTime)
			if err := g.recorder.Write(g.stats); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *Game) handleInput() {
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		mx, my := ebiten.CursorPosition()
		pos := geometry.Vector2D{X: float64(mx), Y: float64(my)}
		repulsor := ebiten.IsKeyPressed(ebiten.KeyShift)
		g.world.AddAttractor(pos, clickStrength, clickRadius, clickLifetime, repulsor)
	}

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		g.paused = !g.paused
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		g.world.Reset()
		g.simTime = 0
	case inpututil.IsKeyJustPressed(ebiten.KeyF):
		cfg := g.world.Config()
		if cfg.FoodEnabled {
			g.world.ClearFood()
		} else {
			g.world.InitFood(cfg.NumFoodSources)
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyP):
		cfg := g.world.Config()
		if cfg.PredatorsEnabled {
			g.world.ClearPredators()
		} else {
			kind, err := simulation.ParsePredatorKind(cfg.PredatorKind)
			if err != nil {
				kind = simulation.Hawk
			}
			count := cfg.NumPredators
			if count < 1 {
				count = 1
			}
			g.world.SetPredators(kind, count)
		}
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	start := time.Now()
	defer func() {
		g.lastDrawDuration = time.Since(start)
		g.drawAvg = g.drawAvg*0.95 + float64(g.lastDrawDuration.Microseconds())/1000.0*0.05
	}()

	screen.Fill(color.RGBA{R: 10, G: 10, B: 30, A: 255})

	for _, a := range g.world.Attractors() {
		drawAttractor(screen, a)
	}
	for _, f := range g.world.FoodSources() {
		drawFoodSource(screen, f)
	}
	for i := range g.world.Birds() {
		drawBird(screen, &g.world.Birds()[i])
	}
	for _, p := range g.world.PredatorSnapshots() {
		drawPredator(screen, p)
	}

	g.drawHUD(screen)
}

// drawBird renders one bird as a heading-aligned triangle, tinted from calm
// blue toward red as panic rises.
func drawBird(screen *ebiten.Image, b *simulation.Bird) {
	angle := math.Atan2(b.Vel.Y, b.Vel.X)

	tipX := b.Pos.X + math.Cos(angle)*6
	tipY := b.Pos.Y + math.Sin(angle)*6
	rightX := b.Pos.X + math.Cos(angle+2.5)*5
	rightY := b.Pos.Y + math.Sin(angle+2.5)*5
	leftX := b.Pos.X + math.Cos(angle-2.5)*5
	leftY := b.Pos.Y + math.Sin(angle-2.5)*5

	p := float32(b.Panic)
	r := 0.4 + 0.6*p
	gc := 0.8 * (1 - p)
	bc := 1 - 0.8*p

	vertices := []ebiten.Vertex{
		{
			DstX: float32(tipX),
			DstY: float32(tipY),
			SrcX: 1, SrcY: 1,
			ColorR: r, ColorG: gc, ColorB: bc, ColorA: 1,
		},
		{
			DstX: float32(rightX),
			DstY: float32(rightY),
			SrcX: 1, SrcY: 1,
			ColorR: r, ColorG: gc, ColorB: bc, ColorA: 1,
		},
		{
			DstX: float32(leftX),
			DstY: float32(leftY),
			SrcX: 1, SrcY: 1,
			ColorR: r, ColorG: gc, ColorB: bc, ColorA: 1,
		},
	}
	indices := []uint16{0, 1, 2}
	op := &ebiten.DrawTrianglesOptions{}
	screen.DrawTriangles(vertices, indices, whiteImage, op)
}

func drawPredator(screen *ebiten.Image, p simulation.PredatorSnapshot) {
	x, y := float32(p.Pos.X), float32(p.Pos.Y)

	// Threat signature ring; brighter while striking.
	ringAlpha := uint8(40)
	if p.State == simulation.StateAttacking || p.State == simulation.StateDiving {
		ringAlpha = 110
	}
	vector.StrokeCircle(screen, x, y, float32(p.EffectiveRadius), 1,
		color.RGBA{R: 255, G: 60, B: 60, A: ringAlpha}, true)

	// Body; falcons fade with altitude so a climbing bird reads as far away.
	bodyAlpha := uint8(255)
	if p.Altitude > 0 {
		bodyAlpha = uint8(255 * (1 - 0.6*p.Altitude))
	}
	vector.FillCircle(screen, x, y, 7, color.RGBA{R: 255, G: 80, B: 40, A: bodyAlpha}, true)

	// Energy bar above the body.
	frac := float32(p.Energy / p.MaxEnergy)
	vector.FillRect(screen, x-10, y-14, 20*frac, 3, color.RGBA{R: 255, G: 200, B: 0, A: 200}, true)
}

func drawFoodSource(screen *ebiten.Image, f simulation.FoodSourceState) {
	x, y := float32(f.Pos.X), float32(f.Pos.Y)
	frac := f.Amount / f.MaxAmount

	// Dot shrinks as the source is eaten down.
	radius := float32(3 + 5*frac)
	vector.FillCircle(screen, x, y, radius, color.RGBA{R: 80, G: 220, B: 80, A: 230}, true)
	vector.StrokeCircle(screen, x, y, float32(f.Radius), 1,
		color.RGBA{R: 80, G: 220, B: 80, A: 30}, true)
}

func drawAttractor(screen *ebiten.Image, a simulation.Attractor) {
	x, y := float32(a.Pos.X), float32(a.Pos.Y)
	// Fade out over the remaining lifetime.
	alpha := uint8(120 * a.Life / a.TotalLife)
	clr := color.RGBA{R: 80, G: 160, B: 255, A: alpha}
	if a.Repulsor {
		clr = color.RGBA{R: 255, G: 160, B: 80, A: alpha}
	}
	vector.StrokeCircle(screen, x, y, float32(a.Radius), 1, clr, true)
	vector.FillCircle(screen, x, y, 4, clr, true)
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	cfg := g.world.Config()
	state := "running"
	if g.paused {
		state = "paused"
	}
	msg := fmt.Sprintf(
		"birds: %d  predators: %d  [%s]\n"+
			"polarization: %.2f  panic: %.2f  energy: %.1f\n"+
			"click: attract  shift+click: repel\n"+
			"space: pause  r: reset  p: predators  f: food",
		g.world.BirdCount(), cfg.NumPredators, state,
		g.stats.Polarization, g.stats.PanicMean, g.stats.EnergyMean)
	ebitenutil.DebugPrintAt(screen, msg, 10, 10)

	perf := fmt.Sprintf("FPS: %.2f\nTPS: %.2f\n\nUpdate: %.2fms\nDraw:   %.2fms",
		ebiten.ActualFPS(), ebiten.ActualTPS(), g.updateAvg, g.drawAvg)
	ebitenutil.DebugPrintAt(screen, perf, int(cfg.WorldWidth)-120, 10)
}

func (g *Game) Layout(w, h int) (int, int) {
	cfg := g.world.Config()
	return int(cfg.WorldWidth), int(cfg.WorldHeight)
}
