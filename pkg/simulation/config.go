package simulation

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Config bundles the world, flock behavior and environment parameters.
// The core never mutates it during a tick; external control surfaces adjust
// it between ticks through the World's entry points.
type Config struct {
	// World Dimensions
	WorldWidth  float64 `json:"worldWidth"`
	WorldHeight float64 `json:"worldHeight"`

	// Population
	NumBirds int `json:"numBirds"`

	// Interaction Radii
	PerceptionRadius float64 `json:"perceptionRadius"`
	SeparationRadius float64 `json:"separationRadius"`
	BoundaryMargin   float64 `json:"boundaryMargin"`

	// Physics
	MaxSpeed float64 `json:"maxSpeed"` // units per second
	MaxForce float64 `json:"maxForce"` // acceleration cap, units per second^2

	// Steering Weights
	SeparationWeight float64 `json:"separationWeight"`
	AlignmentWeight  float64 `json:"alignmentWeight"`
	CohesionWeight   float64 `json:"cohesionWeight"`
	BoundaryWeight   float64 `json:"boundaryWeight"`
	FleeWeight       float64 `json:"fleeWeight"`

	// Panic
	PanicDecayRate float64 `json:"panicDecayRate"` // exponential decay constant, 1/s

	// Bird Energy
	BirdMaxEnergy   float64 `json:"birdMaxEnergy"`
	BirdEnergyDrain float64 `json:"birdEnergyDrain"` // drain per second at max speed
	FeedEfficiency  float64 `json:"feedEfficiency"`  // energy gained per food unit consumed

	// Wind
	WindDirection  float64 `json:"windDirection"` // radians
	WindSpeed      float64 `json:"windSpeed"`     // magnitude of the uniform force
	WindTurbulence float64 `json:"windTurbulence"`

	// Predators
	PredatorsEnabled bool   `json:"predatorsEnabled"`
	PredatorKind     string `json:"predatorKind"`
	NumPredators     int    `json:"numPredators"`

	// Food
	FoodEnabled            bool    `json:"foodEnabled"`
	NumFoodSources         int     `json:"numFoodSources"`
	FoodAttractionRadius   float64 `json:"foodAttractionRadius"`
	FoodAttractionStrength float64 `json:"foodAttractionStrength"`
	FoodMaxAmount          float64 `json:"foodMaxAmount"`
	FoodConsumptionRate    float64 `json:"foodConsumptionRate"` // units withdrawn per feeder per second
	FoodRespawn            bool    `json:"foodRespawn"`
}

func DefaultConfig() *Config {
	return &Config{
		WorldWidth:  1000,
		WorldHeight: 800,

		NumBirds: 300,

		PerceptionRadius: 70,
		SeparationRadius: 20,
		BoundaryMargin:   100,

		MaxSpeed: 240,
		MaxForce: 480,

		SeparationWeight: 1.5,
		AlignmentWeight:  1.0,
		CohesionWeight:   0.8,
		BoundaryWeight:   2.0,
		FleeWeight:       2.5,

		PanicDecayRate: 1.2,

		BirdMaxEnergy:   100,
		BirdEnergyDrain: 2.0,
		FeedEfficiency:  10,

		WindDirection:  0,
		WindSpeed:      0,
		WindTurbulence: 0,

		PredatorsEnabled: false,
		PredatorKind:     "hawk",
		NumPredators:     1,

		FoodEnabled:            false,
		NumFoodSources:         3,
		FoodAttractionRadius:   150,
		FoodAttractionStrength: 1.0,
		FoodMaxAmount:          10,
		FoodConsumptionRate:    0.5,
		FoodRespawn:            true,
	}
}

// Validate rejects malformed configuration at the boundary, so the stepper
// itself never has to guard against negative radii or speeds.
func (c *Config) Validate() error {
	if c.WorldWidth <= 0 || c.WorldHeight <= 0 {
		return fmt.Errorf("world dimensions must be positive, got %gx%g", c.WorldWidth, c.WorldHeight)
	}
	if c.NumBirds < 0 {
		return fmt.Errorf("numBirds must not be negative, got %d", c.NumBirds)
	}
	if c.PerceptionRadius < 0 || c.SeparationRadius < 0 || c.BoundaryMargin < 0 {
		return fmt.Errorf("radii must not be negative")
	}
	if c.MaxSpeed <= 0 {
		return fmt.Errorf("maxSpeed must be positive, got %g", c.MaxSpeed)
	}
	if c.MaxForce <= 0 {
		return fmt.Errorf("maxForce must be positive, got %g", c.MaxForce)
	}
	if c.SeparationWeight < 0 || c.AlignmentWeight < 0 || c.CohesionWeight < 0 ||
		c.BoundaryWeight < 0 || c.FleeWeight < 0 {
		return fmt.Errorf("steering weights must not be negative")
	}
	if c.PanicDecayRate < 0 {
		return fmt.Errorf("panicDecayRate must not be negative, got %g", c.PanicDecayRate)
	}
	if c.BirdMaxEnergy < 0 || c.BirdEnergyDrain < 0 || c.FeedEfficiency < 0 {
		return fmt.Errorf("energy parameters must not be negative")
	}
	if c.WindSpeed < 0 || c.WindTurbulence < 0 {
		return fmt.Errorf("wind speed and turbulence must not be negative")
	}
	if c.NumPredators < 0 {
		return fmt.Errorf("numPredators must not be negative, got %d", c.NumPredators)
	}
	if c.PredatorsEnabled {
		if _, err := ParsePredatorKind(c.PredatorKind); err != nil {
			return err
		}
	}
	if c.NumFoodSources < 0 {
		return fmt.Errorf("numFoodSources must not be negative, got %d", c.NumFoodSources)
	}
	if c.FoodAttractionRadius < 0 || c.FoodAttractionStrength < 0 ||
		c.FoodMaxAmount < 0 || c.FoodConsumptionRate < 0 {
		return fmt.Errorf("food parameters must not be negative")
	}
	return nil
}

// LoadConfig loads configuration from a JSON file and validates it against the schema.
func LoadConfig(configFile string, schemaFile string) (*Config, error) {
	// 1. Compile Schema
	sch, err := jsonschema.Compile(schemaFile)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	// 2. Read Config File
	b, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// 3. Validate against the schema
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("failed to decode config json: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// 4. Unmarshal into the struct and run the semantic checks the schema
	// cannot express (cross-field constraints, known predator kinds).
	cfg := DefaultConfig()
	if err := json.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}
