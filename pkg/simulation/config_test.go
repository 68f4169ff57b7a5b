package simulation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v; want nil", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"zero world width", func(c *Config) { c.WorldWidth = 0 }, "world dimensions"},
		{"negative bird count", func(c *Config) { c.NumBirds = -5 }, "numBirds"},
		{"negative perception radius", func(c *Config) { c.PerceptionRadius = -1 }, "radii"},
		{"zero max speed", func(c *Config) { c.MaxSpeed = 0 }, "maxSpeed"},
		{"zero max force", func(c *Config) { c.MaxForce = 0 }, "maxForce"},
		{"negative weight", func(c *Config) { c.CohesionWeight = -0.5 }, "weights"},
		{"negative panic decay", func(c *Config) { c.PanicDecayRate = -1 }, "panicDecayRate"},
		{"negative energy drain", func(c *Config) { c.BirdEnergyDrain = -1 }, "energy"},
		{"negative wind speed", func(c *Config) { c.WindSpeed = -1 }, "wind"},
		{"negative predator count", func(c *Config) { c.NumPredators = -1 }, "numPredators"},
		{
			"unknown predator kind",
			func(c *Config) { c.PredatorsEnabled = true; c.PredatorKind = "dragon" },
			"unknown predator kind",
		},
		{"negative food sources", func(c *Config) { c.NumFoodSources = -1 }, "numFoodSources"},
		{"negative food amount", func(c *Config) { c.FoodMaxAmount = -1 }, "food"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil; want an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %q; want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfigValidate_UnknownKindIgnoredWhenDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PredatorsEnabled = false
	cfg.PredatorKind = "dragon"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v; the kind only matters when predators are enabled", err)
	}
}

const testSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "worldWidth":  {"type": "number", "exclusiveMinimum": 0},
    "worldHeight": {"type": "number", "exclusiveMinimum": 0},
    "numBirds":    {"type": "integer", "minimum": 0},
    "maxSpeed":    {"type": "number", "exclusiveMinimum": 0},
    "predatorKind": {"type": "string"}
  },
  "additionalProperties": true
}`

func writeConfigFixture(t *testing.T, schema, config string) (configFile, schemaFile string) {
	t.Helper()
	dir := t.TempDir()
	schemaFile = filepath.Join(dir, "config.schema.json")
	configFile = filepath.Join(dir, "config.json")
	if err := os.WriteFile(schemaFile, []byte(schema), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(configFile, []byte(config), 0o644); err != nil {
		t.Fatal(err)
	}
	return configFile, schemaFile
}

func TestLoadConfig(t *testing.T) {
	t.Run("Valid file overrides defaults", func(t *testing.T) {
		configFile, schemaFile := writeConfigFixture(t, testSchema,
			`{"numBirds": 42, "maxSpeed": 300, "predatorsEnabled": true, "predatorKind": "falcon"}`)

		cfg, err := LoadConfig(configFile, schemaFile)
		if err != nil {
			t.Fatalf("LoadConfig: %v", err)
		}
		if cfg.NumBirds != 42 {
			t.Errorf("numBirds = %d; want 42", cfg.NumBirds)
		}
		if cfg.MaxSpeed != 300 {
			t.Errorf("maxSpeed = %v; want 300", cfg.MaxSpeed)
		}
		if cfg.PredatorKind != "falcon" {
			t.Errorf("predatorKind = %q; want falcon", cfg.PredatorKind)
		}
		// Untouched fields keep their defaults.
		if cfg.WorldWidth != 1000 {
			t.Errorf("worldWidth = %v; want the default 1000", cfg.WorldWidth)
		}
	})

	t.Run("Schema violation rejected", func(t *testing.T) {
		configFile, schemaFile := writeConfigFixture(t, testSchema, `{"numBirds": -3}`)
		if _, err := LoadConfig(configFile, schemaFile); err == nil {
			t.Error("expected a schema validation error")
		}
	})

	t.Run("Semantic violation rejected", func(t *testing.T) {
		// The schema alone cannot know the predator kinds; Validate catches it.
		configFile, schemaFile := writeConfigFixture(t, testSchema,
			`{"predatorsEnabled": true, "predatorKind": "dragon"}`)
		if _, err := LoadConfig(configFile, schemaFile); err == nil {
			t.Error("expected a semantic validation error")
		}
	})

	t.Run("Malformed json rejected", func(t *testing.T) {
		configFile, schemaFile := writeConfigFixture(t, testSchema, `{"numBirds": `)
		if _, err := LoadConfig(configFile, schemaFile); err == nil {
			t.Error("expected a decode error")
		}
	})

	t.Run("Missing config file", func(t *testing.T) {
		_, schemaFile := writeConfigFixture(t, testSchema, `{}`)
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"), schemaFile); err == nil {
			t.Error("expected a read error")
		}
	})
}
