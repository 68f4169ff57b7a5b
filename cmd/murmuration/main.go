package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/lao-tseu-is-alive/go-murmuration/internal/display"
	"github.com/lao-tseu-is-alive/go-murmuration/pkg/simulation"
	"github.com/lao-tseu-is-alive/go-murmuration/pkg/telemetry"
)

func main() {
	configFile := flag.String("config", "", "path to a JSON config file (defaults apply when empty)")
	schemaFile := flag.String("schema", "configs/config.schema.json", "path to the config JSON schema")
	recordDir := flag.String("record", "", "directory for CSV telemetry output (disabled when empty)")
	flag.Parse()

	cfg := simulation.DefaultConfig()
	if *configFile != "" {
		loaded, err := simulation.LoadConfig(*configFile, *schemaFile)
		if err != nil {
			log.Fatalf("loading config: %v", err)
		}
		cfg = loaded
	}

	world, err := simulation.NewWorld(cfg)
	if err != nil {
		log.Fatalf("creating world: %v", err)
	}

	recorder, err := telemetry.NewRecorder(*recordDir)
	if err != nil {
		log.Fatalf("creating recorder: %v", err)
	}
	defer recorder.Close()

	ebiten.SetWindowSize(int(cfg.WorldWidth), int(cfg.WorldHeight))
	ebiten.SetWindowTitle("Murmuration")

	if err := ebiten.RunGame(display.NewGame(world, recorder)); err != nil {
		log.Fatal(err)
	}
}
