package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/gesture_sentry/internal/app"
	"github.com/relabs-tech/gesture_sentry/internal/config"
)

func main() {
	configPath := flag.String("config", "./sentry_config.txt", "path to configuration file")
	flag.Parse()

	log.Println("starting gesture-sentry serial console (MQTT → UART)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunSerialConsole(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
