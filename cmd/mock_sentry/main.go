package main

import (
	"log"

	"github.com/relabs-tech/gesture_sentry/internal/app"
)

func main() {
	log.Println("starting gesture-sentry mock session (no hardware)")

	if err := app.RunMockSentry(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
