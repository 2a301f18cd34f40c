// Package main is the production entry point for the AuraPlay music player.
//
// AuraPlay is a desktop audio player built around an audio signal graph:
// - Event-driven communication (no callbacks)
// - Dependency injection for testability
// - MVP pattern for UI decoupling
// - Fixed DSP graph: equalizer bands, effects, analyser
//
// Build:
//
//	go build -o build/auraplay ./cmd
//
// Run:
//
//	./build/auraplay
package main

import (
	"fmt"
	"log"

	"github.com/auraplay/auraplay/internal/app"
)

func main() {
	cfg := app.DefaultConfig()

	application, err := app.NewApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Ensure a graceful shutdown
	defer func() {
		fmt.Println("\nShutting down...")
		application.Shutdown()
		fmt.Println("Shutdown complete")
	}()

	// Run application (blocks until the window is closed)
	application.Run()
}
