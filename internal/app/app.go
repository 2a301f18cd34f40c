// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"fmt"
	"log/slog"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"

	"github.com/auraplay/auraplay/internal/adapter/annotator"
	"github.com/auraplay/auraplay/internal/adapter/audio/beep"
	"github.com/auraplay/auraplay/internal/adapter/audio/mock"
	"github.com/auraplay/auraplay/internal/adapter/auth"
	"github.com/auraplay/auraplay/internal/adapter/eventbus"
	"github.com/auraplay/auraplay/internal/adapter/ingest"
	fyneui "github.com/auraplay/auraplay/internal/adapter/ui/fyne"
	"github.com/auraplay/auraplay/internal/config"
	"github.com/auraplay/auraplay/internal/domain"
	"github.com/auraplay/auraplay/internal/graph"
	"github.com/auraplay/auraplay/internal/logger"
	"github.com/auraplay/auraplay/internal/ports"
	"github.com/auraplay/auraplay/internal/service"
)

// Application is the root application structure that holds all dependencies.
// It follows the Dependency Injection pattern with constructor-based injection.
//
// The Application struct is responsible for:
// - Creating and wiring all dependencies
// - Managing the application lifecycle (startup, shutdown)
// - Providing a clean entry point for main.go
type Application struct {
	// Core dependencies
	logger  *slog.Logger
	fyneApp fyne.App

	// Infrastructure
	eventBus    ports.EventBus
	audioEngine ports.AudioEngine
	graph       *graph.Builder

	// Boundary adapters
	ingestor  ports.TrackIngestor
	annotator ports.VibeAnnotator
	auth      ports.AuthGateway

	// Services
	transportService *service.TransportService
	playlistService  *service.PlaylistService
	equalizerService *service.EqualizerService
	vibeService      *service.VibeService

	// UI
	presenter  *fyneui.Presenter
	mainWindow *fyneui.MainWindow
}

// Config holds application configuration.
type Config struct {
	// AppID is the unique application identifier
	AppID string

	// Runtime holds the environment-derived settings
	Runtime config.Config

	// LogLevel controls logging verbosity
	LogLevel slog.Level

	// TestFyneApp allows injecting a test Fyne app for testing (nil for production)
	TestFyneApp fyne.App
}

// DefaultConfig returns the default application configuration with
// environment overrides applied.
func DefaultConfig() Config {
	return Config{
		AppID:    "com.auraplay.app",
		Runtime:  config.Load(),
		LogLevel: logger.DefaultConfig().Level,
	}
}

// NewApplication creates a new application with all dependencies wired.
// This is the main dependency injection function.
func NewApplication(cfg Config) (*Application, error) {
	app := &Application{}

	// Step 1: Create Fyne application
	if cfg.TestFyneApp != nil {
		app.fyneApp = cfg.TestFyneApp
	} else {
		app.fyneApp = fyneapp.NewWithID(cfg.AppID)
	}

	// Step 2: Create logger
	app.logger = logger.NewLogger(logger.Config{
		Level:  cfg.LogLevel,
		Format: "text",
	})
	app.logger.Info("initializing application",
		slog.String("app_id", cfg.AppID),
		slog.Int("sample_rate", cfg.Runtime.SampleRate))

	// Step 3: Create the event bus
	syncBus := eventbus.NewSyncEventBus()
	syncBus.SetLogger(app.logger.With(slog.String("component", "eventbus")))
	app.eventBus = syncBus

	// Step 4: Create the audio engine
	if cfg.Runtime.UseMockAudio {
		engine := mock.NewEngine()
		engine.SetLogger(app.logger.With(slog.String("engine", "mock")))
		app.audioEngine = engine
	} else {
		engine, err := beep.NewEngine(
			app.logger.With(slog.String("engine", "beep")),
			cfg.Runtime.SampleRate,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize audio engine: %w", err)
		}
		app.audioEngine = engine
	}

	// Step 5: Create and initialize the signal graph
	app.graph = graph.New(
		app.logger.With(slog.String("component", "graph")),
		graph.Config{
			SampleRate:          cfg.Runtime.SampleRate,
			ImpulseResponsePath: cfg.Runtime.ImpulseResponsePath,
		},
	)
	if err := app.graph.Initialize(app.audioEngine); err != nil {
		return nil, fmt.Errorf("failed to initialize signal graph: %w", err)
	}

	// Step 6: Create boundary adapters
	app.ingestor = ingest.NewIngestor(app.logger.With(slog.String("component", "ingest")))
	app.annotator = annotator.NewClient(
		app.logger.With(slog.String("component", "annotator")),
		cfg.Runtime.VibeAPIURL,
		cfg.Runtime.VibeAPIKey,
		cfg.Runtime.VibeModel,
		domain.FallbackVibe,
	)
	app.auth = auth.NewGateway(
		app.logger.With(slog.String("component", "auth")),
		app.eventBus,
		cfg.Runtime.AuthTokenURL,
		cfg.Runtime.AuthClientID,
	)

	// Step 7: Create services (with dependency injection)
	app.transportService = service.NewTransportService(
		app.logger.With(slog.String("service", "transport")),
		app.audioEngine,
		app.graph,
		app.eventBus,
	)

	app.playlistService = service.NewPlaylistService(
		app.logger.With(slog.String("service", "playlist")),
		app.transportService,
		app.eventBus,
	)

	app.equalizerService = service.NewEqualizerService(
		app.logger.With(slog.String("service", "equalizer")),
		app.graph,
		app.eventBus,
	)
	app.equalizerService.RegisterBuiltins()

	app.vibeService = service.NewVibeService(
		app.logger.With(slog.String("service", "vibe")),
		app.annotator,
		app.eventBus,
	)

	// Step 8: Create UI and wire the presenter
	app.mainWindow = fyneui.NewMainWindow(
		app.fyneApp,
		app.logger.With(slog.String("component", "ui")),
	)

	app.presenter = fyneui.NewPresenter(
		app.logger.With(slog.String("component", "presenter")),
		app.transportService,
		app.playlistService,
		app.equalizerService,
		app.graph,
		app.auth,
		app.ingestor,
		app.eventBus,
		app.mainWindow,
	)
	app.mainWindow.SetPresenter(app.presenter)

	return app, nil
}

// Run starts the application.
// This is called from main.go after the application is created.
func (a *Application) Run() {
	a.logger.Info("AuraPlay started", slog.String("version", GetVersionInfo().FullString()))

	// Show and run UI (blocks until the window is closed)
	a.mainWindow.ShowAndRun()
}

// Shutdown gracefully shuts down the application. Safe to call more than once.
func (a *Application) Shutdown() {
	a.logger.Info("shutting down application")

	// Shutdown UI and presenter first so nothing reacts to teardown events
	if a.presenter != nil {
		a.presenter.Shutdown()
	}

	// Shutdown services (in reverse order of creation)
	if a.vibeService != nil {
		if err := a.vibeService.Shutdown(); err != nil {
			a.logger.Warn("failed to shutdown vibe service", slog.Any("error", err))
		}
	}

	if a.playlistService != nil {
		if err := a.playlistService.Shutdown(); err != nil {
			a.logger.Warn("failed to shutdown playlist service", slog.Any("error", err))
		}
	}

	if a.transportService != nil {
		if err := a.transportService.Shutdown(); err != nil {
			a.logger.Warn("failed to shutdown transport service", slog.Any("error", err))
		}
	}

	// Shutdown the signal graph and the audio engine
	if a.graph != nil {
		if err := a.graph.Shutdown(); err != nil {
			a.logger.Warn("failed to shutdown signal graph", slog.Any("error", err))
		}
	}

	if a.audioEngine != nil {
		if err := a.audioEngine.Shutdown(); err != nil {
			a.logger.Warn("failed to shutdown audio engine", slog.Any("error", err))
		}
	}

	if a.eventBus != nil {
		if err := a.eventBus.Close(); err != nil {
			a.logger.Debug("event bus already closed", slog.Any("error", err))
		}
	}

	a.logger.Info("application shutdown complete")
}

// GetServices returns the core services, mainly for tests.
func (a *Application) GetServices() (*service.TransportService, *service.PlaylistService, *service.EqualizerService, *service.VibeService) {
	return a.transportService, a.playlistService, a.equalizerService, a.vibeService
}

// GetEventBus returns the event bus.
func (a *Application) GetEventBus() ports.EventBus {
	return a.eventBus
}

// GetFyneApp returns the Fyne application instance.
func (a *Application) GetFyneApp() fyne.App {
	return a.fyneApp
}
