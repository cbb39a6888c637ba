// Package app wires the mindwheel pipeline together and manages its
// lifecycle.
package app

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mindwheel/mindwheel/internal/controllers/status"
	"github.com/mindwheel/mindwheel/internal/log"
	"github.com/mindwheel/mindwheel/internal/model"
	"github.com/mindwheel/mindwheel/internal/pipeline"
	"github.com/mindwheel/mindwheel/internal/sinks"
	"github.com/mindwheel/mindwheel/pkg/config"
)

// App represents the main application
type App struct {
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger
}

// New creates a new application instance
func New(configProvider config.ConfigProvider, logger *zap.SugaredLogger) *App {
	return &App{
		configProvider: configProvider,
		logger:         logger,
	}
}

// Run starts the application and blocks until shutdown. Startup
// failures (missing model artifacts, unreadable intake directory,
// invalid config) are fatal; everything after startup is contained
// per snippet.
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg, err := a.configProvider.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	// Both model artifacts are required: the pipeline has no function
	// without them.
	selector, err := model.LoadFilterSelector(cfg.Models.FilterSelector)
	if err != nil {
		return fmt.Errorf("loading filter selector: %w", err)
	}
	classifier, err := model.LoadActionClassifier(cfg.Models.ActionClassifier)
	if err != nil {
		return fmt.Errorf("loading action classifier: %w", err)
	}
	log.Infof("model artifacts loaded: filter selector (%d features), action classifier (%d features)",
		selector.Features(), classifier.Features())

	if _, err := os.ReadDir(cfg.Pipeline.IntakeDir); err != nil {
		return fmt.Errorf("intake directory not readable: %w", err)
	}

	telemetryWriter, closeTelemetry, err := openTelemetry(cfg.Pipeline.Telemetry)
	if err != nil {
		return fmt.Errorf("opening telemetry stream: %w", err)
	}
	defer closeTelemetry()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	processor, err := pipeline.NewProcessor(cfg.Pipeline.SamplingRate, cfg.Pipeline.Channels, selector, classifier, rng)
	if err != nil {
		return fmt.Errorf("building processor: %w", err)
	}

	// Assemble sinks; the status cache always runs so the controller
	// and shutdown logging have counters to read.
	statusCache := sinks.NewStatusCache()
	sinkList := []sinks.Sink{
		sinks.NewTelemetry(telemetryWriter),
		statusCache,
	}
	if cfg.Actuator != nil {
		sinkList = append(sinkList, sinks.NewActuator(cfg.Actuator.SerialDevice, cfg.Actuator.Baud))
		log.Infof("actuator sink enabled on %s", cfg.Actuator.SerialDevice)
	}
	distributor := sinks.NewDistributor(ctx, &wg, sinkList)

	watcher := pipeline.NewWatcher(cfg.Pipeline.IntakeDir)
	loop := pipeline.NewLoop(watcher, processor, distributor.C, cfg.Pipeline.PollInterval, cfg.Pipeline.SnippetDeadline, a.logger)
	wg.Add(1)
	go loop.Run(ctx, &wg)

	if cfg.Status != nil {
		controller := status.NewController(cfg.Status.ListenAddr, statusCache)
		controller.Start(ctx, &wg)
	}

	log.Info("Application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	// Wait for all workers to terminate
	log.Info("waiting for all workers to terminate...")
	wg.Wait()

	snap := statusCache.Snapshot()
	log.Infof("shutdown complete: %d snippets processed, %d failed", snap.Processed, snap.Failed)

	return nil
}

// openTelemetry resolves the telemetry stream setting to a writer.
func openTelemetry(target string) (io.Writer, func(), error) {
	switch target {
	case "", "stdout":
		return os.Stdout, func() {}, nil
	case "stderr":
		return os.Stderr, func() {}, nil
	default:
		f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, err
		}
		return f, func() { f.Close() }, nil
	}
}
