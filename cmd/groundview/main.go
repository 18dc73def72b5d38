package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/signalsfoundry/groundview/anim"
	"github.com/signalsfoundry/groundview/core"
	"github.com/signalsfoundry/groundview/internal/api"
	"github.com/signalsfoundry/groundview/internal/logging"
	"github.com/signalsfoundry/groundview/internal/observability"
	"github.com/signalsfoundry/groundview/internal/stream"
	"github.com/signalsfoundry/groundview/model"
	"github.com/signalsfoundry/groundview/scene"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	sceneFile := flag.String("scene", "", "path to a scene JSON file (overrides config)")
	flag.Parse()

	if err := run(*configPath, *addr, *sceneFile); err != nil {
		fmt.Fprintf(os.Stderr, "groundview: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, addrOverride, sceneOverride string) error {
	cfg, err := loadServiceConfig(configPath)
	if err != nil {
		return err
	}
	if addrOverride != "" {
		cfg.HTTP.Addr = addrOverride
	}
	if sceneOverride != "" {
		cfg.SceneFile = sceneOverride
	}

	logger := logging.NewFromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), logger)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, logger)

	collector, err := observability.NewConsoleCollector(nil)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	store, summary, err := buildScene(cfg.SceneFile)
	if err != nil {
		return err
	}
	collector.SetSceneCounts(summary.MetricCount, summary.LogCount, len(summary.ToggleIDs))
	logger.Info(ctx, "scene loaded",
		logging.Int("metrics", summary.MetricCount),
		logging.Int("logs", summary.LogCount),
		logging.Int("toggles", len(summary.ToggleIDs)),
	)

	panel := store.Panel()
	motion := core.NewMotionModel(panel)

	satAnim := anim.NewAnimator(time.Duration(panel.SatellitePeriodS*float64(time.Second)), cfg.Tick)
	cloudAnim := anim.NewAnimator(time.Duration(panel.CloudPeriodS*float64(time.Second)), cfg.Tick)

	satAnim.AddListener(func(frame anim.Frame) {
		var sat model.SatelliteState
		motion.UpdatePosition(frame, &sat)
		store.PublishFrame(sat, cloudAnim.Value())
		collector.ObserveFrame("satellite", sat.AngleDeg)
		collector.ObserveFrame("clouds", cloudAnim.Value())
	})

	cloudAnim.Start(ctx)
	satAnim.Start(ctx)
	defer satAnim.Stop()
	defer cloudAnim.Stop()

	streamer := stream.NewHandler(store, collector, cfg.Stream, logger)
	server, err := api.NewServer(cfg.HTTP, store, streamer, collector, logger)
	if err != nil {
		return fmt.Errorf("init server: %w", err)
	}
	server.SetReady(true)

	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	logger.Info(context.Background(), "console stopped")
	return nil
}

// buildScene loads the scene file when one is configured, otherwise the
// built-in default scene.
func buildScene(path string) (*scene.Store, *core.SceneSummary, error) {
	if path == "" {
		store := scene.NewStore(core.DefaultPanel())
		summary, err := core.DefaultScene(store)
		if err != nil {
			return nil, nil, fmt.Errorf("load default scene: %w", err)
		}
		return store, summary, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read scene file: %w", err)
	}
	panel, err := core.PanelFromScene(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("parse scene file: %w", err)
	}
	store := scene.NewStore(panel)
	summary, err := core.LoadScene(store, bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("load scene file: %w", err)
	}
	return store, summary, nil
}
