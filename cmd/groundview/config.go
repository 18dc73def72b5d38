package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/signalsfoundry/groundview/anim"
	"github.com/signalsfoundry/groundview/internal/api"
	"github.com/signalsfoundry/groundview/internal/stream"
)

// serviceConfig is the resolved runtime configuration for the console.
type serviceConfig struct {
	HTTP      api.Config
	Stream    stream.Config
	SceneFile string
	Tick      time.Duration
}

func defaultServiceConfig() serviceConfig {
	return serviceConfig{
		HTTP: api.Config{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Stream: stream.Config{
			MaxConcurrentPerIP: 10,
			KeepaliveInterval:  30 * time.Second,
		},
		Tick: anim.DefaultTick,
	}
}

// fileConfig maps config.toml keys onto console runtime settings.
type fileConfig struct {
	Addr            string `toml:"addr"`
	ReadTimeout     string `toml:"read_timeout"`
	IdleTimeout     string `toml:"idle_timeout"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
	SceneFile       string `toml:"scene_file"`
	MaxStreamsPerIP int    `toml:"max_streams_per_ip"`
	StreamKeepalive string `toml:"stream_keepalive"`
	Tick            string `toml:"tick"`
}

// loadServiceConfig overlays the TOML file on top of the defaults. Keys
// absent from the file keep their default values.
func loadServiceConfig(path string) (serviceConfig, error) {
	cfg := defaultServiceConfig()
	if path == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return serviceConfig{}, fmt.Errorf("load console config: %w", err)
	}

	if meta.IsDefined("addr") {
		cfg.HTTP.Addr = strings.TrimSpace(raw.Addr)
	}
	if meta.IsDefined("read_timeout") {
		if cfg.HTTP.ReadTimeout, err = parseDuration("read_timeout", raw.ReadTimeout); err != nil {
			return serviceConfig{}, err
		}
	}
	if meta.IsDefined("idle_timeout") {
		if cfg.HTTP.IdleTimeout, err = parseDuration("idle_timeout", raw.IdleTimeout); err != nil {
			return serviceConfig{}, err
		}
	}
	if meta.IsDefined("shutdown_timeout") {
		if cfg.HTTP.ShutdownTimeout, err = parseDuration("shutdown_timeout", raw.ShutdownTimeout); err != nil {
			return serviceConfig{}, err
		}
	}
	if meta.IsDefined("scene_file") {
		cfg.SceneFile = strings.TrimSpace(raw.SceneFile)
	}
	if meta.IsDefined("max_streams_per_ip") {
		if raw.MaxStreamsPerIP <= 0 {
			return serviceConfig{}, fmt.Errorf("load console config: max_streams_per_ip must be positive, got %d", raw.MaxStreamsPerIP)
		}
		cfg.Stream.MaxConcurrentPerIP = raw.MaxStreamsPerIP
	}
	if meta.IsDefined("stream_keepalive") {
		if cfg.Stream.KeepaliveInterval, err = parseDuration("stream_keepalive", raw.StreamKeepalive); err != nil {
			return serviceConfig{}, err
		}
	}
	if meta.IsDefined("tick") {
		if cfg.Tick, err = parseDuration("tick", raw.Tick); err != nil {
			return serviceConfig{}, err
		}
	}

	return cfg, nil
}

func parseDuration(key, value string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("load console config: %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("load console config: %s must be positive, got %s", key, d)
	}
	return d, nil
}
