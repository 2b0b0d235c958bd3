package main

import (
	"time"

	"github.com/tinytelemetry/concentration/internal/config"
	"github.com/tinytelemetry/concentration/internal/model"
	"github.com/tinytelemetry/concentration/internal/socketrpc"
)

// cliConfig holds only TUI-relevant configuration. The shared game settings
// apply when playing locally; a remote memoryd uses its own.
type cliConfig struct {
	config.Game `mapstructure:",squash"`

	PollInterval time.Duration `mapstructure:"poll-interval" validate:"gt=0"`
	SocketPath   string        `mapstructure:"socket-path"`
}

func loadCLIConfig(configPath string) (cliConfig, error) {
	var cfg cliConfig

	v, err := config.New(configPath)
	if err != nil {
		return cfg, err
	}
	v.SetDefault("poll-interval", model.DefaultPollInterval)
	v.SetDefault("socket-path", socketrpc.DefaultSocketPath())

	if err := config.Load(v, &cfg); err != nil {
		return cfg, err
	}
	cfg.SocketPath = config.ExpandHome(cfg.SocketPath)
	return cfg, nil
}
