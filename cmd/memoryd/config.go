package main

import (
	"net"
	"strconv"
	"time"

	"github.com/tinytelemetry/concentration/internal/config"
	"github.com/tinytelemetry/concentration/internal/eventbus"
	"github.com/tinytelemetry/concentration/internal/socketrpc"
)

const (
	defaultBindHost     = "127.0.0.1"
	defaultAPIPort      = 3100
	defaultGameTTL      = 30 * time.Minute
	defaultMaxGames     = 1000
	defaultEventLogSize = 256
)

// appConfig is internal runtime configuration.
// It is package-private to keep defaults and shape local to the CLI entrypoint.
type appConfig struct {
	config.Game `mapstructure:",squash"`

	APIEnabled        bool          `mapstructure:"api-enabled"`
	APIPort           int           `mapstructure:"api-port" validate:"min=1,max=65535"`
	APIAddr           string        `mapstructure:"api-addr" validate:"omitempty,hostname_port"`
	SocketPath        string        `mapstructure:"socket-path" validate:"required"`
	NATSURL           string        `mapstructure:"nats-url"`
	NATSSubjectPrefix string        `mapstructure:"nats-subject-prefix" validate:"required"`
	GameTTL           time.Duration `mapstructure:"game-ttl" validate:"min=0"`
	MaxGames          int           `mapstructure:"max-games" validate:"min=0"`
	EventLogSize      int           `mapstructure:"event-log-size" validate:"min=1"`
	ConfigPath        string        `mapstructure:"-"` // not from config file
}

func loadConfig(configPath string) (appConfig, error) {
	var cfg appConfig

	v, err := config.New(configPath)
	if err != nil {
		return cfg, err
	}

	v.SetDefault("api-enabled", true)
	v.SetDefault("api-port", defaultAPIPort)
	v.SetDefault("api-addr", "")
	v.SetDefault("socket-path", socketrpc.DefaultSocketPath())
	v.SetDefault("nats-url", "")
	v.SetDefault("nats-subject-prefix", eventbus.DefaultSubjectPrefix)
	v.SetDefault("game-ttl", defaultGameTTL)
	v.SetDefault("max-games", defaultMaxGames)
	v.SetDefault("event-log-size", defaultEventLogSize)

	if err := config.Load(v, &cfg); err != nil {
		return cfg, err
	}
	cfg.ConfigPath = v.ConfigFileUsed()
	cfg.SocketPath = config.ExpandHome(cfg.SocketPath)

	if cfg.APIAddr == "" {
		cfg.APIAddr = net.JoinHostPort(defaultBindHost, strconv.Itoa(cfg.APIPort))
	}

	return cfg, nil
}
