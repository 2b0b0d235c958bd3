// Package config loads the settings shared by memoryd and memory-tui: game
// rules and catalog source. Each binary layers its own keys on top.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"github.com/tinytelemetry/concentration/internal/catalog"
	"github.com/tinytelemetry/concentration/internal/deck"
	"github.com/tinytelemetry/concentration/internal/model"
	"github.com/tinytelemetry/concentration/internal/session"
)

// EnvPrefix is the environment prefix for every key, e.g. MEMORY_PAIR_COUNT.
const EnvPrefix = "MEMORY"

var validate = validator.New()

// Game holds game and catalog settings.
type Game struct {
	PairCount         int           `mapstructure:"pair-count" validate:"min=1,max=64"`
	MismatchHideDelay time.Duration `mapstructure:"mismatch-hide-delay" validate:"min=0"`
	RandomSeed        *uint64       `mapstructure:"random-seed"`
	Selection         string        `mapstructure:"selection" validate:"oneof=first random"`

	CatalogSource  string        `mapstructure:"catalog-source" validate:"oneof=embedded file http duckdb"`
	CatalogFile    string        `mapstructure:"catalog-file" validate:"required_if=CatalogSource file"`
	CatalogURL     string        `mapstructure:"catalog-url" validate:"required_if=CatalogSource http"`
	CatalogCache   string        `mapstructure:"catalog-cache"`
	CatalogTimeout time.Duration `mapstructure:"catalog-timeout" validate:"gt=0"`
	CatalogDB      string        `mapstructure:"catalog-db" validate:"required_if=CatalogSource duckdb"`
}

// New returns a viper instance with env binding and the shared defaults,
// pointed at configPath or ~/.config/memory/config.yml.
func New(configPath string) (*viper.Viper, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("finding home directory: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("pair-count", model.DefaultPairCount)
	v.SetDefault("mismatch-hide-delay", model.DefaultMismatchHideDelay)
	v.SetDefault("selection", model.DefaultSelection)
	v.SetDefault("catalog-source", model.DefaultCatalogSource)
	v.SetDefault("catalog-file", "")
	v.SetDefault("catalog-url", "")
	v.SetDefault("catalog-cache", filepath.Join(home, ".cache", "memory", "products.json"))
	v.SetDefault("catalog-timeout", model.DefaultCatalogTimeout)
	v.SetDefault("catalog-db", filepath.Join(home, ".local", "share", "memory", "catalog.duckdb"))
	// No default: unset means an unseeded game.
	_ = v.BindEnv("random-seed")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(home, ".config", "memory", "config.yml"))
	}
	return v, nil
}

// Load reads the config file, tolerating a missing one, unmarshals into dst
// and validates it. dst must be a pointer to a struct.
func Load(v *viper.Viper, dst any) error {
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return err
		}
	}
	if err := v.Unmarshal(dst); err != nil {
		return err
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// CatalogOptions converts the catalog settings for catalog.Open.
func (g Game) CatalogOptions() catalog.Options {
	return catalog.Options{
		Source:    g.CatalogSource,
		File:      ExpandHome(g.CatalogFile),
		URL:       g.CatalogURL,
		CachePath: ExpandHome(g.CatalogCache),
		Timeout:   g.CatalogTimeout,
		DBPath:    ExpandHome(g.CatalogDB),
	}
}

// SessionConfig converts the game settings for session.NewManager.
func (g Game) SessionConfig() session.Config {
	return session.Config{
		PairCount: g.PairCount,
		HideDelay: g.MismatchHideDelay,
		Selection: deck.Selection(g.Selection),
		Seed:      g.RandomSeed,
	}
}
