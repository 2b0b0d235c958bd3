package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/tinytelemetry/concentration/internal/catalog"
	"github.com/tinytelemetry/concentration/internal/model"
	"github.com/tinytelemetry/concentration/internal/session"
	"github.com/tinytelemetry/concentration/internal/socketrpc"
	"github.com/tinytelemetry/concentration/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

func main() {
	var configPath string
	var socketPath string
	var remote bool
	var pairCount int
	var showVersion bool

	flag.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/memory/config.yml)")
	flag.StringVar(&socketPath, "socket", "", "play against the memoryd service listening on this socket")
	flag.BoolVar(&remote, "remote", false, "play against the memoryd service on the configured socket-path")
	flag.IntVar(&pairCount, "pairs", 0, "pairs per game (default from config)")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("memory-tui - Memory Game Client\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
		fmt.Printf("  Go version: %s\n", goVersion)
		return
	}

	cfg, err := loadCLIConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if socketPath != "" {
		cfg.SocketPath = socketPath
		remote = true
	}

	if err := runTUI(cfg, remote, pairCount); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runTUI(cfg cliConfig, remote bool, pairCount int) error {
	// The terminal belongs to the TUI; session logs would corrupt it.
	log.SetOutput(io.Discard)

	var games model.GameService
	var source string

	if remote {
		client, err := socketrpc.Dial(cfg.SocketPath)
		if err != nil {
			return fmt.Errorf("cannot connect to memoryd at %s: %w\nIs memoryd running? Start it with: memoryd", cfg.SocketPath, err)
		}
		defer client.Close()
		games = client
		source = "remote " + cfg.SocketPath
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.CatalogTimeout)
		provider, closer, err := catalog.Open(ctx, cfg.CatalogOptions())
		cancel()
		if err != nil {
			return fmt.Errorf("failed to open catalog: %w", err)
		}
		defer closer.Close()
		games = session.NewManager(provider, cfg.SessionConfig())
		source = "local · " + cfg.CatalogSource + " catalog"
	}

	page := tui.NewGamePage(games, tui.GameOptions{
		PairCount:    pairCount,
		PollInterval: cfg.PollInterval,
		Source:       source,
	})
	app := tui.NewApp(page)

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		if strings.Contains(err.Error(), "TTY") || strings.Contains(err.Error(), "/dev/tty") {
			return fmt.Errorf("TUI requires a real terminal")
		}
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
