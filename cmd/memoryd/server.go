package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/tinytelemetry/concentration/internal/catalog"
	"github.com/tinytelemetry/concentration/internal/eventbus"
	"github.com/tinytelemetry/concentration/internal/httpserver"
	"github.com/tinytelemetry/concentration/internal/session"
	"github.com/tinytelemetry/concentration/internal/socketrpc"
	"golang.org/x/sync/errgroup"
)

// runServer hosts game sessions until SIGINT or SIGTERM.
func runServer(cfg appConfig) error {
	cleanupLogger := configureRuntimeLogger()
	defer cleanupLogger()

	// Cancelled by the signal goroutine below.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	catalogCtx, catalogCancel := context.WithTimeout(ctx, cfg.CatalogTimeout)
	provider, closer, err := catalog.Open(catalogCtx, cfg.CatalogOptions())
	catalogCancel()
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer closer.Close()

	var opts []session.Option
	var bus *eventbus.Publisher
	if cfg.NATSURL != "" {
		bus, err = eventbus.Connect(cfg.NATSURL, cfg.NATSSubjectPrefix)
		if err != nil {
			// Games still work without fan-out.
			log.Printf("Warning: failed to connect to NATS at %s: %v", cfg.NATSURL, err)
		} else {
			defer bus.Close()
			opts = append(opts, session.WithPublisher(bus))
		}
	}

	sessCfg := cfg.SessionConfig()
	sessCfg.MaxGames = cfg.MaxGames
	sessCfg.EventLogSize = cfg.EventLogSize
	games := session.NewManager(provider, sessCfg, opts...)

	reaper := session.NewReaper(games, cfg.GameTTL)
	if reaper != nil {
		defer reaper.Stop()
	}

	// REST and websocket adapter
	if cfg.APIEnabled {
		apiServer := httpserver.NewServer(cfg.APIAddr, games, provider)
		if err := apiServer.Start(); err != nil {
			return fmt.Errorf("failed to start API server: %w", err)
		}
		defer apiServer.Stop()
	}

	// memory-tui -remote connects here
	sockServer := socketrpc.NewServer(cfg.SocketPath, games)
	if err := sockServer.Start(); err != nil {
		log.Printf("Warning: failed to start socket server: %v", err)
	} else {
		defer sockServer.Stop()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down gracefully... (press Ctrl+C again to force)")
		cancel()

		// Shutdown deadline starts now, not at boot.
		deadline := time.NewTimer(10 * time.Second)
		defer deadline.Stop()

		select {
		case <-sigCh:
			fmt.Println("\nForce shutdown.")
		case <-deadline.C:
			fmt.Println("Shutdown timed out, forcing exit.")
		}
		cleanupSocket(cfg.SocketPath)
		os.Exit(1)
	}()

	printStartupBanner(cfg, bus != nil)
	log.Printf("memoryd: started (catalog %s, %d pairs per game)", cfg.CatalogSource, sessCfg.PairCount)

	g, gctx := errgroup.WithContext(ctx)

	// Warn early about a catalog that cannot deal a default game.
	g.Go(func() error {
		checkCtx, checkCancel := context.WithTimeout(gctx, cfg.CatalogTimeout)
		defer checkCancel()
		items, err := provider.ListItems(checkCtx)
		if err != nil {
			log.Printf("memoryd: catalog check failed: %v", err)
			return nil
		}
		if len(items) < sessCfg.PairCount {
			log.Printf("memoryd: catalog has %d items, fewer than the %d pairs a game needs", len(items), sessCfg.PairCount)
		}
		return nil
	})

	// Blocks until a signal cancels ctx.
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Printf("memoryd: errgroup exited with error: %v", err)
	}

	signal.Stop(sigCh)
	log.Printf("memoryd: stopped with %d active games", games.Len())

	return nil
}

func cleanupSocket(path string) {
	if path != "" {
		os.Remove(path)
	}
}

func configureRuntimeLogger() func() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	home, err := os.UserHomeDir()
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	logDir := filepath.Join(home, ".local", "state", "memory")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	logPath := filepath.Join(logDir, "memoryd.log")
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	log.SetOutput(f)
	return func() {
		_ = f.Close()
	}
}

func printStartupBanner(cfg appConfig, natsConnected bool) {
	fmt.Println(renderBanner(cfg, natsConnected))
}

func renderBanner(cfg appConfig, natsConnected bool) string {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cyan := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	red := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	bold := lipgloss.NewStyle().Bold(true)

	check := green.Render("●")
	dot := dim.Render("●")

	logo := cyan.Bold(true).Render(`
    ╔╦╗╔═╗╔╦╗╔═╗╦═╗╦ ╦
    ║║║║╣ ║║║║ ║╠╦╝╚╦╝
    ╩ ╩╚═╝╩ ╩╚═╝╩╚═ ╩ `)

	ver := dim.Render("v" + version)

	var lines []string
	lines = append(lines, "")
	lines = append(lines, logo)
	lines = append(lines, "    "+ver)
	lines = append(lines, "")

	separator := dim.Render("    ─────────────────────────────────")
	lines = append(lines, separator)
	lines = append(lines, "")

	// Gateway
	lines = append(lines, bold.Render("    Gateway"))
	lines = append(lines, "")

	if cfg.APIEnabled {
		lines = append(lines, fmt.Sprintf("    %s  HTTP API       %s", check, cyan.Render(cfg.APIAddr)))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  HTTP API       %s", dot, dim.Render("disabled")))
	}
	lines = append(lines, fmt.Sprintf("    %s  Unix Socket    %s", check, cyan.Render(shortenPath(cfg.SocketPath))))

	switch {
	case cfg.NATSURL == "":
		lines = append(lines, fmt.Sprintf("    %s  NATS Events    %s", dot, dim.Render("disabled")))
	case natsConnected:
		lines = append(lines, fmt.Sprintf("    %s  NATS Events    %s", check, cyan.Render(cfg.NATSSubjectPrefix+".games.*.events")))
	default:
		lines = append(lines, fmt.Sprintf("    %s  NATS Events    %s", red.Render("●"), dim.Render("unreachable")))
	}
	lines = append(lines, "")

	// Games
	lines = append(lines, bold.Render("    Games"))
	lines = append(lines, "")

	lines = append(lines, fmt.Sprintf("    %s  Catalog        %s", check, dim.Render(catalogLabel(cfg))))
	lines = append(lines, fmt.Sprintf("    %s  Pairs          %s", check, dim.Render(fmt.Sprintf("%d (%s selection)", cfg.PairCount, cfg.Selection))))
	lines = append(lines, fmt.Sprintf("    %s  Hide Delay     %s", check, dim.Render(cfg.MismatchHideDelay.String())))
	if cfg.RandomSeed != nil {
		lines = append(lines, fmt.Sprintf("    %s  Seed           %s", check, dim.Render(fmt.Sprintf("%d", *cfg.RandomSeed))))
	}
	if cfg.GameTTL > 0 {
		lines = append(lines, fmt.Sprintf("    %s  Idle Reaper    %s", check, dim.Render(cfg.GameTTL.String())))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Idle Reaper    %s", dot, dim.Render("disabled")))
	}

	lines = append(lines, "")
	lines = append(lines, bold.Render("    Config"))
	lines = append(lines, "")
	if _, err := os.Stat(cfg.ConfigPath); cfg.ConfigPath != "" && err == nil {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", check, dim.Render(shortenPath(cfg.ConfigPath))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", dot, dim.Render("default (no file)")))
	}

	lines = append(lines, "")
	lines = append(lines, separator)
	lines = append(lines, "")
	lines = append(lines, "    "+dim.Render("Press ")+yellow.Render("Ctrl+C")+dim.Render(" to stop"))
	lines = append(lines, "")

	return strings.Join(lines, "\n")
}

func catalogLabel(cfg appConfig) string {
	switch cfg.CatalogSource {
	case catalog.SourceFile:
		return "file " + shortenPath(cfg.CatalogFile)
	case catalog.SourceHTTP:
		return "http " + cfg.CatalogURL
	case catalog.SourceDuckDB:
		return "duckdb " + shortenPath(cfg.CatalogDB)
	default:
		return "embedded sample products"
	}
}

func shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}
