// Command scraperdev runs the scraper-development daemon: a fixed pool
// of workers drives the claim -> explore -> prompt -> generate -> test
// pipeline (spec §4.1-§4.6), alongside three periodic auxiliary loops
// (directory, contact, market-discovery; spec §4.7-§4.9). Modeled on the
// teacher's cmd/raito-api/main.go wiring shape.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"scraperdev/internal/agent"
	"scraperdev/internal/backend"
	"scraperdev/internal/browser"
	"scraperdev/internal/config"
	"scraperdev/internal/contactloop"
	"scraperdev/internal/directoryloop"
	"scraperdev/internal/discoveryloop"
	"scraperdev/internal/llmextract"
	"scraperdev/internal/scratch"
	"scraperdev/internal/searchengine"
	"scraperdev/internal/statusserver"
	"scraperdev/internal/teststage"
	"scraperdev/internal/worker"
	"scraperdev/internal/workerlease"
)

func main() {
	// -config is split off here; every other argument is handed to
	// config.Load, which owns the daemon's own flag set.
	configPath := "config/config.yaml"
	var args []string
	for i := 1; i < len(os.Args); i++ {
		a := os.Args[i]
		switch {
		case a == "-config" || a == "--config":
			if i+1 < len(os.Args) {
				i++
				configPath = os.Args[i]
			}
		case strings.HasPrefix(a, "-config=") || strings.HasPrefix(a, "--config="):
			configPath = a[strings.Index(a, "=")+1:]
		default:
			args = append(args, a)
		}
	}

	cfg := config.Load(configPath, args)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	scratchLayout, err := scratch.New(cfg.Scratchpad.Dir)
	if err != nil {
		log.Fatalf("scratch layout: %v", err)
	}
	logFile, err := os.Create(scratchLayout.DaemonLogFile())
	if err != nil {
		log.Fatalf("daemon log: %v", err)
	}
	defer logFile.Close()

	level := slog.LevelInfo
	var logOut io.Writer = logFile
	if cfg.Verbose {
		level = slog.LevelDebug
		logOut = io.MultiWriter(logFile, os.Stdout)
	}
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backendClient := backend.NewHTTPClient(cfg.Backend.BaseURL, cfg.Backend.APIKey, time.Duration(cfg.Backend.TimeoutMs)*time.Millisecond)

	llmClient, err := llmextract.NewClientFromConfig(&cfg.LLM, "", "")
	if err != nil {
		log.Fatalf("llm client: %v", err)
	}

	testStage := teststage.New(teststage.Config{
		HarnessBinary: cfg.TestHarness.Binary,
		HarnessScript: cfg.TestHarness.HarnessScript,
		ScratchDir:    cfg.Scratchpad.Dir,
	})

	var cityID *uuid.UUID
	if cfg.CitySlug != "" {
		id, err := resolveCityID(ctx, backendClient, cfg.CitySlug)
		if err != nil {
			log.Fatalf("resolve city %q: %v", cfg.CitySlug, err)
		}
		cityID = id
	}

	switch {
	case cfg.OneShotDir:
		runOneShotDirectory(ctx, cfg, backendClient, logger)
	case cfg.OneShotCon:
		runOneShotContact(ctx, cfg, backendClient, llmClient, logger)
	case cfg.OneShotDis:
		runOneShotDiscovery(ctx, cfg, backendClient, logger)
	default:
		runDaemon(ctx, cfg, backendClient, llmClient, scratchLayout, testStage, cityID, logger)
	}
}

func runDaemon(
	ctx context.Context,
	cfg *config.Config,
	backendClient backend.Client,
	llmClient llmextract.Client,
	scratchLayout *scratch.Layout,
	testStage *teststage.Stage,
	cityID *uuid.UUID,
	logger *slog.Logger,
) {
	driver, err := browser.NewRodDriver(ctx, cfg.Browser.Headless)
	if err != nil {
		log.Fatalf("browser driver: %v", err)
	}
	defer driver.Close()

	agentRunner := agent.NewRunner(logger)

	deps := worker.Dependencies{
		Backend:       backendClient,
		Driver:        driver,
		LLM:           llmClient,
		LLMProvider:   llmextract.Provider(cfg.LLM.DefaultProvider),
		LLMModel:      defaultModel(cfg),
		AgentRunner:   agentRunner,
		AgentBinary:   cfg.Agent.Binary,
		AgentTimeout:  time.Duration(cfg.Agent.TimeoutMinutes) * time.Minute,
		KillGrace:     time.Duration(cfg.Agent.KillGraceMs) * time.Millisecond,
		OutputEnvVar:  cfg.Agent.OutputEnvVar,
		TemplatePath:  cfg.Agent.TemplatePath,
		TestStage:     testStage,
		Scratch:       scratchLayout,
		Logger:        logger,
		NavTimeout:    time.Duration(cfg.Browser.NavTimeoutMs) * time.Millisecond,
		PostLoadSleep: time.Duration(cfg.Browser.PostLoadSleepMs) * time.Millisecond,
		RobotsClient:  &http.Client{Timeout: 10 * time.Second},
	}

	supervisor := worker.NewSupervisor(deps, cfg.Workers, cityID, time.Duration(cfg.Worker.PollIntervalSeconds)*time.Second)

	if cfg.Redis.LeaseEnabled {
		cityKey := cfg.CitySlug
		if cityKey == "" {
			cityKey = "global"
		}
		owner := fmt.Sprintf("%s:%d", hostname(), os.Getpid())
		lease, err := workerlease.New(cfg.Redis.URL, cityKey, owner, time.Duration(cfg.Redis.LeaseTTLMs)*time.Millisecond)
		if err != nil {
			log.Fatalf("worker lease: %v", err)
		}
		defer lease.Close()
		supervisor.Lease = lease
	}

	var status *statusserver.Server
	if cfg.Status.Enabled {
		status = statusserver.New(supervisorSnapshot{supervisor}, logger)
		go func() {
			if err := status.Listen(cfg.Status.Addr); err != nil {
				logger.Warn("status server stopped", "error", err)
			}
		}()
	}

	go runAuxiliaryLoops(ctx, cfg, backendClient, logger)

	logger.Info("scraperdev starting", "workers", cfg.Workers, "city", cfg.CitySlug)
	supervisor.Run(ctx)

	if status != nil {
		_ = status.Shutdown()
	}
	logger.Info("scraperdev stopped")
}

// runAuxiliaryLoops drives the directory, contact, and market-discovery
// loops on their own independent tickers, staggered at startup so they
// don't all fire in the same instant (spec §4.1, §5).
func runAuxiliaryLoops(ctx context.Context, cfg *config.Config, backendClient backend.Client, logger *slog.Logger) {
	engine := searchengine.NewEngine(cfg.Search)

	dirDriver, err := browser.NewRodDriver(ctx, cfg.Browser.Headless)
	if err != nil {
		logger.Error("directory loop browser driver", "error", err)
		return
	}
	defer dirDriver.Close()
	dirLoop := &directoryloop.Loop{
		Backend:       backendClient,
		Driver:        dirDriver,
		NavTimeout:    time.Duration(cfg.Browser.NavTimeoutMs) * time.Millisecond,
		PostLoadSleep: time.Duration(cfg.Browser.PostLoadSleepMs) * time.Millisecond,
		Logger:        logger,
	}

	contactDriver, err := browser.NewRodDriver(ctx, cfg.Browser.Headless)
	if err != nil {
		logger.Error("contact loop browser driver", "error", err)
		return
	}
	defer contactDriver.Close()
	llmClient, err := llmextract.NewClientFromConfig(&cfg.LLM, "", "")
	if err != nil {
		logger.Error("contact loop llm client", "error", err)
		return
	}
	conLoop := &contactloop.Loop{
		Backend:       backendClient,
		Driver:        contactDriver,
		LLM:           llmClient,
		LLMProvider:   llmextract.Provider(cfg.LLM.DefaultProvider),
		LLMModel:      defaultModel(cfg),
		NavTimeout:    time.Duration(cfg.Browser.NavTimeoutMs) * time.Millisecond,
		PostLoadSleep: time.Duration(cfg.Browser.PostLoadSleepMs) * time.Millisecond,
		Logger:        logger,
	}

	discDriver, err := browser.NewRodDriver(ctx, cfg.Browser.Headless)
	if err != nil {
		logger.Error("discovery loop browser driver", "error", err)
		return
	}
	defer discDriver.Close()
	disLoop := &discoveryloop.Loop{
		Backend:   backendClient,
		Driver:    discDriver,
		Engine:    engine,
		SessionID: "discovery-loop",
		Logger:    logger,
	}

	go runTicker(ctx, 5*time.Second, time.Duration(cfg.Worker.DirectoryIntervalSecs)*time.Second, func() {
		if err := dirLoop.Run(ctx); err != nil {
			logger.Warn("directory loop failed", "error", err)
		}
	})
	go runTicker(ctx, 10*time.Second, time.Duration(cfg.Worker.ContactIntervalSecs)*time.Second, func() {
		if err := conLoop.Run(ctx); err != nil {
			logger.Warn("contact loop failed", "error", err)
		}
	})
	runTicker(ctx, 15*time.Second, time.Duration(cfg.Worker.DiscoveryIntervalSecs)*time.Second, func() {
		if err := disLoop.Run(ctx); err != nil {
			logger.Warn("discovery loop failed", "error", err)
		}
	})
}

// runTicker sleeps initialDelay, runs fn once, then runs fn again on
// every interval tick until ctx is canceled.
func runTicker(ctx context.Context, initialDelay, interval time.Duration, fn func()) {
	timer := time.NewTimer(initialDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
		fn()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

func runOneShotDirectory(ctx context.Context, cfg *config.Config, backendClient backend.Client, logger *slog.Logger) {
	driver, err := browser.NewRodDriver(ctx, cfg.Browser.Headless)
	if err != nil {
		log.Fatalf("browser driver: %v", err)
	}
	defer driver.Close()

	loop := &directoryloop.Loop{Backend: backendClient, Driver: driver, Logger: logger}
	if err := loop.Run(ctx); err != nil {
		log.Fatalf("directory loop: %v", err)
	}
}

func runOneShotContact(ctx context.Context, cfg *config.Config, backendClient backend.Client, llmClient llmextract.Client, logger *slog.Logger) {
	driver, err := browser.NewRodDriver(ctx, cfg.Browser.Headless)
	if err != nil {
		log.Fatalf("browser driver: %v", err)
	}
	defer driver.Close()

	loop := &contactloop.Loop{
		Backend:     backendClient,
		Driver:      driver,
		LLM:         llmClient,
		LLMProvider: llmextract.Provider(cfg.LLM.DefaultProvider),
		LLMModel:    defaultModel(cfg),
		Logger:      logger,
	}
	if err := loop.Run(ctx); err != nil {
		log.Fatalf("contact loop: %v", err)
	}
}

func runOneShotDiscovery(ctx context.Context, cfg *config.Config, backendClient backend.Client, logger *slog.Logger) {
	driver, err := browser.NewRodDriver(ctx, cfg.Browser.Headless)
	if err != nil {
		log.Fatalf("browser driver: %v", err)
	}
	defer driver.Close()

	loop := &discoveryloop.Loop{
		Backend:   backendClient,
		Driver:    driver,
		Engine:    searchengine.NewEngine(cfg.Search),
		SessionID: "discovery-oneshot",
		Logger:    logger,
	}
	if err := loop.Run(ctx); err != nil {
		log.Fatalf("discovery loop: %v", err)
	}
}

// resolveCityID looks up the uuid behind a --city slug flag against the
// backend's city list (spec §4.1: "restrict claims to one city"):
// exact-match on slug wins, else a substring match on slug or name, else
// the caller exits fatally with the list of available slugs.
func resolveCityID(ctx context.Context, client backend.Client, slug string) (*uuid.UUID, error) {
	cities, err := client.ListAllCities(ctx)
	if err != nil {
		return nil, err
	}

	for _, c := range cities {
		if c.Slug == slug {
			id := c.ID
			return &id, nil
		}
	}

	needle := strings.ToLower(slug)
	for _, c := range cities {
		if strings.Contains(strings.ToLower(c.Slug), needle) || strings.Contains(strings.ToLower(c.Name), needle) {
			id := c.ID
			return &id, nil
		}
	}

	slugs := make([]string, 0, len(cities))
	for _, c := range cities {
		slugs = append(slugs, c.Slug)
	}
	return nil, fmt.Errorf("no city found matching %q, available slugs: %s", slug, strings.Join(slugs, ", "))
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "scraperdev"
	}
	return h
}

func defaultModel(cfg *config.Config) string {
	switch llmextract.Provider(cfg.LLM.DefaultProvider) {
	case llmextract.ProviderOpenAI:
		return cfg.LLM.OpenAI.Model
	case llmextract.ProviderAnthropic:
		return cfg.LLM.Anthropic.Model
	case llmextract.ProviderGoogle:
		return cfg.LLM.Google.Model
	default:
		return ""
	}
}

// supervisorSnapshot adapts *worker.Supervisor to statusserver.Snapshotter.
type supervisorSnapshot struct {
	sup *worker.Supervisor
}

func (s supervisorSnapshot) Snapshot() []statusserver.WorkerView {
	raw := s.sup.Snapshot()
	out := make([]statusserver.WorkerView, len(raw))
	for i, w := range raw {
		out[i] = statusserver.WorkerView{ID: w.ID, Busy: w.Busy, RequestID: w.RequestID, SourceURL: w.SourceURL}
	}
	return out
}

func (s supervisorSnapshot) ShutdownRequested() bool { return s.sup.ShutdownRequested() }
