package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harborview/sitekit/internal/api"
	"github.com/harborview/sitekit/internal/cache"
	"github.com/harborview/sitekit/internal/config"
	"github.com/harborview/sitekit/internal/content"
	"github.com/harborview/sitekit/internal/deploy"
	"github.com/harborview/sitekit/internal/events"
	"github.com/harborview/sitekit/internal/ledger"
	"github.com/harborview/sitekit/internal/lock"
	"github.com/harborview/sitekit/internal/log"
	"github.com/harborview/sitekit/internal/revalidate"
	"github.com/harborview/sitekit/internal/storage"
	"github.com/harborview/sitekit/internal/tui/watch"
	"github.com/harborview/sitekit/internal/webhook"
)

const version = "0.2.0"

const defaultConfigPath = "sitekit.yaml"

// integrityFiles are the config files covered by the .checksums manifest.
var integrityFiles = []string{"sitekit.yaml"}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "serve":
		os.Exit(runServe(args))
	case "config":
		os.Exit(runConfigNoun(args))
	case "watch":
		os.Exit(runWatch(args))
	case "version":
		fmt.Printf("sitekit version %s\n", version)
		os.Exit(0)
	case "help", "--help", "-h":
		printUsage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`sitekit - CMS webhook receiver and deployment status service

Usage:
  sitekit <command> [flags]

Commands:
  serve             Run the webhook and status API servers in the foreground
  config check      Validate configuration syntax and integrity
  config lock       Authorize current config state (update integrity hashes)
  watch             Live terminal view of deployments and events
  version           Show version information
  help              Show this help message

Use 'sitekit <command> --help' for command-specific flags.
`)
}

func runConfigNoun(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: sitekit config <check|lock> [flags]")
		return 1
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "check":
		if hasHelpFlag(actionArgs) {
			fmt.Println("Usage: sitekit config check [--config PATH]")
			fmt.Println("Validate configuration syntax and integrity.")
			return 0
		}
		return runConfigCheck(actionArgs)
	case "lock":
		if hasHelpFlag(actionArgs) {
			fmt.Println("Usage: sitekit config lock [--config PATH]")
			fmt.Println("Authorize the current configuration state by regenerating integrity hashes.")
			return 0
		}
		return runConfigLock(actionArgs)
	case "help", "--help", "-h":
		fmt.Println("Usage: sitekit config <check|lock> [flags]")
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown config action: %s\n", action)
		return 1
	}
}

func hasHelpFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--help" || arg == "-h" {
			return true
		}
	}
	return false
}

func runConfigCheck(args []string) int {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config check FAILED: %v\n", err)
		return 1
	}

	configDir := filepath.Dir(*configPath)
	if manifest, err := config.LoadChecksums(configDir); err == nil {
		if err := config.Verify(configDir, manifest, integrityFiles); err != nil {
			fmt.Fprintf(os.Stderr, "Config check FAILED: %v\n", err)
			return 1
		}
		fmt.Println("Integrity: OK")
	} else {
		fmt.Printf("Integrity: skipped (%v)\n", err)
	}

	fmt.Printf("Site: %s (%s)\n", cfg.Site.Domain, cfg.Site.Environment)
	fmt.Printf("Deploy hooks: %d configured\n", len(cfg.Deploy.Hooks))
	fmt.Println("Config check PASSED")
	return 0
}

func runConfigLock(args []string) int {
	fs := flag.NewFlagSet("lock", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	if _, err := config.Load(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Refusing to lock invalid config: %v\n", err)
		return 1
	}

	configDir := filepath.Dir(*configPath)
	if err := config.Lock(configDir, integrityFiles); err != nil {
		fmt.Fprintf(os.Stderr, "Lock failed: %v\n", err)
		return 1
	}

	fmt.Printf("Locked configuration in %s\n", configDir)
	return 0
}

func runWatch(args []string) int {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	apiURL := fs.String("api", "http://127.0.0.1:8080", "Base URL of the status API")
	token := fs.String("token", os.Getenv("SITEKIT_API_TOKEN"), "Bearer token for the status API")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	model := watch.NewModel(strings.TrimRight(*apiURL, "/"), *token)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "watch failed: %v\n", err)
		return 1
	}
	return 0
}

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log.Setup(cfg.Service.LogLevel)
	logger := log.WithComponent("main")
	logger.Info("sitekit starting", "version", version, "config", *configPath,
		"domain", cfg.Site.Domain, "environment", cfg.Site.Environment)

	configDir := filepath.Dir(*configPath)
	if manifest, err := config.LoadChecksums(configDir); err == nil {
		if err := config.Verify(configDir, manifest, integrityFiles); err != nil {
			logger.Error("config integrity check failed", "error", err)
			return 1
		}
		logger.Info("config integrity verified")
	} else {
		logger.Warn("config integrity not verified", "reason", err)
	}

	pidPath := pidLockPath(cfg)
	pidLock, err := lock.Acquire(pidPath)
	if err != nil {
		logger.Error("failed to acquire PID lock (another instance may be running)",
			"path", pidPath, "error", err)
		return 1
	}
	defer pidLock.Release()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := storage.OpenSQLite(ctx, cfg.Ledger.Path)
	if err != nil {
		logger.Error("failed to open ledger database", "path", cfg.Ledger.Path, "error", err)
		return 1
	}
	defer db.Close()

	ldg := ledger.New(db)
	if cfg.Ledger.Retention > 0 {
		go pruneLoop(ctx, ldg, cfg.Ledger.Retention)
	}

	cacheClient, err := cache.New(cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB, cfg.Cache.KeyPrefix)
	if err != nil {
		logger.Error("failed to connect to cache", "addr", cfg.Cache.Addr, "error", err)
		return 1
	}
	defer cacheClient.Close()

	var contents api.ContentProvider
	if cfg.Database.URL != "" {
		repo, err := content.NewRepository(ctx, cfg.Database.URL, cfg.Site.Domain)
		if err != nil {
			logger.Error("failed to connect to content database", "error", err)
			return 1
		}
		defer repo.Close()
		contents = repo
	} else {
		logger.Warn("no content database configured, sitemap and RSS will be empty")
	}

	hub := events.NewHub(128)
	monitor := deploy.NewMonitor(deploy.NewClock(), hub)
	trigger := deploy.NewTrigger(cfg.Deploy, deploy.NewClock(), monitor, hub)
	defer trigger.Stop()

	dispatcher := revalidate.New(cacheClient)

	webhookServer := webhook.NewServer(cfg.Webhook, cfg.Site, cfg.Deploy.DebounceDelay,
		dispatcher, trigger, ldg, hub)
	apiServer := api.New(cfg.API, cfg.Site, monitor, trigger, contents, ldg, hub)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 2)

	go func() {
		if err := webhookServer.Start(ctx); err != nil && err != context.Canceled {
			errCh <- fmt.Errorf("webhook: %w", err)
		}
	}()
	go func() {
		if err := apiServer.Start(ctx); err != nil && err != context.Canceled {
			errCh <- fmt.Errorf("api: %w", err)
		}
	}()

	logger.Info("sitekit running (press Ctrl+C to stop)",
		"webhook_listen", cfg.Webhook.Listen, "api_listen", cfg.API.Listen)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	case err := <-errCh:
		logger.Error("component failed", "error", err)
		cancel()
		return 1
	}

	logger.Info("sitekit stopped")
	return 0
}

// pruneLoop periodically drops ledger entries older than the retention window.
func pruneLoop(ctx context.Context, ldg *ledger.Ledger, retention time.Duration) {
	logger := log.WithComponent("ledger")
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := ldg.Prune(ctx, retention); err != nil {
				logger.Warn("ledger prune failed", "error", err)
			}
		}
	}
}

func pidLockPath(cfg *config.Config) string {
	dir := filepath.Dir(cfg.Ledger.Path)
	base := filepath.Base(cfg.Ledger.Path)
	ext := filepath.Ext(base)
	return filepath.Join(dir, base[:len(base)-len(ext)]+".pid")
}
