package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/novantia/pressgate/internal/config"
	"github.com/novantia/pressgate/internal/ingest"
	"github.com/novantia/pressgate/internal/log"
	"github.com/novantia/pressgate/internal/store"
	"github.com/novantia/pressgate/internal/tui/watch"
	"github.com/novantia/pressgate/internal/webhook"
)

const version = "0.3.0"

func main() {
	// Local development convenience; absence of a .env file is fine.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "serve":
		os.Exit(runServe(args))
	case "doctor":
		os.Exit(runDoctor(args))
	case "watch":
		os.Exit(runWatch(args))
	case "version":
		fmt.Printf("pressgate version %s\n", version)
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
	fmt.Print(`pressgate - webhook ingestion gateway for publisher push notifications

Usage:
  pressgate <command> [flags]

Commands:
  serve     Run the webhook service in the foreground
  doctor    Validate configuration and probe the shared store
  watch     Live terminal monitor for a running instance
  version   Show version information
  help      Show this help message

Use 'pressgate <command> --help' for command-specific flags.
`)
}

func runServe(args []string) int {
	configPath, ok := parseConfigFlag("serve", args)
	if !ok {
		return 1
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	log.Setup(cfg.LogLevel)
	logger := log.WithComponent("serve")

	if cfg.Webhook.Secret == "" {
		logger.Warn("no webhook secret configured: every request will be rejected")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, storeOptions(cfg))
	if err != nil {
		logger.Error("failed to open shared store", "backend", cfg.Store.Backend, "error", err)
		return 1
	}
	if st != nil {
		defer st.Close()
		logger.Info("shared store ready", "backend", st.Name())
	} else {
		logger.Warn("running without a shared store: rate limiting and replay detection fail open")
	}

	handler, closeHandler, err := buildIngestHandler(cfg)
	if err != nil {
		logger.Error("failed to build ingest sink", "sink", cfg.Ingest.Sink, "error", err)
		return 1
	}
	if closeHandler != nil {
		defer closeHandler()
	}

	server := webhook.New(webhook.FromGlobalConfig(cfg), st, handler, log.WithComponent("webhook"))
	if err := server.Start(ctx); err != nil && err != context.Canceled {
		logger.Error("server exited", "error", err)
		return 1
	}
	return 0
}

func runDoctor(args []string) int {
	configPath, ok := parseConfigFlag("doctor", args)
	if !ok {
		return 1
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("✗ configuration: %v\n", err)
		return 1
	}
	fmt.Println("✓ configuration parses and validates")

	failures := 0

	if cfg.Webhook.Secret == "" {
		fmt.Println("✗ webhook secret is empty (all requests will be rejected)")
		failures++
	} else {
		fmt.Println("✓ webhook secret configured")
	}

	ctx := context.Background()
	st, err := store.Open(ctx, storeOptions(cfg))
	switch {
	case err != nil:
		fmt.Printf("✗ shared store (%s): %v\n", cfg.Store.Backend, err)
		failures++
	case st == nil:
		fmt.Println("- shared store: not configured (rate limiting and replay detection fail open)")
	default:
		defer st.Close()
		if err := st.Ping(ctx); err != nil {
			fmt.Printf("✗ shared store (%s): %v\n", st.Name(), err)
			failures++
		} else {
			fmt.Printf("✓ shared store reachable (%s)\n", st.Name())
		}
	}

	if cfg.Ingest.Sink == "kafka" {
		handler, closeHandler, err := buildIngestHandler(cfg)
		if err != nil {
			fmt.Printf("✗ kafka sink: %v\n", err)
			failures++
		} else {
			_ = handler
			if closeHandler != nil {
				closeHandler()
			}
			fmt.Printf("✓ kafka sink reachable (topic %s)\n", cfg.Ingest.KafkaTopic)
		}
	}

	if failures > 0 {
		fmt.Printf("\n%d check(s) failed\n", failures)
		return 1
	}
	fmt.Println("\nall checks passed")
	return 0
}

func runWatch(args []string) int {
	var configPath, url, secret string

	fs := newFlagSet("watch")
	fs.StringVar(&configPath, "config", "", "Path to configuration file")
	fs.StringVar(&url, "url", "", "Base URL of a running instance (default from config listen address)")
	fs.StringVar(&secret, "secret", "", "Webhook secret (default from config)")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if url == "" {
		url = "http://" + cfg.Listen
	}
	if secret == "" {
		secret = cfg.Webhook.Secret
	}

	if err := watch.Run(url, secret); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func storeOptions(cfg *config.Config) store.Options {
	return store.Options{
		Backend:    cfg.Store.Backend,
		RedisAddr:  cfg.Store.RedisAddr,
		RedisPass:  cfg.Store.RedisPassword,
		RedisDB:    cfg.Store.RedisDB,
		SQLitePath: cfg.Store.SQLitePath,
	}
}

func buildIngestHandler(cfg *config.Config) (webhook.ArticleHandler, func(), error) {
	switch cfg.Ingest.Sink {
	case "kafka":
		h, err := ingest.NewKafkaHandler(cfg.Ingest.KafkaBrokers, cfg.Ingest.KafkaTopic, log.WithComponent("ingest"))
		if err != nil {
			return nil, nil, err
		}
		return h, func() { _ = h.Close() }, nil
	default:
		return ingest.NewLogHandler(log.WithComponent("ingest")), nil, nil
	}
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

func parseConfigFlag(name string, args []string) (string, bool) {
	var configPath string
	fs := newFlagSet(name)
	fs.StringVar(&configPath, "config", "", "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		return "", false
	}
	return configPath, true
}
