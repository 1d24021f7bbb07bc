package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/forgeline/artifact-gateway/internal/adapters/anthropic"
	"github.com/forgeline/artifact-gateway/internal/adapters/groq"
	"github.com/forgeline/artifact-gateway/internal/adapters/openai"
	"github.com/forgeline/artifact-gateway/internal/config"
	"github.com/forgeline/artifact-gateway/internal/health"
	"github.com/forgeline/artifact-gateway/internal/registry"
	"github.com/forgeline/artifact-gateway/internal/routing"
	"github.com/forgeline/artifact-gateway/internal/server"
	"github.com/forgeline/artifact-gateway/internal/store"
)

var version = "dev"

// Application wires the gateway together: registry, health monitor, router,
// optional store, and the HTTP server.
type Application struct {
	config   *config.Config
	registry *registry.Registry
	monitor  *health.Monitor
	router   *routing.Router
	store    *store.Store
	server   *server.Server
	logger   *logrus.Logger
}

// NewApplication builds the application from configuration.
func NewApplication(configPath string) (*Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logrus.New()
	if err := setupLogger(logger, cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}

	reg := registry.New(logger)
	if err := registerAdapters(reg, cfg, logger); err != nil {
		return nil, fmt.Errorf("failed to register adapters: %w", err)
	}

	monitor := health.NewMonitor(reg, cfg.Router.HealthCheckInterval, logger)
	router := routing.NewRouter(reg, routing.DefaultPolicy(), cfg.Router.AttemptTimeout, logger)

	var st *store.Store
	if cfg.Store.Enabled {
		st, err = store.Open(cfg.Store.DSN, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
		logger.WithField("dsn", cfg.Store.DSN).Info("Artifact store opened")
	}

	srv, err := server.NewServer(router, reg, st, cfg.ToServerConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	return &Application{
		config:   cfg,
		registry: reg,
		monitor:  monitor,
		router:   router,
		store:    st,
		server:   srv,
		logger:   logger,
	}, nil
}

// Run starts the monitor and the HTTP server, then blocks until a shutdown
// signal arrives or the server fails.
func (app *Application) Run() error {
	app.logger.WithField("version", version).Info("Starting artifact gateway")

	// Closed last, after the server has stopped accepting requests.
	defer app.closeStore()

	app.monitor.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		app.logger.WithField("address", ":"+app.config.Server.Port).Info("HTTP server starting")
		if err := app.server.Start(); err != nil {
			serverErrors <- fmt.Errorf("server failed: %w", err)
		}
	}()

	select {
	case err := <-serverErrors:
		app.monitor.Stop()
		return err
	case sig := <-sigChan:
		app.logger.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	app.logger.Info("Starting graceful shutdown")

	app.monitor.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.server.Stop(shutdownCtx); err != nil {
		app.logger.WithError(err).Error("Server shutdown error")
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	app.logger.Info("Graceful shutdown completed")
	return nil
}

func (app *Application) closeStore() {
	if app.store == nil {
		return
	}
	if err := app.store.Close(); err != nil {
		app.logger.WithError(err).Error("Store close error")
	}
}

// setupLogger configures the logger based on configuration.
func setupLogger(logger *logrus.Logger, cfg config.LoggingConfig) error {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %s: %w", cfg.Level, err)
	}
	logger.SetLevel(level)

	switch cfg.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	default:
		return fmt.Errorf("invalid log format: %s", cfg.Format)
	}

	switch cfg.Output {
	case "stdout":
		logger.SetOutput(os.Stdout)
	case "stderr":
		logger.SetOutput(os.Stderr)
	default:
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return fmt.Errorf("failed to open log file %s: %w", cfg.Output, err)
		}
		logger.SetOutput(file)
	}

	return nil
}

// registerAdapters registers every adapter that has credentials configured.
// Registration errors are fatal; a duplicate name at startup means the
// configuration is wrong.
func registerAdapters(reg *registry.Registry, cfg *config.Config, logger *logrus.Logger) error {
	registered := 0

	if cfg.Adapters.FastInference != nil && cfg.Adapters.FastInference.APIKey != "" {
		a := groq.New(cfg.Adapters.FastInference, logger)
		if err := reg.Register(a.Name(), a); err != nil {
			return err
		}
		registered++
	}

	if cfg.Adapters.GeneralPurpose != nil && cfg.Adapters.GeneralPurpose.APIKey != "" {
		a := openai.New(cfg.Adapters.GeneralPurpose, logger)
		if err := reg.Register(a.Name(), a); err != nil {
			return err
		}
		registered++
	}

	if cfg.Adapters.CodeSpecialist != nil && cfg.Adapters.CodeSpecialist.APIKey != "" {
		a := anthropic.New(cfg.Adapters.CodeSpecialist, logger)
		if err := reg.Register(a.Name(), a); err != nil {
			return err
		}
		registered++
	}

	if registered == 0 {
		return fmt.Errorf("no adapters were registered - check your configuration and API keys")
	}

	logger.WithField("count", registered).Info("Adapter registration completed")
	return nil
}

// printUsage prints application usage information.
func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "\nOptions:\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
	fmt.Fprintf(os.Stderr, "  OPENAI_API_KEY       OpenAI API key (general-purpose)\n")
	fmt.Fprintf(os.Stderr, "  ANTHROPIC_API_KEY    Anthropic API key (code-specialist)\n")
	fmt.Fprintf(os.Stderr, "  GROQ_API_KEY         Groq API key (fast-inference)\n")
	fmt.Fprintf(os.Stderr, "  GATEWAY_PORT         Server port (default: 8080)\n")
	fmt.Fprintf(os.Stderr, "  GATEWAY_LOG_LEVEL    Log level (debug,info,warn,error,fatal)\n")
	fmt.Fprintf(os.Stderr, "  GATEWAY_LOG_FORMAT   Log format (json,text)\n")
	fmt.Fprintf(os.Stderr, "  GATEWAY_STORE_DSN    SQLite DSN for the artifact store\n")
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  %s --config configs/config.yaml\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "  OPENAI_API_KEY=sk-xxx GROQ_API_KEY=gsk-xxx %s\n", os.Args[0])
}

func main() {
	var (
		configPath  = flag.String("config", "", "Path to configuration file")
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showHelp {
		printUsage()
		os.Exit(0)
	}

	if *showVersion {
		fmt.Printf("artifact-gateway %s\n", version)
		os.Exit(0)
	}

	app, err := NewApplication(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	if err := app.Run(); err != nil {
		app.logger.WithError(err).Fatal("Application error")
	}
}
