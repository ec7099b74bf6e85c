package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/baditaflorin/go_prompt_score/internal/adapters/generator"
	"github.com/baditaflorin/go_prompt_score/internal/adapters/logger"
	"github.com/baditaflorin/go_prompt_score/internal/adapters/store"
	"github.com/baditaflorin/go_prompt_score/internal/config"
	"github.com/baditaflorin/go_prompt_score/internal/game"
	"github.com/baditaflorin/go_prompt_score/internal/ports"
	"github.com/baditaflorin/go_prompt_score/pkg/scoring"
	"github.com/baditaflorin/l"
	"github.com/valyala/fasthttp"
)

// Default configuration
const (
	DefaultPort           = 8080
	DefaultReadTimeout    = 30 * time.Second
	DefaultWriteTimeout   = 60 * time.Second
	DefaultMaxRequestSize = 1024 * 1024 // 1MB
	DefaultConcurrency    = 0           // 0 means fasthttp's default
)

func main() {
	port := flag.Int("port", DefaultPort, "HTTP server port")
	readTimeout := flag.Duration("read-timeout", DefaultReadTimeout, "HTTP read timeout")
	writeTimeout := flag.Duration("write-timeout", DefaultWriteTimeout, "HTTP write timeout")
	maxRequestSize := flag.Int("max-request-size", DefaultMaxRequestSize, "Maximum request size in bytes")
	concurrency := flag.Int("concurrency", DefaultConcurrency, "Maximum number of concurrent connections (0 = default)")
	envFile := flag.String("env-file", ".env", "Optional .env file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := createLogger(cfg.LogFile, cfg.LogJSON)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting prompt scoring server",
		"port", *port,
		"read_timeout", *readTimeout,
		"write_timeout", *writeTimeout,
		"max_request_size", *maxRequestSize,
		"store", cfg.Store.Driver,
		"policy_file", cfg.PolicyFile,
	)

	srv, cleanup, err := buildServer(cfg, log)
	if err != nil {
		log.Error("Failed to initialize server", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	server := &fasthttp.Server{
		Handler:               srv.handle,
		Name:                  "PromptScoreServer",
		ReadTimeout:           *readTimeout,
		WriteTimeout:          *writeTimeout,
		MaxRequestBodySize:    *maxRequestSize,
		Concurrency:           *concurrency,
		TCPKeepalive:          true,
		TCPKeepalivePeriod:    3 * time.Minute,
		MaxIdleWorkerDuration: 10 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Info("Shutting down server...")
		if err := server.Shutdown(); err != nil {
			log.Error("Error during server shutdown", "error", err)
		}
		close(idleConnsClosed)
	}()

	addr := fmt.Sprintf(":%d", *port)
	log.Info("Server listening", "address", addr)
	if err := server.ListenAndServe(addr); err != nil {
		log.Error("Server error", "error", err)
		return
	}

	<-idleConnsClosed
	log.Info("Server stopped")
}

// buildServer wires the engine, the session store and the generator from cfg.
// The game endpoints are disabled when no store is configured.
func buildServer(cfg config.Config, log l.Logger) (*server, func(), error) {
	opts := []scoring.Option{
		scoring.WithLogger(log),
		scoring.WithPhraseConfig(cfg.Policy.Phrase),
		scoring.WithArtConfig(cfg.Policy.Art),
		scoring.WithWarmUp(cfg.WarmUp),
	}
	if cfg.Optimized {
		opts = append(opts, scoring.WithOptimizedNormalizer())
	}
	engine, err := scoring.New(opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("scoring engine: %w", err)
	}

	portsLog := logger.FromExisting(log)
	srv := &server{engine: engine, catalog: game.DefaultCatalog(), logger: log}

	var st ports.SessionStore
	switch cfg.Store.Driver {
	case config.StoreSQLite:
		st, err = store.NewSQLite(cfg.Store.SQLitePath, portsLog)
	case config.StoreSupabase:
		st, err = store.NewSupabase(cfg.Store.SupabaseURL, cfg.Store.SupabaseKey, portsLog)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("session store: %w", err)
	}
	cleanup := func() {}
	if st == nil {
		log.Warn("No session store configured, game endpoints disabled")
		return srv, cleanup, nil
	}
	cleanup = func() {
		if err := st.Close(); err != nil {
			log.Error("Error closing session store", "error", err)
		}
	}

	gameOpts := []game.Option{game.WithCatalog(srv.catalog)}
	if cfg.Generator.APIKey != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		gen, err := generator.NewGemini(ctx, cfg.Generator, portsLog)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("generator: %w", err)
		}
		gameOpts = append(gameOpts, game.WithGenerator(gen))
	} else {
		log.Warn("GEMINI_API_KEY not set, /play is disabled")
	}

	srv.game = game.NewService(engine.PhraseScorer(), engine.ArtScorer(), st, portsLog, gameOpts...)
	log.Info("Game service initialized",
		"store", cfg.Store.Driver,
		"model", cfg.Generator.Model,
		"cpus", runtime.NumCPU(),
	)
	return srv, cleanup, nil
}

// createLogger creates and configures a logger
func createLogger(logFile string, jsonFormat bool) (l.Logger, error) {
	factory := l.NewStandardFactory()

	var output io.Writer = os.Stdout
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		output = file
	}

	logger, err := factory.CreateLogger(l.Config{
		Output:      output,
		JsonFormat:  jsonFormat,
		AsyncWrite:  true,
		BufferSize:  1024 * 1024,       // 1MB
		MaxFileSize: 100 * 1024 * 1024, // 100MB
		MaxBackups:  5,
		AddSource:   true,
		Metrics:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return logger, nil
}
