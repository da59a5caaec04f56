package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/tb0hdan/odoo-query-mcp/pkg/cache"
	"github.com/tb0hdan/odoo-query-mcp/pkg/catalog"
	"github.com/tb0hdan/odoo-query-mcp/pkg/config"
	"github.com/tb0hdan/odoo-query-mcp/pkg/odoo"
	"github.com/tb0hdan/odoo-query-mcp/pkg/period"
	"github.com/tb0hdan/odoo-query-mcp/pkg/server"
	"github.com/tb0hdan/odoo-query-mcp/pkg/skills"
	"github.com/tb0hdan/odoo-query-mcp/pkg/storage"
	"github.com/tb0hdan/odoo-query-mcp/pkg/telemetry"
	"github.com/tb0hdan/odoo-query-mcp/pkg/tools"
	"github.com/tb0hdan/odoo-query-mcp/pkg/tools/history"
	"github.com/tb0hdan/odoo-query-mcp/pkg/tools/periodtool"
	"github.com/tb0hdan/odoo-query-mcp/pkg/tools/skilltool"
)

const (
	ServerName      = "odoo-query-mcp"
	ServiceName     = "Odoo ERP Query MCP Server"
	ShutdownTimeout = 10 * time.Second
)

//go:embed VERSION
var Version string

func main() {
	var (
		configPath   string
		debug        bool
		bindAddr     string
		dbPath       string
		printVersion bool
	)
	flag.StringVar(&configPath, "config", "", "YAML configuration file")
	flag.BoolVar(&debug, "debug", false, "debug mode")
	flag.StringVar(&bindAddr, "bind", "", "bind address (host:port), overrides server.bind")
	flag.StringVar(&dbPath, "db", "", "SQLite database file path, overrides storage.path")
	flag.BoolVar(&printVersion, "version", false, "print version and exit")
	flag.Parse()
	// Sanitize version
	version := strings.TrimSpace(Version)
	if printVersion {
		fmt.Printf("%s Version: %s\n", ServiceName, version)
		os.Exit(0)
	}

	signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal().Msgf("Failed to load configuration: %v", err)
	}
	if bindAddr != "" {
		cfg.Server.Bind = bindAddr
	}
	if dbPath != "" {
		cfg.Storage.Path = dbPath
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		logger.Debug().Msg("debug mode enabled")
	}

	shutdownTelemetry, err := telemetry.Init(ServerName, version, telemetry.Config{
		Exporter: cfg.Telemetry.Exporter,
		Interval: cfg.Telemetry.Interval,
	})
	if err != nil {
		logger.Fatal().Msgf("Failed to initialize telemetry: %v", err)
	}
	metrics, err := telemetry.NewMetrics(nil)
	if err != nil {
		logger.Fatal().Msgf("Failed to create metrics: %v", err)
	}

	engine, err := newEngine(cfg, logger, metrics)
	if err != nil {
		logger.Fatal().Msgf("Failed to build skill engine: %v", err)
	}

	store, err := storage.NewSQLiteStorage(storage.Config{
		DatabasePath: cfg.Storage.Path,
		Debug:        debug,
	})
	if err != nil {
		logger.Fatal().Msgf("Failed to initialize storage: %v", err)
	}
	logger.Info().Msgf("Database initialized at %s", cfg.Storage.Path)

	impl := &mcp.Implementation{
		Name:    ServerName,
		Version: version,
	}
	srv := server.NewServer(impl, store, logger)

	resolver := cfg.Resolver()
	if len(resolver.Tenants()) == 0 {
		logger.Warn().Msg("No ERP credentials configured, every skill will fail with AUTH_ERROR")
	}

	toolList := []tools.Tool{
		skilltool.New(logger, engine, resolver, resolver.Fallback()),
		periodtool.New(logger, engine.Runtime().Parser(), engine.Runtime().Now),
		history.New(logger),
	}
	for _, tool := range toolList {
		if err := tool.Register(srv); err != nil {
			logger.Error().Msgf("Failed to register tool: %v", err)
		}
	}
	logger.Info().
		Int("skills", engine.Registry().Len()).
		Strs("tenants", resolver.Tenants()).
		Msg("Skills registered")

	// Stateless mode avoids "session not found" errors after server restart
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return &srv.Server
	}, &mcp.StreamableHTTPOptions{
		Stateless: true,
	})

	mux := http.NewServeMux()
	mux.Handle("/mcp", handler)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"service": ServiceName,
			"version": version,
			"skills":  engine.Registry().Names(),
			"endpoints": map[string]string{
				"mcp": "/mcp",
			},
		})
	})

	httpServer := &http.Server{
		Addr:              cfg.Server.Bind,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info().Msgf("%s starting on address %s", ServiceName, cfg.Server.Bind)
	logger.Info().Msgf("MCP endpoint available at: http://%s/mcp", cfg.Server.Bind)

	go func() {
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Msgf("%s failed to start: %v", ServerName, err)
		}
	}()
	<-signalCtx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error().Msgf("HTTP shutdown error: %v", err)
	}
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Msgf("%s shutdown error: %v", ServiceName, err)
	} else {
		logger.Info().Msgf("%s shutdown complete", ServiceName)
	}
	if err := shutdownTelemetry(ctx); err != nil {
		logger.Error().Msgf("Telemetry shutdown error: %v", err)
	}
}

// newEngine wires the ERP pool, cache, period parser and skill catalog.
func newEngine(cfg *config.Config, logger zerolog.Logger, metrics *telemetry.Metrics) (*skills.Engine, error) {
	clientOpts := []odoo.Option{
		odoo.WithRetryPolicy(cfg.RetryPolicy()),
		odoo.WithLogger(logger),
		odoo.WithMetrics(metrics),
	}
	if cfg.Odoo.Timeout > 0 {
		clientOpts = append(clientOpts, odoo.WithHTTPClient(&http.Client{Timeout: cfg.Odoo.Timeout}))
	}
	pool := odoo.NewPool(clientOpts...)

	opts := []skills.RuntimeOption{
		skills.WithLogger(logger.With().Str("component", "skills").Logger()),
		skills.WithMetrics(metrics),
		skills.WithParser(period.NewParser(period.WithAmbiguityPolicy(cfg.AmbiguityPolicy()))),
	}
	if cfg.Cache.Enabled {
		c, err := cache.New(cfg.Cache.Capacity, cfg.Cache.TTL)
		if err != nil {
			return nil, fmt.Errorf("failed to create cache: %w", err)
		}
		opts = append(opts, skills.WithCache(c, cfg.Cache.TTL))
	}

	registry, err := catalog.Registry()
	if err != nil {
		return nil, err
	}
	return skills.NewEngine(registry, skills.NewRuntime(pool, opts...)), nil
}
