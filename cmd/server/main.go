package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mcoot/towerduel/internal/api"
	"github.com/mcoot/towerduel/internal/config"
	"github.com/mcoot/towerduel/internal/factory"
	redisstorage "github.com/mcoot/towerduel/internal/storage/redis"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// flags overrides environment configuration for flags set on the command line
type flags struct {
	envFile     string
	host        string
	port        int
	logLevel    string
	catalog     string
	handSize    int
	storageType string
	redisURL    string
}

func newRootCmd() *cobra.Command {
	var f flags

	rootCmd := &cobra.Command{
		Use:   "towerduel",
		Short: "Run the towerduel session server",
		Long: `towerduel serves the lobby and battle websocket at /ws and a small JSON API
under /api/v1. Settings come from the environment (optionally a .env file);
flags override them.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd, f)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, logger)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&f.envFile, "env-file", config.DefaultDotenv, "Dotenv file to load if present")
	pf.StringVar(&f.host, "host", "", "Listen host (env: TOWERDUEL_HOST)")
	pf.IntVar(&f.port, "port", 0, "Listen port (env: TOWERDUEL_PORT)")
	pf.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error (env: TOWERDUEL_LOG_LEVEL)")
	pf.StringVar(&f.catalog, "catalog", "", `Unit file, directory, or "storage" (env: TOWERDUEL_CATALOG)`)
	pf.IntVar(&f.handSize, "hand-size", 0, "Units dealt per battle (env: TOWERDUEL_HAND_SIZE)")
	pf.StringVar(&f.storageType, "storage", "", "Storage backend: memory, redis (env: STORAGE_TYPE)")
	pf.StringVar(&f.redisURL, "redis-url", "", "Redis URL (env: REDIS_URL)")

	rootCmd.AddCommand(newCatalogCmd(&f))

	return rootCmd
}

// setup loads configuration, applies flag overrides and builds the logger
func setup(cmd *cobra.Command, f flags) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(f.envFile)
	if err != nil {
		return config.Config{}, nil, err
	}

	changed := cmd.Flags().Changed
	if changed("host") {
		cfg.Host = f.host
	}
	if changed("port") {
		cfg.Port = f.port
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if changed("catalog") {
		cfg.Catalog = f.catalog
	}
	if changed("hand-size") {
		cfg.HandSize = f.handSize
	}
	if changed("storage") {
		cfg.StorageType = f.storageType
	}
	if changed("redis-url") {
		cfg.RedisURL = f.redisURL
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	level, _ := cfg.Level()

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return cfg, logger, nil
}

func factoryConfig(cfg config.Config, logger *slog.Logger) factory.Config {
	fc := factory.Config{
		Logger:         logger,
		StorageType:    cfg.StorageType,
		HistoryLimit:   cfg.HistoryLimit,
		CatalogSource:  cfg.Catalog,
		HandSize:       cfg.HandSize,
		AllowedOrigins: cfg.AllowedOrigins,
	}
	if cfg.StorageType == config.StorageRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		redisCfg.HistoryLimit = cfg.HistoryLimit
		fc.RedisConfig = &redisCfg
	}
	return fc
}

func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := factory.New(ctx, factoryConfig(cfg, logger))
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("failed to close storage", slog.String("error", err.Error()))
		}
	}()

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.Host
	serverConfig.Port = cfg.Port
	server := api.NewServer(app.Router(), serverConfig, logger)
	server.OnShutdown(app.WebSocket.CloseAll)

	// The dispatcher outlives the HTTP server so disconnects from the
	// shutdown are still handled
	dispatchCtx, stopDispatch := context.WithCancel(context.WithoutCancel(ctx))
	defer stopDispatch()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.Dispatcher.Run(dispatchCtx)
	})
	g.Go(func() error {
		return server.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		defer stopDispatch()
		logger.Info("shutdown signal received")
		return server.Shutdown(context.WithoutCancel(gctx))
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("server stopped")
	return nil
}
