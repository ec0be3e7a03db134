package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/mcoot/towerduel/internal/api"
	"github.com/mcoot/towerduel/internal/dependencies/clock"
	"github.com/mcoot/towerduel/internal/dependencies/random"
	"github.com/mcoot/towerduel/internal/services/catalog"
	"github.com/mcoot/towerduel/internal/services/session"
	"github.com/mcoot/towerduel/internal/storage"
	"github.com/mcoot/towerduel/internal/storage/memory"
	redisstorage "github.com/mcoot/towerduel/internal/storage/redis"
	"github.com/mcoot/towerduel/internal/web/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// CatalogSourceStorage loads the catalog previously published to storage
const CatalogSourceStorage = "storage"

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Catalog    *catalog.Catalog
	Registry   *session.Registry
	Dispatcher *session.Dispatcher
	WebSocket  *ws.Handler

	logger *slog.Logger
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// HistoryLimit caps retained battle summaries for the memory backend
	HistoryLimit int
	// CatalogSource is a unit file, a directory of unit files, "storage",
	// or empty for the built-in catalog
	CatalogSource string
	// HandSize is the number of units dealt per battle (defaults to 5)
	HandSize int
	// AllowedOrigins restricts websocket upgrades (empty allows all)
	AllowedOrigins []string
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, err := NewStorage(cfg)
	if err != nil {
		return nil, err
	}

	cat, err := loadCatalog(ctx, cfg.CatalogSource, store)
	if err != nil {
		return nil, errors.Join(err, CloseStorage(store))
	}

	handSize := cfg.HandSize
	if handSize == 0 {
		handSize = session.DefaultHandSize
	}
	if handSize < 0 || handSize > cat.Len() {
		return nil, errors.Join(
			fmt.Errorf("hand size %d does not fit a catalog of %d units", handSize, cat.Len()),
			CloseStorage(store),
		)
	}

	app := newWithDependencies(store, clock.New(), random.New(), cat, handSize, ws.Config{AllowedOrigins: cfg.AllowedOrigins}, logger)
	logger.Info("application wired",
		slog.String("storage", storageTypeOf(cfg)),
		slog.Int("catalog_units", cat.Len()),
		slog.Int("hand_size", handSize))
	return app, nil
}

// NewStorage creates the storage backend selected by cfg
func NewStorage(cfg Config) (storage.Storage, error) {
	switch storageTypeOf(cfg) {
	case StorageTypeMemory:
		return memory.NewWithLimit(cfg.HistoryLimit), nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		return redisstorage.New(*cfg.RedisConfig)
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}
}

func storageTypeOf(cfg Config) string {
	if cfg.StorageType == "" {
		return StorageTypeMemory
	}
	return cfg.StorageType
}

func loadCatalog(ctx context.Context, source string, store storage.Storage) (*catalog.Catalog, error) {
	if source == CatalogSourceStorage {
		return catalog.LoadFromStorage(ctx, store)
	}
	return catalog.Load(source)
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	cat *catalog.Catalog,
	handSize int,
	wsCfg ws.Config,
	logger *slog.Logger,
) *App {
	registry := session.NewRegistry(cat, handSize, clk, rnd, logger)
	dispatcher := session.NewDispatcher(registry, store, logger)
	wsHandler := ws.NewHandler(dispatcher, rnd, logger, wsCfg)

	return &App{
		Storage:    store,
		Clock:      clk,
		Random:     rnd,
		Catalog:    cat,
		Registry:   registry,
		Dispatcher: dispatcher,
		WebSocket:  wsHandler,
		logger:     logger,
	}
}

// Router builds the HTTP handler serving the websocket endpoint and the JSON API
func (a *App) Router() http.Handler {
	return api.NewRouter(api.RouterConfig{
		Logger:    a.logger,
		Catalog:   a.Catalog,
		HandSize:  a.Registry.HandSize(),
		Registry:  a.Registry,
		Storage:   a.Storage,
		WebSocket: a.WebSocket,
	})
}

// Close releases the storage backend
func (a *App) Close() error {
	return CloseStorage(a.Storage)
}

// CloseStorage closes store if the backend holds connections
func CloseStorage(store storage.Storage) error {
	if closer, ok := store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
