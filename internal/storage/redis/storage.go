package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/towerduel/internal/model"
	"github.com/mcoot/towerduel/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Catalog operations

func (s *Storage) SaveCatalog(ctx context.Context, units []model.Unit) error {
	data, err := json.Marshal(units)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, catalogKey(), data, 0).Err()
}

func (s *Storage) GetCatalog(ctx context.Context) ([]model.Unit, error) {
	data, err := s.client.Get(ctx, catalogKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, model.ErrCatalogNotStored
	}
	if err != nil {
		return nil, err
	}

	var units []model.Unit
	if err := json.Unmarshal(data, &units); err != nil {
		return nil, err
	}
	return units, nil
}

// Battle history operations

func (s *Storage) SaveBattleSummary(ctx context.Context, summary *model.BattleSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}

	key := battleKey(summary.ID)
	indexKey := battleIndexKey()

	// Save the summary and push it onto the bounded index atomically
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, key, data, s.cfg.BattleTTL)
	pipe.LRem(ctx, indexKey, 0, string(summary.ID))
	pipe.LPush(ctx, indexKey, string(summary.ID))
	if s.cfg.HistoryLimit > 0 {
		pipe.LTrim(ctx, indexKey, 0, int64(s.cfg.HistoryLimit-1))
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetBattleSummary(ctx context.Context, id model.BattleID) (*model.BattleSummary, error) {
	data, err := s.client.Get(ctx, battleKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, model.ErrBattleNotFound
	}
	if err != nil {
		return nil, err
	}

	var summary model.BattleSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (s *Storage) ListBattleSummaries(ctx context.Context, limit int) ([]*model.BattleSummary, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}

	ids, err := s.client.LRange(ctx, battleIndexKey(), 0, stop).Result()
	if err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return []*model.BattleSummary{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = battleKey(model.BattleID(id))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	summaries := make([]*model.BattleSummary, 0, len(values))
	for _, val := range values {
		if val == nil {
			continue // Summary may have expired
		}
		var summary model.BattleSummary
		if err := json.Unmarshal([]byte(val.(string)), &summary); err != nil {
			continue // Skip invalid data
		}
		summaries = append(summaries, &summary)
	}

	return summaries, nil
}
