package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/mcoot/towerduel/internal/model"
	"github.com/mcoot/towerduel/internal/storage"
)

// DefaultHistoryLimit caps how many battle summaries are retained
const DefaultHistoryLimit = 1000

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	catalog      []model.Unit
	summaries    map[model.BattleID]*model.BattleSummary
	order        []model.BattleID // oldest first
	historyLimit int
}

// New creates a new in-memory storage instance
func New() *Storage {
	return NewWithLimit(DefaultHistoryLimit)
}

// NewWithLimit creates an in-memory storage retaining at most limit summaries
func NewWithLimit(limit int) *Storage {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &Storage{
		summaries:    make(map[model.BattleID]*model.BattleSummary),
		historyLimit: limit,
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Catalog operations

func (s *Storage) SaveCatalog(ctx context.Context, units []model.Unit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = slices.Clone(units)
	return nil
}

func (s *Storage) GetCatalog(ctx context.Context) ([]model.Unit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.catalog == nil {
		return nil, model.ErrCatalogNotStored
	}
	return slices.Clone(s.catalog), nil
}

// Battle history operations

func (s *Storage) SaveBattleSummary(ctx context.Context, summary *model.BattleSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *summary
	if _, exists := s.summaries[summary.ID]; !exists {
		s.order = append(s.order, summary.ID)
	}
	s.summaries[summary.ID] = &stored

	for len(s.order) > s.historyLimit {
		delete(s.summaries, s.order[0])
		s.order = s.order[1:]
	}
	return nil
}

func (s *Storage) GetBattleSummary(ctx context.Context, id model.BattleID) (*model.BattleSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summary, ok := s.summaries[id]
	if !ok {
		return nil, model.ErrBattleNotFound
	}
	result := *summary
	return &result, nil
}

func (s *Storage) ListBattleSummaries(ctx context.Context, limit int) ([]*model.BattleSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.order) {
		limit = len(s.order)
	}
	result := make([]*model.BattleSummary, 0, limit)
	for i := len(s.order) - 1; i >= 0 && len(result) < limit; i-- {
		summary := *s.summaries[s.order[i]]
		result = append(result, &summary)
	}
	return result, nil
}
