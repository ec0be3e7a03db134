package storage

import (
	"context"

	"github.com/mcoot/towerduel/internal/model"
)

// Storage defines the interface for data that outlives a single battle
type Storage interface {
	// Catalog operations
	SaveCatalog(ctx context.Context, units []model.Unit) error
	GetCatalog(ctx context.Context) ([]model.Unit, error)

	// Battle history operations
	SaveBattleSummary(ctx context.Context, summary *model.BattleSummary) error
	GetBattleSummary(ctx context.Context, id model.BattleID) (*model.BattleSummary, error)
	ListBattleSummaries(ctx context.Context, limit int) ([]*model.BattleSummary, error)
}
